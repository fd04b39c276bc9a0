// Package providers builds the geocoder, route planner and event publisher
// selected by the configuration.
package providers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/config"
	"github.com/ukydev/trip-planner/internal/events"
	"github.com/ukydev/trip-planner/internal/geocode"
	"github.com/ukydev/trip-planner/internal/routing"
)

// Geocoder returns the configured geocoder, wrapped in an LRU cache when
// GeocodeCacheSize is positive.
func Geocoder(cfg *config.Config) (geocode.Geocoder, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var g geocode.Geocoder
	switch cfg.Geocoder {
	case config.ProviderMapbox:
		g = geocode.NewMapboxClient(cfg.MapboxBaseURL, cfg.MapboxToken, client)
	case config.ProviderNominatim:
		g = geocode.NewNominatimClient(cfg.NominatimBaseURL, client)
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.Geocoder)
	}

	if cfg.GeocodeCacheSize <= 0 {
		return g, nil
	}
	cached, err := geocode.NewCached(g, cfg.GeocodeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	return cached, nil
}

// Planner returns the configured route planner.
func Planner(cfg *config.Config) (routing.Planner, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	switch cfg.Router {
	case config.ProviderMapbox:
		return routing.NewMapboxPlanner(cfg.MapboxBaseURL, cfg.MapboxToken, cfg.RouteProfile, client), nil
	case config.ProviderOSRM:
		return routing.NewOSRMPlanner(cfg.OSRMBaseURL, cfg.RouteProfile, client), nil
	default:
		return nil, fmt.Errorf("unknown router %q", cfg.Router)
	}
}

// Publisher connects every configured broker. With none configured it
// returns a no-op publisher.
func Publisher(cfg *config.Config) (events.Publisher, error) {
	var pubs events.Multi

	if cfg.MQTTBroker != "" {
		p, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, "trip-planner-"+uuid.NewString()[:8])
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	if cfg.KafkaBroker != "" {
		pubs = append(pubs, events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic))
	}

	switch len(pubs) {
	case 0:
		log.Info("No event broker configured, trip events are discarded")
		return events.Noop{}, nil
	case 1:
		return pubs[0], nil
	default:
		return pubs, nil
	}
}
