package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/models"
)

const (
	// DefaultMapboxBaseURL is the public Mapbox API endpoint.
	DefaultMapboxBaseURL = "https://api.mapbox.com"
	// DefaultProfile plans walking trips.
	DefaultProfile = "walking"
)

// MapboxPlanner uses the Mapbox Optimization v1 API.
type MapboxPlanner struct {
	baseURL     string
	accessToken string
	profile     string
	httpClient  *http.Client
}

// NewMapboxPlanner creates a planner. Empty baseURL and profile select the defaults.
func NewMapboxPlanner(baseURL, accessToken, profile string, httpClient *http.Client) *MapboxPlanner {
	if baseURL == "" {
		baseURL = DefaultMapboxBaseURL
	}
	if profile == "" {
		profile = DefaultProfile
	}
	return &MapboxPlanner{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		profile:     profile,
		httpClient:  defaultHTTPClient(httpClient),
	}
}

// PlanRoute requests an optimized round trip starting at home.
func (p *MapboxPlanner) PlanRoute(ctx context.Context, locations []*models.Location) (*models.Trip, error) {
	ordered := RequestOrder(locations)
	if len(ordered) < 2 {
		return nil, ErrTooFewLocations
	}

	params := url.Values{}
	params.Set("access_token", p.accessToken)
	params.Set("geometries", "geojson")
	reqURL := fmt.Sprintf("%s/optimized-trips/v1/mapbox/%s/%s?%s",
		p.baseURL, p.profile, coordinatePath(ordered), params.Encode())

	log.WithFields(log.Fields{
		"provider":  "mapbox",
		"profile":   p.profile,
		"locations": len(ordered),
	}).Debug("Requesting optimized trip")

	return fetchTrip(ctx, p.httpClient, "mapbox", reqURL, ordered)
}
