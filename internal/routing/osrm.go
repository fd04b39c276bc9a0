package routing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/models"
)

// DefaultOSRMBaseURL is the public OSRM demo server.
const DefaultOSRMBaseURL = "https://router.project-osrm.org"

// OSRMPlanner uses the OSRM trip service. Its response has the same shape
// as the Mapbox Optimization API.
type OSRMPlanner struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewOSRMPlanner creates a planner. The OSRM name of the walking profile is "foot".
func NewOSRMPlanner(baseURL, profile string, httpClient *http.Client) *OSRMPlanner {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if profile == "" || profile == DefaultProfile {
		profile = "foot"
	}
	return &OSRMPlanner{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    profile,
		httpClient: defaultHTTPClient(httpClient),
	}
}

// PlanRoute requests a round trip that starts at the first location.
func (p *OSRMPlanner) PlanRoute(ctx context.Context, locations []*models.Location) (*models.Trip, error) {
	ordered := RequestOrder(locations)
	if len(ordered) < 2 {
		return nil, ErrTooFewLocations
	}

	reqURL := fmt.Sprintf("%s/trip/v1/%s/%s?geometries=geojson&overview=full&source=first",
		p.baseURL, p.profile, coordinatePath(ordered))

	log.WithFields(log.Fields{
		"provider":  "osrm",
		"profile":   p.profile,
		"locations": len(ordered),
	}).Debug("Requesting optimized trip")

	return fetchTrip(ctx, p.httpClient, "osrm", reqURL, ordered)
}
