// Package routing requests an optimized visiting order and path geometry
// for a set of resolved locations from an external trip service.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/ukydev/trip-planner/internal/models"
)

var (
	// ErrTooFewLocations means fewer than two resolved locations exist; no request is made.
	ErrTooFewLocations = errors.New("routing: at least two resolved locations are required")
	// ErrNoTrip means the service answered successfully but returned no trip.
	ErrNoTrip = errors.New("routing: no trip in response")
)

// StatusError reports a non-2xx response from the trip service.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("routing: %s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("routing: %s returned status %d", e.Provider, e.StatusCode)
}

// Planner plans a round trip through the given locations.
type Planner interface {
	PlanRoute(ctx context.Context, locations []*models.Location) (*models.Trip, error)
}

// DefaultTimeout bounds a single plan request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// RequestOrder returns the resolved locations in the order they are sent to
// the trip service: home first, the rest by identifier.
func RequestOrder(locations []*models.Location) []*models.Location {
	out := make([]*models.Location, 0, len(locations))
	for _, l := range locations {
		if l != nil && l.HasCoordinates() {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsHome() != b.IsHome() {
			return a.IsHome()
		}
		return a.ID < b.ID
	})
	return out
}

// coordinatePath renders "lon,lat;lon,lat;..." for the request path.
func coordinatePath(locations []*models.Location) string {
	parts := make([]string, 0, len(locations))
	for _, l := range locations {
		parts = append(parts,
			strconv.FormatFloat(*l.Longitude, 'f', -1, 64)+","+
				strconv.FormatFloat(*l.Latitude, 'f', -1, 64))
	}
	return strings.Join(parts, ";")
}

// tripResponse is the envelope shared by the Mapbox Optimization v1 and
// OSRM trip services.
type tripResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Trips   []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"trips"`
	Waypoints []struct {
		WaypointIndex int       `json:"waypoint_index"`
		TripsIndex    int       `json:"trips_index"`
		Location      []float64 `json:"location"`
		Name          string    `json:"name"`
	} `json:"waypoints"`
}

// fetchTrip issues the GET and converts the first trip of the response.
func fetchTrip(ctx context.Context, httpClient *http.Client, provider, reqURL string, ordered []*models.Location) (*models.Trip, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read trip response: %w", err)
	}

	var result tripResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = json.Unmarshal(body, &result)
		return nil, &StatusError{Provider: provider, StatusCode: resp.StatusCode, Message: result.Message}
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode trip response: %w", err)
	}
	return toTrip(&result, ordered)
}

func toTrip(result *tripResponse, ordered []*models.Location) (*models.Trip, error) {
	if len(result.Trips) == 0 {
		return nil, ErrNoTrip
	}
	first := result.Trips[0]

	trip := &models.Trip{}
	if len(first.Legs) > 0 {
		for _, leg := range first.Legs {
			trip.DistanceMeters += leg.Distance
			trip.DurationSeconds += leg.Duration
		}
	} else {
		trip.DistanceMeters = first.Distance
		trip.DurationSeconds = first.Duration
	}

	if first.Geometry != nil {
		if ls, ok := first.Geometry.Coordinates.(orb.LineString); ok {
			trip.Geometry = ls
		}
	}

	for i, wp := range result.Waypoints {
		if wp.TripsIndex != 0 || len(wp.Location) < 2 {
			continue
		}
		w := models.Waypoint{
			Index:      wp.WaypointIndex,
			InputIndex: i,
			Location:   orb.Point{wp.Location[0], wp.Location[1]},
		}
		if i < len(ordered) {
			w.LocationID = ordered[i].ID
		}
		trip.Waypoints = append(trip.Waypoints, w)
	}
	sort.SliceStable(trip.Waypoints, func(i, j int) bool {
		return trip.Waypoints[i].Index < trip.Waypoints[j].Index
	})
	return trip, nil
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}
