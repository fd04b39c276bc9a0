package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
)

// DefaultMapboxBaseURL is the public Mapbox API endpoint.
const DefaultMapboxBaseURL = "https://api.mapbox.com"

// MapboxClient talks to the Mapbox Geocoding v5 API.
type MapboxClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewMapboxClient creates a client. An empty baseURL selects the public API.
func NewMapboxClient(baseURL, accessToken string, httpClient *http.Client) *MapboxClient {
	if baseURL == "" {
		baseURL = DefaultMapboxBaseURL
	}
	return &MapboxClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  defaultHTTPClient(httpClient),
	}
}

type mapboxResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// Resolve looks up address and returns the center of the first feature.
func (c *MapboxClient) Resolve(ctx context.Context, address string) (orb.Point, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(address), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return orb.Point{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return orb.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return orb.Point{}, &StatusError{Provider: "mapbox", StatusCode: resp.StatusCode}
	}

	var result mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return orb.Point{}, fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(result.Features) == 0 || len(result.Features[0].Center) < 2 {
		return orb.Point{}, ErrNoCandidates
	}

	first := result.Features[0]
	log.WithFields(log.Fields{
		"address": address,
		"match":   first.PlaceName,
	}).Debug("Geocoded address")
	return orb.Point{first.Center[0], first.Center[1]}, nil
}
