// Package geocode resolves free-text addresses to coordinates through an
// external HTTP API. Exactly one candidate, the first, is accepted.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
)

// ErrNoCandidates is returned when the lookup succeeded but matched nothing.
var ErrNoCandidates = errors.New("geocode: no candidates")

// StatusError reports a non-2xx response from the geocoding service.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("geocode: %s returned status %d", e.Provider, e.StatusCode)
}

// Geocoder resolves an address to a (longitude, latitude) point.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (orb.Point, error)
}

// DefaultTimeout bounds a single lookup when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
