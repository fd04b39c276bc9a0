package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapboxClient_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		want       orb.Point
		wantStatus int
		wantErr    error
	}{
		{
			name:   "first candidate wins",
			status: http.StatusOK,
			body:   `{"features":[{"place_name":"1 Main St","center":[10,20]},{"center":[30,40]}]}`,
			want:   orb.Point{10, 20},
		},
		{
			name:    "empty result set",
			status:  http.StatusOK,
			body:    `{"features":[]}`,
			wantErr: ErrNoCandidates,
		},
		{
			name:       "non-2xx status",
			status:     http.StatusUnauthorized,
			body:       `{"message":"Not Authorized - Invalid Token"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotToken string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotToken = r.URL.Query().Get("access_token")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewMapboxClient(server.URL, "pk.test", server.Client())
			got, err := client.Resolve(context.Background(), "1 Main St")

			assert.Equal(t, "/geocoding/v5/mapbox.places/1 Main St.json", gotPath)
			assert.Equal(t, "pk.test", gotToken)

			switch {
			case tt.wantStatus != 0:
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr), "expected StatusError, got %v", err)
				assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNominatimClient_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if strings.Contains(r.URL.Query().Get("q"), "Nowhere") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]string{{"lat": "20.5", "lon": "10.25", "display_name": "Main St"}})
	}))
	defer server.Close()

	client := NewNominatimClient(server.URL, server.Client())

	got, err := client.Resolve(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, orb.Point{10.25, 20.5}, got)

	_, err = client.Resolve(context.Background(), "Nowhere Lane")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

type countingGeocoder struct {
	calls atomic.Int32
	err   error
}

func (c *countingGeocoder) Resolve(_ context.Context, _ string) (orb.Point, error) {
	c.calls.Add(1)
	if c.err != nil {
		return orb.Point{}, c.err
	}
	return orb.Point{1, 2}, nil
}

func TestCached_Resolve(t *testing.T) {
	next := &countingGeocoder{}
	cached, err := NewCached(next, 8)
	require.NoError(t, err)

	for _, addr := range []string{"1 Main St", " 1 main st ", "1 MAIN ST"} {
		p, err := cached.Resolve(context.Background(), addr)
		require.NoError(t, err)
		assert.Equal(t, orb.Point{1, 2}, p)
	}
	assert.Equal(t, int32(1), next.calls.Load())
	assert.Equal(t, 1, cached.Len())
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	next := &countingGeocoder{err: ErrNoCandidates}
	cached, err := NewCached(next, 8)
	require.NoError(t, err)

	_, err = cached.Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoCandidates)
	_, err = cached.Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoCandidates)

	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, cached.Len())
}
