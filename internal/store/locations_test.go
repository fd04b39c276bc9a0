package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/trip-planner/internal/models"
)

type failingBackend struct{}

func (failingBackend) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}

func (failingBackend) SetItem(context.Context, string, string) error {
	return errors.New("storage offline")
}

func located(id, address string, lon, lat float64) *models.Location {
	loc := models.NewLocation(id)
	_ = loc.Apply(models.FieldAddress, address)
	loc.SetPoint(orb.Point{lon, lat})
	return loc
}

func TestLocationStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		locations []*models.Location
	}{
		{name: "empty", locations: nil},
		{name: "home only", locations: []*models.Location{located(models.HomeID, "1 Main St", 10, 20)}},
		{
			name: "mixed resolved and unresolved",
			locations: []*models.Location{
				located("loc-B", "9 Elm Rd", 12, 22),
				located(models.HomeID, "1 Main St", 10, 20),
				{ID: "loc-C"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			s := NewLocationStore(backend)
			for _, loc := range tt.locations {
				loc.Marker = &models.Marker{ID: "transient"}
				s.Set(loc)
			}
			require.NoError(t, s.Save(ctx))

			restored := NewLocationStore(backend)
			restored.Load(ctx)

			require.Equal(t, len(tt.locations), restored.Len())
			for i, got := range restored.All() {
				want := tt.locations[i]
				assert.Equal(t, want.ID, got.ID)
				assert.Equal(t, want.Latitude, got.Latitude)
				assert.Equal(t, want.Longitude, got.Longitude)
				assert.Equal(t, want.Address, got.Address)
				assert.Nil(t, got.Marker)
			}
		})
	}
}

func TestLocationStore_SavedFormat(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewLocationStore(backend)
	s.Set(located(models.HomeID, "1 Main St", 10, 20))
	s.Set(&models.Location{ID: "loc-A"})
	require.NoError(t, s.Save(ctx))

	raw, ok, err := backend.GetItem(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[
		["home", {"id":"home","latitude":20,"longitude":10,"address":"1 Main St"}],
		["loc-A", {"id":"loc-A"}]
	]`, raw)
}

func TestLocationStore_LoadTolerance(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		stored  string
		wantIDs []string
	}{
		{name: "missing key", stored: "", wantIDs: []string{}},
		{name: "corrupt json", stored: `[["home", {`, wantIDs: []string{}},
		{name: "not an array", stored: `{"home":{}}`, wantIDs: []string{}},
		{
			name:    "malformed entries skipped",
			stored:  `[["home", {"id":"home","address":"1 Main St"}], "junk", [1, {}], ["loc-A", 42], ["loc-B", {"id":"loc-B"}, "extra"], ["loc-C", {"address":"x"}]]`,
			wantIDs: []string{"home", "loc-C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			if tt.stored != "" {
				require.NoError(t, backend.SetItem(ctx, DefaultKey, tt.stored))
			}
			s := NewLocationStore(backend)
			s.Load(ctx)

			ids := []string{}
			for _, loc := range s.All() {
				ids = append(ids, loc.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestLocationStore_LoadUnavailable(t *testing.T) {
	s := NewLocationStore(failingBackend{})
	s.Set(&models.Location{ID: "stale"})
	s.Load(context.Background())
	assert.Equal(t, 0, s.Len())

	assert.Error(t, s.Save(context.Background()))
}

func TestLocationStore_SetKeepsInsertionOrder(t *testing.T) {
	s := NewLocationStore(NewMemoryBackend())
	s.Set(&models.Location{ID: "b"})
	s.Set(&models.Location{ID: "a"})
	s.Set(&models.Location{ID: "b", Address: strPtr("updated")})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "updated", all[0].AddressText())
	assert.Equal(t, "a", all[1].ID)

	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	root, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	fb, err := root.ForOwner("../user-1")
	require.NoError(t, err)
	assert.Equal(t, root.Dir, filepath.Dir(fb.Dir))

	_, ok, err := fb.GetItem(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fb.SetItem(ctx, DefaultKey, `[]`))
	v, ok, err := fb.GetItem(ctx, DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)

	_, err = os.Stat(filepath.Join(fb.Dir, DefaultKey+".json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func strPtr(s string) *string { return &s }
