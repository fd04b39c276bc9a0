package render

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/ukydev/trip-planner/internal/models"
)

// Surface is the map the markers and the route line are drawn on.
type Surface interface {
	AddMarker(m *models.Marker)
	RemoveMarker(m *models.Marker)
	FitBounds(b orb.Bound, padding int)
	SetRouteGeometry(ls orb.LineString)
}

// Map is an in-memory Surface. It holds what a client map currently shows
// and exports it as GeoJSON.
type Map struct {
	mu      sync.RWMutex
	markers map[string]*models.Marker
	bounds  *orb.Bound
	padding int
	route   orb.LineString
}

// NewMap creates an empty map surface.
func NewMap() *Map {
	return &Map{markers: make(map[string]*models.Marker)}
}

// AddMarker shows marker. The surface stores a copy, so later changes to the
// handle take effect only when it is added again.
func (m *Map) AddMarker(marker *models.Marker) {
	marker.Shown = true
	c := *marker
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[c.ID] = &c
}

func (m *Map) RemoveMarker(marker *models.Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker.Shown = false
	delete(m.markers, marker.ID)
}

func (m *Map) FitBounds(b orb.Bound, padding int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds = &b
	m.padding = padding
}

func (m *Map) SetRouteGeometry(ls orb.LineString) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route = ls.Clone()
}

// Markers returns the markers on the surface ordered by handle id.
func (m *Map) Markers() []models.Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Marker, 0, len(m.markers))
	for _, mk := range m.markers {
		out = append(out, *mk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bounds returns the last fitted bound and its padding.
func (m *Map) Bounds() (orb.Bound, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.bounds == nil {
		return orb.Bound{}, 0, false
	}
	return *m.bounds, m.padding, true
}

// Route returns the drawn route line.
func (m *Map) Route() orb.LineString {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.route.Clone()
}

// FeatureCollection exports markers as Point features and the route as a
// LineString feature with id "trip".
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, mk := range m.Markers() {
		f := geojson.NewFeature(mk.Position)
		f.ID = mk.ID
		f.Properties["kind"] = "marker"
		f.Properties["marker-color"] = mk.Color
		if mk.Label != "" {
			f.Properties["label"] = mk.Label
		}
		fc.Append(f)
	}

	if route := m.Route(); len(route) > 0 {
		f := geojson.NewFeature(route)
		f.ID = "trip"
		f.Properties["kind"] = "route"
		f.Properties["line-color"] = RouteColor
		f.Properties["line-width"] = RouteWidth
		fc.Append(f)
	}

	if b, padding, ok := m.Bounds(); ok {
		fc.BBox = geojson.NewBBox(b)
		fc.ExtraMembers = geojson.Properties{"padding": padding}
	}
	return fc
}
