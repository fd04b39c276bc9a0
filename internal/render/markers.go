// Package render places markers and the route line for a trip on a map
// surface and computes the bounds the map is fitted to.
package render

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/ukydev/trip-planner/internal/models"
)

const (
	// DefaultColor is used for plain locations and route waypoints.
	DefaultColor = "#3fb1ce"
	// HighlightColor marks the home location and the first route waypoint.
	HighlightColor = "#ff0000"

	// RouteColor is the stroke color of the route line.
	RouteColor = "#FF0000"
	// RouteWidth is the stroke width of the route line, in pixels.
	RouteWidth = 3

	// BoundsPadding is the margin, in pixels, around fitted bounds.
	BoundsPadding = 30
	// PointRadius expands every marker so a single point never yields an empty bound.
	PointRadius = 11.0 // meters
)

// MarkerRenderer draws location and waypoint markers on a Surface. It keeps
// no copy of the markers; it only mutates the handles it is given.
type MarkerRenderer struct {
	surface Surface
}

// NewMarkerRenderer creates a renderer drawing on surface.
func NewMarkerRenderer(surface Surface) *MarkerRenderer {
	return &MarkerRenderer{surface: surface}
}

// PlaceOrUpdate creates the location's marker on first use, moves it to the
// location's coordinates and shows it. order, when non-nil, is the visit
// position used for styling. Unresolved locations are left alone.
func (r *MarkerRenderer) PlaceOrUpdate(loc *models.Location, order *int) {
	p, ok := loc.Point()
	if !ok {
		return
	}
	if loc.Marker == nil {
		loc.Marker = &models.Marker{ID: "location:" + loc.ID}
	}
	color, label := style(loc.IsHome(), order)
	loc.Marker.Position = p
	loc.Marker.Color = color
	loc.Marker.Label = label
	r.surface.AddMarker(loc.Marker)
}

// PlaceWaypoint creates a new marker for a route waypoint and shows it.
func (r *MarkerRenderer) PlaceWaypoint(wp models.Waypoint) *models.Marker {
	order := wp.Index
	color, label := style(false, &order)
	m := &models.Marker{
		ID:       fmt.Sprintf("waypoint:%d", wp.Index),
		Position: wp.Location,
		Color:    color,
		Label:    label,
	}
	r.surface.AddMarker(m)
	return m
}

// ClearAll removes the given markers from the surface.
func (r *MarkerRenderer) ClearAll(markers []*models.Marker) {
	for _, m := range markers {
		if m != nil {
			r.surface.RemoveMarker(m)
		}
	}
}

// DrawRoute replaces the route line.
func (r *MarkerRenderer) DrawRoute(ls orb.LineString) {
	r.surface.SetRouteGeometry(ls)
}

// FitBoundsToAll fits the surface to every location that has a marker and
// returns the bound used. It does nothing when there is no such location.
func (r *MarkerRenderer) FitBoundsToAll(locations []*models.Location) (orb.Bound, bool) {
	b, ok := Bounds(locations)
	if !ok {
		return orb.Bound{}, false
	}
	r.surface.FitBounds(b, BoundsPadding)
	return b, true
}

// Bounds unions a PointRadius bound around each marked location.
func Bounds(locations []*models.Location) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, loc := range locations {
		if loc == nil || loc.Marker == nil {
			continue
		}
		around := geo.NewBoundAroundPoint(loc.Marker.Position, PointRadius)
		if !found {
			b = around
			found = true
			continue
		}
		b = b.Union(around)
	}
	return b, found
}

func style(home bool, order *int) (color, label string) {
	color = DefaultColor
	if home || (order != nil && *order == 0) {
		color = HighlightColor
	}
	if order != nil && *order > 0 {
		label = strconv.Itoa(*order)
	}
	return color, label
}
