package controller

import (
	"github.com/paulmach/orb/geojson"
	"github.com/ukydev/trip-planner/internal/format"
	"github.com/ukydev/trip-planner/internal/models"
)

// RowState is the progress of an address-entry row.
type RowState string

const (
	RowEmpty          RowState = "empty"
	RowAddressEntered RowState = "address-entered"
	RowResolved       RowState = "resolved"
	RowRouted         RowState = "routed"
)

// Row is one address-entry row as a client shows it.
type Row struct {
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	State     RowState `json:"state"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Snapshot is the current view of a trip.
type Snapshot struct {
	Rows            []Row                      `json:"rows"`
	Distance        string                     `json:"distance"`
	Duration        string                     `json:"duration"`
	DistanceMeters  float64                    `json:"distance_meters"`
	DurationSeconds float64                    `json:"duration_seconds"`
	Trip            *models.Trip               `json:"trip,omitempty"`
	BBox            []float64                  `json:"bbox,omitempty"`
	Map             *geojson.FeatureCollection `json:"map"`
}

// Rows returns the address-entry rows with home first.
func (a *App) Rows() []Row {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rowsLocked()
}

func (a *App) rowsLocked() []Row {
	rows := make([]Row, 0, len(a.rows))
	for _, id := range a.rows {
		row := Row{ID: id, State: RowEmpty}
		if loc, ok := a.store.Get(id); ok {
			row.Address = loc.AddressText()
			row.Latitude = loc.Latitude
			row.Longitude = loc.Longitude
			switch {
			case a.routed[id] && loc.HasCoordinates():
				row.State = RowRouted
			case loc.HasCoordinates():
				row.State = RowResolved
			case loc.Address != nil:
				row.State = RowAddressEntered
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Snapshot returns the rows, the formatted trip totals and the map surface.
// Totals are empty until a route has been planned.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{Rows: a.rowsLocked()}
	if a.trip != nil {
		s.Trip = a.trip
		s.DistanceMeters = a.trip.DistanceMeters
		s.DurationSeconds = a.trip.DurationSeconds
		s.Distance = format.Distance(a.trip.DistanceMeters)
		s.Duration = format.Duration(a.trip.DurationSeconds)
	}
	a.mu.Unlock()

	if b, _, ok := a.surface.Bounds(); ok {
		s.BBox = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	s.Map = a.surface.FeatureCollection()
	return s
}
