package models

import (
	"github.com/paulmach/orb"
)

// Waypoint is a stop in an optimized route's visiting order.
type Waypoint struct {
	// Index is the position in the visiting order.
	Index int `json:"index"`
	// InputIndex is the position in the request ordering.
	InputIndex int       `json:"input_index"`
	LocationID string    `json:"location_id"`
	Location   orb.Point `json:"location"`
}

// Trip is the result of a route plan. It is derived and never persisted.
type Trip struct {
	Waypoints       []Waypoint     `json:"waypoints"`
	DistanceMeters  float64        `json:"distance"` // in meters
	DurationSeconds float64        `json:"duration"` // in seconds
	Geometry        orb.LineString `json:"geometry"`
}
