package models

import "github.com/paulmach/orb"

// Marker is a handle to a marker drawn on the map surface.
type Marker struct {
	ID       string    `json:"id"`
	Position orb.Point `json:"position"`
	Color    string    `json:"color"`
	Label    string    `json:"label,omitempty"`
	Shown    bool      `json:"-"`
}
