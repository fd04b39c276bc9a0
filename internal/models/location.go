package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// HomeID is the identifier of the trip's fixed start/end point.
const HomeID = "home"

// ErrUnknownField is returned when a field update names a field a Location does not have.
var ErrUnknownField = errors.New("unknown location field")

// Field names an editable field of an address-entry row.
type Field string

const (
	FieldAddress Field = "address"
)

// Location represents a named point of the trip (home or a destination).
// Coordinates and address are optional until the row has been edited and geocoded.
type Location struct {
	ID        string   `json:"id" bson:"id"`
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Address   *string  `json:"address,omitempty" bson:"address,omitempty"`

	// Marker is the rendered marker handle. It is never persisted.
	Marker *Marker `json:"-" bson:"-"`
}

// NewLocation creates an empty location for the given row identifier.
func NewLocation(id string) *Location {
	return &Location{ID: id}
}

// IsHome reports whether the location is the trip's start/end point.
func (l *Location) IsHome() bool {
	return l.ID == HomeID
}

// HasCoordinates reports whether the location has been resolved.
func (l *Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Point returns the location as an orb point (lon, lat).
func (l *Location) Point() (orb.Point, bool) {
	if !l.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*l.Longitude, *l.Latitude}, true
}

// SetPoint stores resolved coordinates.
func (l *Location) SetPoint(p orb.Point) {
	lon, lat := p.Lon(), p.Lat()
	l.Longitude = &lon
	l.Latitude = &lat
}

// AddressText returns the address or an empty string.
func (l *Location) AddressText() string {
	if l.Address == nil {
		return ""
	}
	return *l.Address
}

// Apply sets a single known field from a form value.
func (l *Location) Apply(field Field, value string) error {
	switch field {
	case FieldAddress:
		v := value
		l.Address = &v
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, string(field))
	}
}

// ParseField validates a field name received from a client.
func ParseField(name string) (Field, error) {
	f := Field(strings.TrimSpace(name))
	switch f {
	case FieldAddress:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}
