// Package events publishes planned trips to message brokers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ukydev/trip-planner/internal/models"
)

// TripPlanned is emitted after a route has been computed and drawn.
type TripPlanned struct {
	Owner     string       `json:"owner"`
	Distance  string       `json:"distance"`
	Duration  string       `json:"duration"`
	Trip      *models.Trip `json:"trip"`
	Locations []string     `json:"locations"`
	PlannedAt time.Time    `json:"planned_at"`
}

// Publisher delivers TripPlanned events.
type Publisher interface {
	PublishTrip(ctx context.Context, event TripPlanned) error
	Close() error
}

func encode(event TripPlanned) ([]byte, error) {
	return json.Marshal(event)
}

// Noop discards every event.
type Noop struct{}

func (Noop) PublishTrip(context.Context, TripPlanned) error { return nil }
func (Noop) Close() error                                   { return nil }

// Multi fans an event out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) PublishTrip(ctx context.Context, event TripPlanned) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishTrip(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
