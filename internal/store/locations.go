// Package store keeps the trip's locations and persists them to a textual
// key/value backend as a JSON array of [id, record] pairs.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/models"
)

// DefaultKey is the state key holding the serialized locations.
const DefaultKey = "locations"

// LocationStore maps location identifiers to Location records, keeping
// insertion order. It is not safe for concurrent use; the owning
// controller serializes access.
type LocationStore struct {
	backend Backend
	key     string
	order   []string
	items   map[string]*models.Location
}

// NewLocationStore creates an empty store persisted under DefaultKey.
func NewLocationStore(backend Backend) *LocationStore {
	return &LocationStore{
		backend: backend,
		key:     DefaultKey,
		items:   make(map[string]*models.Location),
	}
}

// Get returns the location with the given id.
func (s *LocationStore) Get(id string) (*models.Location, bool) {
	loc, ok := s.items[id]
	return loc, ok
}

// Set inserts or replaces a location. Replacing keeps the original position.
func (s *LocationStore) Set(loc *models.Location) {
	if _, exists := s.items[loc.ID]; !exists {
		s.order = append(s.order, loc.ID)
	}
	s.items[loc.ID] = loc
}

// All returns every location in insertion order.
func (s *LocationStore) All() []*models.Location {
	out := make([]*models.Location, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of stored locations.
func (s *LocationStore) Len() int {
	return len(s.order)
}

// Load replaces the in-memory mapping with the persisted one. Unreadable or
// corrupt state leaves the store empty; malformed entries are skipped.
func (s *LocationStore) Load(ctx context.Context) {
	s.order = nil
	s.items = make(map[string]*models.Location)

	raw, ok, err := s.backend.GetItem(ctx, s.key)
	if err != nil {
		log.WithError(err).WithField("key", s.key).Warn("State storage unavailable, starting empty")
		return
	}
	if !ok || len(bytes.TrimSpace([]byte(raw))) == 0 {
		return
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.WithError(err).WithField("key", s.key).Warn("Stored locations are corrupt, starting empty")
		return
	}

	for _, entry := range entries {
		loc, ok := decodeEntry(entry)
		if !ok {
			log.WithField("entry", string(entry)).Debug("Skipping malformed stored location")
			continue
		}
		s.Set(loc)
	}
}

// Save writes the full mapping back to the backend.
func (s *LocationStore) Save(ctx context.Context) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	if err := s.backend.SetItem(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("save locations: %w", err)
	}
	return nil
}

// Marshal encodes the mapping as a JSON array of [id, record] pairs.
func (s *LocationStore) Marshal() ([]byte, error) {
	pairs := make([][2]any, 0, len(s.order))
	for _, id := range s.order {
		pairs = append(pairs, [2]any{id, s.items[id]})
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("encode locations: %w", err)
	}
	return data, nil
}

func decodeEntry(entry json.RawMessage) (*models.Location, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
		return nil, false
	}
	var id string
	if err := json.Unmarshal(pair[0], &id); err != nil || id == "" {
		return nil, false
	}
	var loc models.Location
	if err := json.Unmarshal(pair[1], &loc); err != nil {
		return nil, false
	}
	// The pair key is authoritative.
	loc.ID = id
	return &loc, true
}
