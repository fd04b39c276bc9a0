package controller

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Factory builds a fresh, not yet started App for owner.
type Factory func(ctx context.Context, owner string) (*App, error)

// Sessions keeps one started App per owner.
type Sessions struct {
	factory Factory

	mu      sync.Mutex
	entries map[string]*session
}

// session builds and starts its App exactly once.
type session struct {
	once sync.Once
	app  *App
	err  error
}

func NewSessions(factory Factory) *Sessions {
	return &Sessions{factory: factory, entries: make(map[string]*session)}
}

// Get returns the owner's App, creating and starting it on first use.
// Concurrent first calls for one owner share a single App. The App outlives
// the request that created it, so it is built and started with a context
// that ignores ctx's cancellation. A failed build is forgotten and retried
// by the next call.
func (s *Sessions) Get(ctx context.Context, owner string) (*App, error) {
	s.mu.Lock()
	entry, ok := s.entries[owner]
	if !ok {
		entry = &session{}
		s.entries[owner] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		startCtx := context.WithoutCancel(ctx)
		app, err := s.factory(startCtx, owner)
		if err != nil {
			entry.err = err
			return
		}
		app.Start(startCtx)
		s.mu.Lock()
		entry.app = app
		s.mu.Unlock()
		log.WithField("owner", owner).Debug("Session created")
	})

	if entry.err != nil {
		s.mu.Lock()
		if s.entries[owner] == entry {
			delete(s.entries, owner)
		}
		s.mu.Unlock()
		return nil, entry.err
	}
	return entry.app, nil
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.entries {
		if entry.app != nil {
			n++
		}
	}
	return n
}
