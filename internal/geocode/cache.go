package geocode

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
)

// Cached remembers successful lookups of another Geocoder. Failures are
// never cached so a later edit of the same address retries the lookup.
type Cached struct {
	next  Geocoder
	cache *lru.Cache[string, orb.Point]
}

// NewCached wraps next with an LRU cache holding up to size addresses.
func NewCached(next Geocoder, size int) (*Cached, error) {
	cache, err := lru.New[string, orb.Point](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Resolve(ctx context.Context, address string) (orb.Point, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}
	p, err := c.next.Resolve(ctx, address)
	if err != nil {
		return orb.Point{}, err
	}
	c.cache.Add(key, p)
	return p, nil
}

// Len returns the number of cached addresses.
func (c *Cached) Len() int {
	return c.cache.Len()
}
