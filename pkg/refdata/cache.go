// Package refdata caches process-wide reference data (carriers, states).
//
// The first successful Get loads from the source; every later call returns
// the same value. There is no refresh: a new process picks up new data.
// Failed loads are not cached, so a later call retries.
package refdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

// Cache wraps a ReferenceSource.
type Cache struct {
	source ports.ReferenceSource

	mu   sync.RWMutex
	data *domain.ReferenceData
}

// NewCache creates a cache over source.
func NewCache(source ports.ReferenceSource) *Cache {
	return &Cache{source: source}
}

// Get returns the cached data, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*domain.ReferenceData, error) {
	c.mu.RLock()
	data := c.data
	c.mu.RUnlock()
	if data != nil {
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data != nil {
		return c.data, nil
	}
	data, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	if data == nil {
		data = &domain.ReferenceData{}
	}
	c.data = data
	return data, nil
}

// Load makes Cache itself a ports.ReferenceSource.
func (c *Cache) Load(ctx context.Context) (*domain.ReferenceData, error) {
	return c.Get(ctx)
}

var _ ports.ReferenceSource = (*Cache)(nil)
