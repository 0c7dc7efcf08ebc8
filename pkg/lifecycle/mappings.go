package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
)

// MappingCache routes inbound discord events to tickets without a storage
// round trip per message. It is refreshed periodically from storage by the
// refresher job; a failed refresh keeps the previous snapshot so a transient
// storage outage degrades to stale routing rather than no routing.
type MappingCache struct {
	mu sync.RWMutex

	byThread map[string]*entities.ThreadMapping
}

// NewMappingCache creates an empty mapping cache.
func NewMappingCache() *MappingCache {
	return &MappingCache{
		byThread: make(map[string]*entities.ThreadMapping),
	}
}

// Refresh reloads the cache from storage, replacing the snapshot wholesale.
func (c *MappingCache) Refresh(ctx context.Context, dal dataaccess.MappingDal) error {
	mappings, err := dal.ListActiveMappings(ctx)
	if err != nil {
		return fmt.Errorf("error refreshing mapping cache: %w", err)
	}

	next := make(map[string]*entities.ThreadMapping, len(mappings))
	for _, m := range mappings {
		next[m.ThreadID] = m
	}

	c.mu.Lock()
	c.byThread = next
	c.mu.Unlock()
	return nil
}

// Lookup returns the mapping for a thread, if one is known.
func (c *MappingCache) Lookup(threadID string) (*entities.ThreadMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byThread[threadID]
	return m, ok
}

// Put records a freshly provisioned mapping without waiting for the next
// refresh.
func (c *MappingCache) Put(m *entities.ThreadMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byThread[m.ThreadID] = m
}

// Remove drops a mapping whose thread is gone.
func (c *MappingCache) Remove(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byThread, threadID)
}

// Len returns the number of cached mappings.
func (c *MappingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byThread)
}
