package calendar

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// StoreRegistry keeps one Store per viewer. The refresh coordinator drives
// all of them; request handlers read from the viewer's own store so role
// filtering happens once, at fetch time, not in the view layer.
type StoreRegistry struct {
	factory func(Actor) *Store

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

func NewStoreRegistry(factory func(Actor) *Store) *StoreRegistry {
	return &StoreRegistry{
		factory: factory,
		stores:  make(map[uuid.UUID]*Store),
	}
}

// For returns the viewer's store, creating it on first use.
func (r *StoreRegistry) For(viewer Actor) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[viewer.ID]; ok {
		return s
	}
	s := r.factory(viewer)
	r.stores[viewer.ID] = s
	return s
}

// RefreshAll triggers a fetch on every registered store. Individual skips
// and failures are the stores' business; the registry just fans out.
func (r *StoreRegistry) RefreshAll(ctx context.Context) {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		_, _ = s.Fetch(ctx)
	}
}
