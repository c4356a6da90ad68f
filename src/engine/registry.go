package engine

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry maps buddy ids to live engines for the lifetime of a process.
// Entries are never evicted.
type Registry struct {
	deps Deps

	mu      sync.RWMutex
	engines map[string]*Engine

	creating singleflight.Group
}

// NewRegistry creates an empty registry whose engines share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:    deps.withDefaults(),
		engines: make(map[string]*Engine),
	}
}

// Deps returns the collaborators handed to new engines.
func (r *Registry) Deps() Deps {
	return r.deps
}

// Get returns the engine for buddyID if one is live.
func (r *Registry) Get(buddyID string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[buddyID]
	return e, ok
}

// Init builds a fresh engine for buddyID, replacing any live one.
func (r *Registry) Init(ctx context.Context, buddyID, persona string) *Engine {
	e := New(buddyID, persona, r.deps)
	e.Init(ctx)

	r.mu.Lock()
	r.engines[buddyID] = e
	r.mu.Unlock()
	return e
}

// GetOrCreate returns the live engine for buddyID and whether it was
// created by this call. Concurrent first calls for one id share a single
// engine.
func (r *Registry) GetOrCreate(ctx context.Context, buddyID, persona string) (*Engine, bool) {
	if e, ok := r.Get(buddyID); ok {
		return e, false
	}

	type result struct {
		engine  *Engine
		created bool
	}
	v, _, shared := r.creating.Do(buddyID, func() (interface{}, error) {
		if e, ok := r.Get(buddyID); ok {
			return result{engine: e}, nil
		}
		return result{engine: r.Init(ctx, buddyID, persona), created: true}, nil
	})
	res := v.(result)
	return res.engine, res.created && !shared
}

// Len returns the number of live engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// IDs returns the live buddy ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
