package reactive

import "sync"

// cell is the identity-compared storage unit behind a signal.
// The registry keys on *cell, never on the value it holds.
type cell struct {
	id uint64
}

func newCell() *cell {
	return &cell{id: nextID()}
}

// registry is the bipartite relation between cells, effects, and scopes.
//
//	cells:  cell   -> effects that read it during their latest run
//	deps:   effect -> cells it read during its latest run (reverse index)
//	owned:  scope  -> effects created under it
//
// Every effect in cells is also in exactly one owned set. The mutex only
// guards the maps; it is never held while an effect runs.
type registry struct {
	mu     sync.Mutex
	cells  map[*cell]*orderedSet[*Effect]
	deps   map[*Effect]*orderedSet[*cell]
	owned  map[*Scope]*orderedSet[*Effect]
	scopes map[*Scope]struct{}
}

func newRegistry() *registry {
	return &registry{
		cells:  make(map[*cell]*orderedSet[*Effect]),
		deps:   make(map[*Effect]*orderedSet[*cell]),
		owned:  make(map[*Scope]*orderedSet[*Effect]),
		scopes: make(map[*Scope]struct{}),
	}
}

// addScope records a live scope.
func (r *registry) addScope(s *Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes[s] = struct{}{}
}

// liveScopes returns every scope that has not been dropped.
func (r *registry) liveScopes() []*Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Scope, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	return out
}

// own ties an effect to the scope active at its creation.
func (r *registry) own(s *Scope, e *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.owned[s]
	if !ok {
		set = newOrderedSet[*Effect]()
		r.owned[s] = set
	}
	set.add(e)
}

// link subscribes e to c. Linking twice is a no-op.
func (r *registry) link(c *cell, e *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners, ok := r.cells[c]
	if !ok {
		listeners = newOrderedSet[*Effect]()
		r.cells[c] = listeners
	}
	listeners.add(e)

	sources, ok := r.deps[e]
	if !ok {
		sources = newOrderedSet[*cell]()
		r.deps[e] = sources
	}
	sources.add(c)
}

// linked reports whether e is currently subscribed to c.
func (r *registry) linked(c *cell, e *Effect) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners, ok := r.cells[c]
	return ok && listeners.has(e)
}

// listeners returns the effects subscribed to c in subscription order.
func (r *registry) listeners(c *cell) []*Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	listeners, ok := r.cells[c]
	if !ok {
		return nil
	}
	return listeners.snapshot()
}

// unlinkAll drops every subscription e holds, keeping its scope ownership.
func (r *registry) unlinkAll(e *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlinkAllLocked(e)
}

func (r *registry) unlinkAllLocked(e *Effect) {
	sources, ok := r.deps[e]
	if !ok {
		return
	}
	for _, c := range sources.items {
		if listeners, ok := r.cells[c]; ok {
			listeners.remove(e)
			if listeners.len() == 0 {
				delete(r.cells, c)
			}
		}
	}
	delete(r.deps, e)
}

// release removes a single effect from the graph entirely.
func (r *registry) release(e *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlinkAllLocked(e)
	if set, ok := r.owned[e.scope]; ok {
		set.remove(e)
		if set.len() == 0 {
			delete(r.owned, e.scope)
		}
	}
}

// dropScope removes every effect owned by s from every cell and forgets s.
// It returns the effects that were owned.
func (r *registry) dropScope(s *Scope) []*Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scopes, s)
	set, ok := r.owned[s]
	if !ok {
		return nil
	}
	delete(r.owned, s)
	effects := set.snapshot()
	for _, e := range effects {
		r.unlinkAllLocked(e)
	}
	return effects
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	// Cells is the number of cells with at least one subscriber.
	Cells int
	// Subscriptions is the number of cell -> effect edges.
	Subscriptions int
	// Effects is the number of live effects across all scopes.
	Effects int
	// Scopes is the number of live scopes, including the global scope.
	Scopes int
}

func (r *registry) stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{Cells: len(r.cells), Scopes: len(r.scopes)}
	for _, listeners := range r.cells {
		st.Subscriptions += listeners.len()
	}
	for _, set := range r.owned {
		st.Effects += set.len()
	}
	return st
}
