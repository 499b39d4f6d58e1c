package ecs

// Registry tracks all component stores and supports bulk operations on an
// entity's data.
type Registry struct {
	stores []Store
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Store, 0, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Store) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// CloneAll duplicates every component of from into to.
func (r *Registry) CloneAll(from, to EntityID) {
	for _, s := range r.stores {
		s.CloneInto(from, to)
	}
}

func (r *Registry) ReserveAll(n int) {
	for _, s := range r.stores {
		s.Reserve(n)
	}
}

func (r *Registry) ClearAll() {
	for _, s := range r.stores {
		s.Clear()
	}
}
