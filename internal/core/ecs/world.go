package ecs

// World owns the entity pool and the component registry. Higher layers
// (the cosmos) add typed stores to the registry and decide when entities die.
type World struct {
	pool     *EntityPool
	registry *Registry
}

func NewWorld(maxEntities uint32) *World {
	return &World{
		pool:     NewEntityPool(maxEntities),
		registry: NewRegistry(),
	}
}

// NewWorldWith wraps an existing pool and registry, used when the pool is
// owned by serialized state.
func NewWorldWith(pool *EntityPool, registry *Registry) *World {
	return &World{pool: pool, registry: registry}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() (EntityID, bool) {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// DestroyEntity clears all components of id and frees its slot.
func (w *World) DestroyEntity(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}

// CloneEntity allocates a new entity holding copies of every component of src.
func (w *World) CloneEntity(src EntityID) (EntityID, bool) {
	if !w.pool.Alive(src) {
		return Nil, false
	}
	id, ok := w.pool.Create()
	if !ok {
		return Nil, false
	}
	w.registry.CloneAll(src, id)
	return id, true
}

func (w *World) Reserve(n int) {
	w.pool.Reserve(n)
	w.registry.ReserveAll(n)
}

func (w *World) Clear() {
	w.pool.Clear()
	w.registry.ClearAll()
}
