package cosmos

import (
	"slices"

	"github.com/topdown/cosmos/internal/core/ecs"
)

// CacheKind names one inferred cache.
type CacheKind uint8

const (
	CacheRelational CacheKind = iota
	CacheFlavour
	CacheProcessing
	CachePhysics
	cacheKindCount
)

func (k CacheKind) String() string {
	switch k {
	case CacheRelational:
		return "relational"
	case CacheFlavour:
		return "flavour"
	case CacheProcessing:
		return "processing"
	case CachePhysics:
		return "physics"
	}
	return "unknown"
}

// inferredCache is derived state that can always be rebuilt from the
// significant state.
type inferredCache interface {
	InferCacheFor(h Handle)
	DestroyCacheOf(c *Cosmos, id ecs.EntityID)
	reserve(n int)
	clear()
}

// inferredCaches holds every cache. all() returns them in dependency order:
// a cache may read any cache listed before it.
type inferredCaches struct {
	relational *RelationalCache
	flavours   *FlavourCache
	processing *ProcessingCache
	physics    *PhysicsCache
}

func newInferredCaches() inferredCaches {
	return inferredCaches{
		relational: newRelationalCache(),
		flavours:   newFlavourCache(),
		processing: newProcessingCache(),
		physics:    newPhysicsCache(),
	}
}

func (ic *inferredCaches) all() [cacheKindCount]inferredCache {
	return [cacheKindCount]inferredCache{ic.relational, ic.flavours, ic.processing, ic.physics}
}

func (ic *inferredCaches) reserve(n int) {
	for _, c := range ic.all() {
		c.reserve(n)
	}
}

func (ic *inferredCaches) clear() {
	for _, c := range ic.all() {
		c.clear()
	}
}

func (c *Cosmos) Relational() *RelationalCache { return c.caches.relational }
func (c *Cosmos) Flavours() *FlavourCache       { return c.caches.flavours }
func (c *Cosmos) Processing() *ProcessingCache  { return c.caches.processing }
func (c *Cosmos) Physics() *PhysicsCache        { return c.caches.physics }

var substance = Components(KindSubstance)

// InferCachesFor builds every cache entry of h. Entities without a
// substance have no caches.
func (c *Cosmos) InferCachesFor(h Handle) {
	h.DispatchOnHavingAll(substance, func(t TypedHandle) {
		for _, cache := range c.caches.all() {
			cache.InferCacheFor(t.Handle)
		}
	})
}

// DestroyCachesOf removes every cache entry of id, in reverse dependency
// order.
func (c *Cosmos) DestroyCachesOf(id ecs.EntityID) {
	all := c.caches.all()
	for i := len(all) - 1; i >= 0; i-- {
		all[i].DestroyCacheOf(c, id)
	}
}

// InferAllEntities builds every cache for every live entity. Each cache is
// complete for all entities before the next one starts.
func (c *Cosmos) InferAllEntities() {
	for _, cache := range c.caches.all() {
		c.ForEachEntity(func(h Handle) {
			h.DispatchOnHavingAll(substance, func(t TypedHandle) {
				cache.InferCacheFor(t.Handle)
			})
		})
	}
}

// ReinferAllEntities throws away every cache and rebuilds from the
// significant state.
func (c *Cosmos) ReinferAllEntities() {
	c.caches.clear()
	c.caches.reserve(c.sig.Pool.Capacity())
	c.InferAllEntities()
}

// PartialResubstantiation rebuilds a single cache of h.
func (c *Cosmos) PartialResubstantiation(kind CacheKind, h Handle) {
	cache := c.caches.all()[kind]
	cache.DestroyCacheOf(c, h.id)
	if h.Alive() && h.Has(KindSubstance) {
		cache.InferCacheFor(h)
	}
}

// Reinfer rebuilds every cache of h.
func (c *Cosmos) Reinfer(h Handle) {
	c.DestroyCachesOf(h.id)
	c.InferCachesFor(h)
}

func growTo[T any](s []T, index uint32) []T {
	if int(index) < len(s) {
		return s
	}
	return append(s, make([]T, int(index)+1-len(s))...)
}

func byIndex(a, b ecs.EntityID) int {
	return int(a.Index()) - int(b.Index())
}

// insertSorted keeps ids ordered by entity index, which is the iteration
// order everywhere in the cosmos.
func insertSorted(ids []ecs.EntityID, id ecs.EntityID) []ecs.EntityID {
	i, found := slices.BinarySearchFunc(ids, id, byIndex)
	if found {
		ids[i] = id
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeSorted(ids []ecs.EntityID, id ecs.EntityID) []ecs.EntityID {
	i, found := slices.BinarySearchFunc(ids, id, byIndex)
	if !found || ids[i] != id {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}
