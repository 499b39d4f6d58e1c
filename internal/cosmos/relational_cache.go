package cosmos

import (
	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// RelationalCache maps parents to the child entities bound to them.
type RelationalCache struct {
	children map[ecs.EntityID][]ecs.EntityID
	parentOf []ecs.EntityID
}

func newRelationalCache() *RelationalCache {
	return &RelationalCache{children: make(map[ecs.EntityID][]ecs.EntityID)}
}

// ChildrenOf returns the children of parent ordered by entity index.
func (r *RelationalCache) ChildrenOf(parent ecs.EntityID) []ecs.EntityID {
	return r.children[parent]
}

// ParentOf returns the parent recorded for id, or ecs.Nil.
func (r *RelationalCache) ParentOf(id ecs.EntityID) ecs.EntityID {
	if int(id.Index()) >= len(r.parentOf) {
		return ecs.Nil
	}
	return r.parentOf[id.Index()]
}

func (r *RelationalCache) InferCacheFor(h Handle) {
	ch := Find[component.Child](h)
	if ch == nil || ch.Parent.IsZero() {
		return
	}
	r.parentOf = growTo(r.parentOf, h.id.Index())
	r.parentOf[h.id.Index()] = ch.Parent
	r.children[ch.Parent] = insertSorted(r.children[ch.Parent], h.id)
}

// DestroyCacheOf unlinks id from its parent. The children recorded under
// id stay so a reinferred id keeps them; DeleteEntity unbinds them.
func (r *RelationalCache) DestroyCacheOf(_ *Cosmos, id ecs.EntityID) {
	parent := r.ParentOf(id)
	if parent.IsZero() {
		return
	}
	r.parentOf[id.Index()] = ecs.Nil
	rest := removeSorted(r.children[parent], id)
	if len(rest) == 0 {
		delete(r.children, parent)
	} else {
		r.children[parent] = rest
	}
}

func (r *RelationalCache) reserve(n int) {
	if n > len(r.parentOf) {
		r.parentOf = growTo(r.parentOf, uint32(n-1))
	}
}

func (r *RelationalCache) clear() {
	clear(r.children)
	clear(r.parentOf)
}
