package cosmos

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
)

// CreateEntity allocates an entity of flavour and fills its components from
// the flavour definition. inits run before the caches are inferred, so
// they may position the entity or tweak its components.
func (c *Cosmos) CreateEntity(flavour component.FlavourID, inits ...func(Handle)) (Handle, error) {
	f := c.common.Flavour(flavour)
	if f == nil {
		return c.DeadHandle(), fmt.Errorf("create entity of flavour %d: %w", flavour, ErrUnknownFlavour)
	}
	id, ok := c.world.CreateEntity()
	if !ok {
		return c.DeadHandle(), fmt.Errorf("create %s with %d entities alive: %w", f.Name, c.EntitiesCount(), ErrEntityCreation)
	}
	c.sig.Storage.instantiate(id, f)

	h := c.Handle(id)
	for _, init := range inits {
		init(h)
	}
	if in := Find[component.Interpolation](h); in != nil {
		in.PlaceOfBirth = h.LogicTransform()
	}
	c.InferCachesFor(h)
	return h, nil
}

// CloneEntity copies src into a new entity. The clone is free-standing and
// empty: it is taken out of src's slot and holds no items. A failed clone
// is logged and yields a dead handle.
func (c *Cosmos) CloneEntity(src Handle) Handle {
	h, err := c.cloneEntity(src)
	if err != nil {
		c.log.Warn("clone entity",
			zap.Uint64("source", uint64(src.id)),
			zap.Error(err),
		)
		return c.DeadHandle()
	}
	return h
}

func (c *Cosmos) cloneEntity(src Handle) (Handle, error) {
	if src.Dead() {
		return c.DeadHandle(), fmt.Errorf("clone dead entity %d: %w", src.id, ErrEntityCreation)
	}
	id, ok := c.world.CloneEntity(src.id)
	if !ok {
		return c.DeadHandle(), fmt.Errorf("clone %s with %d entities alive: %w", src.Name(), c.EntitiesCount(), ErrEntityCreation)
	}
	h := c.Handle(id)
	if it := h.Item(); it != nil {
		it.CurrentSlot = SlotID{}
	}
	if ct := h.Container(); ct != nil {
		for i := range ct.Slots {
			ct.Slots[i].ItemsInside = nil
		}
	}
	h.SetLogicTransform(src.LogicTransform())
	c.ReassignPhysicalOwnership(h)
	return h, nil
}

// UndoLastCreateEntity removes h, which must be the most recently created
// entity, so that the next creation hands out the very same id.
func (c *Cosmos) UndoLastCreateEntity(h Handle) {
	if h.Dead() {
		return
	}
	c.DestroyCachesOf(h.id)
	delete(c.sig.SpecificNames, h.id)
	c.world.Registry().RemoveAll(h.id)
	c.sig.Pool.UndoLastCreate(h.id)
}

// DeleteEntity removes h alone. Items stored in it survive as free-standing
// entities placed where they were; child entities are left unbound.
// Deleting a dead entity does nothing.
func (c *Cosmos) DeleteEntity(h Handle) {
	if h.Dead() {
		return
	}
	var dependents []ecs.EntityID
	if ct := h.Container(); ct != nil {
		for _, s := range ct.Slots {
			dependents = append(dependents, s.ItemsInside...)
		}
	}
	if slot := h.CurrentSlot(); slot.Alive() {
		slot.RemoveItem(h)
	}
	placed := make([]component.Transform, len(dependents))
	for i, id := range dependents {
		placed[i] = c.Handle(id).LogicTransform()
	}

	c.DestroyCachesOf(h.id)
	c.unbindChildren(h.id)
	delete(c.sig.SpecificNames, h.id)
	c.world.DestroyEntity(h.id)

	for i, id := range dependents {
		d := c.Handle(id)
		if d.Dead() {
			continue
		}
		d.Item().CurrentSlot = SlotID{}
		d.SetLogicTransform(placed[i])
		c.ReassignPhysicalOwnership(d)
	}
}

// unbindChildren detaches the children of a parent that is going away.
func (c *Cosmos) unbindChildren(parent ecs.EntityID) {
	for _, id := range slices.Clone(c.caches.relational.ChildrenOf(parent)) {
		if ch := Find[component.Child](c.Handle(id)); ch != nil {
			ch.Parent = ecs.Nil
		}
		c.caches.relational.DestroyCacheOf(c, id)
	}
}

// MakeDeletionQueue lists h followed by every entity whose lifetime is
// bound to it, in discovery order.
func (c *Cosmos) MakeDeletionQueue(h Handle) []ecs.EntityID {
	if h.Dead() {
		return nil
	}
	q := []ecs.EntityID{h.id}
	h.ForEachChildEntityRecursive(func(id ecs.EntityID) {
		q = append(q, id)
	})
	return q
}

// ReversePerformDeletions deletes the queue back to front, so descendants
// go before their ancestors.
func (c *Cosmos) ReversePerformDeletions(q []ecs.EntityID) {
	for i := len(q) - 1; i >= 0; i-- {
		c.DeleteEntity(c.Handle(q[i]))
	}
}

// DeleteEntityWithChildren deletes h, its child entities and every item
// stored in it, recursively.
func (c *Cosmos) DeleteEntityWithChildren(h Handle) {
	c.ReversePerformDeletions(c.MakeDeletionQueue(h))
}

// QueueDestruction defers the deletion of id (with its children) until the
// next FlushDestructionQueue.
func (c *Cosmos) QueueDestruction(id ecs.EntityID) {
	c.pending = append(c.pending, id)
}

// FlushDestructionQueue performs every queued destruction, including those
// posted to the step's message queue.
func (c *Cosmos) FlushDestructionQueue() {
	for _, m := range event.Drain[QueueDestructionMessage](c.queue) {
		c.pending = append(c.pending, m.Subject)
	}
	if len(c.pending) == 0 {
		return
	}

	seen := make(map[ecs.EntityID]struct{}, len(c.pending))
	var q []ecs.EntityID
	for _, id := range c.pending {
		for _, d := range c.MakeDeletionQueue(c.Handle(id)) {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			q = append(q, d)
		}
	}
	c.pending = c.pending[:0]

	c.log.Debug("flush destruction queue",
		zap.Uint64("step", c.sig.StepNumber),
		zap.Int("entities", len(q)),
	)
	c.ReversePerformDeletions(q)
}

// ReassignPhysicalOwnership recomputes which body h and everything inside
// it physically belong to, then rebuilds their caches. Free-standing items
// own their colliders; items in a connecting slot chain attach to the root
// container's body; other stored items are deactivated.
func (c *Cosmos) ReassignPhysicalOwnership(h Handle) {
	c.reassignPhysicalOwnership(h)
	h.ForEachContainedItemRecursive(c.reassignPhysicalOwnership)
}

func (c *Cosmos) reassignPhysicalOwnership(h Handle) {
	if fx := h.Fixtures(); fx != nil {
		slot := h.CurrentSlot()
		attachment := &fx.Offsets[component.OffsetItemAttachmentDisplacement]
		switch {
		case !slot.Alive():
			fx.OwnerBody, fx.Activated = h.id, true
			*attachment = component.Transform{}
		case slot.ShouldItemInsideKeepPhysicalBody():
			fx.OwnerBody, fx.Activated = slot.RootContainer().id, true
			*attachment = slot.SumAttachmentOffsetsOfParents(h)
		default:
			fx.OwnerBody, fx.Activated = h.id, false
			*attachment = component.Transform{}
		}
	}
	c.Reinfer(h)
}
