package cosmos

import (
	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// SlotID identifies an inventory slot by owning entity and function.
type SlotID = component.SlotID

// Handle is an ephemeral view of an entity: an id plus the cosmos it lives
// in. It owns nothing and must not outlive the cosmos. Handles are re-checked
// on every access; keep ids, not handles, across steps.
type Handle struct {
	id   ecs.EntityID
	cosm *Cosmos
}

func (h Handle) ID() ecs.EntityID { return h.id }
func (h Handle) Cosmos() *Cosmos  { return h.cosm }

func (h Handle) Alive() bool {
	return h.cosm != nil && h.cosm.world.Alive(h.id)
}

func (h Handle) Dead() bool { return !h.Alive() }

func (h Handle) meta() *EntityMeta {
	m, _ := h.cosm.sig.Storage.Meta.Get(h.id)
	return m
}

// Type returns the closed-set type of a live entity.
func (h Handle) Type() EntityType {
	ensure(h.Alive(), "type of dead entity %d", h.id)
	return h.meta().Type
}

func (h Handle) FlavourID() component.FlavourID {
	if h.Dead() {
		return 0
	}
	return h.meta().Flavour
}

// Flavour returns the definition h was created from.
func (h Handle) Flavour() *Flavour {
	if h.Dead() {
		return nil
	}
	return h.cosm.common.Flavour(h.meta().Flavour)
}

// Has reports whether the entity's type carries component kind k.
func (h Handle) Has(k ComponentKind) bool {
	if h.Dead() {
		return false
	}
	return descriptors[h.meta().Type].Components.Has(k)
}

// Name is the specific name if one was set, else the flavour name.
func (h Handle) Name() string {
	if h.Dead() {
		return ""
	}
	if n, ok := h.cosm.sig.SpecificNames[h.id]; ok {
		return n
	}
	if f := h.Flavour(); f != nil {
		return f.Name
	}
	return ""
}

func (h Handle) Item() *component.Item           { return Find[component.Item](h) }
func (h Handle) Container() *component.Container { return Find[component.Container](h) }
func (h Handle) Fixtures() *component.Fixtures   { return Find[component.Fixtures](h) }
func (h Handle) RigidBody() *component.RigidBody { return Find[component.RigidBody](h) }

// ItemDef returns the flavour-level item definition, or nil.
func (h Handle) ItemDef() *component.ItemDef {
	if f := h.Flavour(); f != nil {
		return f.Item
	}
	return nil
}

// Slot returns a handle to the slot fn of this entity's container.
// The slot handle is dead when the entity has no such slot.
func (h Handle) Slot(fn component.SlotFunction) SlotHandle {
	return h.cosm.Slot(SlotID{Container: h.id, Function: fn})
}

// CurrentSlot returns the slot this item sits in; dead for free-standing
// entities and non-items.
func (h Handle) CurrentSlot() SlotHandle {
	it := h.Item()
	if it == nil {
		return SlotHandle{cosm: h.cosm}
	}
	return h.cosm.Slot(it.CurrentSlot)
}

// OwningTransferCapability walks up the containment chain and returns the
// nearest entity that is a transfer capability, or a dead handle.
func (h Handle) OwningTransferCapability() Handle {
	for cur, depth := h, 0; cur.Alive(); depth++ {
		ensure(depth <= maxContainmentDepth, "containment cycle at %d", h.id)
		if cur.Has(KindTransferCapability) {
			return cur
		}
		slot := cur.CurrentSlot()
		if !slot.Alive() {
			break
		}
		cur = slot.Container()
	}
	return h.cosm.DeadHandle()
}

const maxContainmentDepth = 64

// IsInside reports whether h is (transitively) contained by ancestor.
func (h Handle) IsInside(ancestor ecs.EntityID) bool {
	for cur, depth := h.CurrentSlot(), 0; cur.Alive(); depth++ {
		ensure(depth <= maxContainmentDepth, "containment cycle at %d", h.id)
		if cur.id.Container == ancestor {
			return true
		}
		cur = cur.Container().CurrentSlot()
	}
	return false
}

// ForEachContainedItemRecursive calls fn for every item inside h's
// container, depth first, slots in function order.
func (h Handle) ForEachContainedItemRecursive(fn func(Handle)) {
	h.ForEachContainedSlotAndItemRecursive(nil, fn)
}

// ForEachContainedSlotAndItemRecursive calls slotFn for every slot and
// itemFn for every item below h. Either callback may be nil.
func (h Handle) ForEachContainedSlotAndItemRecursive(slotFn func(SlotHandle), itemFn func(Handle)) {
	c := h.Container()
	if c == nil {
		return
	}
	for _, s := range c.Slots {
		slot := h.Slot(s.Function)
		if slotFn != nil {
			slotFn(slot)
		}
		for _, id := range slot.Items() {
			it := h.cosm.Handle(id)
			if itemFn != nil {
				itemFn(it)
			}
			it.ForEachContainedSlotAndItemRecursive(slotFn, itemFn)
		}
	}
}

// ForEachChildEntityRecursive calls fn for every entity whose lifetime is
// bound to h: child entities first, then contained items, each recursively.
func (h Handle) ForEachChildEntityRecursive(fn func(ecs.EntityID)) {
	for _, child := range h.cosm.caches.relational.ChildrenOf(h.id) {
		if !h.cosm.Alive(child) {
			continue
		}
		fn(child)
		h.cosm.Handle(child).ForEachChildEntityRecursive(fn)
	}
	c := h.Container()
	if c == nil {
		return
	}
	for _, s := range c.Slots {
		for _, id := range s.ItemsInside {
			fn(id)
			h.cosm.Handle(id).ForEachChildEntityRecursive(fn)
		}
	}
}

// SetParent binds h's lifetime to parent.
func (h Handle) SetParent(parent ecs.EntityID) {
	ch := Find[component.Child](h)
	ensure(ch != nil, "entity %d cannot have a parent", h.id)
	h.cosm.caches.relational.DestroyCacheOf(h.cosm, h.id)
	ch.Parent = parent
	h.cosm.caches.relational.InferCacheFor(h)
}

// LogicTransform is where the simulation considers the entity to be.
func (h Handle) LogicTransform() component.Transform {
	return h.logicTransform(0)
}

func (h Handle) logicTransform(depth int) component.Transform {
	ensure(depth <= maxContainmentDepth, "containment cycle at %d", h.id)
	if h.Dead() {
		return component.Transform{}
	}
	if fx := h.Fixtures(); fx != nil && fx.Activated && fx.OwnerBody != h.id {
		owner := h.cosm.Handle(fx.OwnerBody)
		if owner.Alive() {
			return owner.logicTransform(depth + 1).Then(fx.TotalOffset())
		}
	}
	if slot := h.CurrentSlot(); slot.Alive() {
		if fx := h.Fixtures(); fx == nil || !fx.Activated {
			return slot.Container().logicTransform(depth + 1)
		}
	}
	if rb := h.RigidBody(); rb != nil {
		return rb.Transform
	}
	if p := Find[component.Placement](h); p != nil {
		return p.Transform
	}
	return component.Transform{}
}

// SetLogicTransform places a free-standing entity.
func (h Handle) SetLogicTransform(t component.Transform) {
	if rb := h.RigidBody(); rb != nil {
		rb.Transform = t
		return
	}
	if p := Find[component.Placement](h); p != nil {
		p.Transform = t
	}
}

// SpecificName returns the per-instance name, if one was set.
func (h Handle) SpecificName() (string, bool) {
	if h.Dead() {
		return "", false
	}
	n, ok := h.cosm.sig.SpecificNames[h.id]
	return n, ok
}
