package component

import (
	"slices"

	"github.com/topdown/cosmos/internal/core/ecs"
)

// SlotDef is the flavour-level definition of a container slot.
type SlotDef struct {
	Function                  SlotFunction
	CategoryAllowed           ItemCategory
	SpaceAvailable            uint32
	AlwaysAllowExactlyOneItem bool
	ItemsNeedMounting         bool
	OnlyAllowFlavour          FlavourID // 0 = any flavour
	PhysicalBehaviour         PhysicalBehaviour
	AttachmentOffset          Transform
}

// ContainerDef lists a container's slots.
type ContainerDef struct {
	Slots []SlotDef
}

// InventorySlot is the per-instance state of one slot.
type InventorySlot struct {
	SlotDef
	ItemsInside []ecs.EntityID
}

// HasUnlimitedSpace reports whether capacity accounting is skipped: slots
// holding exactly one item only ever care about that item.
func (s *InventorySlot) HasUnlimitedSpace() bool {
	return s.AlwaysAllowExactlyOneItem
}

// MakesPhysicalConnection reports whether items inside keep a physical
// presence attached to the container.
func (s *InventorySlot) MakesPhysicalConnection() bool {
	return s.PhysicalBehaviour == ConnectAsFixtureOfBody
}

// Container maps slot functions to slots, ordered by function.
type Container struct {
	Slots []InventorySlot
}

// NewContainer instantiates empty slots from def, sorted by function.
func NewContainer(def *ContainerDef) Container {
	c := Container{Slots: make([]InventorySlot, 0, len(def.Slots))}
	for _, sd := range def.Slots {
		c.Slots = append(c.Slots, InventorySlot{SlotDef: sd})
	}
	slices.SortFunc(c.Slots, func(a, b InventorySlot) int {
		return int(a.Function) - int(b.Function)
	})
	return c
}

// Find returns the slot with function f.
func (c *Container) Find(f SlotFunction) *InventorySlot {
	for i := range c.Slots {
		if c.Slots[i].Function == f {
			return &c.Slots[i]
		}
	}
	return nil
}

func (c Container) Clone() Container {
	out := Container{Slots: make([]InventorySlot, len(c.Slots))}
	for i, s := range c.Slots {
		out.Slots[i] = s
		out.Slots[i].ItemsInside = slices.Clone(s.ItemsInside)
	}
	return out
}
