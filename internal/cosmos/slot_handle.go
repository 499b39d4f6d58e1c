package cosmos

import (
	"slices"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// UnlimitedSpace is reported as the free space of slots exempt from
// capacity accounting.
const UnlimitedSpace = 1_000_000 * component.SpaceAtomsPerUnit

// SlotHandle is an ephemeral view of one slot of a container.
type SlotHandle struct {
	id   SlotID
	cosm *Cosmos
}

func (s SlotHandle) ID() SlotID { return s.id }

// Alive reports whether the owning entity is alive and has this slot.
func (s SlotHandle) Alive() bool {
	return s.Get() != nil
}

func (s SlotHandle) Dead() bool { return !s.Alive() }

// Get returns the slot state, or nil when the slot is dead.
func (s SlotHandle) Get() *component.InventorySlot {
	if s.cosm == nil || !s.id.IsSet() {
		return nil
	}
	c := s.Container().Container()
	if c == nil {
		return nil
	}
	return c.Find(s.id.Function)
}

// Container returns the entity owning the slot.
func (s SlotHandle) Container() Handle {
	return s.cosm.Handle(s.id.Container)
}

// Items returns the items inside the slot in insertion order.
func (s SlotHandle) Items() []ecs.EntityID {
	if slot := s.Get(); slot != nil {
		return slot.ItemsInside
	}
	return nil
}

// IsInputEnabling reports whether an item held here receives its holder's
// trigger input.
func (s SlotHandle) IsInputEnabling() bool {
	return s.id.Function == component.SlotPrimaryHand || s.id.Function == component.SlotSecondaryHand
}

// IsCategoryCompatibleWith reports whether item may be placed in the slot
// as far as categories and flavour restrictions go.
func (s SlotHandle) IsCategoryCompatibleWith(item Handle) bool {
	slot := s.Get()
	def := item.ItemDef()
	if slot == nil || def == nil {
		return false
	}
	if slot.OnlyAllowFlavour != 0 && item.FlavourID() != slot.OnlyAllowFlavour {
		return false
	}
	if slot.CategoryAllowed == component.CategoryGeneral {
		return true
	}
	return def.Categories&slot.CategoryAllowed != 0
}

// SpaceOccupiedWithChildren is the space item takes including everything
// stored inside it.
func SpaceOccupiedWithChildren(item Handle) uint32 {
	it := item.Item()
	def := item.ItemDef()
	ensure(it != nil && def != nil, "entity %d is not an item", item.id)
	inside, _ := DispatchResult(item, func(t TypedHandle) uint32 {
		if !t.Components().Has(KindContainer) {
			return 0
		}
		ensure(it.Charges == 1, "container item %d has %d charges", item.id, it.Charges)
		var n uint32
		for _, s := range t.Container().Slots {
			for _, id := range s.ItemsInside {
				n += SpaceOccupiedWithChildren(item.cosm.Handle(id))
			}
		}
		return n
	})
	return component.SpaceOccupied(it, def) + inside
}

// CalculateLocalFreeSpace is the slot's capacity minus what its items take.
func (s SlotHandle) CalculateLocalFreeSpace() uint32 {
	slot := s.Get()
	if slot == nil {
		return 0
	}
	if slot.HasUnlimitedSpace() {
		return UnlimitedSpace
	}
	free := slot.SpaceAvailable
	for _, id := range slot.ItemsInside {
		occupied := SpaceOccupiedWithChildren(s.cosm.Handle(id))
		ensure(occupied <= free, "slot %v over capacity", s.id)
		free -= occupied
	}
	return free
}

// CalculateFreeSpaceWithParentContainers limits the local free space by the
// free space of every slot the container itself sits in.
func (s SlotHandle) CalculateFreeSpaceWithParentContainers() uint32 {
	free := s.CalculateLocalFreeSpace()
	if parent := s.Container().CurrentSlot(); parent.Alive() {
		free = min(free, parent.CalculateFreeSpaceWithParentContainers())
	}
	return free
}

// ShouldItemInsideKeepPhysicalBody reports whether items placed here stay
// attached to the root body, which needs every slot up the chain to make a
// physical connection.
func (s SlotHandle) ShouldItemInsideKeepPhysicalBody() bool {
	slot := s.Get()
	if slot == nil {
		return false
	}
	keep := slot.MakesPhysicalConnection()
	if parent := s.Container().CurrentSlot(); parent.Alive() {
		keep = keep && parent.ShouldItemInsideKeepPhysicalBody()
	}
	return keep
}

// RootContainer is the topmost container above this slot.
func (s SlotHandle) RootContainer() Handle {
	cur := s.Container()
	for depth := 0; ; depth++ {
		ensure(depth <= maxContainmentDepth, "containment cycle at %v", s.id)
		parent := cur.CurrentSlot()
		if !parent.Alive() {
			return cur
		}
		cur = parent.Container()
	}
}

// SumAttachmentOffsetsOfParents accumulates the attachment offsets from
// the attached item up to the root container.
func (s SlotHandle) SumAttachmentOffsetsOfParents(attached Handle) component.Transform {
	slot := s.Get()
	if slot == nil {
		return component.Transform{}
	}
	offset := slot.AttachmentOffset
	if def := attached.ItemDef(); def != nil {
		offset = offset.Plus(def.AttachmentOffset)
	}
	container := s.Container()
	if parent := container.CurrentSlot(); parent.Alive() {
		return offset.Plus(parent.SumAttachmentOffsetsOfParents(container))
	}
	return offset
}

// AddItem appends item to the slot and points the item at it.
func (s SlotHandle) AddItem(item Handle) {
	slot := s.Get()
	ensure(slot != nil, "add to dead slot %v", s.id)
	slot.ItemsInside = append(slot.ItemsInside, item.id)
	item.Item().CurrentSlot = s.id
}

// RemoveItem takes item out of the slot and unsets its current slot.
func (s SlotHandle) RemoveItem(item Handle) {
	if slot := s.Get(); slot != nil {
		slot.ItemsInside = slices.DeleteFunc(slot.ItemsInside, func(id ecs.EntityID) bool {
			return id == item.id
		})
	}
	if it := item.Item(); it != nil {
		it.CurrentSlot = SlotID{}
	}
}
