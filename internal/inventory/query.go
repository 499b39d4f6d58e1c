package inventory

import (
	"fmt"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/cosmos"
)

// QueryTransferResult predicts the outcome of r. It never mutates c.
// A request for zero charges is a programming error and panics.
func QueryTransferResult(c *cosmos.Cosmos, r Request) Result {
	if r.SpecifiedQuantity == 0 || r.SpecifiedQuantity < cosmos.AllCharges {
		panic(fmt.Sprintf("inventory: transfer of %d charges requested", r.SpecifiedQuantity))
	}
	item := c.Handle(r.Item)
	it := item.Item()
	if it == nil {
		return Result{Type: InvalidResult}
	}
	target := c.Slot(r.TargetSlot)

	var out Result
	itemCapability := item.OwningTransferCapability()
	targetCapability := target.Container().OwningTransferCapability()

	switch {
	case itemCapability.Alive() && targetCapability.Alive() && itemCapability.ID() != targetCapability.ID():
		out.Type = InvalidSlotOrUnownedRoot
	case target.Alive():
		out = ContainmentResult(c, r)
	case r.TargetSlot.IsSet():
		out.Type = InvalidSlotOrUnownedRoot
	default:
		out = Result{Type: SuccessfulTransfer, TransferredCharges: requested(r, it.Charges)}
	}

	if out.Type == SuccessfulTransfer && it.CurrentMounting == component.Mounted && !r.ForceImmediateMount {
		out.Type = UnmountBeforehand
	}
	return out
}

// ContainmentResult evaluates whether r's item fits into r's target slot.
// The target slot must be alive.
func ContainmentResult(c *cosmos.Cosmos, r Request) Result {
	item := c.Handle(r.Item)
	it := item.Item()
	def := item.ItemDef()
	target := c.Slot(r.TargetSlot)
	slot := target.Get()

	switch {
	case it.CurrentSlot == r.TargetSlot:
		return Result{Type: TheSameSlot}
	case r.TargetSlot.Container == r.Item || target.Container().IsInside(r.Item):
		return Result{Type: InvalidSlotOrUnownedRoot}
	case slot.AlwaysAllowExactlyOneItem && len(slot.ItemsInside) == 1 &&
		!CanStackEntities(c.Handle(slot.ItemsInside[0]), item):
		// Replacing the sole item is not supported; PerformTransfer reports
		// it when the request allows replacement.
		return Result{Type: NoSlotAvailable}
	case !target.IsCategoryCompatibleWith(item):
		return Result{Type: IncompatibleCategories}
	}

	var out Result
	if free := target.CalculateFreeSpaceWithParentContainers(); free > 0 {
		if it.Charges == 1 || !def.Stackable {
			if free >= cosmos.SpaceOccupiedWithChildren(item) {
				out.TransferredCharges = 1
			}
		} else {
			fitting := it.Charges
			if def.SpaceOccupiedPerCharge > 0 {
				fitting = min(fitting, free/def.SpaceOccupiedPerCharge)
			}
			out.TransferredCharges = requested(r, fitting)
		}
	}

	if out.TransferredCharges == 0 {
		out.Type = InsufficientSpace
	} else {
		out.Type = SuccessfulTransfer
	}
	return out
}

func requested(r Request, available uint32) uint32 {
	if r.SpecifiedQuantity == cosmos.AllCharges {
		return available
	}
	return min(available, uint32(r.SpecifiedQuantity))
}

// CanStackEntities reports whether a and b are items that merge into one
// stack: distinct entities of the same stackable flavour.
func CanStackEntities(a, b cosmos.Handle) bool {
	if a.Dead() || b.Dead() || a.ID() == b.ID() {
		return false
	}
	if a.Item() == nil || b.Item() == nil || a.FlavourID() != b.FlavourID() {
		return false
	}
	def := a.ItemDef()
	return def != nil && def.Stackable
}

// DetectCompatibleSlot picks the slot of container that item would go into
// by default: the item deposit if there is one, else the first slot whose
// categories accept the item.
func DetectCompatibleSlot(item, container cosmos.Handle) component.SlotFunction {
	ct := container.Container()
	if ct == nil {
		return component.SlotInvalid
	}
	if container.Slot(component.SlotItemDeposit).Alive() {
		return component.SlotItemDeposit
	}
	for _, s := range ct.Slots {
		if container.Slot(s.Function).IsCategoryCompatibleWith(item) {
			return s.Function
		}
	}
	return component.SlotInvalid
}

// CountChargesInside sums the charges of the items directly in slot.
func CountChargesInside(slot cosmos.SlotHandle) uint32 {
	var n uint32
	for _, id := range slot.Items() {
		if it := slot.Container().Cosmos().Handle(id).Item(); it != nil {
			n += it.Charges
		}
	}
	return n
}

// CountChargesInDeposit sums the charges in item's deposit slot.
func CountChargesInDeposit(item cosmos.Handle) uint32 {
	return CountChargesInside(item.Slot(component.SlotItemDeposit))
}
