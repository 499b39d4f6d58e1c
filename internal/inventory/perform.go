package inventory

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	"github.com/topdown/cosmos/internal/cosmos"
)

// PerformTransfer carries out r within step and returns what happened.
// Unsuccessful results are returned without error and without any change
// to the cosmos; the error is reserved for requests that cannot be served.
//
// A mounted item is unmounted first and the request is evaluated again.
func PerformTransfer(r Request, step *cosmos.Step) (Result, error) {
	c := step.Cosmos
	item := c.Handle(r.Item)

	res := QueryTransferResult(c, r)
	undoUnmount := func() {}
	if res.Type == UnmountBeforehand {
		it := item.Item()
		current, intended := it.CurrentMounting, it.IntendedMounting
		undoUnmount = func() {
			it := item.Item()
			it.CurrentMounting, it.IntendedMounting = current, intended
		}
		it.CurrentMounting, it.IntendedMounting = component.Unmounted, component.Unmounted
		if res = QueryTransferResult(c, r); res.Type == UnmountBeforehand {
			undoUnmount()
			return res, fmt.Errorf("unmount %s: %w", item.Name(), ErrUnsupportedOperation)
		}
	}
	if res.Type == NoSlotAvailable && r.AllowReplacement {
		undoUnmount()
		return res, fmt.Errorf("replace item in %s slot: %w", r.TargetSlot.Function, ErrUnsupportedOperation)
	}
	if !res.Successful() {
		undoUnmount()
		c.Log().Debug("transfer rejected",
			zap.Uint64("item", uint64(r.Item)),
			zap.Stringer("slot", r.TargetSlot.Function),
			zap.Stringer("result", res.Type),
		)
		return res, nil
	}

	target := c.Slot(r.TargetSlot)
	isDrop := !target.Alive()
	it := item.Item()
	whole := it.Charges == res.TransferredCharges

	var stackWith cosmos.Handle
	if !isDrop {
		for _, id := range target.Items() {
			if other := c.Handle(id); CanStackEntities(item, other) {
				stackWith = other
				break
			}
		}
	}

	// Split off the moving part before anything is touched, so that a
	// failed clone leaves the cosmos as it was.
	grabbed := item
	if !whole && !stackWith.Alive() {
		grabbed = c.CloneEntity(item)
		if grabbed.Dead() {
			undoUnmount()
			return res, fmt.Errorf("split %d of %d charges off %s: %w",
				res.TransferredCharges, it.Charges, item.Name(), ErrCloneFailed)
		}
		it = item.Item()
		it.Charges -= res.TransferredCharges
		grabbed.Item().Charges = res.TransferredCharges
	}

	previous := item.CurrentSlot()
	previousTransform := item.LogicTransform()
	if previous.Alive() {
		previousTransform = previous.Container().LogicTransform()
		if whole {
			previous.RemoveItem(item)
		}
		if previous.IsInputEnabling() {
			releaseInput(item)
		}
	}

	if stackWith.Alive() {
		if whole {
			step.QueueDestruction(item.ID())
		} else {
			it.Charges -= res.TransferredCharges
		}
		stackWith.Item().Charges += res.TransferredCharges
		return res, nil
	}

	if !isDrop {
		target.AddItem(grabbed)
	}
	place := func(h cosmos.Handle) {
		if rb := h.RigidBody(); rb != nil {
			rb.Transform = previousTransform
			rb.Velocity, rb.AngularVelocity = component.Vec2{}, 0
		}
	}
	place(grabbed)
	grabbed.ForEachContainedItemRecursive(place)
	c.ReassignPhysicalOwnership(grabbed)
	rebirth := func(h cosmos.Handle) {
		if in := cosmos.Find[component.Interpolation](h); in != nil {
			in.PlaceOfBirth = h.LogicTransform()
		}
	}
	rebirth(grabbed)
	grabbed.ForEachContainedItemRecursive(rebirth)

	g := grabbed.Item()
	if isDrop {
		g.CurrentMounting, g.IntendedMounting = component.Unmounted, component.Unmounted
		drop(c, grabbed, r, previousTransform)
		return res, nil
	}

	if target.Get().ItemsNeedMounting {
		g.IntendedMounting = component.Mounted
		if r.ForceImmediateMount {
			g.CurrentMounting = component.Mounted
		}
	} else {
		g.CurrentMounting, g.IntendedMounting = component.Unmounted, component.Unmounted
	}

	event.Post(step.Messages, cosmos.ItemButtonInitMessage{Item: grabbed.ID()})
	grabbed.ForEachContainedSlotAndItemRecursive(
		func(s cosmos.SlotHandle) {
			event.Post(step.Messages, cosmos.SlotButtonInitMessage{Slot: s.ID()})
		},
		func(h cosmos.Handle) {
			event.Post(step.Messages, cosmos.ItemButtonInitMessage{Item: h.ID()})
		},
	)
	return res, nil
}

// drop throws a freshly dropped item away from where it was held.
func drop(c *cosmos.Cosmos, grabbed cosmos.Handle, r Request, from component.Transform) {
	s := c.Settings()
	impulse := component.FromDegrees(from.Rotation).WithLength(s.DropImpulse)
	angle := float32(c.RNGFor(r.Item).Float64() * 360)
	offset := component.FromDegrees(angle).WithLength(s.DropOffsetRadius)

	if rb := grabbed.RigidBody(); rb != nil {
		rb.ApplyImpulse(impulse, offset)
	}
	if sp := cosmos.Find[component.SpecialPhysics](grabbed); sp != nil {
		sp.SinceDropped.Set(s.SinceDroppedMs, c.Timestamp())
	}
}

// releaseInput clears the triggers an item received from the hand it
// was held in.
func releaseInput(item cosmos.Handle) {
	if g := cosmos.Find[component.Gun](item); g != nil {
		g.IsTriggerPressed = false
		g.IsSecondaryTriggerPressed = false
	}
}

// DropFromAllSlots drops every item held directly by container.
func DropFromAllSlots(container cosmos.Handle, step *cosmos.Step) error {
	ct := container.Container()
	if ct == nil {
		return nil
	}
	var errs []error
	for _, s := range ct.Slots {
		for _, id := range append([]ecs.EntityID(nil), s.ItemsInside...) {
			r := Request{Item: id, SpecifiedQuantity: cosmos.AllCharges}
			if _, err := PerformTransfer(r, step); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
