package inventory_test

import (
	"errors"
	"testing"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/cosmos/cosmostest"
	"github.com/topdown/cosmos/internal/inventory"
)

func perform(t *testing.T, c *cosmos.Cosmos, r inventory.Request) (inventory.Result, error) {
	t.Helper()
	var (
		res inventory.Result
		err error
	)
	cosmostest.InStep(c, func(step *cosmos.Step) {
		res, err = inventory.PerformTransfer(r, step)
	})
	return res, err
}

func into(item cosmos.Handle, slot cosmos.SlotHandle, quantity int32) inventory.Request {
	return inventory.Request{Item: item.ID(), TargetSlot: slot.ID(), SpecifiedQuantity: quantity}
}

func dropOf(item cosmos.Handle) inventory.Request {
	return inventory.Request{Item: item.ID(), SpecifiedQuantity: cosmos.AllCharges}
}

func TestPartialTransferSplitsStack(t *testing.T) {
	c := cosmostest.New(t)
	pouch := cosmostest.Spawn(t, c, cosmostest.Pouch, component.Vec2{})
	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{X: 30})
	deposit := pouch.Slot(component.SlotItemDeposit)

	r := into(medkit, deposit, cosmos.AllCharges)
	if got := inventory.QueryTransferResult(c, r); got != (inventory.Result{Type: inventory.SuccessfulTransfer, TransferredCharges: 4}) {
		t.Fatalf("query = %+v", got)
	}
	res, err := perform(t, c, r)
	if err != nil || res.TransferredCharges != 4 {
		t.Fatalf("perform = %+v, %v", res, err)
	}

	if got := medkit.Item().Charges; got != 6 {
		t.Errorf("source charges = %d, want 6", got)
	}
	if medkit.CurrentSlot().Alive() {
		t.Error("source moved into the slot")
	}
	items := deposit.Items()
	if len(items) != 1 || items[0] == medkit.ID() {
		t.Fatalf("deposit = %v", items)
	}
	part := c.Handle(items[0])
	if part.Item().Charges != 4 || part.Item().CurrentSlot != deposit.ID() {
		t.Fatalf("part = %+v", *part.Item())
	}
	if deposit.CalculateLocalFreeSpace() != 0 {
		t.Errorf("free space = %d", deposit.CalculateLocalFreeSpace())
	}
}

func TestIndivisibleItemIntoFullSlot(t *testing.T) {
	c := cosmostest.New(t)
	pouch := cosmostest.Spawn(t, c, cosmostest.Pouch, component.Vec2{})
	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	round := cosmostest.Spawn(t, c, cosmostest.Round, component.Vec2{})
	deposit := pouch.Slot(component.SlotItemDeposit)
	if _, err := perform(t, c, into(medkit, deposit, 4)); err != nil {
		t.Fatal(err)
	}

	r := into(round, deposit, cosmos.AllCharges)
	if got := inventory.QueryTransferResult(c, r); got.Type != inventory.InsufficientSpace || got.TransferredCharges != 0 {
		t.Fatalf("query = %+v", got)
	}
	res, err := perform(t, c, r)
	if err != nil || res.Type != inventory.InsufficientSpace {
		t.Fatalf("perform = %+v, %v", res, err)
	}
	if round.CurrentSlot().Alive() || round.Item().Charges != 1 {
		t.Fatal("rejected transfer changed the round")
	}
}

func TestDropOfMountedItemUnmountsFirst(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{X: 7, Y: 3})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	shoulder := soldier.Slot(component.SlotShoulder)

	mount := into(backpack, shoulder, cosmos.AllCharges)
	mount.ForceImmediateMount = true
	if res, err := perform(t, c, mount); err != nil || !res.Successful() {
		t.Fatalf("mount = %+v, %v", res, err)
	}
	if it := backpack.Item(); it.CurrentMounting != component.Mounted || it.IntendedMounting != component.Mounted {
		t.Fatalf("mounting = %v/%v", it.CurrentMounting, it.IntendedMounting)
	}

	r := dropOf(backpack)
	if got := inventory.QueryTransferResult(c, r); got.Type != inventory.UnmountBeforehand {
		t.Fatalf("query = %+v", got)
	}
	res, err := perform(t, c, r)
	if err != nil || !res.Successful() {
		t.Fatalf("drop = %+v, %v", res, err)
	}

	if backpack.CurrentSlot().Alive() || len(shoulder.Items()) != 0 {
		t.Fatal("backpack still worn")
	}
	if backpack.Item().CurrentMounting != component.Unmounted {
		t.Error("dropped backpack still mounted")
	}
	if got := backpack.LogicTransform().Pos; got != (component.Vec2{X: 7, Y: 3}) {
		t.Errorf("dropped at %v, want the wearer's position", got)
	}
	if !c.Physics().HasBody(backpack.ID()) {
		t.Error("dropped backpack has no body")
	}
	sp := cosmos.Get[component.SpecialPhysics](backpack)
	if !sp.SinceDropped.Armed || sp.SinceDropped.DurationMs != 200 {
		t.Errorf("since dropped = %+v", sp.SinceDropped)
	}
	if sp.SinceDropped.Passed(c.Timestamp()) {
		t.Error("since dropped elapsed immediately")
	}
}

func TestDropAppliesImpulse(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	cosmostest.Put(c, pebble, soldier.Slot(component.SlotPrimaryHand))

	var impulse component.Vec2
	cosmostest.InStep(c, func(step *cosmos.Step) {
		if _, err := inventory.PerformTransfer(dropOf(pebble), step); err != nil {
			t.Fatal(err)
		}
		impulse = pebble.RigidBody().PendingImpulse
	})
	if l := impulse.Length(); l < 59.9 || l > 60.1 {
		t.Fatalf("impulse = %v (length %v), want length 60", impulse, l)
	}
}

func TestQueryIsPure(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	cosmostest.Put(c, backpack, soldier.Slot(component.SlotShoulder))

	requests := []inventory.Request{
		into(medkit, backpack.Slot(component.SlotItemDeposit), 3),
		into(medkit, soldier.Slot(component.SlotTorso), cosmos.AllCharges),
		into(backpack, soldier.Slot(component.SlotShoulder), cosmos.AllCharges),
		dropOf(backpack),
	}
	before, _ := c.Checksum()
	for _, r := range requests {
		first := inventory.QueryTransferResult(c, r)
		second := inventory.QueryTransferResult(c, r)
		if first != second {
			t.Errorf("query %+v: %+v then %+v", r, first, second)
		}
	}
	if after, _ := c.Checksum(); after != before {
		t.Fatal("query mutated the cosmos")
	}
}

func TestStackMerge(t *testing.T) {
	c := cosmostest.New(t)
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	a := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	b := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	d := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	deposit := backpack.Slot(component.SlotItemDeposit)

	if _, err := perform(t, c, into(a, deposit, cosmos.AllCharges)); err != nil {
		t.Fatal(err)
	}
	if !inventory.CanStackEntities(a, b) || inventory.CanStackEntities(a, a) {
		t.Fatal("stacking rule")
	}

	res, err := perform(t, c, into(b, deposit, 3))
	if err != nil || res.TransferredCharges != 3 {
		t.Fatalf("partial merge = %+v, %v", res, err)
	}
	if a.Item().Charges != 13 || b.Item().Charges != 7 {
		t.Fatalf("charges a=%d b=%d", a.Item().Charges, b.Item().Charges)
	}
	if len(deposit.Items()) != 1 {
		t.Fatalf("deposit = %v", deposit.Items())
	}

	res, err = perform(t, c, into(d, deposit, cosmos.AllCharges))
	if err != nil || res.TransferredCharges != 10 {
		t.Fatalf("whole merge = %+v, %v", res, err)
	}
	if d.Alive() {
		t.Fatal("merged source survived the step")
	}
	if a.Item().Charges != 23 {
		t.Fatalf("stack charges = %d, want 23", a.Item().Charges)
	}
}

func TestSpaceInvariantHolds(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	pouch := cosmostest.Spawn(t, c, cosmostest.Pouch, component.Vec2{})
	cosmostest.Put(c, backpack, soldier.Slot(component.SlotShoulder))

	var loose []cosmos.Handle
	for i := 0; i < 4; i++ {
		loose = append(loose,
			cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{}),
			cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{}),
		)
	}
	targets := []cosmos.SlotHandle{
		backpack.Slot(component.SlotItemDeposit),
		soldier.Slot(component.SlotPersonalDeposit),
		pouch.Slot(component.SlotItemDeposit),
	}
	for i, h := range loose {
		for _, s := range targets {
			if h.Dead() {
				break
			}
			if _, err := perform(t, c, into(h, s, int32(i%3+1))); err != nil {
				t.Fatal(err)
			}
			for _, check := range targets {
				var used uint32
				for _, id := range check.Items() {
					used += cosmos.SpaceOccupiedWithChildren(c.Handle(id))
				}
				if used > check.Get().SpaceAvailable {
					t.Fatalf("%s over capacity: %d > %d", check.ID().Function, used, check.Get().SpaceAvailable)
				}
			}
		}
	}
}

func TestContainmentRejections(t *testing.T) {
	c := cosmostest.New(t)
	alice := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	bob := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{X: 100})
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	other := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	cosmostest.Put(c, pebble, alice.Slot(component.SlotPrimaryHand))

	cases := []struct {
		name string
		r    inventory.Request
		want inventory.ResultType
	}{
		{"foreign capability", into(pebble, bob.Slot(component.SlotPrimaryHand), cosmos.AllCharges), inventory.InvalidSlotOrUnownedRoot},
		{"same slot", into(pebble, alice.Slot(component.SlotPrimaryHand), cosmos.AllCharges), inventory.TheSameSlot},
		{"occupied singleton", into(other, alice.Slot(component.SlotPrimaryHand), cosmos.AllCharges), inventory.NoSlotAvailable},
		{"category", into(other, alice.Slot(component.SlotShoulder), cosmos.AllCharges), inventory.IncompatibleCategories},
		{"into itself", into(backpack, backpack.Slot(component.SlotItemDeposit), cosmos.AllCharges), inventory.InvalidSlotOrUnownedRoot},
		{"missing slot", into(other, backpack.Slot(component.SlotGunChamber), cosmos.AllCharges), inventory.InvalidSlotOrUnownedRoot},
		{"fits", into(other, alice.Slot(component.SlotSecondaryHand), cosmos.AllCharges), inventory.SuccessfulTransfer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := inventory.QueryTransferResult(c, tc.r); got.Type != tc.want {
				t.Fatalf("got %s, want %s", got.Type, tc.want)
			}
		})
	}
}

func TestReplacementIsUnsupported(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	held := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	other := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	hand := soldier.Slot(component.SlotPrimaryHand)
	cosmostest.Put(c, held, hand)

	r := into(other, hand, cosmos.AllCharges)
	r.AllowReplacement = true
	res, err := perform(t, c, r)
	if !errors.Is(err, inventory.ErrUnsupportedOperation) || res.Type != inventory.NoSlotAvailable {
		t.Fatalf("perform = %+v, %v", res, err)
	}
	if items := hand.Items(); len(items) != 1 || items[0] != held.ID() {
		t.Fatalf("hand = %v", items)
	}
}

func TestZeroQuantityPanics(t *testing.T) {
	c := cosmostest.New(t)
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	defer func() {
		if recover() == nil {
			t.Fatal("zero quantity accepted")
		}
	}()
	inventory.QueryTransferResult(c, inventory.Request{Item: pebble.ID()})
}

func TestCloneFailureLeavesSourceIntact(t *testing.T) {
	c := cosmostest.New(t, cosmos.WithMaxEntities(2))
	pouch := cosmostest.Spawn(t, c, cosmostest.Pouch, component.Vec2{})
	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})

	_, err := perform(t, c, into(medkit, pouch.Slot(component.SlotItemDeposit), cosmos.AllCharges))
	if !errors.Is(err, inventory.ErrCloneFailed) {
		t.Fatalf("err = %v", err)
	}
	if medkit.Item().Charges != 10 || len(pouch.Slot(component.SlotItemDeposit).Items()) != 0 {
		t.Fatal("failed split changed state")
	}
}

func TestCloneFailureKeepsMounting(t *testing.T) {
	c := cosmostest.New(t, cosmos.WithMaxEntities(2))
	pouch := cosmostest.Spawn(t, c, cosmostest.Pouch, component.Vec2{})
	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	it := medkit.Item()
	it.CurrentMounting, it.IntendedMounting = component.Mounted, component.Mounted

	r := into(medkit, pouch.Slot(component.SlotItemDeposit), cosmos.AllCharges)
	if res := inventory.QueryTransferResult(c, r); res.Type != inventory.UnmountBeforehand {
		t.Fatalf("query = %+v", res)
	}
	_, err := perform(t, c, r)
	if !errors.Is(err, inventory.ErrCloneFailed) {
		t.Fatalf("err = %v", err)
	}
	it = medkit.Item()
	if it.Charges != 10 || it.CurrentMounting != component.Mounted || it.IntendedMounting != component.Mounted {
		t.Fatalf("failed split changed the item: %+v", it)
	}
}

func TestTransferPostsButtonMessagesAndReleasesInput(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	rifle := cosmostest.Spawn(t, c, cosmostest.Rifle, component.Vec2{})
	mag := cosmostest.Spawn(t, c, cosmostest.Magazine, component.Vec2{})
	cosmostest.Put(c, rifle, soldier.Slot(component.SlotPrimaryHand))
	cosmostest.Put(c, mag, rifle.Slot(component.SlotGunDetachableMagazine))
	cosmos.Get[component.Gun](rifle).IsTriggerPressed = true

	var (
		items []ecs.EntityID
		slots []component.SlotFunction
	)
	cosmostest.InStep(c, func(step *cosmos.Step) {
		res, err := inventory.PerformTransfer(into(rifle, soldier.Slot(component.SlotSecondaryHand), cosmos.AllCharges), step)
		if err != nil || !res.Successful() {
			t.Fatalf("perform = %+v, %v", res, err)
		}
		for _, m := range event.Peek[cosmos.ItemButtonInitMessage](step.Messages) {
			items = append(items, m.Item)
		}
		for _, m := range event.Peek[cosmos.SlotButtonInitMessage](step.Messages) {
			slots = append(slots, m.Slot.Function)
		}
	})

	if len(items) != 2 || items[0] != rifle.ID() || items[1] != mag.ID() {
		t.Errorf("item buttons = %v", items)
	}
	if len(slots) != 3 {
		t.Errorf("slot buttons = %v", slots)
	}
	if cosmos.Get[component.Gun](rifle).IsTriggerPressed {
		t.Error("trigger survived leaving the hand")
	}
}

func TestMountingOnInsert(t *testing.T) {
	c := cosmostest.New(t)
	rifle := cosmostest.Spawn(t, c, cosmostest.Rifle, component.Vec2{})
	mag := cosmostest.Spawn(t, c, cosmostest.Magazine, component.Vec2{})

	if _, err := perform(t, c, into(mag, rifle.Slot(component.SlotGunDetachableMagazine), cosmos.AllCharges)); err != nil {
		t.Fatal(err)
	}
	it := mag.Item()
	if it.IntendedMounting != component.Mounted || it.CurrentMounting != component.Unmounted {
		t.Fatalf("mounting = %v/%v", it.CurrentMounting, it.IntendedMounting)
	}
}

func TestDropFromAllSlots(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	wear := into(backpack, soldier.Slot(component.SlotShoulder), cosmos.AllCharges)
	wear.ForceImmediateMount = true
	if _, err := perform(t, c, wear); err != nil {
		t.Fatal(err)
	}
	cosmostest.Put(c, pebble, soldier.Slot(component.SlotPrimaryHand))

	var err error
	cosmostest.InStep(c, func(step *cosmos.Step) {
		err = inventory.DropFromAllSlots(soldier, step)
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range soldier.Container().Slots {
		if len(s.ItemsInside) != 0 {
			t.Errorf("%s still holds %v", s.Function, s.ItemsInside)
		}
	}
	if backpack.CurrentSlot().Alive() || pebble.CurrentSlot().Alive() {
		t.Fatal("items not dropped")
	}
}
