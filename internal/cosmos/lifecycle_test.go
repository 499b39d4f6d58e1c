package cosmos_test

import (
	"errors"
	"testing"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/cosmos/cosmostest"
)

func TestCreateEntityFromFlavour(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{X: 10, Y: 20})

	if soldier.Type() != cosmos.TypeControlledCharacter {
		t.Fatalf("type = %s", soldier.Type())
	}
	if got := len(soldier.Container().Slots); got != 5 {
		t.Fatalf("slots = %d, want 5", got)
	}
	if m := cosmos.Get[component.Movement](soldier); m.MaxSpeed != 300 {
		t.Errorf("max speed = %v", m.MaxSpeed)
	}
	if got := soldier.LogicTransform().Pos; got != (component.Vec2{X: 10, Y: 20}) {
		t.Errorf("pos = %v", got)
	}
	if in := cosmos.Get[component.Interpolation](soldier); in.PlaceOfBirth.Pos != (component.Vec2{X: 10, Y: 20}) {
		t.Errorf("place of birth = %v", in.PlaceOfBirth)
	}

	medkit := cosmostest.Spawn(t, c, cosmostest.Medkit, component.Vec2{})
	if got := medkit.Item().Charges; got != 10 {
		t.Errorf("default charges = %d, want 10", got)
	}
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	if got := pebble.Item().Charges; got != 1 {
		t.Errorf("charges = %d, want 1", got)
	}
}

func TestCreateEntityErrors(t *testing.T) {
	c := cosmostest.New(t, cosmos.WithMaxEntities(1))

	if _, err := c.CreateEntity(999); !errors.Is(err, cosmos.ErrUnknownFlavour) {
		t.Fatalf("unknown flavour err = %v", err)
	}
	cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	h, err := c.CreateEntity(cosmostest.Crate)
	if !errors.Is(err, cosmos.ErrEntityCreation) {
		t.Fatalf("exhausted pool err = %v", err)
	}
	if h.Alive() {
		t.Fatal("failed creation returned a live handle")
	}
}

func TestCloneFailureYieldsDeadHandle(t *testing.T) {
	c := cosmostest.New(t, cosmos.WithMaxEntities(1))
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})

	if clone := c.CloneEntity(crate); clone.Alive() {
		t.Fatal("clone succeeded on an exhausted pool")
	}
	if clone := c.CloneEntity(c.DeadHandle()); clone.Alive() {
		t.Fatal("clone of a dead handle succeeded")
	}
	if c.EntitiesCount() != 1 {
		t.Fatalf("count = %d", c.EntitiesCount())
	}
}

func TestCloneIsFreeStandingAndEmpty(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{X: 5})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	cosmostest.Put(c, backpack, soldier.Slot(component.SlotShoulder))
	cosmostest.Put(c, pebble, backpack.Slot(component.SlotItemDeposit))

	clone := c.CloneEntity(backpack)
	if clone.Dead() {
		t.Fatal("clone failed")
	}
	if clone.ID() == backpack.ID() {
		t.Fatal("clone reused the source id")
	}
	if clone.CurrentSlot().Alive() {
		t.Error("clone sits in a slot")
	}
	if items := clone.Slot(component.SlotItemDeposit).Items(); len(items) != 0 {
		t.Errorf("clone holds %v", items)
	}
	if items := backpack.Slot(component.SlotItemDeposit).Items(); len(items) != 1 {
		t.Errorf("source lost its items: %v", items)
	}
	if got := clone.LogicTransform().Pos; got != (component.Vec2{X: 5}) {
		t.Errorf("clone pos = %v, want source logic position", got)
	}
	if !c.Physics().HasBody(clone.ID()) {
		t.Error("free-standing clone has no body")
	}
}

func TestUndoLastCreateEntityReusesID(t *testing.T) {
	c := cosmostest.New(t)
	cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	h := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	id := h.ID()

	c.UndoLastCreateEntity(h)
	if h.Alive() {
		t.Fatal("undone entity alive")
	}
	if got := c.Flavours().EntitiesOfFlavour(cosmostest.Crate); len(got) != 1 {
		t.Fatalf("flavour cache = %v", got)
	}
	again := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	if again.ID() != id {
		t.Fatalf("id = %v, want %v", again.ID(), id)
	}
}

func TestDeleteEntityOrphansContainedItems(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{X: 100, Y: 50})
	backpack := cosmostest.Spawn(t, c, cosmostest.Backpack, component.Vec2{})
	pebble := cosmostest.Spawn(t, c, cosmostest.Pebble, component.Vec2{})
	cosmostest.Put(c, backpack, soldier.Slot(component.SlotShoulder))
	cosmostest.Put(c, pebble, backpack.Slot(component.SlotItemDeposit))

	c.DeleteEntity(soldier)
	c.DeleteEntity(soldier)

	if soldier.Alive() {
		t.Fatal("soldier alive")
	}
	if !backpack.Alive() || !pebble.Alive() {
		t.Fatal("contained items died with their container")
	}
	if backpack.CurrentSlot().Alive() || backpack.Item().CurrentSlot.IsSet() {
		t.Error("backpack still in a slot")
	}
	if got := backpack.LogicTransform().Pos; got != (component.Vec2{X: 100, Y: 50}) {
		t.Errorf("backpack pos = %v, want where it was carried", got)
	}
	if !c.Physics().HasBody(backpack.ID()) {
		t.Error("orphaned backpack has no body")
	}
	if pebble.CurrentSlot().ID().Container != backpack.ID() {
		t.Error("pebble left the backpack")
	}
	if pebble.Fixtures().Activated {
		t.Error("pebble in a concealed slot has active fixtures")
	}
	if c.Physics().PendingCount() != 0 {
		t.Errorf("pending colliders = %d", c.Physics().PendingCount())
	}
}

func TestDeleteEntityUnbindsChildren(t *testing.T) {
	c := cosmostest.New(t)
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	lamp := cosmostest.Spawn(t, c, cosmostest.Lamp, component.Vec2{})
	lamp.SetParent(crate.ID())
	parent := crate.ID()

	c.DeleteEntity(crate)
	if lamp.Dead() {
		t.Fatal("child deleted with its parent")
	}
	if got := c.Relational().ChildrenOf(parent); len(got) != 0 {
		t.Fatalf("dead parent still lists %v", got)
	}
	if p := c.Relational().ParentOf(lamp.ID()); !p.IsZero() {
		t.Fatalf("lamp parent = %v", p)
	}
	if p := cosmos.Get[component.Child](lamp).Parent; !p.IsZero() {
		t.Fatalf("lamp child component = %v", p)
	}

	c.ReinferAllEntities()
	if got := c.Relational().ChildrenOf(parent); len(got) != 0 {
		t.Fatalf("reinference relinked %v to the dead parent", got)
	}
}

func TestClearKeepsOldIDsDead(t *testing.T) {
	c := cosmostest.New(t)
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	old := crate.ID()

	c.Clear()
	if c.Alive(old) {
		t.Fatal("id alive after Clear")
	}
	for _, f := range cosmostest.Flavours() {
		if err := c.RegisterFlavour(f); err != nil {
			t.Fatal(err)
		}
	}
	fresh := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	if fresh.ID().Index() != old.Index() || fresh.ID() == old {
		t.Fatalf("fresh %v, old %v", fresh.ID(), old)
	}
	if c.Alive(old) || c.Handle(old).Alive() {
		t.Fatal("stale id resolves to the new occupant")
	}
}

func TestDeleteEntityWithChildrenCascades(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	rifle := cosmostest.Spawn(t, c, cosmostest.Rifle, component.Vec2{})
	mag := cosmostest.Spawn(t, c, cosmostest.Magazine, component.Vec2{})
	rounds := cosmostest.Spawn(t, c, cosmostest.Round, component.Vec2{})
	lamp := cosmostest.Spawn(t, c, cosmostest.Lamp, component.Vec2{})
	decor := cosmostest.Spawn(t, c, cosmostest.Lamp, component.Vec2{})
	bystander := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{X: 500})

	cosmostest.Put(c, rifle, soldier.Slot(component.SlotPrimaryHand))
	cosmostest.Put(c, mag, rifle.Slot(component.SlotGunDetachableMagazine))
	cosmostest.Put(c, rounds, mag.Slot(component.SlotItemDeposit))
	lamp.SetParent(soldier.ID())
	decor.SetParent(lamp.ID())

	q := c.MakeDeletionQueue(soldier)
	want := []ecs.EntityID{soldier.ID(), lamp.ID(), decor.ID(), rifle.ID(), mag.ID(), rounds.ID()}
	if len(q) != len(want) {
		t.Fatalf("queue = %v, want %v", q, want)
	}
	for i := range want {
		if q[i] != want[i] {
			t.Fatalf("queue[%d] = %v, want %v", i, q[i], want[i])
		}
	}

	before := c.EntitiesCount()
	c.DeleteEntityWithChildren(soldier)
	if got := before - c.EntitiesCount(); got != len(want) {
		t.Fatalf("deleted %d entities, want %d", got, len(want))
	}
	for _, id := range want {
		if c.Alive(id) {
			t.Errorf("%v survived", id)
		}
	}
	if !bystander.Alive() {
		t.Error("unrelated entity deleted")
	}
	if got := c.Relational().ChildrenOf(lamp.ID()); len(got) != 0 {
		t.Errorf("relational cache still lists %v under the lamp", got)
	}
	if c.Physics().PendingCount() != 0 {
		t.Errorf("pending colliders = %d", c.Physics().PendingCount())
	}
}

func TestSpecificNameIsNormalized(t *testing.T) {
	c := cosmostest.New(t)
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	if crate.Name() != "crate" {
		t.Fatalf("name = %q", crate.Name())
	}
	c.SetSpecificName(crate, "cafe\u0301")
	if got := crate.Name(); got != "caf\u00e9" {
		t.Fatalf("name = %q, want NFC form", got)
	}
	if got := c.EntityNamed("caf\u00e9"); got.ID() != crate.ID() {
		t.Fatalf("EntityNamed = %v", got.ID())
	}
	c.SetSpecificName(crate, "")
	if _, ok := crate.SpecificName(); ok {
		t.Fatal("empty name did not clear the override")
	}
}
