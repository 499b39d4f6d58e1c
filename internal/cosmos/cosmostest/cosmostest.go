// Package cosmostest provides a small flavour set and helpers for tests
// that need a populated cosmos.
package cosmostest

import (
	"testing"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/cosmos"
)

// Flavour ids registered by New.
const (
	Soldier component.FlavourID = iota + 1
	Backpack
	Rifle
	Magazine
	Round
	Crate
	Lamp
	Marker
	Pebble
	Medkit
	Pouch
)

const atoms = component.SpaceAtomsPerUnit

// Flavours returns the test flavour set.
func Flavours() []cosmos.Flavour {
	return []cosmos.Flavour{
		{
			ID:   Soldier,
			Name: "soldier",
			Type: cosmos.TypeControlledCharacter,
			RigidBody: &component.RigidBodyDef{
				LinearDamping:  2,
				AngularDamping: 2,
			},
			Movement: &component.MovementDef{Acceleration: 1000, MaxSpeed: 300},
			Container: &component.ContainerDef{Slots: []component.SlotDef{
				{Function: component.SlotPrimaryHand, AlwaysAllowExactlyOneItem: true},
				{Function: component.SlotSecondaryHand, AlwaysAllowExactlyOneItem: true},
				{
					Function:                  component.SlotShoulder,
					CategoryAllowed:           component.CategoryShoulderWear,
					AlwaysAllowExactlyOneItem: true,
					ItemsNeedMounting:         true,
				},
				{
					Function:                  component.SlotTorso,
					CategoryAllowed:           component.CategoryTorsoArmor,
					AlwaysAllowExactlyOneItem: true,
					ItemsNeedMounting:         true,
				},
				{
					Function:          component.SlotPersonalDeposit,
					SpaceAvailable:    2 * atoms,
					PhysicalBehaviour: component.Concealed,
				},
			}},
		},
		{
			ID:   Backpack,
			Name: "backpack",
			Type: cosmos.TypeContainerItem,
			Item: &component.ItemDef{
				SpaceOccupiedPerCharge: 1 * atoms,
				Categories:             component.CategoryShoulderWear,
			},
			Container: &component.ContainerDef{Slots: []component.SlotDef{
				{
					Function:          component.SlotItemDeposit,
					SpaceAvailable:    8 * atoms,
					PhysicalBehaviour: component.Concealed,
				},
			}},
		},
		{
			ID:   Rifle,
			Name: "rifle",
			Type: cosmos.TypeShootableWeapon,
			Item: &component.ItemDef{SpaceOccupiedPerCharge: 3 * atoms},
			Gun:  &component.GunDef{ShotCooldownMs: 100},
			Container: &component.ContainerDef{Slots: []component.SlotDef{
				{
					Function:        component.SlotGunChamber,
					CategoryAllowed: component.CategoryShotCharge,
					SpaceAvailable:  1,
				},
				{
					Function:                  component.SlotGunDetachableMagazine,
					CategoryAllowed:           component.CategoryMagazine,
					AlwaysAllowExactlyOneItem: true,
					ItemsNeedMounting:         true,
				},
			}},
		},
		{
			ID:   Magazine,
			Name: "magazine",
			Type: cosmos.TypeContainerItem,
			Item: &component.ItemDef{
				SpaceOccupiedPerCharge: atoms / 2,
				Categories:             component.CategoryMagazine,
			},
			Container: &component.ContainerDef{Slots: []component.SlotDef{
				{
					Function:          component.SlotItemDeposit,
					CategoryAllowed:   component.CategoryShotCharge,
					SpaceAvailable:    30,
					PhysicalBehaviour: component.Concealed,
				},
			}},
		},
		{
			ID:   Round,
			Name: "round",
			Type: cosmos.TypeShootableCharge,
			Item: &component.ItemDef{
				SpaceOccupiedPerCharge: 1,
				Stackable:              true,
				Categories:             component.CategoryShotCharge,
			},
		},
		{
			ID:        Crate,
			Name:      "crate",
			Type:      cosmos.TypePlainSpritedBody,
			RigidBody: &component.RigidBodyDef{Type: component.BodyStatic},
			Fixtures: &component.FixturesDef{Colliders: []component.Collider{
				{Size: component.Vec2{X: 40, Y: 40}, Density: 1, DensityMultiplier: 1},
			}},
		},
		{ID: Lamp, Name: "lamp", Type: cosmos.TypeStaticLight},
		{ID: Marker, Name: "marker", Type: cosmos.TypePointMarker},
		{
			ID:   Pebble,
			Name: "pebble",
			Type: cosmos.TypeToolItem,
			Item: &component.ItemDef{SpaceOccupiedPerCharge: 1 * atoms},
		},
		{
			ID:   Medkit,
			Name: "medkit",
			Type: cosmos.TypeToolItem,
			Item: &component.ItemDef{
				SpaceOccupiedPerCharge: 1,
				Stackable:              true,
				DefaultCharges:         10,
			},
		},
		{
			ID:   Pouch,
			Name: "pouch",
			Type: cosmos.TypeContainerItem,
			Item: &component.ItemDef{SpaceOccupiedPerCharge: 10},
			Container: &component.ContainerDef{Slots: []component.SlotDef{
				{
					Function:          component.SlotItemDeposit,
					SpaceAvailable:    4,
					PhysicalBehaviour: component.Concealed,
				},
			}},
		},
	}
}

// New returns a cosmos with Flavours registered.
func New(tb testing.TB, opts ...cosmos.Option) *cosmos.Cosmos {
	tb.Helper()
	c := cosmos.New(opts...)
	for _, f := range Flavours() {
		if err := c.RegisterFlavour(f); err != nil {
			tb.Fatalf("register %s: %v", f.Name, err)
		}
	}
	return c
}

// Spawn creates an entity of flavour at pos.
func Spawn(tb testing.TB, c *cosmos.Cosmos, flavour component.FlavourID, pos component.Vec2) cosmos.Handle {
	tb.Helper()
	h, err := c.CreateEntity(flavour, func(h cosmos.Handle) {
		h.SetLogicTransform(component.Transform{Pos: pos})
	})
	if err != nil {
		tb.Fatalf("create flavour %d: %v", flavour, err)
	}
	return h
}

// Put places item into slot directly, bypassing transfer rules, and
// updates physical ownership.
func Put(c *cosmos.Cosmos, item cosmos.Handle, slot cosmos.SlotHandle) {
	if cur := item.CurrentSlot(); cur.Alive() {
		cur.RemoveItem(item)
	}
	slot.AddItem(item)
	c.ReassignPhysicalOwnership(item)
}

// InStep runs fn inside one step, before the solver.
func InStep(c *cosmos.Cosmos, fn func(*cosmos.Step)) {
	c.AdvanceDeterministicSchemata(cosmos.Entropy{}, fn, nil)
}
