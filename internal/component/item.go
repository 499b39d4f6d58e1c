package component

import (
	"github.com/topdown/cosmos/internal/core/ecs"
)

// SpaceAtomsPerUnit is the number of space atoms in one displayed space unit.
const SpaceAtomsPerUnit = 1000

// Mounting distinguishes items attached and ready to use from items lying
// loose inside their slot.
type Mounting uint8

const (
	Unmounted Mounting = iota
	Mounted
)

func (m Mounting) String() string {
	if m == Mounted {
		return "MOUNTED"
	}
	return "UNMOUNTED"
}

// ItemCategory is a bitmask matched against a slot's allowed categories.
type ItemCategory uint32

const (
	CategoryGeneral      ItemCategory = 0
	CategoryShotCharge   ItemCategory = 1 << 0
	CategoryMagazine     ItemCategory = 1 << 1
	CategoryBarrelAttach ItemCategory = 1 << 2
	CategoryShoulderWear ItemCategory = 1 << 3
	CategoryTorsoArmor   ItemCategory = 1 << 4
	CategoryRailAttach   ItemCategory = 1 << 5
)

// Item is the per-instance state of anything that can sit in a slot.
type Item struct {
	Charges          uint32
	CurrentSlot      SlotID
	CurrentMounting  Mounting
	IntendedMounting Mounting
}

// ItemDef is the flavour-level definition shared by every item instance.
type ItemDef struct {
	SpaceOccupiedPerCharge uint32
	Stackable              bool
	Categories             ItemCategory
	DefaultCharges         uint32
	AttachmentOffset       Transform
}

// SpaceOccupied returns the space taken by the item's charges alone.
func SpaceOccupied(it *Item, def *ItemDef) uint32 {
	return it.Charges * def.SpaceOccupiedPerCharge
}

// SlotFunction names a slot inside a container.
type SlotFunction uint8

const (
	SlotInvalid SlotFunction = iota
	SlotItemDeposit
	SlotGunDetachableMagazine
	SlotGunChamber
	SlotGunMuzzle
	SlotPrimaryHand
	SlotSecondaryHand
	SlotShoulder
	SlotTorso
	SlotPersonalDeposit
	slotFunctionCount
)

var slotFunctionNames = [slotFunctionCount]string{
	"INVALID",
	"ITEM_DEPOSIT",
	"GUN_DETACHABLE_MAGAZINE",
	"GUN_CHAMBER",
	"GUN_MUZZLE",
	"PRIMARY_HAND",
	"SECONDARY_HAND",
	"SHOULDER",
	"TORSO",
	"PERSONAL_DEPOSIT",
}

func (f SlotFunction) String() string {
	if f < slotFunctionCount {
		return slotFunctionNames[f]
	}
	return "UNKNOWN"
}

// ParseSlotFunction is the inverse of String.
func ParseSlotFunction(s string) (SlotFunction, bool) {
	for i, n := range slotFunctionNames {
		if n == s && i != 0 {
			return SlotFunction(i), true
		}
	}
	return SlotInvalid, false
}

// SlotID identifies a slot by its owning entity and function.
// The zero SlotID is the unset slot (dropped / free-standing).
type SlotID struct {
	Container ecs.EntityID
	Function  SlotFunction
}

func (s SlotID) IsSet() bool { return !s.Container.IsZero() && s.Function != SlotInvalid }

// PhysicalBehaviour tells whether items inside a slot stay part of the
// container's physical body or get concealed.
type PhysicalBehaviour uint8

const (
	ConnectAsFixtureOfBody PhysicalBehaviour = iota
	Concealed
)
