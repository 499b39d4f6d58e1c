package component

import "github.com/topdown/cosmos/internal/core/ecs"

// FlavourID identifies an entity flavour. Zero is the unset flavour.
type FlavourID uint32

// MovementFlags mirror held movement intents.
type MovementFlags uint8

const (
	MoveUp MovementFlags = 1 << iota
	MoveDown
	MoveLeft
	MoveRight
)

// Movement turns held intents into forces on the entity's body.
type Movement struct {
	Flags        MovementFlags
	Acceleration float32
	MaxSpeed     float32
}

// MovementDef is the flavour-level movement tuning.
type MovementDef struct {
	Acceleration float32
	MaxSpeed     float32
}

// Gun carries the trigger state driven by its wielder's input.
type Gun struct {
	IsTriggerPressed          bool
	IsSecondaryTriggerPressed bool
}

// GunDef is the flavour-level gun definition.
type GunDef struct {
	ShotCooldownMs float32
}

// ItemSlotTransfers marks an entity as a transfer capability: items held
// anywhere below it may only be moved between slots it owns.
type ItemSlotTransfers struct {
	PickupTimeoutMs float32
}

// ProcessingSubject names a processing list.
type ProcessingSubject uint8

const (
	SubjectsWithPhysics ProcessingSubject = iota
	SubjectsWithMovement
	SubjectsWithItem
	SubjectsWithContainer
	SubjectsWithGun
	ProcessingSubjectCount
)

func (s ProcessingSubject) String() string {
	switch s {
	case SubjectsWithPhysics:
		return "WITH_PHYSICS"
	case SubjectsWithMovement:
		return "WITH_MOVEMENT"
	case SubjectsWithItem:
		return "WITH_ITEM"
	case SubjectsWithContainer:
		return "WITH_CONTAINER"
	case SubjectsWithGun:
		return "WITH_GUN"
	}
	return "UNKNOWN"
}

// Processing lets an entity opt out of selected processing lists.
type Processing struct {
	Disabled uint32 // bit per ProcessingSubject
}

func (p *Processing) IsDisabled(s ProcessingSubject) bool {
	return p.Disabled&(1<<s) != 0
}

func (p *Processing) SetDisabled(s ProcessingSubject, disabled bool) {
	if disabled {
		p.Disabled |= 1 << s
	} else {
		p.Disabled &^= 1 << s
	}
}

// Substance marks entities that have a material presence and thus get caches.
type Substance struct{}

// Placement is the transform of entities without a rigid body.
type Placement struct {
	Transform Transform
}

// Child attaches an entity to a parent; children die with their parent.
type Child struct {
	Parent ecs.EntityID
}
