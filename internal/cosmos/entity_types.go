package cosmos

// ComponentKind names one component store.
type ComponentKind uint8

const (
	KindPlacement ComponentKind = iota
	KindRigidBody
	KindFixtures
	KindItem
	KindContainer
	KindMovement
	KindGun
	KindTransferCapability
	KindSpecialPhysics
	KindInterpolation
	KindProcessing
	KindChild
	KindSubstance
	componentKindCount
)

// ComponentSet is a bitmask of ComponentKinds.
type ComponentSet uint32

func Components(kinds ...ComponentKind) ComponentSet {
	var s ComponentSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s ComponentSet) Has(k ComponentKind) bool { return s&(1<<k) != 0 }

// HasAll reports whether every kind of o is in s.
func (s ComponentSet) HasAll(o ComponentSet) bool { return s&o == o }

// EntityType is the closed set of entity shapes. Each type carries a fixed
// component set, so code that needs a given component combination can
// resolve the type once and rely on the set.
type EntityType uint8

const (
	TypePlainSpritedBody EntityType = iota
	TypeControlledCharacter
	TypePlainMissile
	TypeShootableWeapon
	TypeShootableCharge
	TypeMeleeWeapon
	TypeContainerItem
	TypeToolItem
	TypeHandExplosive
	TypeSpriteDecoration
	TypeStaticLight
	TypePointMarker
	EntityTypeCount
)

// Descriptor is the static description of an entity type.
type Descriptor struct {
	Name       string
	Components ComponentSet
}

var (
	bodyComponents = Components(KindRigidBody, KindFixtures, KindInterpolation, KindProcessing, KindSubstance)
	itemComponents = bodyComponents | Components(KindItem, KindSpecialPhysics)
)

var descriptors = [EntityTypeCount]Descriptor{
	TypePlainSpritedBody:    {"plain_sprited_body", bodyComponents},
	TypeControlledCharacter: {"controlled_character", bodyComponents | Components(KindContainer, KindMovement, KindTransferCapability)},
	TypePlainMissile:        {"plain_missile", bodyComponents},
	TypeShootableWeapon:     {"shootable_weapon", itemComponents | Components(KindContainer, KindGun)},
	TypeShootableCharge:     {"shootable_charge", itemComponents},
	TypeMeleeWeapon:         {"melee_weapon", itemComponents},
	TypeContainerItem:       {"container_item", itemComponents | Components(KindContainer)},
	TypeToolItem:            {"tool_item", itemComponents},
	TypeHandExplosive:       {"hand_explosive", itemComponents},
	TypeSpriteDecoration:    {"sprite_decoration", Components(KindPlacement, KindChild, KindProcessing, KindSubstance)},
	TypeStaticLight:         {"static_light", Components(KindPlacement, KindChild, KindProcessing, KindSubstance)},
	TypePointMarker:         {"point_marker", Components(KindPlacement)},
}

// DescriptorOf returns the static description of t.
func DescriptorOf(t EntityType) Descriptor {
	if t >= EntityTypeCount {
		return Descriptor{Name: "unknown"}
	}
	return descriptors[t]
}

func (t EntityType) String() string { return DescriptorOf(t).Name }

// ParseEntityType resolves a type by its descriptor name.
func ParseEntityType(name string) (EntityType, bool) {
	for i, d := range descriptors {
		if d.Name == name {
			return EntityType(i), true
		}
	}
	return 0, false
}

// TypedHandle is a handle whose entity type has been resolved.
type TypedHandle struct {
	Handle
	Type EntityType
}

// Components returns the static component set of the resolved type.
func (t TypedHandle) Components() ComponentSet { return descriptors[t.Type].Components }

// Dispatch resolves the entity's type once and calls fn with the typed
// handle. Dead handles are not dispatched.
func (h Handle) Dispatch(fn func(TypedHandle)) {
	if h.Dead() {
		return
	}
	fn(TypedHandle{Handle: h, Type: h.Type()})
}

// DispatchOnHavingAll calls fn only if the entity's type carries every
// component of required.
func (h Handle) DispatchOnHavingAll(required ComponentSet, fn func(TypedHandle)) {
	h.Dispatch(func(t TypedHandle) {
		if t.Components().HasAll(required) {
			fn(t)
		}
	})
}

// DispatchResult is Dispatch for visitors that produce a value.
func DispatchResult[R any](h Handle, fn func(TypedHandle) R) (R, bool) {
	var out R
	if h.Dead() {
		return out, false
	}
	return fn(TypedHandle{Handle: h, Type: h.Type()}), true
}
