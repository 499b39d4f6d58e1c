package cosmos

import (
	"reflect"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// EntityMeta records what an entity slot was created as.
type EntityMeta struct {
	Type    EntityType
	Flavour component.FlavourID
}

// Storage holds one slot store per component type. Stores are values so
// that reading a snapshot into Storage keeps their addresses stable.
type Storage struct {
	Meta           ecs.SlotStore[EntityMeta]
	Placements     ecs.SlotStore[component.Placement]
	RigidBodies    ecs.SlotStore[component.RigidBody]
	Fixtures       ecs.SlotStore[component.Fixtures]
	Items          ecs.SlotStore[component.Item]
	Containers     ecs.SlotStore[component.Container]
	Movements      ecs.SlotStore[component.Movement]
	Guns           ecs.SlotStore[component.Gun]
	Capabilities   ecs.SlotStore[component.ItemSlotTransfers]
	SpecialPhysics ecs.SlotStore[component.SpecialPhysics]
	Interpolations ecs.SlotStore[component.Interpolation]
	Processing     ecs.SlotStore[component.Processing]
	Children       ecs.SlotStore[component.Child]
	Substances     ecs.SlotStore[component.Substance]
}

type namedStore struct {
	name string
	kind ComponentKind
	get  func(ecs.EntityID) (any, bool)
}

func named[T any](name string, kind ComponentKind, s *ecs.SlotStore[T]) namedStore {
	return namedStore{
		name: name,
		kind: kind,
		get: func(id ecs.EntityID) (any, bool) {
			c, ok := s.Get(id)
			return c, ok
		},
	}
}

// bind registers every store with reg and indexes them by component type
// for the generic Find/Get accessors.
func (s *Storage) bind(reg *ecs.Registry) (map[reflect.Type]any, []namedStore) {
	byType := make(map[reflect.Type]any, componentKindCount+1)
	var list []namedStore

	add := func(store ecs.Store, typ reflect.Type, ns namedStore) {
		reg.Register(store)
		byType[typ] = store
		if ns.name != "" {
			list = append(list, ns)
		}
	}

	add(&s.Meta, reflect.TypeFor[EntityMeta](), namedStore{})
	add(&s.Placements, reflect.TypeFor[component.Placement](), named("placement", KindPlacement, &s.Placements))
	add(&s.RigidBodies, reflect.TypeFor[component.RigidBody](), named("rigid_body", KindRigidBody, &s.RigidBodies))
	add(&s.Fixtures, reflect.TypeFor[component.Fixtures](), named("fixtures", KindFixtures, &s.Fixtures))
	add(&s.Items, reflect.TypeFor[component.Item](), named("item", KindItem, &s.Items))
	add(&s.Containers, reflect.TypeFor[component.Container](), named("container", KindContainer, &s.Containers))
	add(&s.Movements, reflect.TypeFor[component.Movement](), named("movement", KindMovement, &s.Movements))
	add(&s.Guns, reflect.TypeFor[component.Gun](), named("gun", KindGun, &s.Guns))
	add(&s.Capabilities, reflect.TypeFor[component.ItemSlotTransfers](), named("item_slot_transfers", KindTransferCapability, &s.Capabilities))
	add(&s.SpecialPhysics, reflect.TypeFor[component.SpecialPhysics](), named("special_physics", KindSpecialPhysics, &s.SpecialPhysics))
	add(&s.Interpolations, reflect.TypeFor[component.Interpolation](), named("interpolation", KindInterpolation, &s.Interpolations))
	add(&s.Processing, reflect.TypeFor[component.Processing](), named("processing", KindProcessing, &s.Processing))
	add(&s.Children, reflect.TypeFor[component.Child](), named("child", KindChild, &s.Children))
	add(&s.Substances, reflect.TypeFor[component.Substance](), named("substance", KindSubstance, &s.Substances))

	return byType, list
}

// instantiate fills the component slots of id from flavour f.
func (s *Storage) instantiate(id ecs.EntityID, f *Flavour) {
	set := descriptors[f.Type].Components
	s.Meta.Set(id, &EntityMeta{Type: f.Type, Flavour: f.ID})

	if set.Has(KindPlacement) {
		s.Placements.Set(id, &component.Placement{})
	}
	if set.Has(KindRigidBody) {
		rb := &component.RigidBody{}
		if f.RigidBody != nil {
			rb.Type = f.RigidBody.Type
			rb.LinearDamping = f.RigidBody.LinearDamping
			rb.AngularDamping = f.RigidBody.AngularDamping
		}
		s.RigidBodies.Set(id, rb)
	}
	if set.Has(KindFixtures) {
		fx := &component.Fixtures{Activated: true, OwnerBody: id}
		if f.Fixtures != nil && len(f.Fixtures.Colliders) > 0 {
			fx.Colliders = append([]component.Collider(nil), f.Fixtures.Colliders...)
		} else {
			fx.Colliders = []component.Collider{{Size: component.Vec2{X: 1, Y: 1}, Density: 1, DensityMultiplier: 1}}
		}
		s.Fixtures.Set(id, fx)
	}
	if set.Has(KindItem) {
		charges := f.Item.DefaultCharges
		if charges == 0 {
			charges = 1
		}
		s.Items.Set(id, &component.Item{Charges: charges})
	}
	if set.Has(KindContainer) {
		c := component.NewContainer(f.Container)
		s.Containers.Set(id, &c)
	}
	if set.Has(KindMovement) {
		m := &component.Movement{}
		if f.Movement != nil {
			m.Acceleration = f.Movement.Acceleration
			m.MaxSpeed = f.Movement.MaxSpeed
		}
		s.Movements.Set(id, m)
	}
	if set.Has(KindGun) {
		s.Guns.Set(id, &component.Gun{})
	}
	if set.Has(KindTransferCapability) {
		s.Capabilities.Set(id, &component.ItemSlotTransfers{})
	}
	if set.Has(KindSpecialPhysics) {
		s.SpecialPhysics.Set(id, &component.SpecialPhysics{})
	}
	if set.Has(KindInterpolation) {
		s.Interpolations.Set(id, &component.Interpolation{})
	}
	if set.Has(KindProcessing) {
		s.Processing.Set(id, &component.Processing{})
	}
	if set.Has(KindChild) {
		s.Children.Set(id, &component.Child{})
	}
	if set.Has(KindSubstance) {
		s.Substances.Set(id, &component.Substance{})
	}
}
