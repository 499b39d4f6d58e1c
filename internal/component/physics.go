package component

import (
	"slices"

	"github.com/topdown/cosmos/internal/core/ecs"
)

// BodyType selects how a rigid body is simulated.
type BodyType uint8

const (
	BodyDynamic BodyType = iota
	BodyStatic
	BodyKinematic
)

// RigidBody is the engine-independent state of a simulated body. The
// physics world cache derives mass and colliders from it; integration
// writes back here.
type RigidBody struct {
	Type            BodyType
	Transform       Transform
	Velocity        Vec2
	AngularVelocity float32
	LinearDamping   float32
	AngularDamping  float32
	// Impulses accumulated during the step, applied on integration.
	PendingImpulse        Vec2
	PendingAngularImpulse float32
}

// RigidBodyDef is the flavour-level definition of a rigid body.
type RigidBodyDef struct {
	Type           BodyType
	LinearDamping  float32
	AngularDamping float32
}

// Collider is a box-shaped fixture part.
type Collider struct {
	Size              Vec2
	Density           float32
	DensityMultiplier float32
	Friction          float32
	Restitution       float32
	Sensor            bool
}

// Area of the collider's shape.
func (c Collider) Area() float32 { return c.Size.X * c.Size.Y }

// OffsetType indexes the per-purpose transforms applied to created shapes.
type OffsetType uint8

const (
	OffsetItemAttachmentDisplacement OffsetType = iota
	OffsetSpecialMoveDisplacement
	offsetTypeCount
)

// Fixtures holds the colliders of an entity and the body they attach to.
type Fixtures struct {
	Colliders []Collider
	Activated bool
	OwnerBody ecs.EntityID
	Offsets   [offsetTypeCount]Transform
}

// TotalOffset sums every offset type.
func (f *Fixtures) TotalOffset() Transform {
	var t Transform
	for _, o := range f.Offsets {
		t = t.Plus(o)
	}
	return t
}

func (f Fixtures) Clone() Fixtures {
	f.Colliders = slices.Clone(f.Colliders)
	return f
}

// FixturesDef is the flavour-level list of colliders.
type FixturesDef struct {
	Colliders []Collider
}

// Stopwatch measures time from a set point in simulation time.
type Stopwatch struct {
	SetAtSeconds float64
	DurationMs   float32
	Armed        bool
}

// Set arms the stopwatch for durationMs starting at now.
func (s *Stopwatch) Set(durationMs float32, nowSeconds float64) {
	s.SetAtSeconds = nowSeconds
	s.DurationMs = durationMs
	s.Armed = true
}

// Passed reports whether the armed duration has elapsed at now.
func (s *Stopwatch) Passed(nowSeconds float64) bool {
	if !s.Armed {
		return true
	}
	return (nowSeconds-s.SetAtSeconds)*1000 >= float64(s.DurationMs)
}

// SpecialPhysics holds gameplay timers affecting physical interaction.
type SpecialPhysics struct {
	SinceDropped Stopwatch
}

// Interpolation is read by the audiovisual layer to smooth motion.
type Interpolation struct {
	PlaceOfBirth Transform
}

// ApplyImpulse queues impulse applied at offset from the body's centre.
func (rb *RigidBody) ApplyImpulse(impulse, offset Vec2) {
	rb.PendingImpulse = rb.PendingImpulse.Add(impulse)
	rb.PendingAngularImpulse += offset.Cross(impulse)
}
