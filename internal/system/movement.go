package system

import (
	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	coresys "github.com/topdown/cosmos/internal/core/system"
	"github.com/topdown/cosmos/internal/cosmos"
)

// MovementSystem turns held movement flags into impulses on the mover's
// body. Phase 1 (Logic).
type MovementSystem struct {
	log *zap.Logger
}

func NewMovementSystem(log *zap.Logger) *MovementSystem {
	return &MovementSystem{log: log}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseLogic }

func (s *MovementSystem) Update(step *cosmos.Step) {
	c := step.Cosmos
	dt := step.Seconds()
	for _, id := range c.Processing().Get(component.SubjectsWithMovement) {
		h := c.Handle(id)
		m := cosmos.Find[component.Movement](h)
		rb := h.RigidBody()
		if m == nil || rb == nil || rb.Type != component.BodyDynamic {
			continue
		}
		dir := directionOf(m.Flags)
		if dir.IsZero() {
			continue
		}

		dv := dir.WithLength(m.Acceleration * dt)
		next := rb.Velocity.Add(dv)
		if m.MaxSpeed > 0 && next.Length() > m.MaxSpeed {
			dv = next.WithLength(m.MaxSpeed).Sub(rb.Velocity)
		}
		rb.ApplyImpulse(dv.Scale(c.Physics().MassOf(c, id)), component.Vec2{})
	}
}

// directionOf sums the held flags. Y grows downwards.
func directionOf(f component.MovementFlags) component.Vec2 {
	var d component.Vec2
	if f&component.MoveUp != 0 {
		d.Y--
	}
	if f&component.MoveDown != 0 {
		d.Y++
	}
	if f&component.MoveLeft != 0 {
		d.X--
	}
	if f&component.MoveRight != 0 {
		d.X++
	}
	return d
}
