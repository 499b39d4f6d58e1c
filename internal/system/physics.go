package system

import (
	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/event"
	coresys "github.com/topdown/cosmos/internal/core/system"
	"github.com/topdown/cosmos/internal/cosmos"
)

// PhysicsSystem integrates bodies and posts a CollisionMessage for every
// overlapping pair. Phase 2 (Physics).
type PhysicsSystem struct {
	log *zap.Logger
}

func NewPhysicsSystem(log *zap.Logger) *PhysicsSystem {
	return &PhysicsSystem{log: log}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(step *cosmos.Step) {
	c := step.Cosmos
	c.Physics().Integrate(c, step.Seconds())

	now := c.Timestamp()
	posted := 0
	for _, ct := range c.Physics().DetectCollisions(c) {
		if recentlyDropped(c.Handle(ct.A), now) || recentlyDropped(c.Handle(ct.B), now) {
			continue
		}
		event.Post(step.Messages, cosmos.CollisionMessage{Contact: ct})
		posted++
	}
	if posted > 0 {
		s.log.Debug("collisions",
			zap.Uint64("step", c.StepNumber()),
			zap.Int("count", posted),
			zap.Int("pending", event.Len[cosmos.CollisionMessage](step.Messages)),
			zap.Int("messages", step.Messages.Total()),
		)
	}
}

// recentlyDropped reports whether h is an item whose since-dropped timer
// is still running; such items do not collide.
func recentlyDropped(h cosmos.Handle, now float64) bool {
	sp := cosmos.Find[component.SpecialPhysics](h)
	return sp != nil && !sp.SinceDropped.Passed(now)
}
