package cosmos

import (
	"slices"

	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	coresys "github.com/topdown/cosmos/internal/core/system"
)

// IntentKind is a player or AI command targeting one entity.
type IntentKind uint8

const (
	IntentMoveUp IntentKind = iota
	IntentMoveDown
	IntentMoveLeft
	IntentMoveRight
	IntentTrigger
	IntentSecondaryTrigger
)

// Intent is a press or release of one command.
type Intent struct {
	Kind    IntentKind
	Pressed bool
}

// AllCharges requests the transfer of every charge of an item.
const AllCharges = -1

// TransferRequest asks to move an item into a slot, or to drop it when
// TargetSlot is unset.
type TransferRequest struct {
	Item                ecs.EntityID
	TargetSlot          SlotID
	SpecifiedQuantity   int32 // AllCharges or a positive count
	ForceImmediateMount bool
	AllowReplacement    bool
}

// Entropy is every external input of one step.
type Entropy struct {
	Intents   map[ecs.EntityID][]Intent
	Transfers []TransferRequest
}

func (e *Entropy) AddIntent(id ecs.EntityID, in Intent) {
	if e.Intents == nil {
		e.Intents = make(map[ecs.EntityID][]Intent)
	}
	e.Intents[id] = append(e.Intents[id], in)
}

func (e *Entropy) Empty() bool {
	return len(e.Intents) == 0 && len(e.Transfers) == 0
}

// Step messages.
type (
	QueueDestructionMessage struct{ Subject ecs.EntityID }
	TransferRequestMessage  struct{ Request TransferRequest }
	CollisionMessage        struct{ Contact Contact }
	ItemButtonInitMessage   struct{ Item ecs.EntityID }
	SlotButtonInitMessage   struct{ Slot SlotID }
)

// Step is what every solver system sees during one advance.
type Step struct {
	Cosmos   *Cosmos
	Entropy  Entropy
	Messages *event.Queue
	Delta    Delta
}

// Seconds is the fixed duration of the step.
func (s *Step) Seconds() float32 { return float32(s.Delta.Seconds()) }

// QueueDestruction deletes id with its children once the logic phase (or,
// from a later phase, the solver) is over.
func (s *Step) QueueDestruction(id ecs.EntityID) {
	event.Post(s.Messages, QueueDestructionMessage{Subject: id})
}

// AdvanceDeterministicSchemata runs one step: entropy is applied, then
// preSolve, the solver systems, postSolve, and finally the step counter is
// incremented. Destructions queued by the logic phase happen before physics
// runs. Either callback may be nil.
func (c *Cosmos) AdvanceDeterministicSchemata(entropy Entropy, preSolve, postSolve func(*Step)) {
	c.queue.Clear()
	step := &Step{
		Cosmos:   c,
		Entropy:  entropy,
		Messages: c.queue,
		Delta:    c.sig.Delta,
	}
	c.applyEntropy(step)
	if preSolve != nil {
		preSolve(step)
	}
	c.solver.TickPhases(coresys.PhaseIntent, coresys.PhaseLogic, step)
	c.FlushDestructionQueue()
	c.solver.TickPhases(coresys.PhasePhysics, coresys.PhasePersist, step)
	c.FlushDestructionQueue()
	if postSolve != nil {
		postSolve(step)
	}
	c.sig.StepNumber++
}

// EditStep runs fn with a step that does not advance the simulation.
// Editors and scene loaders use it to perform transfers between steps.
// Destructions queued by fn happen before EditStep returns.
func (c *Cosmos) EditStep(fn func(*Step)) {
	c.queue.Clear()
	fn(&Step{
		Cosmos:   c,
		Messages: c.queue,
		Delta:    c.sig.Delta,
	})
	c.FlushDestructionQueue()
	c.queue.Clear()
}

func (c *Cosmos) applyEntropy(step *Step) {
	ids := make([]ecs.EntityID, 0, len(step.Entropy.Intents))
	for id := range step.Entropy.Intents {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, byIndex)

	for _, id := range ids {
		h := c.Handle(id)
		if h.Dead() {
			c.log.Debug("intent for dead entity", zap.Uint64("entity", uint64(id)))
			continue
		}
		for _, in := range step.Entropy.Intents[id] {
			applyIntent(h, in)
		}
	}
	for _, r := range step.Entropy.Transfers {
		event.Post(step.Messages, TransferRequestMessage{Request: r})
	}
}

var movementFlagOf = map[IntentKind]component.MovementFlags{
	IntentMoveUp:    component.MoveUp,
	IntentMoveDown:  component.MoveDown,
	IntentMoveLeft:  component.MoveLeft,
	IntentMoveRight: component.MoveRight,
}

func applyIntent(h Handle, in Intent) {
	if flag, ok := movementFlagOf[in.Kind]; ok {
		if m := Find[component.Movement](h); m != nil {
			if in.Pressed {
				m.Flags |= flag
			} else {
				m.Flags &^= flag
			}
		}
		return
	}
	for _, fn := range [...]component.SlotFunction{component.SlotPrimaryHand, component.SlotSecondaryHand} {
		for _, id := range h.Slot(fn).Items() {
			g := Find[component.Gun](h.cosm.Handle(id))
			if g == nil {
				continue
			}
			switch in.Kind {
			case IntentTrigger:
				g.IsTriggerPressed = in.Pressed
			case IntentSecondaryTrigger:
				g.IsSecondaryTriggerPressed = in.Pressed
			}
		}
	}
}
