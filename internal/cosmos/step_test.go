package cosmos_test

import (
	"slices"
	"testing"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	coresys "github.com/topdown/cosmos/internal/core/system"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/cosmos/cosmostest"
)

type hook struct {
	phase  coresys.Phase
	update func(*cosmos.Step)
}

func (p hook) Phase() coresys.Phase     { return p.phase }
func (p hook) Update(step *cosmos.Step) { p.update(step) }

func drainTransfers(s *cosmos.Step) []cosmos.TransferRequestMessage {
	return event.Drain[cosmos.TransferRequestMessage](s.Messages)
}

func TestAdvanceRunsPipelineInOrder(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})

	var trace []string
	c.RegisterSystem(hook{coresys.PhaseLogic, func(s *cosmos.Step) {
		trace = append(trace, "solve")
		if f := cosmos.Get[component.Movement](s.Cosmos.Handle(soldier.ID())).Flags; f != component.MoveUp|component.MoveLeft {
			t.Errorf("flags during solve = %b", f)
		}
	}})

	var in cosmos.Entropy
	in.AddIntent(soldier.ID(), cosmos.Intent{Kind: cosmos.IntentMoveUp, Pressed: true})
	in.AddIntent(soldier.ID(), cosmos.Intent{Kind: cosmos.IntentMoveLeft, Pressed: true})
	c.AdvanceDeterministicSchemata(in,
		func(s *cosmos.Step) {
			trace = append(trace, "pre")
			if s.Cosmos.StepNumber() != 0 {
				t.Errorf("step number in pre = %d", s.Cosmos.StepNumber())
			}
		},
		func(*cosmos.Step) { trace = append(trace, "post") },
	)

	if want := []string{"pre", "solve", "post"}; !slices.Equal(trace, want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	if c.StepNumber() != 1 {
		t.Fatalf("step number = %d", c.StepNumber())
	}

	var release cosmos.Entropy
	release.AddIntent(soldier.ID(), cosmos.Intent{Kind: cosmos.IntentMoveUp})
	c.AdvanceDeterministicSchemata(release, nil, nil)
	if f := cosmos.Get[component.Movement](soldier).Flags; f != component.MoveLeft {
		t.Fatalf("flags after release = %b", f)
	}
}

func TestTriggerIntentReachesHeldGun(t *testing.T) {
	c := cosmostest.New(t)
	soldier := cosmostest.Spawn(t, c, cosmostest.Soldier, component.Vec2{})
	rifle := cosmostest.Spawn(t, c, cosmostest.Rifle, component.Vec2{})
	cosmostest.Put(c, rifle, soldier.Slot(component.SlotSecondaryHand))

	var in cosmos.Entropy
	in.AddIntent(soldier.ID(), cosmos.Intent{Kind: cosmos.IntentTrigger, Pressed: true})
	c.AdvanceDeterministicSchemata(in, nil, nil)

	if !cosmos.Get[component.Gun](rifle).IsTriggerPressed {
		t.Fatal("trigger not pressed")
	}
}

func TestQueuedDestructionHappensAfterLogicPhase(t *testing.T) {
	c := cosmostest.New(t)
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})
	lamp := cosmostest.Spawn(t, c, cosmostest.Lamp, component.Vec2{})
	lamp.SetParent(crate.ID())

	c.RegisterSystem(hook{coresys.PhaseLogic, func(s *cosmos.Step) {
		s.QueueDestruction(crate.ID())
		s.QueueDestruction(crate.ID())
	}})
	c.RegisterSystem(hook{coresys.PhaseLogic, func(s *cosmos.Step) {
		if !s.Cosmos.Alive(crate.ID()) {
			t.Error("crate deleted inside the logic phase")
		}
	}})
	var aliveInPhysics bool
	c.RegisterSystem(hook{coresys.PhasePhysics, func(s *cosmos.Step) {
		aliveInPhysics = s.Cosmos.Alive(crate.ID()) || s.Cosmos.Alive(lamp.ID())
	}})

	c.AdvanceDeterministicSchemata(cosmos.Entropy{}, nil, nil)
	if aliveInPhysics {
		t.Fatal("queued entities alive in the physics phase")
	}
	if c.EntitiesCount() != 0 {
		t.Fatalf("count = %d", c.EntitiesCount())
	}
}

func TestTransfersBecomeMessages(t *testing.T) {
	c := cosmostest.New(t)
	var seen []cosmos.TransferRequest
	c.RegisterSystem(hook{coresys.PhaseLogic, func(s *cosmos.Step) {
		for _, m := range drainTransfers(s) {
			seen = append(seen, m.Request)
		}
	}})
	req := cosmos.TransferRequest{Item: ecs.NewEntityID(3, 1), SpecifiedQuantity: 2}
	c.AdvanceDeterministicSchemata(cosmos.Entropy{Transfers: []cosmos.TransferRequest{req}}, nil, nil)
	if len(seen) != 1 || seen[0] != req {
		t.Fatalf("seen = %v", seen)
	}
}

func TestEditStepFlushesWithoutAdvancing(t *testing.T) {
	c := cosmostest.New(t)
	crate := cosmostest.Spawn(t, c, cosmostest.Crate, component.Vec2{})

	c.EditStep(func(s *cosmos.Step) {
		s.QueueDestruction(crate.ID())
		if crate.Dead() {
			t.Fatal("destroyed before the edit finished")
		}
	})

	if crate.Alive() {
		t.Fatal("queued destruction not performed")
	}
	if c.StepNumber() != 0 {
		t.Fatalf("step number = %d", c.StepNumber())
	}
}
