package main

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/config"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/data"
	"github.com/topdown/cosmos/internal/gui"
	"github.com/topdown/cosmos/internal/system"
)

func shippedCosmos(t *testing.T) *cosmos.Cosmos {
	t.Helper()
	cfg := config.Default()
	c := newCosmos(cfg, zap.NewNop())
	table, err := data.LoadFlavourTable("../../data/yaml/flavours.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Register(c, data.Damping{Linear: cfg.Physics.LinearDamping, Angular: cfg.Physics.AngularDamping}); err != nil {
		t.Fatal(err)
	}
	scene, err := data.LoadScene("../../data/yaml/scene.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := data.SpawnScene(c, scene); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestApplyCommand(t *testing.T) {
	c := shippedCosmos(t)
	transfers := system.NewTransferSystem(zap.NewNop())
	c.RegisterSystem(transfers)
	g := gui.NewElementSystem(zap.NewNop())
	run := func(line string) error {
		return applyCommand(c, g, transfers, strings.Fields(line), zap.NewNop())
	}

	for _, bad := range []string{
		"fly player",
		"press player sideways on",
		"press nobody up on",
		"transfer player_rifle player torso",
		"transfer player_rifle player pocket",
		"drop player_rifle 0",
	} {
		if err := run(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
	if g.PendingTransfers() != 0 {
		t.Fatalf("rejected commands queued %d transfers", g.PendingTransfers())
	}

	for _, good := range []string{"press player right on", "drop player_rifle", "status"} {
		if err := run(good); err != nil {
			t.Fatalf("%q: %v", good, err)
		}
	}
	c.AdvanceDeterministicSchemata(g.GetAndClearPendingEvents(), nil, g.ConsumeStep)

	player := c.EntityNamed("player")
	if f := cosmos.Get[component.Movement](player).Flags; f != component.MoveRight {
		t.Fatalf("flags = %b", f)
	}
	if c.EntityNamed("player_rifle").CurrentSlot().Alive() {
		t.Fatal("rifle still held")
	}
	if got := transfers.Stats().Succeeded; got != 1 {
		t.Fatalf("succeeded = %d", got)
	}
}

func TestReadConsoleSplitsLines(t *testing.T) {
	out := make(chan []string, 4)
	readConsole(strings.NewReader("status\n\n  press player up on \n"), out)

	var got [][]string
	for args := range out {
		got = append(got, args)
	}
	if len(got) != 2 || len(got[1]) != 4 || got[1][3] != "on" {
		t.Fatalf("got %q", got)
	}
}
