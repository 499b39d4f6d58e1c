// Profiling:
// go build ./cmd/cosmosbench
// ./cosmosbench -soldiers 500 -steps 3000 -profile cpu
// go tool pprof -http=":8000" ./cosmosbench cpu.pprof
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/data"
	"github.com/topdown/cosmos/internal/system"
)

func main() {
	flavours := flag.String("flavours", "data/yaml/flavours.yaml", "flavour list")
	soldiers := flag.Int("soldiers", 200, "armed soldiers to spawn")
	crates := flag.Int("crates", 50, "crates to spawn")
	steps := flag.Int("steps", 1000, "steps to advance")
	seed := flag.Uint64("seed", 1, "seed for generated input")
	mode := flag.String("profile", "", "cpu, mem or empty")
	flag.Parse()

	log, _ := zap.NewDevelopment()
	defer log.Sync()

	var p interface{ Stop() }
	switch *mode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	err := run(*flavours, *soldiers, *crates, *steps, *seed, log)
	if p != nil {
		p.Stop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(flavourPath string, soldiers, crates, steps int, seed uint64, log *zap.Logger) error {
	table, err := data.LoadFlavourTable(flavourPath)
	if err != nil {
		return err
	}
	c := cosmos.New(cosmos.WithLogger(zap.NewNop()), cosmos.WithMaxEntities(uint32(max(soldiers*4+crates, 1))))
	if err := table.Register(c, data.Damping{Linear: 2, Angular: 2}); err != nil {
		return err
	}
	c.RegisterSystem(system.NewMovementSystem(log.Named("movement")))
	transfers := system.NewTransferSystem(zap.NewNop())
	c.RegisterSystem(transfers)
	c.RegisterSystem(system.NewPhysicsSystem(zap.NewNop()))

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	named, err := data.SpawnScene(c, generateScene(soldiers, crates, rng))
	if err != nil {
		return fmt.Errorf("spawn: %w", err)
	}
	log.Info("scene generated", zap.Int("entities", c.EntitiesCount()))

	units := make([]ecs.EntityID, soldiers)
	rifles := make([]ecs.EntityID, soldiers)
	for i := range soldiers {
		units[i] = named[fmt.Sprintf("s%d", i)]
		rifles[i] = named[fmt.Sprintf("s%d_rifle", i)]
	}

	start := time.Now()
	for range steps {
		c.AdvanceDeterministicSchemata(randomEntropy(c, units, rifles, rng), nil, nil)
	}
	elapsed := time.Since(start)

	sum, err := c.Checksum()
	if err != nil {
		return err
	}
	stats := transfers.Stats()
	log.Info("bench finished",
		zap.Int("steps", steps),
		zap.Duration("elapsed", elapsed),
		zap.Duration("per_step", elapsed/time.Duration(max(steps, 1))),
		zap.Int("entities", c.EntitiesCount()),
		zap.Int("transfers_ok", stats.Succeeded),
		zap.Int("transfers_rejected", stats.Rejected),
		zap.String("checksum", hex.EncodeToString(sum[:8])),
	)
	return nil
}

// generateScene lays soldiers out on a grid, each with a loaded rifle.
func generateScene(soldiers, crates int, rng *rand.Rand) *data.Scene {
	s := &data.Scene{}
	const spacing = 120
	side := 1
	for side*side < soldiers {
		side++
	}
	for i := range soldiers {
		name := fmt.Sprintf("s%d", i)
		pos := [2]float32{float32(i%side) * spacing, float32(i/side) * spacing}
		s.Entities = append(s.Entities,
			data.SceneEntry{Name: name, Flavour: "soldier", Position: pos},
			data.SceneEntry{Name: name + "_rifle", Flavour: "rifle", Parent: name, Slot: "primary_hand"},
			data.SceneEntry{Name: name + "_mag", Flavour: "magazine", Parent: name + "_rifle", Slot: "gun_detachable_magazine", Mount: true},
			data.SceneEntry{Flavour: "round", Parent: name + "_mag", Slot: "item_deposit", Charges: 30},
		)
	}
	extent := float32(side * spacing)
	for range crates {
		s.Entities = append(s.Entities, data.SceneEntry{
			Flavour:  "crate",
			Position: [2]float32{rng.Float32() * extent, rng.Float32() * extent},
		})
	}
	return s
}

var moves = []cosmos.IntentKind{cosmos.IntentMoveUp, cosmos.IntentMoveDown, cosmos.IntentMoveLeft, cosmos.IntentMoveRight}

// randomEntropy toggles a few movement keys and occasionally drops or
// picks up a rifle.
func randomEntropy(c *cosmos.Cosmos, units, rifles []ecs.EntityID, rng *rand.Rand) cosmos.Entropy {
	var e cosmos.Entropy
	for i, id := range units {
		if rng.IntN(10) == 0 {
			e.AddIntent(id, cosmos.Intent{Kind: moves[rng.IntN(len(moves))], Pressed: rng.IntN(2) == 0})
		}
		if rng.IntN(200) != 0 {
			continue
		}
		rifle := c.Handle(rifles[i])
		if rifle.Dead() {
			continue
		}
		r := cosmos.TransferRequest{Item: rifle.ID(), SpecifiedQuantity: cosmos.AllCharges}
		if rifle.CurrentSlot().Dead() {
			r.TargetSlot = cosmos.SlotID{Container: id, Function: component.SlotPrimaryHand}
		}
		e.Transfers = append(e.Transfers, r)
	}
	return e
}
