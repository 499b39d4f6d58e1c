package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/inventory"
)

// SceneEntry places one entity. Entries with a parent are transferred into
// the named slot of an entity defined earlier in the list.
type SceneEntry struct {
	Name     string     `yaml:"name"` // specific name, also the key parents refer to
	Flavour  string     `yaml:"flavour"`
	Position [2]float32 `yaml:"position"`
	Rotation float32    `yaml:"rotation"`
	Parent   string     `yaml:"parent"`
	Slot     string     `yaml:"slot"`
	Charges  uint32     `yaml:"charges"` // 0 = flavour default
	Mount    bool       `yaml:"mount"`   // mount immediately when the slot needs it
}

// Scene is an initial arrangement of entities.
type Scene struct {
	Entities []SceneEntry `yaml:"entities"`
}

// LoadScene loads a scene yaml file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &s, nil
}

// SpawnScene creates every entity of s in c, in order, and returns the
// named ones. Items with a parent go through the regular transfer rules; a
// rejected transfer fails the whole scene.
func SpawnScene(c *cosmos.Cosmos, s *Scene) (map[string]ecs.EntityID, error) {
	named := make(map[string]ecs.EntityID)
	for i, e := range s.Entities {
		if err := spawnEntry(c, e, named); err != nil {
			return named, fmt.Errorf("scene entity %d (%s): %w", i, e.Flavour, err)
		}
	}
	return named, nil
}

func spawnEntry(c *cosmos.Cosmos, e SceneEntry, named map[string]ecs.EntityID) error {
	f := c.Common().FlavourByName(e.Flavour)
	if f == nil {
		return fmt.Errorf("%w: %q", cosmos.ErrUnknownFlavour, e.Flavour)
	}
	if e.Name != "" {
		if _, dup := named[e.Name]; dup {
			return fmt.Errorf("duplicate name %q", e.Name)
		}
	}

	var target cosmos.SlotID
	place := component.Transform{Pos: component.Vec2{X: e.Position[0], Y: e.Position[1]}, Rotation: e.Rotation}
	if e.Parent != "" {
		if f.Item == nil {
			return fmt.Errorf("%q is not an item and cannot go into %q", e.Flavour, e.Parent)
		}
		parent, ok := named[e.Parent]
		if !ok {
			return fmt.Errorf("unknown parent %q", e.Parent)
		}
		fn, ok := component.ParseSlotFunction(strings.ToUpper(e.Slot))
		if !ok {
			return fmt.Errorf("unknown slot function %q", e.Slot)
		}
		slot := c.Handle(parent).Slot(fn)
		if slot.Dead() {
			return fmt.Errorf("%q has no %s slot", e.Parent, fn)
		}
		target = slot.ID()
		place = slot.Container().LogicTransform()
	}

	h, err := c.CreateEntity(f.ID, func(h cosmos.Handle) {
		h.SetLogicTransform(place)
		if it := h.Item(); it != nil && e.Charges > 0 {
			it.Charges = e.Charges
		}
	})
	if err != nil {
		return err
	}
	if e.Name != "" {
		c.SetSpecificName(h, e.Name)
		named[e.Name] = h.ID()
	}
	if !target.IsSet() {
		return nil
	}

	r := inventory.Request{
		Item:                h.ID(),
		TargetSlot:          target,
		SpecifiedQuantity:   cosmos.AllCharges,
		ForceImmediateMount: e.Mount,
	}
	charges := h.Item().Charges
	var (
		res     inventory.Result
		perfErr error
	)
	c.EditStep(func(step *cosmos.Step) {
		res, perfErr = inventory.PerformTransfer(r, step)
	})
	if perfErr != nil {
		return perfErr
	}
	if !res.Successful() {
		return fmt.Errorf("transfer into %s of %q: %s", target.Function, e.Parent, res.Type)
	}
	if res.TransferredCharges != charges {
		return fmt.Errorf("only %d of %d charges fit into %s of %q", res.TransferredCharges, charges, target.Function, e.Parent)
	}
	return nil
}
