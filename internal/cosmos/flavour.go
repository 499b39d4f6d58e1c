package cosmos

import (
	"errors"
	"fmt"
	"slices"

	"github.com/topdown/cosmos/internal/component"
)

var ErrUnknownFlavour = errors.New("unknown flavour")

// Flavour is the definition every instance of an entity is created from.
// Invariant data is shared by all instances and never mutated by gameplay.
type Flavour struct {
	ID        component.FlavourID
	Name      string
	Type      EntityType
	Item      *component.ItemDef
	Container *component.ContainerDef
	Fixtures  *component.FixturesDef
	RigidBody *component.RigidBodyDef
	Movement  *component.MovementDef
	Gun       *component.GunDef
}

// Common is the state shared by the whole cosmos and changed only by
// explicit edits, never by the simulation itself.
type Common struct {
	Flavours []Flavour // sorted by ID
}

// RegisterFlavour adds or replaces a flavour definition.
func (c *Common) RegisterFlavour(f Flavour) error {
	if f.ID == 0 {
		return fmt.Errorf("flavour %q: zero id", f.Name)
	}
	if f.Type >= EntityTypeCount {
		return fmt.Errorf("flavour %q: bad entity type %d", f.Name, f.Type)
	}
	set := descriptors[f.Type].Components
	if set.Has(KindItem) && f.Item == nil {
		return fmt.Errorf("flavour %q: %s requires an item definition", f.Name, f.Type)
	}
	if set.Has(KindContainer) && f.Container == nil {
		return fmt.Errorf("flavour %q: %s requires a container definition", f.Name, f.Type)
	}
	i, found := slices.BinarySearchFunc(c.Flavours, f.ID, func(a Flavour, id component.FlavourID) int {
		return int(a.ID) - int(id)
	})
	if found {
		c.Flavours[i] = f
		return nil
	}
	c.Flavours = slices.Insert(c.Flavours, i, f)
	return nil
}

// Flavour returns the flavour with id, or nil.
func (c *Common) Flavour(id component.FlavourID) *Flavour {
	i, found := slices.BinarySearchFunc(c.Flavours, id, func(a Flavour, id component.FlavourID) int {
		return int(a.ID) - int(id)
	})
	if !found {
		return nil
	}
	return &c.Flavours[i]
}

// FlavourByName returns the first flavour called name, or nil.
func (c *Common) FlavourByName(name string) *Flavour {
	for i := range c.Flavours {
		if c.Flavours[i].Name == name {
			return &c.Flavours[i]
		}
	}
	return nil
}
