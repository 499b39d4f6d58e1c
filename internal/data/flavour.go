package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/cosmos"
	"github.com/topdown/cosmos/internal/inventory"
)

// categoryMap maps YAML category names to item category bits.
var categoryMap = map[string]component.ItemCategory{
	"general":           component.CategoryGeneral,
	"shot_charge":       component.CategoryShotCharge,
	"magazine":          component.CategoryMagazine,
	"barrel_attachment": component.CategoryBarrelAttach,
	"shoulder_wear":     component.CategoryShoulderWear,
	"torso_armor":       component.CategoryTorsoArmor,
	"rail_attachment":   component.CategoryRailAttach,
}

var bodyTypeMap = map[string]component.BodyType{
	"":          component.BodyDynamic,
	"dynamic":   component.BodyDynamic,
	"static":    component.BodyStatic,
	"kinematic": component.BodyKinematic,
}

var physicalMap = map[string]component.PhysicalBehaviour{
	"":          component.ConnectAsFixtureOfBody,
	"connect":   component.ConnectAsFixtureOfBody,
	"concealed": component.Concealed,
}

type TransformEntry struct {
	Pos      [2]float32 `yaml:"pos"`
	Rotation float32    `yaml:"rotation"`
}

func (t TransformEntry) transform() component.Transform {
	return component.Transform{Pos: component.Vec2{X: t.Pos[0], Y: t.Pos[1]}, Rotation: t.Rotation}
}

type ItemEntry struct {
	Space          string         `yaml:"space"` // units per charge, e.g. "0.5"
	Stackable      bool           `yaml:"stackable"`
	Categories     []string       `yaml:"categories"`
	DefaultCharges uint32         `yaml:"default_charges"`
	Attachment     TransformEntry `yaml:"attachment"`
}

type SlotEntry struct {
	Function      string         `yaml:"function"`
	Categories    []string       `yaml:"categories"`
	Space         string         `yaml:"space"`
	AlwaysOne     bool           `yaml:"always_one"`
	NeedsMounting bool           `yaml:"needs_mounting"`
	OnlyFlavour   string         `yaml:"only_flavour"` // flavour name
	Physical      string         `yaml:"physical"`     // "connect" or "concealed"
	Attachment    TransformEntry `yaml:"attachment"`
}

type ColliderEntry struct {
	Size              [2]float32 `yaml:"size"`
	Density           float32    `yaml:"density"`
	DensityMultiplier float32    `yaml:"density_multiplier"`
	Friction          float32    `yaml:"friction"`
	Restitution       float32    `yaml:"restitution"`
	Sensor            bool       `yaml:"sensor"`
}

type RigidBodyEntry struct {
	Type           string  `yaml:"type"`
	LinearDamping  float32 `yaml:"linear_damping"`
	AngularDamping float32 `yaml:"angular_damping"`
}

type MovementEntry struct {
	Acceleration float32 `yaml:"acceleration"`
	MaxSpeed     float32 `yaml:"max_speed"`
}

type GunEntry struct {
	ShotCooldownMs float32 `yaml:"shot_cooldown_ms"`
}

// FlavourEntry is one flavour as written in flavours.yaml.
type FlavourEntry struct {
	ID        uint32          `yaml:"id"`
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"`
	Item      *ItemEntry      `yaml:"item"`
	Slots     []SlotEntry     `yaml:"slots"`
	Colliders []ColliderEntry `yaml:"colliders"`
	RigidBody *RigidBodyEntry `yaml:"rigid_body"`
	Movement  *MovementEntry  `yaml:"movement"`
	Gun       *GunEntry       `yaml:"gun"`
}

type flavourFile struct {
	Flavours []FlavourEntry `yaml:"flavours"`
}

// Damping is applied to rigid bodies that leave their damping at zero.
type Damping struct {
	Linear  float32
	Angular float32
}

// FlavourTable holds every flavour definition keyed by name.
type FlavourTable struct {
	flavours []cosmos.Flavour
	byName   map[string]int
}

// LoadFlavourTable loads flavours.yaml.
func LoadFlavourTable(path string) (*FlavourTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flavour list: %w", err)
	}
	t, err := ParseFlavourTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse flavour list %s: %w", path, err)
	}
	return t, nil
}

func ParseFlavourTable(raw []byte) (*FlavourTable, error) {
	var f flavourFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	t := &FlavourTable{
		flavours: make([]cosmos.Flavour, 0, len(f.Flavours)),
		byName:   make(map[string]int, len(f.Flavours)),
	}
	ids := make(map[uint32]string, len(f.Flavours))
	for _, e := range f.Flavours {
		if e.Name == "" {
			return nil, fmt.Errorf("flavour %d: missing name", e.ID)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, fmt.Errorf("flavour %q: duplicate name", e.Name)
		}
		if other, dup := ids[e.ID]; dup {
			return nil, fmt.Errorf("flavour %q: id %d already used by %q", e.Name, e.ID, other)
		}
		ids[e.ID] = e.Name
		t.byName[e.Name] = len(t.flavours)
		t.flavours = append(t.flavours, cosmos.Flavour{ID: component.FlavourID(e.ID), Name: e.Name})
	}
	// Second pass: slots may restrict themselves to flavours defined later.
	for i, e := range f.Flavours {
		fl, err := t.convert(e)
		if err != nil {
			return nil, fmt.Errorf("flavour %q: %w", e.Name, err)
		}
		t.flavours[i] = fl
	}
	return t, nil
}

func (t *FlavourTable) convert(e FlavourEntry) (cosmos.Flavour, error) {
	typ, ok := cosmos.ParseEntityType(e.Type)
	if !ok {
		return cosmos.Flavour{}, fmt.Errorf("unknown entity type %q", e.Type)
	}
	fl := cosmos.Flavour{
		ID:   component.FlavourID(e.ID),
		Name: e.Name,
		Type: typ,
	}

	if e.Item != nil {
		space, err := inventory.ToSpaceUnits(orZero(e.Item.Space))
		if err != nil {
			return fl, fmt.Errorf("item space: %w", err)
		}
		cats, err := parseCategories(e.Item.Categories)
		if err != nil {
			return fl, err
		}
		fl.Item = &component.ItemDef{
			SpaceOccupiedPerCharge: space,
			Stackable:              e.Item.Stackable,
			Categories:             cats,
			DefaultCharges:         e.Item.DefaultCharges,
			AttachmentOffset:       e.Item.Attachment.transform(),
		}
	}

	if len(e.Slots) > 0 {
		fl.Container = &component.ContainerDef{Slots: make([]component.SlotDef, 0, len(e.Slots))}
		for _, s := range e.Slots {
			def, err := t.convertSlot(s)
			if err != nil {
				return fl, err
			}
			fl.Container.Slots = append(fl.Container.Slots, def)
		}
	}

	if len(e.Colliders) > 0 {
		fl.Fixtures = &component.FixturesDef{}
		for _, c := range e.Colliders {
			fl.Fixtures.Colliders = append(fl.Fixtures.Colliders, component.Collider{
				Size:              component.Vec2{X: c.Size[0], Y: c.Size[1]},
				Density:           c.Density,
				DensityMultiplier: c.DensityMultiplier,
				Friction:          c.Friction,
				Restitution:       c.Restitution,
				Sensor:            c.Sensor,
			})
		}
	}

	if e.RigidBody != nil {
		bt, ok := bodyTypeMap[e.RigidBody.Type]
		if !ok {
			return fl, fmt.Errorf("unknown body type %q", e.RigidBody.Type)
		}
		fl.RigidBody = &component.RigidBodyDef{
			Type:           bt,
			LinearDamping:  e.RigidBody.LinearDamping,
			AngularDamping: e.RigidBody.AngularDamping,
		}
	}
	if e.Movement != nil {
		fl.Movement = &component.MovementDef{Acceleration: e.Movement.Acceleration, MaxSpeed: e.Movement.MaxSpeed}
	}
	if e.Gun != nil {
		fl.Gun = &component.GunDef{ShotCooldownMs: e.Gun.ShotCooldownMs}
	}
	return fl, nil
}

func (t *FlavourTable) convertSlot(s SlotEntry) (component.SlotDef, error) {
	fn, ok := component.ParseSlotFunction(strings.ToUpper(s.Function))
	if !ok {
		return component.SlotDef{}, fmt.Errorf("unknown slot function %q", s.Function)
	}
	cats, err := parseCategories(s.Categories)
	if err != nil {
		return component.SlotDef{}, fmt.Errorf("slot %s: %w", fn, err)
	}
	space, err := inventory.ToSpaceUnits(orZero(s.Space))
	if err != nil {
		return component.SlotDef{}, fmt.Errorf("slot %s space: %w", fn, err)
	}
	phys, ok := physicalMap[s.Physical]
	if !ok {
		return component.SlotDef{}, fmt.Errorf("slot %s: unknown physical behaviour %q", fn, s.Physical)
	}
	def := component.SlotDef{
		Function:                  fn,
		CategoryAllowed:           cats,
		SpaceAvailable:            space,
		AlwaysAllowExactlyOneItem: s.AlwaysOne,
		ItemsNeedMounting:         s.NeedsMounting,
		PhysicalBehaviour:         phys,
		AttachmentOffset:          s.Attachment.transform(),
	}
	if s.OnlyFlavour != "" {
		i, ok := t.byName[s.OnlyFlavour]
		if !ok {
			return def, fmt.Errorf("slot %s: unknown flavour %q", fn, s.OnlyFlavour)
		}
		def.OnlyAllowFlavour = t.flavours[i].ID
	}
	return def, nil
}

func parseCategories(names []string) (component.ItemCategory, error) {
	var out component.ItemCategory
	for _, n := range names {
		c, ok := categoryMap[n]
		if !ok {
			return 0, fmt.Errorf("unknown category %q", n)
		}
		out |= c
	}
	return out, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Count returns the total number of flavours loaded.
func (t *FlavourTable) Count() int {
	return len(t.flavours)
}

// Get returns the flavour called name, or nil if none.
func (t *FlavourTable) Get(name string) *cosmos.Flavour {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return &t.flavours[i]
}

// Register adds every flavour to c. Rigid bodies without damping get d.
func (t *FlavourTable) Register(c *cosmos.Cosmos, d Damping) error {
	for _, f := range t.flavours {
		if f.RigidBody == nil && cosmos.DescriptorOf(f.Type).Components.Has(cosmos.KindRigidBody) {
			f.RigidBody = &component.RigidBodyDef{}
		}
		if f.RigidBody != nil {
			rb := *f.RigidBody
			if rb.LinearDamping == 0 {
				rb.LinearDamping = d.Linear
			}
			if rb.AngularDamping == 0 {
				rb.AngularDamping = d.Angular
			}
			f.RigidBody = &rb
		}
		if err := c.RegisterFlavour(f); err != nil {
			return fmt.Errorf("register flavour: %w", err)
		}
	}
	return nil
}
