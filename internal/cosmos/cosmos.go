// Package cosmos holds the authoritative simulation state: entity storage,
// flavours, inferred caches and the deterministic step counter.
//
// A Cosmos is owned by the goroutine executing the current step or editor
// operation. Nothing in here locks.
package cosmos

import (
	"errors"
	"math/rand/v2"
	"reflect"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	coresys "github.com/topdown/cosmos/internal/core/system"
)

var ErrEntityCreation = errors.New("entity creation failed")

// Settings are the tunables that affect simulation outcome and therefore
// travel with the cosmos when it is serialized.
type Settings struct {
	DropImpulse      float32 // impulse applied to dropped items
	DropOffsetRadius float32 // radius of the random impulse application point
	SinceDroppedMs   float32 // since-dropped timer armed on drop
	RNGSeed          uint64
}

func DefaultSettings() Settings {
	return Settings{
		DropImpulse:      60,
		DropOffsetRadius: 20,
		SinceDroppedMs:   200,
		RNGSeed:          0x5eed,
	}
}

// Delta is the fixed duration of one step.
type Delta struct {
	StepsPerSecond uint32
}

func (d Delta) Seconds() float64 {
	if d.StepsPerSecond == 0 {
		return 0
	}
	return 1 / float64(d.StepsPerSecond)
}

// Significant is the part of the cosmos that determines the simulation
// outcome. Everything in it is serialized; caches are rebuilt from it.
type Significant struct {
	Settings      Settings
	StepNumber    uint64
	Delta         Delta
	Pool          ecs.EntityPool
	Storage       Storage
	SpecificNames map[ecs.EntityID]string
}

// Cosmos is the simulation state container.
type Cosmos struct {
	common Common
	sig    *Significant

	world  *ecs.World
	stores map[reflect.Type]any
	named  []namedStore

	caches  inferredCaches
	solver  *coresys.Runner[*Step]
	queue   *event.Queue
	pending []ecs.EntityID

	log *zap.Logger
}

type Option func(*Cosmos)

func WithLogger(log *zap.Logger) Option {
	return func(c *Cosmos) { c.log = log }
}

func WithSettings(s Settings) Option {
	return func(c *Cosmos) { c.sig.Settings = s }
}

func WithDelta(d Delta) Option {
	return func(c *Cosmos) { c.sig.Delta = d }
}

// WithMaxEntities limits the entity pool; creation beyond it fails with
// ErrEntityCreation.
func WithMaxEntities(n uint32) Option {
	return func(c *Cosmos) { c.sig.Pool.Limit = n }
}

func New(opts ...Option) *Cosmos {
	c := &Cosmos{
		sig: &Significant{
			Settings:      DefaultSettings(),
			Delta:         Delta{StepsPerSecond: 60},
			SpecificNames: make(map[ecs.EntityID]string),
		},
		solver: coresys.NewRunner[*Step](),
		queue:  event.NewQueue(),
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.adopt(c.sig)
	c.caches = newInferredCaches()
	return c
}

// adopt makes sig the live significant state and rebinds the stores to it.
func (c *Cosmos) adopt(sig *Significant) {
	c.sig = sig
	if c.sig.SpecificNames == nil {
		c.sig.SpecificNames = make(map[ecs.EntityID]string)
	}
	reg := ecs.NewRegistry()
	c.stores, c.named = c.sig.Storage.bind(reg)
	c.world = ecs.NewWorldWith(&c.sig.Pool, reg)
}

func (c *Cosmos) Log() *zap.Logger     { return c.log }
func (c *Cosmos) Common() *Common      { return &c.common }
func (c *Cosmos) Settings() *Settings  { return &c.sig.Settings }
func (c *Cosmos) StepNumber() uint64   { return c.sig.StepNumber }
func (c *Cosmos) Delta() Delta         { return c.sig.Delta }
func (c *Cosmos) EntitiesCount() int   { return c.sig.Pool.Count() }
func (c *Cosmos) Storage() *Storage    { return &c.sig.Storage }

// RegisterFlavour adds a flavour to the common state.
func (c *Cosmos) RegisterFlavour(f Flavour) error {
	return c.common.RegisterFlavour(f)
}

// RegisterSystem adds a solver system run inside every step.
func (c *Cosmos) RegisterSystem(s coresys.System[*Step]) {
	c.solver.Register(s)
}

// Handle returns a handle for id. The handle may be dead.
func (c *Cosmos) Handle(id ecs.EntityID) Handle {
	return Handle{id: id, cosm: c}
}

// DeadHandle returns a handle that refers to no entity.
func (c *Cosmos) DeadHandle() Handle {
	return Handle{cosm: c}
}

// Slot returns a handle for slot id.
func (c *Cosmos) Slot(id SlotID) SlotHandle {
	return SlotHandle{id: id, cosm: c}
}

// Alive reports whether id refers to a live entity.
func (c *Cosmos) Alive(id ecs.EntityID) bool {
	return c.world.Alive(id)
}

// ForEachEntity visits live entities in ascending index order.
func (c *Cosmos) ForEachEntity(fn func(Handle)) {
	pool := &c.sig.Pool
	for i := 0; i < pool.Capacity(); i++ {
		if id, ok := pool.IDAt(uint32(i)); ok {
			fn(c.Handle(id))
		}
	}
}

// Timestamp is the simulation time in seconds.
func (c *Cosmos) Timestamp() float64 {
	return float64(c.sig.StepNumber) * c.sig.Delta.Seconds()
}

// RNGFor returns a generator that is deterministic for the pair
// (current step, id).
func (c *Cosmos) RNGFor(id ecs.EntityID) *rand.Rand {
	return rand.New(rand.NewPCG(c.sig.Settings.RNGSeed^c.sig.StepNumber, uint64(id)))
}

// SetSpecificName names one entity instance, overriding its flavour name.
// An empty name removes the override.
func (c *Cosmos) SetSpecificName(h Handle, name string) {
	if h.Dead() {
		return
	}
	if name == "" {
		delete(c.sig.SpecificNames, h.id)
		return
	}
	c.sig.SpecificNames[h.id] = norm.NFC.String(name)
}

// EntityNamed returns the live entity whose specific name is name, or a
// dead handle. Among duplicates the lowest index wins.
func (c *Cosmos) EntityNamed(name string) Handle {
	name = norm.NFC.String(name)
	found := c.DeadHandle()
	for id, n := range c.sig.SpecificNames {
		if n != name || !c.Alive(id) {
			continue
		}
		if found.Dead() || id.Index() < found.id.Index() {
			found = c.Handle(id)
		}
	}
	return found
}

// Reserve preallocates storage for n entities.
func (c *Cosmos) Reserve(n int) {
	c.world.Reserve(n)
	c.caches.reserve(n)
}

// Clear removes every entity and the common state.
func (c *Cosmos) Clear() {
	c.caches.clear()
	c.world.Clear()
	clear(c.sig.SpecificNames)
	c.pending = c.pending[:0]
	c.common = Common{}
}

// Find returns component T of h, or nil if h is dead or lacks it.
func Find[T any](h Handle) *T {
	if h.Dead() {
		return nil
	}
	store, ok := h.cosm.stores[reflect.TypeFor[T]()].(*ecs.SlotStore[T])
	if !ok {
		return nil
	}
	c, _ := store.Get(h.id)
	return c
}

// Get returns component T of h and panics if it is missing: callers use it
// where the entity type guarantees the component.
func Get[T any](h Handle) *T {
	c := Find[T](h)
	ensure(c != nil, "entity %d has no %s", h.id, reflect.TypeFor[T]())
	return c
}
