// Package gui keeps the bookkeeping of inventory buttons shown to the
// player. It never changes the cosmos directly: transfers are queued here
// and handed to the next step as entropy.
package gui

import (
	"go.uber.org/zap"

	"github.com/topdown/cosmos/internal/core/ecs"
	"github.com/topdown/cosmos/internal/core/event"
	"github.com/topdown/cosmos/internal/cosmos"
)

// ItemButton is the on-screen representation of one item.
type ItemButton struct {
	Item        ecs.EntityID
	Initialized bool
	Slot        cosmos.SlotID // slot the item was in when last initialized
	Charges     uint32
	Name        string
}

// SlotButton is the on-screen representation of one inventory slot.
type SlotButton struct {
	Slot        cosmos.SlotID
	Initialized bool
	Items       int
}

// ElementSystem owns every button and the transfers the player queued.
type ElementSystem struct {
	itemButtons map[ecs.EntityID]*ItemButton
	slotButtons map[cosmos.SlotID]*SlotButton

	pendingTransfers []cosmos.TransferRequest
	pendingIntents   cosmos.Entropy

	log *zap.Logger
}

func NewElementSystem(log *zap.Logger) *ElementSystem {
	return &ElementSystem{
		itemButtons: make(map[ecs.EntityID]*ItemButton),
		slotButtons: make(map[cosmos.SlotID]*SlotButton),
		log:         log,
	}
}

func (s *ElementSystem) QueueTransfer(r cosmos.TransferRequest) {
	s.pendingTransfers = append(s.pendingTransfers, r)
}

func (s *ElementSystem) QueueTransfers(rs ...cosmos.TransferRequest) {
	s.pendingTransfers = append(s.pendingTransfers, rs...)
}

// QueueIntent forwards a hotbar or key press for subject.
func (s *ElementSystem) QueueIntent(subject ecs.EntityID, in cosmos.Intent) {
	s.pendingIntents.AddIntent(subject, in)
}

// PendingTransfers returns the number of queued transfers.
func (s *ElementSystem) PendingTransfers() int { return len(s.pendingTransfers) }

// GetAndClearPendingEvents returns everything queued since the last call
// as the entropy of the next step.
func (s *ElementSystem) GetAndClearPendingEvents() cosmos.Entropy {
	out := cosmos.Entropy{
		Intents:   s.pendingIntents.Intents,
		Transfers: s.pendingTransfers,
	}
	s.pendingIntents = cosmos.Entropy{}
	s.pendingTransfers = nil
	return out
}

func (s *ElementSystem) ClearAllPendingEvents() {
	s.pendingIntents = cosmos.Entropy{}
	s.pendingTransfers = nil
}

// ItemButton returns the button of item, creating an uninitialized one if
// there is none yet.
func (s *ElementSystem) ItemButton(item ecs.EntityID) *ItemButton {
	b, ok := s.itemButtons[item]
	if !ok {
		b = &ItemButton{Item: item}
		s.itemButtons[item] = b
	}
	return b
}

// SlotButton returns the button of slot, creating an uninitialized one if
// there is none yet.
func (s *ElementSystem) SlotButton(slot cosmos.SlotID) *SlotButton {
	b, ok := s.slotButtons[slot]
	if !ok {
		b = &SlotButton{Slot: slot}
		s.slotButtons[slot] = b
	}
	return b
}

// Counts returns how many item and slot buttons exist.
func (s *ElementSystem) Counts() (items, slots int) {
	return len(s.itemButtons), len(s.slotButtons)
}

// ConsumeStep initializes the buttons the step's transfers announced. It is
// meant to run as the step's post-solve callback, while the messages are
// still queued.
func (s *ElementSystem) ConsumeStep(step *cosmos.Step) {
	c := step.Cosmos
	items := event.Peek[cosmos.ItemButtonInitMessage](step.Messages)
	slots := event.Peek[cosmos.SlotButtonInitMessage](step.Messages)

	for _, m := range items {
		h := c.Handle(m.Item)
		if h.Dead() {
			continue
		}
		b := s.ItemButton(m.Item)
		b.Initialized = true
		b.Slot = h.CurrentSlot().ID()
		b.Name = h.Name()
		if it := h.Item(); it != nil {
			b.Charges = it.Charges
		}
	}
	for _, m := range slots {
		sh := c.Slot(m.Slot)
		if sh.Dead() {
			continue
		}
		b := s.SlotButton(m.Slot)
		b.Initialized = true
		b.Items = len(sh.Items())
	}
	if len(items)+len(slots) > 0 {
		s.log.Debug("gui buttons initialized",
			zap.Uint64("step", c.StepNumber()),
			zap.Int("items", len(items)),
			zap.Int("slots", len(slots)),
		)
	}
}

// Resample drops buttons whose entity or slot no longer exists.
func (s *ElementSystem) Resample(c *cosmos.Cosmos) {
	for id := range s.itemButtons {
		if !c.Alive(id) {
			delete(s.itemButtons, id)
		}
	}
	for id := range s.slotButtons {
		if c.Slot(id).Dead() {
			delete(s.slotButtons, id)
		}
	}
}
