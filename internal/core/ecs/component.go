package ecs

// Store is implemented by all component stores so the Registry can
// bulk-remove, clone and reserve an entity's data across every store.
type Store interface {
	Remove(id EntityID)
	CloneInto(from, to EntityID)
	Reserve(n int)
	Clear()
}

// Cloner is implemented by components holding slices or maps, so that
// cloning an entity never aliases the source entity's memory.
type Cloner[T any] interface {
	Clone() T
}

// SlotStore is an arena of component slots indexed by entity index.
// Generation checks are the caller's job: the store only sees indices.
// Pure generics on the hot path.
type SlotStore[T any] struct {
	Slots []*T
}

func NewSlotStore[T any]() *SlotStore[T] {
	return &SlotStore[T]{
		Slots: make([]*T, 0, 256),
	}
}

func (s *SlotStore[T]) Set(id EntityID, c *T) {
	idx := int(id.Index())
	for idx >= len(s.Slots) {
		s.Slots = append(s.Slots, nil)
	}
	s.Slots[idx] = c
}

func (s *SlotStore[T]) Get(id EntityID) (*T, bool) {
	idx := int(id.Index())
	if idx >= len(s.Slots) || s.Slots[idx] == nil {
		return nil, false
	}
	return s.Slots[idx], true
}

func (s *SlotStore[T]) Remove(id EntityID) {
	idx := int(id.Index())
	if idx < len(s.Slots) {
		s.Slots[idx] = nil
	}
}

func (s *SlotStore[T]) Has(id EntityID) bool {
	_, ok := s.Get(id)
	return ok
}

// Len returns the number of occupied slots.
func (s *SlotStore[T]) Len() int {
	n := 0
	for _, c := range s.Slots {
		if c != nil {
			n++
		}
	}
	return n
}

// Each visits occupied slots in ascending index order, which keeps
// iteration deterministic across runs.
func (s *SlotStore[T]) Each(fn func(index uint32, c *T)) {
	for i, c := range s.Slots {
		if c != nil {
			fn(uint32(i), c)
		}
	}
}

// CloneInto copies the component of from into the slot of to.
func (s *SlotStore[T]) CloneInto(from, to EntityID) {
	src, ok := s.Get(from)
	if !ok {
		s.Remove(to)
		return
	}
	var dup T
	if c, ok := any(src).(Cloner[T]); ok {
		dup = c.Clone()
	} else {
		dup = *src
	}
	s.Set(to, &dup)
}

func (s *SlotStore[T]) Reserve(n int) {
	if n > cap(s.Slots) {
		grown := make([]*T, len(s.Slots), n)
		copy(grown, s.Slots)
		s.Slots = grown
	}
}

func (s *SlotStore[T]) Clear() {
	s.Slots = s.Slots[:0]
}
