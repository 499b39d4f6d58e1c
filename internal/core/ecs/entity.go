package ecs

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
// Generations start at 1, so the zero EntityID never refers to a live entity.
type EntityID uint64

// Nil is the unset entity id.
const Nil EntityID = 0

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool manages entity allocation with generational indices and a free list.
// Fields are exported so the pool can be written by the introspecting serializer.
type EntityPool struct {
	Generations []uint32
	Vacant      []bool
	FreeList    []uint32
	NextIndex   uint32
	Limit       uint32 // 0 = unlimited
}

func NewEntityPool(limit uint32) *EntityPool {
	return &EntityPool{
		Generations: make([]uint32, 0, 1024),
		Vacant:      make([]bool, 0, 1024),
		FreeList:    make([]uint32, 0, 256),
		Limit:       limit,
	}
}

// Create allocates a slot. It reports false when the pool is exhausted.
func (p *EntityPool) Create() (EntityID, bool) {
	if len(p.FreeList) > 0 {
		idx := p.FreeList[len(p.FreeList)-1]
		p.FreeList = p.FreeList[:len(p.FreeList)-1]
		p.Vacant[idx] = false
		return NewEntityID(idx, p.Generations[idx]), true
	}
	if p.Limit > 0 && p.NextIndex >= p.Limit {
		return Nil, false
	}
	idx := p.NextIndex
	p.NextIndex++
	if int(idx) >= len(p.Generations) {
		p.Generations = append(p.Generations, 1)
		p.Vacant = append(p.Vacant, false)
	}
	p.Vacant[idx] = false
	return NewEntityID(idx, p.Generations[idx]), true
}

func (p *EntityPool) Alive(id EntityID) bool {
	if id.IsZero() {
		return false
	}
	idx := id.Index()
	if idx >= p.NextIndex {
		return false
	}
	return !p.Vacant[idx] && p.Generations[idx] == id.Generation()
}

// Destroy frees the slot of id. Stale ids are ignored.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.Generations[idx]++
	p.Vacant[idx] = true
	p.FreeList = append(p.FreeList, idx)
	return true
}

// UndoLastCreate reverts the most recent Create of id so the very same id is
// handed out by the next Create. It is only valid right after that Create.
func (p *EntityPool) UndoLastCreate(id EntityID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	if idx+1 == p.NextIndex {
		p.NextIndex--
		p.Vacant[idx] = true
		return
	}
	p.Vacant[idx] = true
	p.FreeList = append(p.FreeList, idx)
}

// Count returns the number of live entities.
func (p *EntityPool) Count() int {
	return int(p.NextIndex) - len(p.FreeList)
}

// Capacity returns the number of slots ever handed out.
func (p *EntityPool) Capacity() int {
	return int(p.NextIndex)
}

// IDAt returns the live id occupying index, if any.
func (p *EntityPool) IDAt(index uint32) (EntityID, bool) {
	if index >= p.NextIndex {
		return Nil, false
	}
	if p.Vacant[index] {
		return Nil, false
	}
	return NewEntityID(index, p.Generations[index]), true
}

func (p *EntityPool) Reserve(n int) {
	if n > cap(p.Generations) {
		g := make([]uint32, len(p.Generations), n)
		copy(g, p.Generations)
		p.Generations = g
		v := make([]bool, len(p.Vacant), n)
		copy(v, p.Vacant)
		p.Vacant = v
	}
}

// Clear frees every slot. Generations are kept, so ids handed out before
// Clear stay dead.
func (p *EntityPool) Clear() {
	for i := range p.Vacant {
		if !p.Vacant[i] {
			p.Generations[i]++
			p.Vacant[i] = true
		}
	}
	p.FreeList = p.FreeList[:0]
	p.NextIndex = 0
}
