package cosmos

import (
	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

type physicsBody struct {
	id       ecs.EntityID
	attached []ecs.EntityID // entities whose colliders form this body
}

// PhysicsCache is the physics world: constructed bodies and the colliders
// attached to them. Colliders whose owner body is not constructed yet wait
// in pending until it is.
type PhysicsCache struct {
	bodies  []physicsBody
	ownerOf []ecs.EntityID
	pending map[ecs.EntityID][]ecs.EntityID
}

// Contact is a pair of bodies whose bounds overlap, A before B in index
// order.
type Contact struct {
	A, B ecs.EntityID
}

func newPhysicsCache() *PhysicsCache {
	return &PhysicsCache{pending: make(map[ecs.EntityID][]ecs.EntityID)}
}

func (p *PhysicsCache) body(id ecs.EntityID) *physicsBody {
	if id.IsZero() || int(id.Index()) >= len(p.bodies) {
		return nil
	}
	b := &p.bodies[id.Index()]
	if b.id != id {
		return nil
	}
	return b
}

// HasBody reports whether a body is constructed for id.
func (p *PhysicsCache) HasBody(id ecs.EntityID) bool {
	return p.body(id) != nil
}

// BodyOf returns the constructed body carrying id's colliders.
func (p *PhysicsCache) BodyOf(id ecs.EntityID) (ecs.EntityID, bool) {
	owner, attached := p.ColliderOf(id)
	if !attached {
		return ecs.Nil, false
	}
	return owner, true
}

// ColliderOf returns the owner recorded for id's colliders and whether
// they are attached to it; false with a set owner means pending.
func (p *PhysicsCache) ColliderOf(id ecs.EntityID) (ecs.EntityID, bool) {
	if int(id.Index()) >= len(p.ownerOf) {
		return ecs.Nil, false
	}
	owner := p.ownerOf[id.Index()]
	return owner, p.body(owner) != nil
}

// AttachedTo lists the entities whose colliders form body.
func (p *PhysicsCache) AttachedTo(body ecs.EntityID) []ecs.EntityID {
	if b := p.body(body); b != nil {
		return b.attached
	}
	return nil
}

// PendingCount is the number of collider sets waiting for their body.
func (p *PhysicsCache) PendingCount() int {
	n := 0
	for _, ids := range p.pending {
		n += len(ids)
	}
	return n
}

func (p *PhysicsCache) InferCacheFor(h Handle) {
	fx := h.Fixtures()
	if rb := h.RigidBody(); rb != nil && (fx == nil || fx.OwnerBody == h.id) {
		p.bodies = growTo(p.bodies, h.id.Index())
		b := physicsBody{id: h.id}
		if waiting, ok := p.pending[h.id]; ok {
			b.attached = waiting
			delete(p.pending, h.id)
		}
		p.bodies[h.id.Index()] = b
	}
	if fx == nil || !fx.Activated || len(fx.Colliders) == 0 || fx.OwnerBody.IsZero() {
		return
	}
	p.ownerOf = growTo(p.ownerOf, h.id.Index())
	p.ownerOf[h.id.Index()] = fx.OwnerBody
	if b := p.body(fx.OwnerBody); b != nil {
		b.attached = insertSorted(b.attached, h.id)
	} else {
		p.pending[fx.OwnerBody] = insertSorted(p.pending[fx.OwnerBody], h.id)
	}
}

// DestroyCacheOf detaches id's colliders, then tears down its body. Other
// colliders of a torn down body go back to pending.
func (p *PhysicsCache) DestroyCacheOf(_ *Cosmos, id ecs.EntityID) {
	if owner, attached := p.ColliderOf(id); !owner.IsZero() {
		p.ownerOf[id.Index()] = ecs.Nil
		if attached {
			b := p.body(owner)
			b.attached = removeSorted(b.attached, id)
		} else if rest := removeSorted(p.pending[owner], id); len(rest) == 0 {
			delete(p.pending, owner)
		} else {
			p.pending[owner] = rest
		}
	}
	if b := p.body(id); b != nil {
		if len(b.attached) > 0 {
			p.pending[id] = b.attached
		}
		p.bodies[id.Index()] = physicsBody{}
	}
}

// MassOf sums density times area over every collider of body. Bodies
// never weigh less than 1.
func (p *PhysicsCache) MassOf(c *Cosmos, body ecs.EntityID) float32 {
	var mass float32
	for _, id := range p.AttachedTo(body) {
		fx := c.Handle(id).Fixtures()
		if fx == nil {
			continue
		}
		for _, col := range fx.Colliders {
			mult := col.DensityMultiplier
			if mult == 0 {
				mult = 1
			}
			mass += col.Density * mult * col.Area()
		}
	}
	return max(mass, 1)
}

// BoundsOf returns the union of the boxes of every collider of body.
func (p *PhysicsCache) BoundsOf(c *Cosmos, body ecs.EntityID) (component.AABB, bool) {
	var (
		out   component.AABB
		found bool
	)
	for _, id := range p.AttachedTo(body) {
		h := c.Handle(id)
		fx := h.Fixtures()
		if fx == nil {
			continue
		}
		t := h.LogicTransform()
		for _, col := range fx.Colliders {
			box := component.BoxAABB(t, col.Size)
			if found {
				out = out.Union(box)
			} else {
				out, found = box, true
			}
		}
	}
	return out, found
}

// QueryAABB returns the bodies overlapping box in index order.
func (p *PhysicsCache) QueryAABB(c *Cosmos, box component.AABB) []ecs.EntityID {
	var out []ecs.EntityID
	for i := range p.bodies {
		id := p.bodies[i].id
		if id.IsZero() {
			continue
		}
		if b, ok := p.BoundsOf(c, id); ok && b.Overlaps(box) {
			out = append(out, id)
		}
	}
	return out
}

// Integrate advances every processed body by dt seconds: pending impulses
// become velocity, damping applies, then velocity moves the body.
func (p *PhysicsCache) Integrate(c *Cosmos, dt float32) {
	for _, id := range c.Processing().Get(component.SubjectsWithPhysics) {
		b := p.body(id)
		rb := c.Handle(id).RigidBody()
		if b == nil || rb == nil {
			continue
		}
		switch rb.Type {
		case component.BodyDynamic:
			if len(b.attached) == 0 {
				break
			}
			inv := 1 / p.MassOf(c, id)
			rb.Velocity = rb.Velocity.Add(rb.PendingImpulse.Scale(inv))
			rb.AngularVelocity += rb.PendingAngularImpulse * inv
			rb.Velocity = rb.Velocity.Scale(1 / (1 + dt*rb.LinearDamping))
			rb.AngularVelocity /= 1 + dt*rb.AngularDamping
			fallthrough
		case component.BodyKinematic:
			rb.Transform.Pos = rb.Transform.Pos.Add(rb.Velocity.Scale(dt))
			rb.Transform.Rotation += rb.AngularVelocity * dt
		}
		rb.PendingImpulse = component.Vec2{}
		rb.PendingAngularImpulse = 0
	}
}

// DetectCollisions pairs every two bodies whose bounds overlap. Static
// pairs are skipped.
func (p *PhysicsCache) DetectCollisions(c *Cosmos) []Contact {
	type bounded struct {
		id     ecs.EntityID
		box    component.AABB
		static bool
	}
	var list []bounded
	for i := range p.bodies {
		id := p.bodies[i].id
		if id.IsZero() {
			continue
		}
		box, ok := p.BoundsOf(c, id)
		if !ok {
			continue
		}
		rb := c.Handle(id).RigidBody()
		list = append(list, bounded{id: id, box: box, static: rb != nil && rb.Type == component.BodyStatic})
	}

	var out []Contact
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			if list[i].static && list[j].static {
				continue
			}
			if list[i].box.Overlaps(list[j].box) {
				out = append(out, Contact{A: list[i].id, B: list[j].id})
			}
		}
	}
	return out
}

func (p *PhysicsCache) reserve(n int) {
	if n > len(p.bodies) {
		p.bodies = growTo(p.bodies, uint32(n-1))
		p.ownerOf = growTo(p.ownerOf, uint32(n-1))
	}
}

func (p *PhysicsCache) clear() {
	clear(p.bodies)
	clear(p.ownerOf)
	clear(p.pending)
}
