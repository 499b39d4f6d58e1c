package cosmos

import (
	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// ProcessingCache keeps, per subject, the ordered list of entities that
// systems iterate.
type ProcessingCache struct {
	lists [component.ProcessingSubjectCount][]ecs.EntityID
}

func newProcessingCache() *ProcessingCache {
	return &ProcessingCache{}
}

var subjectKinds = [component.ProcessingSubjectCount]ComponentKind{
	component.SubjectsWithPhysics:   KindRigidBody,
	component.SubjectsWithMovement:  KindMovement,
	component.SubjectsWithItem:      KindItem,
	component.SubjectsWithContainer: KindContainer,
	component.SubjectsWithGun:       KindGun,
}

// Get returns the entities processed for subject, ordered by index.
func (p *ProcessingCache) Get(subject component.ProcessingSubject) []ecs.EntityID {
	return p.lists[subject]
}

func (p *ProcessingCache) InferCacheFor(h Handle) {
	h.Dispatch(func(t TypedHandle) {
		set := t.Components()
		proc := Find[component.Processing](h)
		for s, kind := range subjectKinds {
			subject := component.ProcessingSubject(s)
			if !set.Has(kind) || (proc != nil && proc.IsDisabled(subject)) {
				continue
			}
			p.lists[s] = insertSorted(p.lists[s], h.id)
		}
	})
}

func (p *ProcessingCache) DestroyCacheOf(_ *Cosmos, id ecs.EntityID) {
	for s := range p.lists {
		p.lists[s] = removeSorted(p.lists[s], id)
	}
}

func (p *ProcessingCache) reserve(int) {}

func (p *ProcessingCache) clear() {
	for s := range p.lists {
		p.lists[s] = p.lists[s][:0]
	}
}
