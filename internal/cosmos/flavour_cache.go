package cosmos

import (
	"github.com/topdown/cosmos/internal/component"
	"github.com/topdown/cosmos/internal/core/ecs"
)

// FlavourCache lists the live entities of every flavour.
type FlavourCache struct {
	byFlavour map[component.FlavourID][]ecs.EntityID
	flavourOf []component.FlavourID
}

func newFlavourCache() *FlavourCache {
	return &FlavourCache{byFlavour: make(map[component.FlavourID][]ecs.EntityID)}
}

// EntitiesOfFlavour returns the entities of flavour f ordered by index.
func (f *FlavourCache) EntitiesOfFlavour(id component.FlavourID) []ecs.EntityID {
	return f.byFlavour[id]
}

func (f *FlavourCache) InferCacheFor(h Handle) {
	id := h.FlavourID()
	if id == 0 {
		return
	}
	f.flavourOf = growTo(f.flavourOf, h.id.Index())
	f.flavourOf[h.id.Index()] = id
	f.byFlavour[id] = insertSorted(f.byFlavour[id], h.id)
}

func (f *FlavourCache) DestroyCacheOf(_ *Cosmos, id ecs.EntityID) {
	if int(id.Index()) >= len(f.flavourOf) {
		return
	}
	fl := f.flavourOf[id.Index()]
	if fl == 0 {
		return
	}
	f.flavourOf[id.Index()] = 0
	rest := removeSorted(f.byFlavour[fl], id)
	if len(rest) == 0 {
		delete(f.byFlavour, fl)
	} else {
		f.byFlavour[fl] = rest
	}
}

func (f *FlavourCache) reserve(n int) {
	if n > len(f.flavourOf) {
		f.flavourOf = growTo(f.flavourOf, uint32(n-1))
	}
}

func (f *FlavourCache) clear() {
	clear(f.byFlavour)
	clear(f.flavourOf)
}
