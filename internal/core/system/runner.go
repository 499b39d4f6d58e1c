package system

import (
	"sort"
)

// Runner executes systems in phase order each step. Systems sharing a phase
// run in registration order.
type Runner[S any] struct {
	systems []System[S]
	sorted  bool
}

func NewRunner[S any]() *Runner[S] {
	return &Runner[S]{
		systems: make([]System[S], 0, 16),
	}
}

func (r *Runner[S]) Register(s System[S]) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner[S]) Len() int { return len(r.systems) }

func (r *Runner[S]) Tick(step S) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(step)
	}
}

// TickPhases runs the systems whose phase lies in [from, to].
func (r *Runner[S]) TickPhases(from, to Phase, step S) {
	r.ensureSorted()
	for _, s := range r.systems {
		if p := s.Phase(); p >= from && p <= to {
			s.Update(step)
		}
	}
}

func (r *Runner[S]) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
