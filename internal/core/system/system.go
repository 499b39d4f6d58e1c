package system

// Phase defines execution ordering within a single step.
type Phase int

const (
	PhaseIntent      Phase = iota // 0: translate applied entropy into component state
	PhaseLogic                    // 1: game logic, item transfers
	PhasePhysics                  // 2: integrate bodies, detect collisions
	PhasePostPhysics              // 3: consume collision results
	PhasePersist                  // 4: snapshots
)

// System is the interface every solver system implements. S is the
// step context the runner is ticked with.
type System[S any] interface {
	Phase() Phase
	Update(step S)
}
