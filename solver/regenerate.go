package solver

import "github.com/holodeck-scenegen/scenegen/constraints"

// RegenerationStrategy selects how Regenerate reacts to a failed object.
type RegenerationStrategy string

const (
	StrategyRelax  RegenerationStrategy = "relax"
	StrategyRemove RegenerationStrategy = "remove"
)

// Regenerate consumes a failed solve's trace and produces the delta to
// apply to the constraint set that produced it: relax downgrades every
// constraint naming the failed object to secondary/soft, remove drops them
// entirely.
func Regenerate(current *constraints.Set, trace *Trace, strategy RegenerationStrategy) constraints.Delta {
	var delta constraints.Delta
	for _, c := range current.Relations {
		if c.Source != trace.FailedObjectID && c.Target != trace.FailedObjectID {
			continue
		}
		if c.ConstraintID != "" {
			delta.Remove = append(delta.Remove, c.ConstraintID)
		}
		if strategy == StrategyRelax {
			relaxed := c
			relaxed.Priority = constraints.Secondary
			relaxed.IsSoft = true
			delta.Add = append(delta.Add, relaxed)
		}
	}
	return delta
}
