package solver

import (
	"fmt"

	"github.com/holodeck-scenegen/scenegen/constraints"
)

func buildTrace(failedObjectID string, placedObjects []string, conflict ConflictType, cset []constraints.Constraint, candidatesTried, searchSpaceSize int, bestScore float64, backtrackCount int, elapsedS float64) *Trace {
	active := make([]ActiveConstraintRef, 0, len(cset))
	for _, c := range cset {
		if c.Source == failedObjectID || c.Target == failedObjectID {
			active = append(active, ActiveConstraintRef{Source: c.Source, Target: c.Target, Relation: string(c.Relation)})
		}
	}

	return &Trace{
		FailedObjectID:         failedObjectID,
		PlacedObjects:          placedObjects,
		ConflictType:           conflict,
		ActiveConstraints:      active,
		CandidatesTried:        candidatesTried,
		SearchSpaceSize:        searchSpaceSize,
		BestCandidateScore:     bestScore,
		TracebackDepth:         backtrackCount,
		TimeAtFailureS:         elapsedS,
		NaturalLanguageSummary: summarize(failedObjectID, placedObjects, conflict, candidatesTried, elapsedS),
		FixSuggestions:         fixSuggestions(conflict),
	}
}

func summarize(failedObjectID string, placedObjects []string, conflict ConflictType, candidatesTried int, elapsedS float64) string {
	switch conflict {
	case ConflictCollision:
		return fmt.Sprintf(
			"Failed to place %s: every candidate position collided with an already-placed object (%s). The object may be too large for the remaining space.",
			failedObjectID, joinOrNone(placedObjects))
	case ConflictConstraint:
		return fmt.Sprintf(
			"Failed to place %s: %d objects placed successfully, but no candidate satisfied its active constraints. Consider relaxing or removing the conflicting constraints.",
			failedObjectID, len(placedObjects))
	case ConflictBoundary:
		return fmt.Sprintf(
			"Failed to place %s: no candidate within the feasible region fell inside the room boundary.",
			failedObjectID)
	case ConflictTimeout:
		return fmt.Sprintf(
			"Failed to place %s within the search timeout (%.2fs elapsed, %d candidates tried). The solution space may be sparse or non-existent.",
			failedObjectID, elapsedS, candidatesTried)
	default:
		return fmt.Sprintf("Failed to place %s after trying %d candidates. %d objects placed successfully.",
			failedObjectID, candidatesTried, len(placedObjects))
	}
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	out := ids[0]
	for _, id := range ids[1:] {
		out += ", " + id
	}
	return out
}

func fixSuggestions(conflict ConflictType) []string {
	var suggestions []string
	switch conflict {
	case ConflictCollision:
		suggestions = []string{
			"Increase spacing between objects by raising collision_clearance_m",
			"Reduce object sizes or remove some objects from the scene",
			"Review near/adjacent distance constraints - they may be too restrictive",
		}
	case ConflictConstraint:
		suggestions = []string{
			"Relax spatial constraints (increase near distance, decrease far distance)",
			"Identify and remove conflicting constraints",
			"Consider making some constraints soft rather than hard",
		}
	case ConflictTimeout:
		suggestions = []string{
			"Increase timeout_s",
			"Reduce scene complexity (fewer objects or simpler constraints)",
			"Increase sampling_resolution for faster convergence",
		}
	case ConflictBoundary:
		suggestions = []string{
			"Enlarge the room size hint",
			"Remove constraints that push the object outside the room box",
		}
	}
	suggestions = append(suggestions, "Use iterative solving with constraint refinement", "Check for cycle dependencies in the constraint graph")
	return suggestions
}
