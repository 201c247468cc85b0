package solver

import (
	"time"

	"github.com/holodeck-scenegen/scenegen/constraints"
	"github.com/holodeck-scenegen/scenegen/geometry"
)

type searchState struct {
	placedOrder     []string
	placedPositions map[string]geometry.Vector3
	candidatesTried int
	nodesVisited    int
	backtrackCount  int
}

// Solve runs the DFS placement search over objects under cset, returning a
// Solution on success, or the best-effort partial Solution plus a Trace on
// failure. solutionVersion is the version to stamp on a successful Solution
// (callers own version bookkeeping, per the "only successful solutions get
// a version" rule).
//
// Each object takes its best-scoring accepted candidate (ties go to the one
// nearest its initial position). When an object has no accepted candidate,
// or the timeout passes, the search unwinds without trying other
// candidates of the objects placed before it.
func Solve(objects []Object, cset []constraints.Constraint, solutionVersion int, cfg Config) (*Solution, *Trace) {
	cfg = cfg.withDefaults()

	objectIDs := make([]string, len(objects))
	byID := make(map[string]Object, len(objects))
	for i, o := range objects {
		objectIDs[i] = o.ObjectID
		byID[o.ObjectID] = o
	}

	order := topologicalSeedOrder(objectIDs, cset)

	state := &searchState{placedPositions: map[string]geometry.Vector3{}}
	start := time.Now()

	var bestScore float64
	conflict := ConflictConstraint

	var dfs func(depth int) bool
	dfs = func(depth int) bool {
		state.nodesVisited++
		if time.Since(start) > cfg.TimeoutS {
			conflict = ConflictTimeout
			return false
		}
		if depth >= len(order) {
			return true
		}

		objID := order[depth]
		obj := byID[objID]
		groundZ := obj.Size.Z / 2

		candidates := generateCandidates(obj, state.placedPositions, byID, cset, groundZ, cfg)
		if len(candidates) == 0 {
			conflict = ConflictBoundary
		}

		type accepted struct {
			pos   geometry.Vector3
			score float64
		}
		var acceptedCandidates []accepted
		sawCollision := false

		for _, pos := range candidates {
			state.candidatesTried++

			ok, reason, score := acceptCandidate(obj, pos, state.placedPositions, byID, cset, cfg)
			if !ok {
				if reason == ConflictCollision {
					sawCollision = true
				}
				continue
			}
			acceptedCandidates = append(acceptedCandidates, accepted{pos, score})
		}

		if len(acceptedCandidates) == 0 {
			if sawCollision {
				conflict = ConflictCollision
			} else if len(candidates) > 0 {
				conflict = ConflictConstraint
			}
			return false
		}

		best := acceptedCandidates[0]
		for _, a := range acceptedCandidates[1:] {
			if a.score > best.score {
				best = a
				continue
			}
			if a.score == best.score {
				if obj.InitialPosition.Distance(a.pos) < obj.InitialPosition.Distance(best.pos) {
					best = a
				}
			}
		}
		if best.score > bestScore {
			bestScore = best.score
		}

		state.placedPositions[objID] = best.pos
		state.placedOrder = append(state.placedOrder, objID)

		if dfs(depth + 1) {
			return true
		}

		delete(state.placedPositions, objID)
		state.placedOrder = state.placedOrder[:len(state.placedOrder)-1]
		state.backtrackCount++
		return false
	}

	success := dfs(0)
	elapsed := time.Since(start).Seconds()

	if success {
		placements := make(map[string]ObjectPlacement, len(objects))
		total, satisfied := 0, 0
		for _, obj := range objects {
			pos := state.placedPositions[obj.ObjectID]
			placements[obj.ObjectID] = ObjectPlacement{
				ObjectID: obj.ObjectID,
				Position: pos,
				Rotation: obj.InitialRotation,
				Scale:    cfg.ScaleFunc(obj.Size),
			}
		}
		for _, c := range cset {
			srcPos, srcOK := state.placedPositions[c.Source]
			tgtPos, tgtOK := state.placedPositions[c.Target]
			if !srcOK || !tgtOK {
				continue
			}
			total++
			v := constraints.Check(c, placementOf(byID[c.Source], srcPos), placementOf(byID[c.Target], tgtPos))
			if v.Satisfied {
				satisfied++
			}
		}
		ratio := 1.0
		if total > 0 {
			ratio = float64(satisfied) / float64(total)
		}
		return &Solution{Version: solutionVersion, Placements: placements, ConstraintSatisfaction: ratio}, nil
	}

	failedIdx := len(state.placedOrder)
	failedObjectID := order[failedIdx]

	partial := make(map[string]ObjectPlacement, len(state.placedOrder))
	for _, id := range state.placedOrder {
		obj := byID[id]
		pos := state.placedPositions[id]
		partial[id] = ObjectPlacement{ObjectID: id, Position: pos, Rotation: obj.InitialRotation, Scale: cfg.ScaleFunc(obj.Size)}
	}

	trace := buildTrace(failedObjectID, state.placedOrder, conflict, cset, state.candidatesTried, len(candidatesSpace(order, byID, cset, cfg)), bestScore, state.backtrackCount, elapsed)

	return &Solution{Version: 0, Placements: partial, ConstraintSatisfaction: 0}, trace
}

func placementOf(obj Object, pos geometry.Vector3) constraints.Placement {
	return constraints.Placement{Position: pos, Rotation: obj.InitialRotation, Size: obj.Size}
}

// candidatesSpace estimates the total search space size for reporting
// purposes: the sum of per-object candidate counts at their initial poses.
func candidatesSpace(order []string, byID map[string]Object, cset []constraints.Constraint, cfg Config) []geometry.Vector3 {
	var total []geometry.Vector3
	placed := map[string]geometry.Vector3{}
	for _, id := range order {
		obj := byID[id]
		total = append(total, generateCandidates(obj, placed, byID, cset, obj.Size.Z/2, cfg)...)
		placed[id] = obj.InitialPosition
	}
	return total
}
