package solver

import (
	"math"

	"github.com/holodeck-scenegen/scenegen/constraints"
	"github.com/holodeck-scenegen/scenegen/geometry"
)

// acceptCandidate runs the full acceptance test for placing obj at pos
// given the objects already placed: hard-constraint satisfaction, AABB
// collision with clearance, and the ground-support rule. It returns the
// weighted soft-constraint score used for tie-breaking among accepted
// candidates.
func acceptCandidate(obj Object, pos geometry.Vector3, placed map[string]geometry.Vector3, byID map[string]Object, cset []constraints.Constraint, cfg Config) (ok bool, reason ConflictType, score float64) {
	hasGroundRule := true
	for _, c := range cset {
		if c.Relation != constraints.On && c.Relation != constraints.Above {
			continue
		}
		if c.Source == obj.ObjectID {
			if _, ok := placed[c.Target]; ok {
				hasGroundRule = false
			}
		}
	}
	if hasGroundRule {
		expectedZ := obj.Size.Z / 2
		if math.Abs(pos.Z-expectedZ) > 1e-6 {
			return false, ConflictConstraint, 0
		}
	}

	for otherID, otherPos := range placed {
		other := byID[otherID]
		if geometry.CollidesWithClearance(pos, obj.Size, otherPos, other.Size, cfg.CollisionClearanceM) {
			return false, ConflictCollision, 0
		}
	}

	weightSum, satisfiedWeight := 0.0, 0.0
	for _, c := range cset {
		var otherID string
		var objIsSource bool
		switch {
		case c.Source == obj.ObjectID:
			otherID, objIsSource = c.Target, true
		case c.Target == obj.ObjectID:
			otherID, objIsSource = c.Source, false
		default:
			continue
		}
		otherPos, ok := placed[otherID]
		if !ok {
			continue
		}
		other := byID[otherID]

		var srcPlacement, tgtPlacement constraints.Placement
		if objIsSource {
			srcPlacement = placementOf(obj, pos)
			tgtPlacement = placementOf(other, otherPos)
		} else {
			srcPlacement = placementOf(other, otherPos)
			tgtPlacement = placementOf(obj, pos)
		}

		verdict := constraints.Check(c, srcPlacement, tgtPlacement)
		if c.IsSoft || c.Priority == constraints.Secondary {
			weightSum += c.Weight
			if verdict.Satisfied {
				satisfiedWeight += c.Weight
			}
			continue
		}
		if !verdict.Satisfied {
			return false, ConflictConstraint, 0
		}
	}

	if weightSum == 0 {
		return true, "", 1.0
	}
	return true, "", satisfiedWeight / weightSum
}
