package solver

import (
	"math"

	"github.com/holodeck-scenegen/scenegen/constraints"
	"github.com/holodeck-scenegen/scenegen/geometry"
)

// anchorBox is the 2D region (center + half-extent over x,y) a constraint's
// relation suggests for a candidate, biased toward the side that is likely
// to satisfy it; final correctness is always re-checked against
// constraints.Check, so the bias only has to be a good guess, not exact.
type anchorBox struct {
	centerX, centerY float64
	halfX, halfY     float64
	centerZ          *float64 // nil means "use ground support rule"
}

func relationAnchor(c constraints.Constraint, objIsSource bool, objSize float64, other geometry.Vector3, otherSize float64) anchorBox {
	box := anchorBox{centerX: other.X, centerY: other.Y, halfX: 1.0, halfY: 1.0}

	sideSign := func(whenSource float64) float64 {
		if objIsSource {
			return whenSource
		}
		return -whenSource
	}

	switch c.Relation {
	case constraints.LeftOf:
		box.centerX = other.X - sideSign(1)*1.2
		box.halfX = 1.2
	case constraints.RightOf:
		box.centerX = other.X + sideSign(1)*1.2
		box.halfX = 1.2
	case constraints.InFrontOf:
		box.centerY = other.Y - sideSign(1)*1.2
		box.halfY = 1.2
	case constraints.Behind:
		box.centerY = other.Y + sideSign(1)*1.2
		box.halfY = 1.2
	case constraints.SideOf:
		box.halfX, box.halfY = constraints.AdjacentThresholdM*2, constraints.AdjacentThresholdM*2
	case constraints.Near:
		limit := orDefaultThreshold(c.ThresholdM, constraints.NearThresholdM)
		box.halfX, box.halfY = limit, limit
	case constraints.Far:
		limit := orDefaultThreshold(c.ThresholdM, constraints.FarThresholdM)
		box.halfX, box.halfY = limit+2, limit+2
	case constraints.Adjacent:
		limit := orDefaultThreshold(c.ThresholdM, constraints.AdjacentThresholdM)
		box.halfX, box.halfY = limit, limit
	case constraints.On:
		box.halfX, box.halfY = 0.15, 0.15
		var z float64
		if objIsSource {
			// obj sits on other: obj.z = other.z + other.size.z/2 + obj.size.z/2.
			z = other.Z + otherSize/2 + objSize/2
		} else {
			// other sits on obj: other.z = obj.z + obj.size.z/2 + other.size.z/2.
			z = other.Z - otherSize/2 - objSize/2
		}
		box.centerZ = &z
	case constraints.Above:
		limit := orDefaultThreshold(c.ThresholdM, constraints.AboveThresholdM)
		box.halfX, box.halfY = 0.5, 0.5
		var z float64
		if objIsSource {
			z = other.Z + limit
		} else {
			z = other.Z - limit
		}
		box.centerZ = &z
	case constraints.Below:
		limit := orDefaultThreshold(c.ThresholdM, constraints.AboveThresholdM)
		box.halfX, box.halfY = 0.5, 0.5
		var z float64
		if objIsSource {
			z = other.Z - limit
		} else {
			z = other.Z + limit
		}
		box.centerZ = &z
	default:
		// relative/rotation relations that don't constrain xy position
		// directly (face_to, parallel, perpendicular) leave the default
		// box around the other object's position.
	}
	return box
}

func orDefaultThreshold(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// bindingConstraints returns the constraints touching objID whose other
// endpoint is already in placed, paired with whether objID is the source.
func bindingConstraints(objID string, cset []constraints.Constraint, placed map[string]geometry.Vector3) []struct {
	c          constraints.Constraint
	isSource   bool
	otherID    string
} {
	var out []struct {
		c        constraints.Constraint
		isSource bool
		otherID  string
	}
	for _, c := range cset {
		if c.Source == objID {
			if _, ok := placed[c.Target]; ok {
				out = append(out, struct {
					c        constraints.Constraint
					isSource bool
					otherID  string
				}{c, true, c.Target})
			}
		} else if c.Target == objID {
			if _, ok := placed[c.Source]; ok {
				out = append(out, struct {
					c        constraints.Constraint
					isSource bool
					otherID  string
				}{c, false, c.Source})
			}
		}
	}
	return out
}

// generateCandidates produces up to cfg.MaxCandidatesPerObject positions
// for obj, grid-sampled over the intersection of the feasible regions of
// its binding constraints (or a grid around its initial pose, if unbound).
func generateCandidates(obj Object, placedPos map[string]geometry.Vector3, allObjects map[string]Object, cset []constraints.Constraint, groundZ float64, cfg Config) []geometry.Vector3 {
	binding := bindingConstraints(obj.ObjectID, cset, placedPos)

	var region anchorBox
	if len(binding) == 0 {
		region = anchorBox{centerX: obj.InitialPosition.X, centerY: obj.InitialPosition.Y, halfX: 1.0, halfY: 1.0}
	} else {
		region = relationAnchor(binding[0].c, binding[0].isSource, obj.Size.Z, placedPos[binding[0].otherID], allObjects[binding[0].otherID].Size.Z)
		for _, b := range binding[1:] {
			next := relationAnchor(b.c, b.isSource, obj.Size.Z, placedPos[b.otherID], allObjects[b.otherID].Size.Z)
			region = intersectBox(region, next)
		}
	}

	res := cfg.SamplingResolutionM
	if res <= 0 {
		res = Default().SamplingResolutionM
	}

	steps := int(math.Ceil(region.halfX*2/res)) + 1
	stepsY := int(math.Ceil(region.halfY*2/res)) + 1
	if steps < 1 {
		steps = 1
	}
	if stepsY < 1 {
		stepsY = 1
	}

	var candidates []geometry.Vector3
	minX := region.centerX - region.halfX
	minY := region.centerY - region.halfY
	z := groundZ
	if region.centerZ != nil {
		z = *region.centerZ
	}

	for ix := 0; ix < steps; ix++ {
		for iy := 0; iy < stepsY; iy++ {
			x := minX + float64(ix)*res
			y := minY + float64(iy)*res
			candidates = append(candidates, geometry.Vector3{X: x, Y: y, Z: z})
			if len(candidates) >= cfg.MaxCandidatesPerObject {
				return candidates
			}
		}
	}
	return candidates
}

// intersectBox approximates the intersection of two anchor boxes; when they
// don't overlap on an axis (an over-constrained object), it falls back to
// the first box so the search can still produce candidates for the
// acceptance test to reject or accept individually.
func intersectBox(a, b anchorBox) anchorBox {
	aMinX, aMaxX := a.centerX-a.halfX, a.centerX+a.halfX
	bMinX, bMaxX := b.centerX-b.halfX, b.centerX+b.halfX
	aMinY, aMaxY := a.centerY-a.halfY, a.centerY+a.halfY
	bMinY, bMaxY := b.centerY-b.halfY, b.centerY+b.halfY

	minX, maxX := math.Max(aMinX, bMinX), math.Min(aMaxX, bMaxX)
	minY, maxY := math.Max(aMinY, bMinY), math.Min(aMaxY, bMaxY)
	if minX >= maxX || minY >= maxY {
		return a
	}
	out := anchorBox{
		centerX: (minX + maxX) / 2, halfX: (maxX - minX) / 2,
		centerY: (minY + maxY) / 2, halfY: (maxY - minY) / 2,
	}
	if a.centerZ != nil {
		out.centerZ = a.centerZ
	} else if b.centerZ != nil {
		out.centerZ = b.centerZ
	}
	return out
}
