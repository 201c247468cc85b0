package constraints

import (
	"math"

	"github.com/holodeck-scenegen/scenegen/geometry"
)

// Placement is the minimal positional/rotational state a constraint check
// needs about an object; scene.Object satisfies it via its Size, Position,
// and Rotation fields.
type Placement struct {
	Position geometry.Vector3
	Rotation geometry.Vector3
	Size     geometry.Vector3
}

// Verdict is the result of checking one constraint against a candidate
// placement: whether it holds, and by how much it misses when it doesn't
// (used both for hard rejection and for soft-constraint scoring).
type Verdict struct {
	Satisfied bool
	Violation float64
}

// Check evaluates c between source and target placements, dispatching on
// relation the way ConstraintCalculator.check_constraint does.
func Check(c Constraint, source, target Placement) Verdict {
	switch c.Relation {
	case LeftOf, RightOf, InFrontOf, Behind, SideOf:
		return checkRelative(c.Relation, source, target)
	case Near, Far, Adjacent:
		return checkDistance(c.Relation, source, target, c.ThresholdM)
	case On, Above, Below:
		return checkVertical(c.Relation, source, target, c.ThresholdM)
	case FaceTo, Parallel, Perpendicular:
		return checkRotation(c.Relation, source, target, c.DegTolerance)
	default:
		return Verdict{Satisfied: false, Violation: math.Inf(1)}
	}
}

func checkRelative(rel Relation, source, target Placement) Verdict {
	dx := source.Position.X - target.Position.X
	dy := source.Position.Y - target.Position.Y

	switch rel {
	case LeftOf:
		violated := dx >= -BufferDistanceM
		return buffered(violated, dx+BufferDistanceM)
	case RightOf:
		violated := dx <= BufferDistanceM
		return buffered(violated, BufferDistanceM-dx)
	case InFrontOf:
		violated := dy >= -BufferDistanceM
		return buffered(violated, dy+BufferDistanceM)
	case Behind:
		violated := dy <= BufferDistanceM
		return buffered(violated, BufferDistanceM-dy)
	case SideOf:
		horiz := source.Position.HorizontalDistance(target.Position)
		violated := horiz > AdjacentThresholdM*2
		v := 0.0
		if violated {
			v = horiz - AdjacentThresholdM*2
		}
		return Verdict{Satisfied: !violated, Violation: v}
	}
	return Verdict{Satisfied: false, Violation: math.Inf(1)}
}

func buffered(violated bool, raw float64) Verdict {
	v := 0.0
	if violated {
		v = math.Max(0, raw)
	}
	return Verdict{Satisfied: !violated, Violation: v}
}

func checkDistance(rel Relation, source, target Placement, threshold *float64) Verdict {
	horiz := source.Position.HorizontalDistance(target.Position)

	switch rel {
	case Near:
		limit := orDefault(threshold, NearThresholdM)
		violated := horiz > limit
		return buffered(violated, horiz-limit)
	case Far:
		limit := orDefault(threshold, FarThresholdM)
		violated := horiz < limit
		return buffered(violated, limit-horiz)
	case Adjacent:
		limit := orDefault(threshold, AdjacentThresholdM)
		violated := horiz > limit
		return buffered(violated, horiz-limit)
	}
	return Verdict{Satisfied: false, Violation: math.Inf(1)}
}

func checkVertical(rel Relation, source, target Placement, threshold *float64) Verdict {
	switch rel {
	case On:
		expectedZ := target.Position.Z + target.Size.Z/2.0 + source.Size.Z/2.0
		diff := math.Abs(source.Position.Z - expectedZ)
		return Verdict{Satisfied: diff <= ContactToleranceM, Violation: diff}
	case Above:
		limit := orDefault(threshold, AboveThresholdM)
		vertical := source.Position.Z - target.Position.Z
		return Verdict{Satisfied: vertical >= limit, Violation: math.Max(0, limit-vertical)}
	case Below:
		limit := orDefault(threshold, AboveThresholdM)
		vertical := target.Position.Z - source.Position.Z
		return Verdict{Satisfied: vertical >= limit, Violation: math.Max(0, limit-vertical)}
	}
	return Verdict{Satisfied: false, Violation: math.Inf(1)}
}

func checkRotation(rel Relation, source, target Placement, tolerance *float64) Verdict {
	dx := target.Position.X - source.Position.X
	dy := target.Position.Y - source.Position.Y

	switch rel {
	case FaceTo:
		srcAngle := radians(source.Rotation.Z)
		forwardX, forwardY := math.Sin(srcAngle), -math.Cos(srcAngle)

		dot := forwardX*dx + forwardY*dy
		mag := math.Hypot(forwardX, forwardY) * math.Hypot(dx, dy)
		if mag == 0 {
			return Verdict{Satisfied: false, Violation: 180}
		}
		angle := degrees(math.Acos(clamp(dot/mag, -1, 1)))
		angle = math.Min(angle, 360-angle)

		limit := orDefault(tolerance, FaceToToleranceDeg)
		violated := angle > limit
		return buffered(violated, angle-limit)
	case Parallel:
		diff := angleDiff(source.Rotation.Z, target.Rotation.Z)
		diff = math.Min(diff, 180-diff)
		limit := orDefault(tolerance, FaceToToleranceDeg)
		violated := diff > limit
		return buffered(violated, diff-limit)
	case Perpendicular:
		diff := angleDiff(source.Rotation.Z, target.Rotation.Z)
		offBy := math.Abs(diff - 90)
		limit := orDefault(tolerance, FaceToToleranceDeg)
		violated := offBy > limit
		return buffered(violated, offBy-limit)
	}
	return Verdict{Satisfied: false, Violation: math.Inf(1)}
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
