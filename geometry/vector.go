// Package geometry provides the vector and axis-aligned bounding box
// primitives used by the constraint model and layout solver, ported from
// the Python reference's collision_detection.py and constraint_primitives.py.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vector3 is a point or displacement in meters (or degrees, for rotations).
// It marshals as a 3-element JSON array ([x,y,z]) to match the wire formats
// in §6.2 of the specification.
type Vector3 struct {
	X, Y, Z float64
}

// MarshalJSON encodes the vector as [x, y, z].
func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

// UnmarshalJSON decodes a [x, y, z] array into the vector.
func (v *Vector3) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("vector3: %w", err)
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// HorizontalDistance returns the XY-plane distance between v and o.
func (v Vector3) HorizontalDistance(o Vector3) float64 {
	dx, dy := o.X-v.X, o.Y-v.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Distance returns the full 3D Euclidean distance between v and o.
func (v Vector3) Distance(o Vector3) float64 {
	dx, dy, dz := o.X-v.X, o.Y-v.Y, o.Z-v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// NormalizeDegrees wraps a rotation into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vector3
}

// NewAABB builds the AABB of an object of the given size centered at pos.
func NewAABB(pos, size Vector3) AABB {
	half := size.Scale(0.5)
	return AABB{Min: pos.Sub(half), Max: pos.Add(half)}
}

// Expand grows the box by margin on every face.
func (b AABB) Expand(margin float64) AABB {
	m := Vector3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Intersects reports strict overlap (penetration depth > 0) between b and o.
func (b AABB) Intersects(o AABB) bool {
	return !(b.Max.X <= o.Min.X || b.Min.X >= o.Max.X ||
		b.Max.Y <= o.Min.Y || b.Min.Y >= o.Max.Y ||
		b.Max.Z <= o.Min.Z || b.Min.Z >= o.Max.Z)
}

// DistanceTo returns the minimum separation between b and o, or 0 if they
// intersect.
func (b AABB) DistanceTo(o AABB) float64 {
	if b.Intersects(o) {
		return 0
	}
	dx := math.Max(0, math.Max(o.Min.X-b.Max.X, b.Min.X-o.Max.X))
	dy := math.Max(0, math.Max(o.Min.Y-b.Max.Y, b.Min.Y-o.Max.Y))
	dz := math.Max(0, math.Max(o.Min.Z-b.Max.Z, b.Min.Z-o.Max.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CollidesWithClearance reports whether two object boxes overlap once each
// has been expanded by half the requested clearance on every side (so the
// net separation enforced between the two surfaces equals clearance).
func CollidesWithClearance(aPos, aSize, bPos, bSize Vector3, clearance float64) bool {
	a := NewAABB(aPos, aSize)
	b := NewAABB(bPos, bSize)
	if clearance > 0 {
		half := clearance / 2
		a = a.Expand(half)
		b = b.Expand(half)
	}
	return a.Intersects(b)
}
