package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector3JSONRoundTrip(t *testing.T) {
	v := Vector3{1.5, -2.25, 0.75}
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5,-2.25,0.75]`, string(raw))

	var out Vector3
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, v, out)
}

func TestAABBIntersects(t *testing.T) {
	a := NewAABB(Vector3{0, 0, 0}, Vector3{1, 1, 1})
	b := NewAABB(Vector3{0.5, 0, 0}, Vector3{1, 1, 1})
	assert.True(t, a.Intersects(b))

	c := NewAABB(Vector3{5, 0, 0}, Vector3{1, 1, 1})
	assert.False(t, a.Intersects(c))
}

func TestAABBDistanceTo(t *testing.T) {
	a := NewAABB(Vector3{0, 0, 0}, Vector3{1, 1, 1})
	b := NewAABB(Vector3{3, 0, 0}, Vector3{1, 1, 1})
	assert.InDelta(t, 2.0, a.DistanceTo(b), 1e-9)

	overlapping := NewAABB(Vector3{0.2, 0, 0}, Vector3{1, 1, 1})
	assert.Equal(t, 0.0, a.DistanceTo(overlapping))
}

func TestCollidesWithClearance(t *testing.T) {
	aPos, aSize := Vector3{0, 0, 0}, Vector3{1, 1, 1}
	bPos, bSize := Vector3{1.0, 0, 0}, Vector3{1, 1, 1}

	// Touching edges with no clearance: not a strict collision.
	assert.False(t, CollidesWithClearance(aPos, aSize, bPos, bSize, 0))

	// With clearance, the inflated boxes now overlap.
	assert.True(t, CollidesWithClearance(aPos, aSize, bPos, bSize, 0.2))
}

func TestNormalizeDegrees(t *testing.T) {
	assert.InDelta(t, 10.0, NormalizeDegrees(370), 1e-9)
	assert.InDelta(t, 350.0, NormalizeDegrees(-10), 1e-9)
	assert.InDelta(t, 0.0, NormalizeDegrees(360), 1e-9)
}

func TestVectorDistances(t *testing.T) {
	v := Vector3{0, 0, 0}
	o := Vector3{3, 4, 0}
	assert.InDelta(t, 5.0, v.Distance(o), 1e-9)
	assert.InDelta(t, 5.0, v.HorizontalDistance(o), 1e-9)

	o2 := Vector3{3, 4, 12}
	assert.InDelta(t, 13.0, v.Distance(o2), 1e-9)
	assert.InDelta(t, 5.0, v.HorizontalDistance(o2), 1e-9)
}
