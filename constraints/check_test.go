package constraints

import (
	"testing"

	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/stretchr/testify/assert"
)

func TestCheckLeftOf(t *testing.T) {
	source := Placement{Position: geometry.Vector3{X: -1, Y: 0, Z: 0}}
	target := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}}
	v := Check(Constraint{Relation: LeftOf}, source, target)
	assert.True(t, v.Satisfied)

	v = Check(Constraint{Relation: LeftOf}, target, source)
	assert.False(t, v.Satisfied)
}

func TestCheckNearFar(t *testing.T) {
	source := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}}
	near := Placement{Position: geometry.Vector3{X: 1, Y: 0, Z: 0}}
	far := Placement{Position: geometry.Vector3{X: 10, Y: 0, Z: 0}}

	assert.True(t, Check(Constraint{Relation: Near}, source, near).Satisfied)
	assert.False(t, Check(Constraint{Relation: Near}, source, far).Satisfied)
	assert.True(t, Check(Constraint{Relation: Far}, source, far).Satisfied)
	assert.False(t, Check(Constraint{Relation: Far}, source, near).Satisfied)
}

func TestCheckOnContact(t *testing.T) {
	target := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}, Size: geometry.Vector3{X: 1, Y: 1, Z: 0.5}}
	source := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0.25 + 0.1}, Size: geometry.Vector3{X: 0.2, Y: 0.2, Z: 0.2}}
	v := Check(Constraint{Relation: On}, source, target)
	assert.True(t, v.Satisfied)

	source.Position.Z += 0.05
	v = Check(Constraint{Relation: On}, source, target)
	assert.False(t, v.Satisfied)
}

func TestCheckAboveBelow(t *testing.T) {
	low := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}}
	high := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 3}}

	assert.True(t, Check(Constraint{Relation: Above}, high, low).Satisfied)
	assert.False(t, Check(Constraint{Relation: Above}, low, high).Satisfied)
	assert.True(t, Check(Constraint{Relation: Below}, low, high).Satisfied)
}

func TestCheckFaceTo(t *testing.T) {
	source := Placement{Position: geometry.Vector3{X: 0, Y: 0, Z: 0}, Rotation: geometry.Vector3{Z: 0}}
	target := Placement{Position: geometry.Vector3{X: 0, Y: 5, Z: 0}}
	v := Check(Constraint{Relation: FaceTo}, source, target)
	assert.True(t, v.Satisfied)

	source.Rotation.Z = 180
	v = Check(Constraint{Relation: FaceTo}, source, target)
	assert.False(t, v.Satisfied)
}

func TestCheckParallelPerpendicular(t *testing.T) {
	a := Placement{Rotation: geometry.Vector3{Z: 0}}
	b := Placement{Rotation: geometry.Vector3{Z: 5}}
	c := Placement{Rotation: geometry.Vector3{Z: 90}}

	assert.True(t, Check(Constraint{Relation: Parallel}, a, b).Satisfied)
	assert.True(t, Check(Constraint{Relation: Perpendicular}, a, c).Satisfied)
	assert.False(t, Check(Constraint{Relation: Parallel}, a, c).Satisfied)
}
