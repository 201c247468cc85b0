// Package constraints implements the spatial constraint taxonomy (relative,
// distance, vertical, rotation relations) and the constraint-satisfaction
// math used by the layout solver, ported from
// original_source/holodeck_core/schemas/constraints.py and
// original_source/holodeck_core/scene_gen/constraint_primitives.py.
package constraints

import (
	"fmt"

	"github.com/holodeck-scenegen/scenegen/herr"
)

// Type is the constraint category.
type Type string

const (
	TypeRelative Type = "relative"
	TypeDistance Type = "distance"
	TypeVertical Type = "vertical"
	TypeRotation Type = "rotation"
)

// Relation is a specific spatial relation within a Type.
type Relation string

const (
	LeftOf     Relation = "left of"
	RightOf    Relation = "right of"
	InFrontOf  Relation = "in front of"
	Behind     Relation = "behind"
	SideOf     Relation = "side of"
	Near       Relation = "near"
	Far        Relation = "far"
	Adjacent   Relation = "adjacent"
	On         Relation = "on"
	Above      Relation = "above"
	Below      Relation = "below"
	FaceTo     Relation = "face to"
	Parallel   Relation = "parallel"
	Perpendicular Relation = "perpendicular"
)

// Priority is a constraint's enforcement tier.
type Priority string

const (
	Primary   Priority = "primary"
	Secondary Priority = "secondary"
)

// Threshold bounds, ported verbatim from constraint_primitives.py.
const (
	BufferDistanceM  = 0.1
	NearThresholdM   = 2.0
	FarThresholdM    = 8.0
	AdjacentThresholdM = 0.5
	AboveThresholdM  = 2.0
	ContactToleranceM = 0.002
	FaceToToleranceDeg = 10.0
)

var relationType = map[Relation]Type{
	LeftOf: TypeRelative, RightOf: TypeRelative, InFrontOf: TypeRelative, Behind: TypeRelative, SideOf: TypeRelative,
	Near: TypeDistance, Far: TypeDistance, Adjacent: TypeDistance,
	On: TypeVertical, Above: TypeVertical, Below: TypeVertical,
	FaceTo: TypeRotation, Parallel: TypeRotation, Perpendicular: TypeRotation,
}

var symmetricRelations = map[Relation]bool{
	Near: true, Far: true, Adjacent: true, SideOf: true, Parallel: true, Perpendicular: true,
}

var inverseRelation = map[Relation]Relation{
	LeftOf: RightOf, RightOf: LeftOf,
	InFrontOf: Behind, Behind: InFrontOf,
	Above: Below, Below: Above,
	On: On, FaceTo: FaceTo,
	Near: Near, Far: Far, Adjacent: Adjacent, SideOf: SideOf, Parallel: Parallel, Perpendicular: Perpendicular,
}

// IsSymmetric reports whether r has no directional opposite.
func IsSymmetric(r Relation) bool { return symmetricRelations[r] }

// Inverse returns the inverse relation of r.
func Inverse(r Relation) (Relation, bool) {
	inv, ok := inverseRelation[r]
	return inv, ok
}

// Offset is a positional offset from the target, used by relative
// constraints that pin an exact spot rather than just a half-plane.
type Offset struct {
	X, Y, Z float64
}

// Constraint is a single spatial relation between a source and target
// object.
type Constraint struct {
	ConstraintID string   `json:"constraint_id,omitempty"`
	Type         Type     `json:"type"`
	Relation     Relation `json:"relation"`
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Priority     Priority `json:"priority"`

	ThresholdM    *float64 `json:"threshold_m,omitempty"`
	DegTolerance  *float64 `json:"deg_tolerance,omitempty"`
	Offset        *Offset  `json:"offset,omitempty"`

	Weight float64 `json:"weight"`
	IsSoft bool    `json:"is_soft"`
}

// Validate enforces the relation-specific threshold bounds from §5.2 of the
// specification (mirroring constraints.py's validate_threshold validator).
func (c *Constraint) Validate() error {
	if c.Source == c.Target {
		return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
			fmt.Errorf("constraint cannot reference the same object: %s", c.Source))
	}
	want, ok := relationType[c.Relation]
	if !ok {
		return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
			fmt.Errorf("unknown relation %q", c.Relation))
	}
	if c.Type == "" {
		c.Type = want
	} else if c.Type != want {
		return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
			fmt.Errorf("relation %q does not belong to type %q", c.Relation, c.Type))
	}
	if c.ThresholdM != nil {
		t := *c.ThresholdM
		switch c.Relation {
		case Near:
			if t > NearThresholdM {
				return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
					fmt.Errorf("near threshold must not exceed %.1fm, got %.2f", NearThresholdM, t))
			}
		case Far:
			if t < FarThresholdM {
				return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
					fmt.Errorf("far threshold must be at least %.1fm, got %.2f", FarThresholdM, t))
			}
		case Adjacent:
			if t > AdjacentThresholdM {
				return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
					fmt.Errorf("adjacent threshold must not exceed %.1fm, got %.2f", AdjacentThresholdM, t))
			}
		}
	}
	if c.Priority == "" {
		c.Priority = Primary
	}
	if c.Weight == 0 && !c.IsSoft {
		c.Weight = 1.0
	}
	return nil
}

// Globals mirrors the ConstraintSet-level defaults from constraints.py.
type Globals struct {
	GroundOnlyDefault  bool    `json:"ground_only_default"`
	CollisionClearanceM float64 `json:"collision_clearance_m"`
	MaxRoomSizeM       float64 `json:"max_room_size"`
	MinObjectSpacingM  float64 `json:"min_object_spacing"`
}

// DefaultGlobals returns the constraint-set defaults.
func DefaultGlobals() Globals {
	return Globals{GroundOnlyDefault: true, CollisionClearanceM: 0.02, MaxRoomSizeM: 20.0, MinObjectSpacingM: 0.1}
}

// Set is a versioned collection of constraints plus global settings, the
// in-memory form of constraints_vN.json.
type Set struct {
	Version   int          `json:"version"`
	Globals   Globals      `json:"globals"`
	Relations []Constraint `json:"relations"`
}

// NewSet builds a version-1 constraint set with default globals.
func NewSet(relations []Constraint) *Set {
	return &Set{Version: 1, Globals: DefaultGlobals(), Relations: relations}
}

// Validate validates every relation and rejects duplicate
// (source, target, relation) triples.
func (s *Set) Validate() error {
	seen := make(map[[3]string]bool, len(s.Relations))
	for i := range s.Relations {
		if err := s.Relations[i].Validate(); err != nil {
			return err
		}
		key := [3]string{s.Relations[i].Source, s.Relations[i].Target, string(s.Relations[i].Relation)}
		if seen[key] {
			return herr.New("constraints.Validate", "constraints", herr.KindInvalidInput,
				fmt.Errorf("duplicate constraint: %s %s %s", key[0], key[2], key[1]))
		}
		seen[key] = true
	}
	return nil
}

// Primary returns the primary-priority constraints.
func (s *Set) Primary() []Constraint {
	return s.filter(Primary)
}

// Secondary returns the secondary-priority constraints.
func (s *Set) Secondary() []Constraint {
	return s.filter(Secondary)
}

func (s *Set) filter(p Priority) []Constraint {
	out := make([]Constraint, 0, len(s.Relations))
	for _, c := range s.Relations {
		if c.Priority == p {
			out = append(out, c)
		}
	}
	return out
}

// ForObject returns every constraint in which objectID is either the source
// or the target.
func (s *Set) ForObject(objectID string) []Constraint {
	out := make([]Constraint, 0)
	for _, c := range s.Relations {
		if c.Source == objectID || c.Target == objectID {
			out = append(out, c)
		}
	}
	return out
}

// HasCycles reports whether the directional subgraph (relative and vertical
// relations only; symmetric distance/rotation relations never participate
// in a placement ordering cycle) contains a cycle.
func (s *Set) HasCycles() bool {
	graph := make(map[string][]string)
	for _, c := range s.Relations {
		if IsSymmetric(c.Relation) || relationType[c.Relation] == TypeRotation {
			continue
		}
		graph[c.Source] = append(graph[c.Source], c.Target)
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var dfs func(node string) bool
	dfs = func(node string) bool {
		visited[node] = true
		recStack[node] = true
		for _, neighbor := range graph[node] {
			if !visited[neighbor] {
				if dfs(neighbor) {
					return true
				}
			} else if recStack[neighbor] {
				return true
			}
		}
		recStack[node] = false
		return false
	}

	for node := range graph {
		if !visited[node] {
			if dfs(node) {
				return true
			}
		}
	}
	return false
}

// Delta describes an incremental edit to a constraint set: constraints to
// add and constraint_ids to remove.
type Delta struct {
	Add    []Constraint
	Remove []string
}

// DeltaApply returns a new, incremented-version constraint set with Remove's
// constraint_ids dropped and Add's relations appended. It does not mutate s.
func (s *Set) DeltaApply(delta Delta) *Set {
	remove := make(map[string]bool, len(delta.Remove))
	for _, id := range delta.Remove {
		remove[id] = true
	}
	next := make([]Constraint, 0, len(s.Relations)+len(delta.Add))
	for _, c := range s.Relations {
		if c.ConstraintID != "" && remove[c.ConstraintID] {
			continue
		}
		next = append(next, c)
	}
	next = append(next, delta.Add...)
	return &Set{Version: s.Version + 1, Globals: s.Globals, Relations: next}
}
