package solver

import (
	"time"

	"github.com/holodeck-scenegen/scenegen/geometry"
)

// Config tunes the search; zero-value fields fall back to Default().
type Config struct {
	TimeoutS               time.Duration
	SamplingResolutionM    float64
	MaxCandidatesPerObject int
	CollisionClearanceM    float64

	// EnableStability turns on the optional center-of-mass-over-support-
	// polygon check; disabled by default since the object set rarely
	// carries the mass/support-polygon data it needs.
	EnableStability bool

	// ScaleFunc derives the wire "scale" field from an object's size. The
	// source convention scales uniformly by height (scale = [z, z, z]);
	// exposed as a hook since downstream asset normalization conventions
	// vary per 3D asset provider.
	ScaleFunc func(size geometry.Vector3) geometry.Vector3
}

// Default returns the solver defaults named in the specification.
func Default() Config {
	return Config{
		TimeoutS:               30 * time.Second,
		SamplingResolutionM:    0.1,
		MaxCandidatesPerObject: 100,
		CollisionClearanceM:    0.02,
		ScaleFunc: func(size geometry.Vector3) geometry.Vector3 {
			return geometry.Vector3{X: size.Z, Y: size.Z, Z: size.Z}
		},
	}
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.TimeoutS == 0 {
		c.TimeoutS = d.TimeoutS
	}
	if c.SamplingResolutionM == 0 {
		c.SamplingResolutionM = d.SamplingResolutionM
	}
	if c.MaxCandidatesPerObject == 0 {
		c.MaxCandidatesPerObject = d.MaxCandidatesPerObject
	}
	if c.CollisionClearanceM == 0 {
		c.CollisionClearanceM = d.CollisionClearanceM
	}
	if c.ScaleFunc == nil {
		c.ScaleFunc = d.ScaleFunc
	}
	return c
}

// Object is the minimal placement input the solver needs about a scene
// object: its identity, size, and initial (pre-solve) pose.
type Object struct {
	ObjectID        string
	Size            geometry.Vector3
	InitialPosition geometry.Vector3
	InitialRotation geometry.Vector3
}

// ObjectPlacement is one object's solved pose, in the layout_solution.json
// wire format.
type ObjectPlacement struct {
	ObjectID string           `json:"object_id"`
	Position geometry.Vector3 `json:"position"`
	Rotation geometry.Vector3 `json:"rotation"`
	Scale    geometry.Vector3 `json:"scale"`
}

// Solution is a versioned, successful-or-partial placement result.
type Solution struct {
	Version               int                        `json:"version"`
	Placements            map[string]ObjectPlacement `json:"placements"`
	ConstraintSatisfaction float64                    `json:"constraint_satisfaction"`
}

// ConflictType classifies why the solver could not place an object.
type ConflictType string

const (
	ConflictCollision  ConflictType = "collision"
	ConflictBoundary   ConflictType = "boundary"
	ConflictConstraint ConflictType = "constraint"
	ConflictUnstable   ConflictType = "unstable"
	ConflictTimeout    ConflictType = "timeout"
)

// ActiveConstraintRef is a compact (source, target, relation) reference
// recorded in a trace.
type ActiveConstraintRef struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Trace is the structured record of a failed solve, consumable by
// constraint regeneration.
type Trace struct {
	FailedObjectID          string                `json:"failed_object_id"`
	PlacedObjects           []string              `json:"placed_objects"`
	ConflictType            ConflictType          `json:"conflict_type"`
	ActiveConstraints       []ActiveConstraintRef `json:"active_constraints"`
	CandidatesTried         int                   `json:"candidates_tried"`
	SearchSpaceSize         int                   `json:"search_space_size"`
	BestCandidateScore      float64               `json:"best_candidate_score"`
	TracebackDepth          int                   `json:"traceback_depth"`
	TimeAtFailureS          float64               `json:"time_at_failure_s"`
	NaturalLanguageSummary  string                `json:"natural_language_summary"`
	FixSuggestions          []string              `json:"fix_suggestions"`
}
