// Package clients defines the external service contracts the pipeline
// depends on (image generation, vision/language extraction, 3D asset
// generation, and the downstream assembly host). Implementations are out of
// scope of this module — this package is the seam the pipeline and
// executor are built against, and clients/fake provides deterministic test
// doubles, grounded on the ai.Client-style interfaces in the teacher
// framework's core package.
package clients

import (
	"context"

	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/scene"
)

// FailureKind classifies why a client call failed, mapped to herr.Kind by
// callers (§6.1).
type FailureKind string

// FailureClassifier is implemented by client errors that can report which
// FailureKind caused them (clients/fake's errors do), letting callers
// translate a raw client error into the herr.Kind taxonomy without this
// package importing herr.
type FailureClassifier interface {
	Kind() FailureKind
}

const (
	FailureTransport     FailureKind = "transport"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureAuth          FailureKind = "auth"
	FailureInvalidInput  FailureKind = "invalid_input"
	FailurePolicyRefused FailureKind = "policy_refused"
)

// SceneReference is the output of generating a scene reference image.
type SceneReference struct {
	ImageBytes []byte
	ImageURL   string
	PromptUsed string
	ElapsedS   float64
}

// ObjectCard is one per-object card image, returned in the same order as
// the requested objects.
type ObjectCard struct {
	ObjectID   string
	CardBytes  []byte
	CardURL    string
	PromptUsed string
	ElapsedS   float64
}

// ImageClient generates the scene reference image and per-object cards.
type ImageClient interface {
	GenerateSceneReference(ctx context.Context, sessionID, text, style string) (SceneReference, error)
	GenerateObjectCards(ctx context.Context, sessionID string, objects []scene.Object, sceneRefRef string) ([]ObjectCard, error)
}

// ExtractedObjects is the result of object extraction (objects.json).
type ExtractedObjects struct {
	SceneStyle string
	Objects    []scene.Object
}

// ExtractedConstraint is a raw (pre-validated) relation emitted by
// constraint extraction, before it becomes a constraints.Constraint.
type ExtractedConstraint struct {
	Type     string
	Relation string
	Source   string
	Target   string
	Priority string
}

// VLMClient extracts the object inventory and spatial constraints from the
// scene description text (and, optionally, the scene reference image).
type VLMClient interface {
	ExtractObjects(ctx context.Context, sessionID, text, sceneRefRef string) (ExtractedObjects, error)
	ExtractConstraints(ctx context.Context, text string, objects []scene.Object, sceneRefRef string) ([]ExtractedConstraint, error)
}

// Mesh is a generated 3D asset.
type Mesh struct {
	MeshFile string
	Format   string // glb | gltf | fbx | obj
	Bytes    []byte
	Checksum string
	Metadata map[string]string
}

// ThreeDClient generates a 3D mesh for an object, either from its card
// image or from a plain text description.
type ThreeDClient interface {
	GenerateFromCard(ctx context.Context, objectID, cardRef string, sizeHint geometry.Vector3) (Mesh, error)
	GenerateFromDescription(ctx context.Context, objectID, text, style string) (Mesh, error)
}

// AssetCache looks up a previously generated mesh whose visual
// description is within threshold of description, the hybrid
// generation-vs-retrieval path. A real implementation (e.g. CLIP
// embedding similarity over a local cache) is out of scope of this
// module — it is an external adapter behind this seam, same as
// ImageClient/VLMClient/ThreeDClient.
type AssetCache interface {
	Lookup(ctx context.Context, description string, threshold float64) (Mesh, bool, error)
}

// AssemblyHost accepts the assembly instruction bundle by filesystem path.
// The core never invokes the host directly — an out-of-scope adapter reads
// the bundle this interface hands off.
type AssemblyHost interface {
	SubmitAssembly(ctx context.Context, sessionID, bundlePath string) error
}
