// Package pipeline wires the scene, constraints, solver, clients, store,
// and executor packages into the seven-stage run (scene reference,
// object extraction, object cards, constraints, layout, 3D assets,
// assembly), grounded on
// original_source/holodeck_core/pipeline/{runner.py,base_stage.py,
// stage_data.py,stages/*.py}, adapted to Go's explicit-error-return
// style in place of the original's raise-and-catch control flow.
package pipeline

import (
	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/constraints"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/holodeck-scenegen/scenegen/solver"
)

// AssetResult is one object's outcome from the 3D asset generation stage,
// carrying what the asset_manifest.json wire format needs per the Asset
// Manifest data model (§3/§6.2): per-object format, byte size, checksum,
// and metadata, alongside the generation-vs-retrieval provenance.
type AssetResult struct {
	ObjectID  string            `json:"object_id"`
	MeshFile  string            `json:"asset_path,omitempty"`
	Format    string            `json:"format,omitempty"`
	SizeBytes int               `json:"size_bytes"`
	Checksum  string            `json:"checksum,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Source    string            `json:"source"` // generated | retrieved
	Status    string            `json:"status"` // success | failed
	Error     string            `json:"error,omitempty"`
}

// AssetManifest is the asset_manifest.json wire format (§6.2): a versioned
// map of object ID to its asset's format/size/checksum/metadata, plus
// totals. The manifest is written fresh each run rather than incrementally
// regenerated (unlike constraints/layout_solution), so Version is always 1.
type AssetManifest struct {
	Version     int                           `json:"version"`
	Assets      map[string]AssetManifestEntry `json:"assets"`
	TotalAssets int                           `json:"total_assets"`
	TotalSizeMB float64                       `json:"total_size_mb"`
}

// AssetManifestEntry is one object's entry in AssetManifest.Assets.
type AssetManifestEntry struct {
	AssetPath string            `json:"asset_path,omitempty"`
	Format    string            `json:"format,omitempty"`
	SizeBytes int               `json:"size_bytes"`
	Checksum  string            `json:"checksum,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Source    string            `json:"source"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
}

// StageData is the single data container threaded through every stage,
// mirroring the original's StageData dataclass field-for-field (plus the
// Go-native typed fields solver.Solution/constraints.Set in place of the
// original's untyped dict payloads).
type StageData struct {
	SessionID     string
	WorkspacePath string
	SceneText     string
	Style         string

	SceneRefRef string // relative path under the session dir

	SceneStyle string
	Objects    []scene.Object

	Cards []clients.ObjectCard

	ConstraintSet *constraints.Set

	Solution *solver.Solution
	Trace    *solver.Trace

	Assets []AssetResult

	AssemblyBundlePath string

	Errors  []string
	Metrics map[string]float64
}

// NewStageData builds the initial container for a fresh run.
func NewStageData(sessionID, workspacePath, sceneText, style string) *StageData {
	return &StageData{
		SessionID:     sessionID,
		WorkspacePath: workspacePath,
		SceneText:     sceneText,
		Style:         style,
		Metrics:       make(map[string]float64),
	}
}

// AddError appends a "[stage] message" entry, matching the original's
// add_error.
func (d *StageData) AddError(stage, msg string) {
	d.Errors = append(d.Errors, "["+stage+"] "+msg)
}
