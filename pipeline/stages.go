package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/constraints"
	"github.com/holodeck-scenegen/scenegen/executor"
	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/herr"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/holodeck-scenegen/scenegen/solver"
	"github.com/holodeck-scenegen/scenegen/store"
)

// SceneRefStage generates the single scene reference image, grounded on
// stages/scene_ref.py.
type SceneRefStage struct {
	Client clients.ImageClient
	Store  *store.Store
}

func (s *SceneRefStage) Name() string { return "scene_ref" }

func (s *SceneRefStage) Execute(ctx context.Context, data *StageData) error {
	ref, err := s.Client.GenerateSceneReference(ctx, data.SessionID, data.SceneText, data.Style)
	if err != nil {
		return herr.New("pipeline.scene_ref", "clients", classifyFailure(err, herr.KindImageGenerationFailed), err)
	}
	if err := s.Store.WriteFile(data.SessionID, "scene_ref.png", ref.ImageBytes); err != nil {
		return err
	}
	data.SceneRefRef = "scene_ref.png"
	return nil
}

// ExtractStage extracts the object inventory from the scene description,
// grounded on stages/extract.py.
type ExtractStage struct {
	Client clients.VLMClient
	Store  *store.Store
}

func (s *ExtractStage) Name() string { return "extract" }

func (s *ExtractStage) Execute(ctx context.Context, data *StageData) error {
	result, err := s.Client.ExtractObjects(ctx, data.SessionID, data.SceneText, data.SceneRefRef)
	if err != nil {
		return herr.New("pipeline.extract", "clients", classifyFailure(err, herr.KindLLMError), err)
	}
	for i := range result.Objects {
		if err := result.Objects[i].Validate(); err != nil {
			return herr.New("pipeline.extract", "scene", herr.KindInvalidInput, err)
		}
	}
	if err := scene.ValidateSet(result.Objects); err != nil {
		return herr.New("pipeline.extract", "scene", herr.KindInvalidInput, err)
	}
	data.SceneStyle = result.SceneStyle
	data.Objects = result.Objects

	doc := scene.ObjectsDocument{SceneStyle: data.SceneStyle, Objects: data.Objects}
	return s.Store.WriteJSON(data.SessionID, "objects.json", doc)
}

// CardsStage generates per-object card images, grounded on stages/cards.py.
type CardsStage struct {
	Client clients.ImageClient
	Store  *store.Store
}

func (s *CardsStage) Name() string { return "cards" }

func (s *CardsStage) Execute(ctx context.Context, data *StageData) error {
	cards, err := s.Client.GenerateObjectCards(ctx, data.SessionID, data.Objects, data.SceneRefRef)
	if err != nil {
		return herr.New("pipeline.cards", "clients", classifyFailure(err, herr.KindImageGenerationFailed), err)
	}
	for _, card := range cards {
		rel := filepath.Join("object_cards", card.ObjectID+".png")
		if err := s.Store.WriteFile(data.SessionID, rel, card.CardBytes); err != nil {
			return err
		}
	}
	data.Cards = cards
	return nil
}

// ConstraintsStage converts the VLM's raw relation list into a validated,
// cycle-checked constraints.Set, grounded on stages/constraints.py.
type ConstraintsStage struct {
	Client clients.VLMClient
	Store  *store.Store
}

func (s *ConstraintsStage) Name() string { return "constraints" }

func (s *ConstraintsStage) Execute(ctx context.Context, data *StageData) error {
	raw, err := s.Client.ExtractConstraints(ctx, data.SceneText, data.Objects, data.SceneRefRef)
	if err != nil {
		return herr.New("pipeline.constraints", "clients", classifyFailure(err, herr.KindLLMError), err)
	}

	relations := make([]constraints.Constraint, 0, len(raw))
	for _, r := range raw {
		c := constraints.Constraint{
			ConstraintID: uuid.NewString(),
			Relation:     constraints.Relation(r.Relation),
			Source:       r.Source,
			Target:       r.Target,
			Priority:     constraints.Priority(r.Priority),
		}
		if err := c.Validate(); err != nil {
			return herr.New("pipeline.constraints", "constraints", herr.KindInvalidInput, err)
		}
		relations = append(relations, c)
	}

	set := constraints.NewSet(relations)
	if err := set.Validate(); err != nil {
		return herr.New("pipeline.constraints", "constraints", herr.KindInvalidInput, err)
	}
	if set.HasCycles() {
		return herr.New("pipeline.constraints", "constraints", herr.KindInvalidInput, herr.ErrCycleDetected)
	}

	data.ConstraintSet = set
	return s.Store.WriteJSON(data.SessionID, store.VersionedPath("constraints", set.Version, ".json"), set)
}

// LayoutStage solves object placement under the constraint set, grounded
// on stages/layout.py.
type LayoutStage struct {
	Config solver.Config
	Store  *store.Store
}

func (s *LayoutStage) Name() string { return "layout" }

func (s *LayoutStage) Execute(ctx context.Context, data *StageData) error {
	objects := make([]solver.Object, 0, len(data.Objects))
	for _, o := range data.Objects {
		objects = append(objects, solver.Object{
			ObjectID:        o.ObjectID,
			Size:            o.Size,
			InitialPosition: o.Position,
			InitialRotation: o.Rotation,
		})
	}

	version := 1
	var relations []constraints.Constraint
	if data.ConstraintSet != nil {
		version = data.ConstraintSet.Version
		relations = data.ConstraintSet.Relations
	}

	solution, trace := solver.Solve(objects, relations, version, s.Config)
	data.Solution = solution
	data.Trace = trace

	if trace != nil {
		if err := s.Store.WriteJSON(data.SessionID, store.VersionedPath("dfs_trace", version, ".json"), trace); err != nil {
			return err
		}
		kind := herr.KindSolverNoSolution
		if trace.ConflictType == solver.ConflictTimeout {
			kind = herr.KindSolverTimeout
		}
		return herr.New("pipeline.layout", "solver", kind, herr.ErrNoSolution).
			WithSuggestions(trace.FixSuggestions...)
	}

	return s.Store.WriteJSON(data.SessionID, store.VersionedPath("layout_solution", solution.Version, ".json"), solution)
}

// AssetsStage generates a 3D mesh per object card, concurrently and
// bounded by a shared executor, grounded on stages/assets.py. When Cache
// is set and RetrievalEnabled, objects whose description scores below
// RetrievalThreshold for generation necessity (see GenerationScore,
// grounded on asset_retrieval/decision_engine.py) are looked up in the
// cache first, skipping generation on a hit — the hybrid
// generation-vs-retrieval strategy from
// asset_retrieval/retriever.py, with the CLIP similarity search itself
// left to the out-of-scope clients.AssetCache implementation.
type AssetsStage struct {
	Client   clients.ThreeDClient
	Cache    clients.AssetCache
	Executor *executor.BoundedExecutor
	Store    *store.Store

	RetrievalEnabled   bool
	RetrievalThreshold float64
}

func (s *AssetsStage) Name() string { return "assets" }

func (s *AssetsStage) Execute(ctx context.Context, data *StageData) error {
	sizeByID := make(map[string]geometry.Vector3, len(data.Objects))
	descByID := make(map[string]string, len(data.Objects))
	for _, o := range data.Objects {
		sizeByID[o.ObjectID] = o.Size
		descByID[o.ObjectID] = o.VisualDescription
	}

	assets := make([]AssetResult, len(data.Cards))
	var toGenerate []clients.ObjectCard
	generateIdx := make(map[string]int, len(data.Cards))

	for i, card := range data.Cards {
		if s.RetrievalEnabled && s.Cache != nil && GenerationScore(descByID[card.ObjectID]) < s.RetrievalThreshold {
			mesh, ok, err := s.Cache.Lookup(ctx, descByID[card.ObjectID], s.RetrievalThreshold)
			if err != nil {
				return herr.New("pipeline.assets", "clients", classifyFailure(err, herr.KindAssetGenerationFailed), err)
			}
			if ok {
				rel := filepath.Join("assets", mesh.MeshFile)
				if err := s.Store.WriteFile(data.SessionID, rel, mesh.Bytes); err != nil {
					return err
				}
				assets[i] = AssetResult{
					ObjectID:  card.ObjectID,
					MeshFile:  rel,
					Format:    mesh.Format,
					SizeBytes: len(mesh.Bytes),
					Checksum:  mesh.Checksum,
					Metadata:  mesh.Metadata,
					Source:    "retrieved",
					Status:    "success",
				}
				continue
			}
		}
		generateIdx[card.ObjectID] = i
		toGenerate = append(toGenerate, card)
	}

	jobs := make([]executor.Job, len(toGenerate))
	for i, card := range toGenerate {
		card := card
		jobs[i] = executor.Job{
			ID: card.ObjectID,
			Fn: func(ctx context.Context) (interface{}, error) {
				mesh, err := s.Client.GenerateFromCard(ctx, card.ObjectID, "object_cards/"+card.ObjectID+".png", sizeByID[card.ObjectID])
				if err != nil {
					return nil, herr.New("pipeline.assets", "clients", classifyFailure(err, herr.KindAssetGenerationFailed), err)
				}
				return mesh, nil
			},
		}
	}

	results := s.Executor.RunBatch(ctx, jobs)
	for i, res := range results {
		objectID := jobs[i].ID
		idx := generateIdx[objectID]
		if !res.Success {
			assets[idx] = AssetResult{ObjectID: objectID, Status: "failed", Error: res.Err.Error()}
			continue
		}
		mesh := res.Value.(clients.Mesh)
		rel := filepath.Join("assets", mesh.MeshFile)
		if err := s.Store.WriteFile(data.SessionID, rel, mesh.Bytes); err != nil {
			return err
		}
		assets[idx] = AssetResult{
			ObjectID:  objectID,
			MeshFile:  rel,
			Format:    mesh.Format,
			SizeBytes: len(mesh.Bytes),
			Checksum:  mesh.Checksum,
			Metadata:  mesh.Metadata,
			Source:    "generated",
			Status:    "success",
		}
	}

	data.Assets = assets

	manifest := AssetManifest{Version: 1, Assets: make(map[string]AssetManifestEntry, len(assets))}
	var totalBytes int64
	for _, a := range assets {
		manifest.Assets[a.ObjectID] = AssetManifestEntry{
			AssetPath: a.MeshFile,
			Format:    a.Format,
			SizeBytes: a.SizeBytes,
			Checksum:  a.Checksum,
			Metadata:  a.Metadata,
			Source:    a.Source,
			Status:    a.Status,
			Error:     a.Error,
		}
		totalBytes += int64(a.SizeBytes)
	}
	manifest.TotalAssets = len(assets)
	manifest.TotalSizeMB = float64(totalBytes) / (1024 * 1024)

	return s.Store.WriteJSON(data.SessionID, "asset_manifest.json", manifest)
}

// AssembleStage writes the object_name_map leg of the Assembly Instruction
// Bundle (§3) and submits the bundle to the downstream assembly host,
// grounded on stages/blender.py (reworked: this module never talks to
// Blender directly, per §9's host-adapter boundary — it hands the bundle
// path to AssemblyHost). The other two legs of the bundle,
// asset_manifest.json and layout_solution_vN.json, were already written by
// AssetsStage and LayoutStage; this stage doesn't duplicate their
// per-object mesh/pose data, only the naming-convention map.
type AssembleStage struct {
	Host  clients.AssemblyHost
	Store *store.Store
}

func (s *AssembleStage) Name() string { return "assemble" }

// ObjectNameMap is the blender_object_map.json wire format (§6.2): the
// downstream host's object names equal their object IDs, so Mapping is
// always the identity function over placed object IDs.
type ObjectNameMap struct {
	NamingConvention string            `json:"naming_convention"`
	Mapping          map[string]string `json:"mapping"`
}

func (s *AssembleStage) Execute(ctx context.Context, data *StageData) error {
	if data.Solution == nil {
		return herr.New("pipeline.assemble", "pipeline", herr.KindInvalidInput, fmt.Errorf("no layout solution available"))
	}

	mapping := make(map[string]string, len(data.Solution.Placements))
	for objectID := range data.Solution.Placements {
		mapping[objectID] = objectID
	}
	nameMap := ObjectNameMap{NamingConvention: "object_name_equals_id", Mapping: mapping}

	const rel = "blender_object_map.json"
	if err := s.Store.WriteJSON(data.SessionID, rel, nameMap); err != nil {
		return err
	}

	bundlePath := s.Store.Path(data.SessionID)
	if err := s.Host.SubmitAssembly(ctx, data.SessionID, bundlePath); err != nil {
		return herr.New("pipeline.assemble", "clients", classifyFailure(err, herr.KindUpstreamTransport), err)
	}
	data.AssemblyBundlePath = bundlePath
	return nil
}
