package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/clients/fake"
	"github.com/holodeck-scenegen/scenegen/executor"
	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/hconfig"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/holodeck-scenegen/scenegen/solver"
	"github.com/holodeck-scenegen/scenegen/store"
)

func testObjects() []scene.Object {
	return []scene.Object{
		{ObjectID: "sofa", Name: "sofa", Category: "furniture",
			Size: geometry.Vector3{X: 2, Y: 0.9, Z: 0.8}, VisualDescription: "a gray sofa"},
		{ObjectID: "lamp", Name: "lamp", Category: "decor",
			Size: geometry.Vector3{X: 0.3, Y: 0.3, Z: 1.5}, VisualDescription: "a floor lamp"},
	}
}

func newTestRunner(t *testing.T, vlm *fake.VLMClient, img *fake.ImageClient, threeD *fake.ThreeDClient, host *fake.AssemblyHost) (*Runner, *store.Store) {
	t.Helper()
	dir, err := os.MkdirTemp("", "scenegen-pipeline-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	st := store.New(dir)
	exec := executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)})

	runner := &Runner{
		Store: st,
		Stages: []Stage{
			&SceneRefStage{Client: img, Store: st},
			&ExtractStage{Client: vlm, Store: st},
			&CardsStage{Client: img, Store: st},
			&ConstraintsStage{Client: vlm, Store: st},
			&LayoutStage{Config: solver.Default(), Store: st},
			&AssetsStage{Client: threeD, Executor: exec, Store: st},
			&AssembleStage{Host: host, Store: st},
		},
	}
	return runner, st
}

func TestRunnerHappyPathCompletesAllStages(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: testObjects()}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, st := newTestRunner(t, vlm, img, threeD, host)

	data := NewStageData("sess-happy", "sess-happy", "a living room with a sofa and a lamp", "modern")
	result, err := runner.Run(context.Background(), data, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"scene_ref", "extract", "cards", "constraints", "layout", "assets", "assemble"}, result.StagesCompleted)
	assert.NotNil(t, data.Solution)
	assert.Len(t, data.Assets, 2)
	assert.Len(t, host.Bundles, 1)
	assert.True(t, st.Exists("sess-happy", "blender_object_map.json"))
	assert.True(t, st.Exists("sess-happy", "asset_manifest.json"))
	assert.Equal(t, "blender_object_map.json", result.Artifacts["assemble"])
	assert.Equal(t, "asset_manifest.json", result.Artifacts["assets"])
	assert.Equal(t, "objects.json", result.Artifacts["extract"])

	var nameMap ObjectNameMap
	require.NoError(t, st.ReadJSON("sess-happy", "blender_object_map.json", &nameMap))
	assert.Equal(t, "object_name_equals_id", nameMap.NamingConvention)
	assert.Equal(t, map[string]string{"sofa": "sofa", "lamp": "lamp"}, nameMap.Mapping)

	var manifest AssetManifest
	require.NoError(t, st.ReadJSON("sess-happy", "asset_manifest.json", &manifest))
	assert.Equal(t, 2, manifest.TotalAssets)
	assert.Greater(t, manifest.TotalSizeMB, 0.0)
	require.Contains(t, manifest.Assets, "sofa")
	assert.Equal(t, "glb", manifest.Assets["sofa"].Format)
	assert.NotZero(t, manifest.Assets["sofa"].SizeBytes)
}

func TestRunnerBreaksOnStageFailureAndPersistsLastError(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: testObjects(), FailNext: clients.FailureTransport}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, st := newTestRunner(t, vlm, img, threeD, host)

	data := NewStageData("sess-fail", "sess-fail", "a room", "modern")
	result, err := runner.Run(context.Background(), data, "", "")

	require.Error(t, err)
	assert.Equal(t, []string{"scene_ref"}, result.StagesCompleted)
	assert.Len(t, data.Errors, 1)
	assert.True(t, st.Exists("sess-fail", "errors/last_error.json"))
	assert.Empty(t, host.Bundles)
	assert.Equal(t, "scene_ref.png", result.Artifacts["scene_ref"])
	assert.NotContains(t, result.Artifacts, "extract")
}

func TestRunnerResumesFromGivenStage(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: testObjects()}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, _ := newTestRunner(t, vlm, img, threeD, host)

	data := NewStageData("sess-resume", "sess-resume", "a room", "modern")
	data.SceneRefRef = "scene_ref.png"
	data.SceneStyle = "modern"
	data.Objects = testObjects()

	result, err := runner.Run(context.Background(), data, "cards", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"cards", "constraints", "layout", "assets", "assemble"}, result.StagesCompleted)
	assert.NotContains(t, result.StagesCompleted, "scene_ref")
	assert.NotContains(t, result.StagesCompleted, "extract")
}

func TestRunnerSingleObjectSmokeProducesIdentityObjectNameMap(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: []scene.Object{
		{ObjectID: "table_001", Name: "table", Category: "furniture",
			Size: geometry.Vector3{X: 1.0, Y: 1.0, Z: 0.75}, VisualDescription: "a cube table"},
	}}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, st := newTestRunner(t, vlm, img, threeD, host)

	data := NewStageData("sess-smoke", "sess-smoke", "An empty room with one cube table", "modern")
	result, err := runner.Run(context.Background(), data, "", "")

	require.NoError(t, err)
	require.Len(t, data.Objects, 1)
	require.NotNil(t, data.Solution)
	assert.True(t, data.Solution.ConstraintSatisfaction >= 0)
	assert.Len(t, data.Assets, 1)

	assert.Equal(t, []string{"scene_ref", "extract", "cards", "constraints", "layout", "assets", "assemble"}, result.StagesCompleted)

	var nameMap ObjectNameMap
	require.NoError(t, st.ReadJSON("sess-smoke", "blender_object_map.json", &nameMap))
	assert.Equal(t, map[string]string{"table_001": "table_001"}, nameMap.Mapping)
}

func TestRunnerPausesForReviewGate(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: testObjects()}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, _ := newTestRunner(t, vlm, img, threeD, host)
	runner.ReviewGate = ReviewGateFromConfig(&hconfig.Config{ReviewStages: []string{"cards"}})

	data := NewStageData("sess-review", "sess-review", "a room", "modern")
	result, err := runner.Run(context.Background(), data, "", "")

	require.NoError(t, err)
	assert.Equal(t, []string{"scene_ref", "extract", "cards"}, result.StagesCompleted)
	assert.Equal(t, "cards", result.PausedForReview)
	assert.Empty(t, data.ConstraintSet)
}

func TestRunnerStopsAtUntilStage(t *testing.T) {
	vlm := &fake.VLMClient{SceneStyle: "modern", Objects: testObjects()}
	img := &fake.ImageClient{}
	threeD := &fake.ThreeDClient{}
	host := &fake.AssemblyHost{}
	runner, _ := newTestRunner(t, vlm, img, threeD, host)

	data := NewStageData("sess-until", "sess-until", "a room", "modern")
	result, err := runner.Run(context.Background(), data, "", "extract")

	require.NoError(t, err)
	assert.Equal(t, []string{"scene_ref", "extract"}, result.StagesCompleted)
	assert.Empty(t, data.Cards)
}
