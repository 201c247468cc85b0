package pipeline

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/clients/fake"
	"github.com/holodeck-scenegen/scenegen/executor"
	"github.com/holodeck-scenegen/scenegen/geometry"
	"github.com/holodeck-scenegen/scenegen/resilience"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/holodeck-scenegen/scenegen/store"
)

func newAssetsTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "scenegen-assets-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return store.New(dir)
}

func TestAssetsStageGeneratesWhenRetrievalDisabled(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client:   &fake.ThreeDClient{},
		Executor: executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)}),
		Store:    st,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "chair", Size: geometry.Vector3{X: 1, Y: 1, Z: 1}, VisualDescription: "a standard wooden chair"},
	}
	data.Cards = []clients.ObjectCard{{ObjectID: "chair", CardBytes: []byte("card")}}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "generated", data.Assets[0].Source)
	assert.Equal(t, "success", data.Assets[0].Status)
}

func TestAssetsStageRetrievesOnLowScoreCacheHit(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client: &fake.ThreeDClient{},
		Cache: &fake.AssetCache{Entries: map[string]clients.Mesh{
			"standard": {MeshFile: "chair.glb", Bytes: []byte("cached-mesh")},
		}},
		Executor:           executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)}),
		Store:              st,
		RetrievalEnabled:   true,
		RetrievalThreshold: 0.5,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "chair", Size: geometry.Vector3{X: 1, Y: 1, Z: 1}, VisualDescription: "a standard wooden chair"},
	}
	data.Cards = []clients.ObjectCard{{ObjectID: "chair", CardBytes: []byte("card")}}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "retrieved", data.Assets[0].Source)
	assert.Equal(t, "success", data.Assets[0].Status)
	assert.True(t, st.Exists("sess", data.Assets[0].MeshFile))
}

func TestAssetsStageFallsBackToGenerationOnCacheMiss(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client:             &fake.ThreeDClient{},
		Cache:              &fake.AssetCache{Entries: map[string]clients.Mesh{}},
		Executor:           executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)}),
		Store:              st,
		RetrievalEnabled:   true,
		RetrievalThreshold: 0.5,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "lamp", Size: geometry.Vector3{X: 0.3, Y: 0.3, Z: 1.5}, VisualDescription: "a standard floor lamp"},
	}
	data.Cards = []clients.ObjectCard{{ObjectID: "lamp", CardBytes: []byte("card")}}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "generated", data.Assets[0].Source)
}

func TestAssetsStageSkipsRetrievalForHighGenerationScore(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client: &fake.ThreeDClient{},
		Cache: &fake.AssetCache{Entries: map[string]clients.Mesh{
			"cyberpunk": {MeshFile: "lamp.glb", Bytes: []byte("cached-mesh")},
		}},
		Executor:           executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)}),
		Store:              st,
		RetrievalEnabled:   true,
		RetrievalThreshold: 0.5,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "lamp", Size: geometry.Vector3{X: 0.3, Y: 0.3, Z: 1.5}, VisualDescription: "a custom cyberpunk lamp"},
	}
	data.Cards = []clients.ObjectCard{{ObjectID: "lamp", CardBytes: []byte("card")}}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "generated", data.Assets[0].Source)
}

func TestAssetsStagePreservesOrderAcrossMixedRetrievalAndGeneration(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client: &fake.ThreeDClient{},
		Cache: &fake.AssetCache{Entries: map[string]clients.Mesh{
			"standard": {MeshFile: "chair.glb", Bytes: []byte("cached-mesh")},
		}},
		Executor:           executor.New(executor.Config{Admission: executor.NewSemaphoreAdmission(4)}),
		Store:              st,
		RetrievalEnabled:   true,
		RetrievalThreshold: 0.5,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "chair", Size: geometry.Vector3{X: 1, Y: 1, Z: 1}, VisualDescription: "a standard wooden chair"},
		{ObjectID: "lamp", Size: geometry.Vector3{X: 0.3, Y: 0.3, Z: 1.5}, VisualDescription: "a custom cyberpunk lamp"},
	}
	data.Cards = []clients.ObjectCard{
		{ObjectID: "chair", CardBytes: []byte("card1")},
		{ObjectID: "lamp", CardBytes: []byte("card2")},
	}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 2)
	assert.Equal(t, "chair", data.Assets[0].ObjectID)
	assert.Equal(t, "retrieved", data.Assets[0].Source)
	assert.Equal(t, "lamp", data.Assets[1].ObjectID)
	assert.Equal(t, "generated", data.Assets[1].Source)
}

// TestAssetsStageExhaustsRetriesAndReportsPartialManifest exercises a
// persistently failing 3D client: the generation job should retry the
// transport failure to exhaustion (it classifies as herr.KindUpstreamTransport,
// which is retryable) and the stage itself must still succeed with a
// manifest entry marked failed, never aborting the run over one bad asset.
func TestAssetsStageExhaustsRetriesAndReportsPartialManifest(t *testing.T) {
	st := newAssetsTestStore(t)
	stage := &AssetsStage{
		Client: &fake.ThreeDClient{AlwaysFail: clients.FailureTransport},
		Executor: executor.New(executor.Config{
			Admission: executor.NewSemaphoreAdmission(4),
			RetryConfig: resilience.RetryConfig{
				MaxAttempts:   3,
				InitialDelay: time.Millisecond,
				MaxDelay:     time.Millisecond,
				BackoffFactor: 1,
			},
		}),
		Store: st,
	}

	data := NewStageData("sess", "sess", "a room", "modern")
	data.Objects = []scene.Object{
		{ObjectID: "chair", Size: geometry.Vector3{X: 1, Y: 1, Z: 1}, VisualDescription: "a standard wooden chair"},
	}
	data.Cards = []clients.ObjectCard{{ObjectID: "chair", CardBytes: []byte("card")}}

	require.NoError(t, stage.Execute(context.Background(), data))
	require.Len(t, data.Assets, 1)
	assert.Equal(t, "failed", data.Assets[0].Status)
	assert.NotEmpty(t, data.Assets[0].Error)
	assert.True(t, st.Exists("sess", "asset_manifest.json"))
}
