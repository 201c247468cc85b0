package fake

import (
	"context"
	"testing"

	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageClientGeneratesCardsInOrder(t *testing.T) {
	c := &ImageClient{}
	objects := []scene.Object{{ObjectID: "a"}, {ObjectID: "b"}}
	cards, err := c.GenerateObjectCards(context.Background(), "sess1", objects, "ref")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "a", cards[0].ObjectID)
	assert.Equal(t, "b", cards[1].ObjectID)
}

func TestImageClientFailNextThenRecovers(t *testing.T) {
	c := &ImageClient{FailNext: clients.FailureRateLimited}
	_, err := c.GenerateSceneReference(context.Background(), "sess1", "a room", "modern")
	require.Error(t, err)

	ref, err := c.GenerateSceneReference(context.Background(), "sess1", "a room", "modern")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ImageBytes)
}

func TestAssemblyHostRecordsBundles(t *testing.T) {
	h := &AssemblyHost{}
	require.NoError(t, h.SubmitAssembly(context.Background(), "sess1", "/workspace/sessions/sess1/blender_object_map.json"))
	assert.Len(t, h.Bundles, 1)
}
