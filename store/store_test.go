package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadJSONRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, s.WriteJSON("sess1", "request.json", payload{Name: "living room"}))

	var out payload
	require.NoError(t, s.ReadJSON("sess1", "request.json", &out))
	assert.Equal(t, "living room", out.Name)
}

func TestReadJSONMissingReturnsSessionNotFound(t *testing.T) {
	s := New(t.TempDir())
	var out map[string]string
	err := s.ReadJSON("missing", "request.json", &out)
	require.Error(t, err)
}

func TestExistsRequiresNonEmptyDirectories(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.SessionDir("sess1")
	require.NoError(t, err)

	assert.False(t, s.Exists("sess1", "object_cards"))

	require.NoError(t, s.WriteFile("sess1", "object_cards/card_0.png", []byte("fake-png")))
	assert.True(t, s.Exists("sess1", "object_cards"))
}

func TestLatestVersionTracksHighestSuffix(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.WriteFile("sess1", "constraints_v1.json", []byte("{}")))
	require.NoError(t, s.WriteFile("sess1", "constraints_v2.json", []byte("{}")))
	require.NoError(t, s.WriteFile("sess1", "constraints_v10.json", []byte("{}")))

	v, err := s.LatestVersion("sess1", "constraints", ".json")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestLatestVersionNoFilesReturnsZero(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.SessionDir("sess1")
	require.NoError(t, err)
	v, err := s.LatestVersion("sess1", "layout_solution", ".json")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestStageCompleteRequiresAllArtifacts(t *testing.T) {
	s := New(t.TempDir())
	assert.False(t, s.StageComplete("sess1", "extract"))
	require.NoError(t, s.WriteFile("sess1", "objects.json", []byte("{}")))
	assert.True(t, s.StageComplete("sess1", "extract"))
}

func TestListSessionsSortedAndEmptyWorkspace(t *testing.T) {
	s := New(t.TempDir())
	ids, err := s.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.SessionDir("b_session")
	require.NoError(t, err)
	_, err = s.SessionDir("a_session")
	require.NoError(t, err)

	ids, err = s.ListSessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"a_session", "b_session"}, ids)
}
