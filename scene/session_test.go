package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionIDFormat(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	id, err := NewSessionID(now)
	require.NoError(t, err)
	assert.Regexp(t, `^2026-07-30T12-00-00Z_[0-9a-f]{8}$`, id)
}

func TestNewSessionIDUnique(t *testing.T) {
	now := time.Now()
	a, err := NewSessionID(now)
	require.NoError(t, err)
	b, err := NewSessionID(now)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSessionCanRetry(t *testing.T) {
	now := time.Now()
	s := NewSession("sid", Request{Text: "a room"}, 3, now)
	assert.False(t, s.CanRetry(), "fresh INIT session should not be retryable")

	s.SetStatus(StatusFailed, now)
	assert.True(t, s.CanRetry())

	s.RetryCount = 3
	assert.False(t, s.CanRetry(), "retry count at max should block further retries")
}

func TestSessionIncrementRetryResetsToInit(t *testing.T) {
	now := time.Now()
	s := NewSession("sid", Request{}, 3, now)
	s.SetStatus(StatusPartial, now)
	s.IncrementRetry(now)
	assert.Equal(t, StatusInit, s.Status)
	assert.Equal(t, 1, s.RetryCount)
}

func TestSessionAddErrorAppendsHistory(t *testing.T) {
	now := time.Now()
	s := NewSession("sid", Request{}, 3, now)
	s.AddError("layout", "no_solution", "solver exhausted budget", now)
	require.Len(t, s.ErrorHistory, 1)
	assert.Equal(t, "layout", s.ErrorHistory[0].Stage)
}

func TestSessionSnapshotDoesNotCopyArtifacts(t *testing.T) {
	now := time.Now()
	s := NewSession("sid", Request{}, 3, now)
	s.SetStatus(StatusSolvingLayout, now)
	name := s.Snapshot("before retry", now)
	require.Len(t, s.Snapshots, 1)
	assert.Equal(t, name, s.Snapshots[0].Name)
	assert.Equal(t, StatusSolvingLayout, s.Snapshots[0].Status)
}
