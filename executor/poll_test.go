package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollUntilDoneReturnsOnceDone(t *testing.T) {
	calls := 0
	result, err := PollUntilDone(context.Background(), PollConfig{Interval: time.Millisecond, MaxConsecutiveErrors: 3}, func(ctx context.Context) (bool, interface{}, error) {
		calls++
		if calls < 3 {
			return false, nil, nil
		}
		return true, "done-value", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done-value", result)
	assert.Equal(t, 3, calls)
}

func TestPollUntilDoneResetsErrorCountOnSuccess(t *testing.T) {
	calls := 0
	result, err := PollUntilDone(context.Background(), PollConfig{Interval: time.Millisecond, MaxConsecutiveErrors: 2}, func(ctx context.Context) (bool, interface{}, error) {
		calls++
		switch {
		case calls == 1:
			return false, nil, errors.New("transient")
		case calls < 4:
			return false, nil, nil
		default:
			return true, "ok", nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestPollUntilDoneGivesUpAfterConsecutiveErrors(t *testing.T) {
	calls := 0
	_, err := PollUntilDone(context.Background(), PollConfig{Interval: time.Millisecond, MaxConsecutiveErrors: 2}, func(ctx context.Context) (bool, interface{}, error) {
		calls++
		return false, nil, errors.New("upstream down")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestPollUntilDoneRespectsTimeout(t *testing.T) {
	start := time.Now()
	_, err := PollUntilDone(context.Background(), PollConfig{Interval: time.Millisecond, MaxConsecutiveErrors: 5, Timeout: 10 * time.Millisecond}, func(ctx context.Context) (bool, interface{}, error) {
		return false, nil, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
