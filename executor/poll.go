package executor

import (
	"context"
	"fmt"
	"time"
)

// PollFunc checks an async job handle once, reporting whether it has
// finished (done), its result when done, or an error for this single
// poll attempt (which does not necessarily mean the job itself failed —
// e.g. a transient polling-transport error).
type PollFunc func(ctx context.Context) (done bool, result interface{}, err error)

// PollConfig bounds a polling loop against an async upstream job (used by
// 3D generation services that return a job handle rather than a result).
type PollConfig struct {
	Interval             time.Duration
	MaxConsecutiveErrors int
	Timeout              time.Duration
}

// DefaultPollConfig polls every 2s, gives up on the 3rd consecutive
// transport error, and bounds the whole wait at 5 minutes.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: 2 * time.Second, MaxConsecutiveErrors: 3, Timeout: 5 * time.Minute}
}

// PollUntilDone repeatedly calls poll at cfg.Interval until it reports
// done, the context is cancelled, cfg.Timeout elapses, or
// cfg.MaxConsecutiveErrors poll attempts fail in a row.
func PollUntilDone(ctx context.Context, cfg PollConfig, poll PollFunc) (interface{}, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = 3
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	consecutiveErrors := 0
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		done, result, err := poll(ctx)
		if err != nil {
			consecutiveErrors++
			if consecutiveErrors >= cfg.MaxConsecutiveErrors {
				return nil, fmt.Errorf("polling failed %d times consecutively: %w", consecutiveErrors, err)
			}
		} else {
			consecutiveErrors = 0
			if done {
				return result, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
