// Package executor provides bounded concurrency, retry-with-backoff, and
// batch execution for calls into the external clients package, grounded
// on the teacher's orchestration.TaskWorkerPool worker-pool shape and
// orchestration.RedisTaskQueue's enqueue/dequeue idiom.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AdmissionController bounds how many jobs may run concurrently against a
// given external service. Acquire blocks until a slot is free or ctx is
// done; the returned release function must always be called.
type AdmissionController interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// semaphoreAdmission is the default in-process AdmissionController, a
// buffered-channel semaphore sized by hconfig.Config.ExecutorCapacity.
type semaphoreAdmission struct {
	slots chan struct{}
}

// NewSemaphoreAdmission builds an in-process admission controller with the
// given concurrency capacity.
func NewSemaphoreAdmission(capacity int) AdmissionController {
	if capacity <= 0 {
		capacity = 1
	}
	return &semaphoreAdmission{slots: make(chan struct{}, capacity)}
}

func (s *semaphoreAdmission) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisAdmission is a distributed AdmissionController backed by a Redis
// list pre-seeded with capacity permit tokens: Acquire is a blocking
// BRPOP, Release is an LPUSH, mirroring RedisTaskQueue's Dequeue/Enqueue
// pair but used as a counting semaphore rather than a work queue.
type RedisAdmission struct {
	client   *redis.Client
	permitKey string
	timeout  time.Duration
}

// NewRedisAdmission seeds permitKey with capacity tokens (if not already
// present) and returns a RedisAdmission drawing permits from it. Multiple
// processes sharing the same permitKey share the same capacity budget.
func NewRedisAdmission(ctx context.Context, client *redis.Client, permitKey string, capacity int) (*RedisAdmission, error) {
	if capacity <= 0 {
		capacity = 1
	}
	length, err := client.LLen(ctx, permitKey).Result()
	if err != nil {
		return nil, fmt.Errorf("executor: checking redis permit list length: %w", err)
	}
	if length == 0 {
		pipe := client.Pipeline()
		for i := 0; i < capacity; i++ {
			pipe.LPush(ctx, permitKey, "1")
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("executor: seeding redis permit list: %w", err)
		}
	}
	return &RedisAdmission{client: client, permitKey: permitKey, timeout: 0}, nil
}

// Acquire blocks (honoring ctx cancellation) until a permit token is
// available, via BRPOP with a bounded poll interval so ctx cancellation is
// observed promptly even though go-redis's BRPOP itself only respects
// ctx at the connection level.
func (r *RedisAdmission) Acquire(ctx context.Context) (func(), error) {
	const pollInterval = 2 * time.Second
	for {
		res, err := r.client.BRPop(ctx, pollInterval, r.permitKey).Result()
		if err == nil && len(res) == 2 {
			return func() {
				r.client.LPush(context.Background(), r.permitKey, "1")
			}, nil
		}
		if err != nil && err != redis.Nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("executor: redis admission acquire: %w", err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// redis.Nil: BRPOP's own timeout elapsed with no permit freed, loop.
	}
}
