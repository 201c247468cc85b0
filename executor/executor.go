package executor

import (
	"context"
	"time"

	"github.com/holodeck-scenegen/scenegen/herr"
	"github.com/holodeck-scenegen/scenegen/holog"
	"github.com/holodeck-scenegen/scenegen/resilience"
)

// Config controls a BoundedExecutor's admission, retry, and timeout
// behavior, grounded on hconfig.Config's executor fields.
type Config struct {
	Admission   AdmissionController
	RetryConfig resilience.RetryConfig
	JobTimeout  time.Duration
	Breaker     *resilience.CircuitBreaker // optional; nil disables breaker gating
	Logger      holog.Logger
}

// Job is one unit of work submitted to a BoundedExecutor. ID is carried
// through to Result for correlation; it need not be unique.
type Job struct {
	ID string
	Fn func(ctx context.Context) (interface{}, error)
}

// Result is the outcome of one Job, returned from RunBatch in the same
// order the jobs were submitted regardless of completion order.
type Result struct {
	JobID        string
	Success      bool
	Value        interface{}
	Err          error
	ElapsedS     float64
	AttemptCount int
}

// BoundedExecutor runs jobs under a shared admission budget with retry and
// an optional circuit breaker, matching the worker-pool/queue split of the
// teacher's orchestration package but collapsed into a single direct-call
// API (no background workers or persisted queue — every job is run by
// the calling goroutine once admitted).
type BoundedExecutor struct {
	cfg Config
}

// New builds a BoundedExecutor. A nil Admission defaults to a
// single-slot in-process semaphore; a zero RetryConfig defaults to
// resilience.DefaultRetryConfig(); a zero JobTimeout defaults to 120s.
func New(cfg Config) *BoundedExecutor {
	if cfg.Admission == nil {
		cfg.Admission = NewSemaphoreAdmission(1)
	}
	if cfg.RetryConfig == (resilience.RetryConfig{}) {
		cfg.RetryConfig = resilience.DefaultRetryConfig()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = holog.NoOp{}
	}
	return &BoundedExecutor{cfg: cfg}
}

// Run admits, retries, and times out a single job.
func (e *BoundedExecutor) Run(ctx context.Context, job Job) Result {
	start := time.Now()
	release, err := e.cfg.Admission.Acquire(ctx)
	if err != nil {
		return Result{JobID: job.ID, Success: false, Err: err, ElapsedS: time.Since(start).Seconds()}
	}
	defer release()

	jobCtx, cancel := context.WithTimeout(ctx, e.cfg.JobTimeout)
	defer cancel()

	attempts := 0
	var value interface{}
	runOnce := func() error {
		attempts++
		v, err := job.Fn(jobCtx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	var runErr error
	if e.cfg.Breaker != nil {
		runErr = resilience.RetryWithCircuitBreaker(jobCtx, e.cfg.RetryConfig, e.cfg.Breaker, runOnce)
	} else {
		runErr = resilience.Retry(jobCtx, e.cfg.RetryConfig, runOnce)
	}

	elapsed := time.Since(start).Seconds()
	if runErr != nil {
		if jobCtx.Err() == context.DeadlineExceeded {
			e.cfg.Logger.Warn("job timed out", "job_id", job.ID, "timeout_s", e.cfg.JobTimeout.Seconds())
			runErr = herr.New("executor.Run", "executor", herr.KindUpstreamTransport, runErr)
		}
		return Result{JobID: job.ID, Success: false, Err: runErr, ElapsedS: elapsed, AttemptCount: attempts}
	}
	return Result{JobID: job.ID, Success: true, Value: value, ElapsedS: elapsed, AttemptCount: attempts}
}

// RunBatch runs every job under the shared admission budget concurrently,
// returning results in the same order jobs were given. Cancelling ctx
// stops admitting new jobs and causes in-flight ones to fail fast via
// their own per-job context once the deadline/cancellation propagates.
func (e *BoundedExecutor) RunBatch(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	done := make(chan struct{})
	remaining := len(jobs)
	if remaining == 0 {
		return results
	}

	for i, job := range jobs {
		go func(i int, job Job) {
			results[i] = e.Run(ctx, job)
			done <- struct{}{}
		}(i, job)
	}
	for remaining > 0 {
		<-done
		remaining--
	}
	return results
}
