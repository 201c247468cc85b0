// Package herr defines the error taxonomy shared across the scene
// generation pipeline: sentinel errors for comparison with errors.Is,
// a structured Error type carrying operation/kind/retryability, and the
// wire shape written to last_error.json.
package herr

import (
	"errors"
	"fmt"
	"time"
)

// Kind names the closed set of error kinds a stage or component can raise.
// These mirror the taxonomy in the error handling design: validation,
// configuration, upstream transport/refusal, per-service generation
// failures, solver outcomes, filesystem conditions, and session state.
type Kind string

const (
	KindInvalidInput          Kind = "invalid_input"
	KindConfigError           Kind = "config_error"
	KindUpstreamTransport     Kind = "upstream_transport"
	KindUpstreamRateLimited   Kind = "upstream_rate_limited"
	KindUpstreamRefused       Kind = "upstream_refused"
	KindUpstreamAuth          Kind = "upstream_auth"
	KindAssetGenerationFailed Kind = "asset_generation_failed"
	KindImageGenerationFailed Kind = "image_generation_failed"
	KindLLMError              Kind = "llm_error"
	KindSolverNoSolution      Kind = "solver_no_solution"
	KindSolverTimeout         Kind = "solver_timeout"
	KindSolverConstraintConflict Kind = "solver_constraint_conflict"
	KindFileNotFound          Kind = "file_not_found"
	KindFilePermissionDenied  Kind = "file_permission_denied"
	KindDiskSpaceInsufficient Kind = "disk_space_insufficient"
	KindSessionNotFound       Kind = "session_not_found"
	KindSessionCorrupted      Kind = "session_corrupted"
	KindInternalError         Kind = "internal_error"
)

// Sentinel errors usable with errors.Is. Error wraps one of these as Err.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionCorrupted   = errors.New("session corrupted")
	ErrStageIncomplete    = errors.New("stage incomplete")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")
	ErrCancelled          = errors.New("operation cancelled")
	ErrNoSolution         = errors.New("layout solver exhausted without a solution")
	ErrCycleDetected      = errors.New("constraint graph has a directional cycle")
)

// retryableKinds are the kinds the bounded executor treats as recoverable
// by local retry with backoff; every other kind fails fast.
var retryableKinds = map[Kind]bool{
	KindUpstreamTransport:   true,
	KindUpstreamRateLimited: true,
}

// Error is the structured error type threaded through stages and clients.
// It mirrors the teacher framework's wrapped-sentinel error with added
// fields for the user-visible failure shape (§7 of the spec).
type Error struct {
	Op               string            `json:"op"`
	Component        string            `json:"component"`
	Kind             Kind              `json:"code"`
	Message          string            `json:"message"`
	Retryable        bool              `json:"retryable"`
	SuggestedActions []string          `json:"suggested_actions,omitempty"`
	Details          map[string]any    `json:"details,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
	Err              error             `json:"-"`
}

// New creates an Error of the given kind, deriving retryability from the
// kind's default classification.
func New(op, component string, kind Kind, err error) *Error {
	return &Error{
		Op:        op,
		Component: component,
		Kind:      kind,
		Message:   messageFor(err),
		Retryable: retryableKinds[kind],
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func messageFor(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// WithSuggestions attaches fix suggestions and returns the receiver for chaining.
func (e *Error) WithSuggestions(s ...string) *Error {
	e.SuggestedActions = append(e.SuggestedActions, s...)
	return e
}

// WithDetails attaches arbitrary structured context.
func (e *Error) WithDetails(d map[string]any) *Error {
	e.Details = d
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Unwrap enables errors.Is/errors.As against the wrapped sentinel.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err should be retried by the bounded
// executor. A plain *Error reports its own classification; unknown error
// types are treated as non-retryable.
func IsRetryable(err error) bool {
	var he *Error
	if errors.As(err, &he) {
		return he.Retryable
	}
	return false
}

// FailureResponse is the wire shape written to errors/last_error.json and
// surfaced to a CLI adapter, per §7.
type FailureResponse struct {
	OK          bool       `json:"ok"`
	SessionID   string     `json:"session_id,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
	Error       *wireError `json:"error"`
}

type wireError struct {
	Code             string            `json:"code"`
	Component        string            `json:"component"`
	Message          string            `json:"message"`
	Retryable        bool              `json:"retryable"`
	SuggestedActions []string          `json:"suggested_actions"`
	Logs             map[string]string `json:"logs,omitempty"`
	Timestamp        string            `json:"timestamp"`
	Details          map[string]any    `json:"details,omitempty"`
}

// NewFailureResponse builds the wire-level failure shape from a structured
// Error.
func NewFailureResponse(sessionID, failedStage string, e *Error) FailureResponse {
	if e.SuggestedActions == nil {
		e.SuggestedActions = []string{}
	}
	return FailureResponse{
		OK:          false,
		SessionID:   sessionID,
		FailedStage: failedStage,
		Error: &wireError{
			Code:             string(e.Kind),
			Component:        e.Component,
			Message:          e.Error(),
			Retryable:        e.Retryable,
			SuggestedActions: e.SuggestedActions,
			Timestamp:        e.Timestamp.Format(time.RFC3339),
			Details:          e.Details,
		},
	}
}
