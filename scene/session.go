package scene

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Status is the session lifecycle state, matching the 12-state machine in
// original_source/holodeck_core/schemas/session.py.
type Status string

const (
	StatusInit               Status = "init"
	StatusAnalyzing          Status = "analyzing"
	StatusGeneratingRef      Status = "generating_ref"
	StatusExtractingObjects  Status = "extracting_objects"
	StatusGeneratingCards    Status = "generating_cards"
	StatusQCCards            Status = "qc_cards"
	StatusGeneratingAssets   Status = "generating_assets"
	StatusSolvingLayout      Status = "solving_layout"
	StatusRendering          Status = "rendering"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
	StatusPartial            Status = "partial"
)

// ErrorRecord is one entry in a session's error_history.
type ErrorRecord struct {
	Stage     string    `json:"stage"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a point-in-time note about a session, recorded in metadata
// without copying any artifacts.
type Snapshot struct {
	Name      string `json:"name"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
	Status    Status `json:"status"`
}

// Session is the durable record tracked at sessions/<id>/session.json.
type Session struct {
	SessionID          string        `json:"session_id"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Status             Status        `json:"status"`
	Request            Request       `json:"request"`
	CurrentStep        string        `json:"current_step,omitempty"`
	ProgressPercentage float64       `json:"progress_percentage"`
	ObjectsCount       int           `json:"objects_count"`
	GenerationTimeS    float64       `json:"generation_time"`
	ErrorHistory       []ErrorRecord `json:"error_history"`
	RetryCount         int           `json:"retry_count"`
	MaxRetries         int           `json:"max_retries"`
	WorkspacePath      string        `json:"workspace_path,omitempty"`
	Snapshots          []Snapshot    `json:"snapshots,omitempty"`
}

// NewSessionID builds a session identifier of the form
// "<UTC timestamp>_<8-hex>", matching session_manager.py's create_session.
func NewSessionID(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("scene: generating session id: %w", err)
	}
	return fmt.Sprintf("%s_%s", now.UTC().Format("2006-01-02T15-04-05Z"), hex.EncodeToString(buf)), nil
}

// NewSession creates an INIT-status session for the given request.
func NewSession(sessionID string, request Request, maxRetries int, now time.Time) *Session {
	return &Session{
		SessionID:  sessionID,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
		Status:     StatusInit,
		Request:    request,
		MaxRetries: maxRetries,
	}
}

// AddError appends a timestamped entry to the error history.
func (s *Session) AddError(stage, kind, message string, now time.Time) {
	s.ErrorHistory = append(s.ErrorHistory, ErrorRecord{
		Stage:     stage,
		Kind:      kind,
		Message:   message,
		Timestamp: now.UTC(),
	})
	s.UpdatedAt = now.UTC()
}

// CanRetry reports whether the session has retries left and is in a
// retryable terminal state.
func (s *Session) CanRetry() bool {
	if s.RetryCount >= s.MaxRetries {
		return false
	}
	return s.Status == StatusFailed || s.Status == StatusPartial
}

// IncrementRetry bumps the retry counter and resets the session to INIT.
func (s *Session) IncrementRetry(now time.Time) {
	s.RetryCount++
	s.Status = StatusInit
	s.UpdatedAt = now.UTC()
}

// SetStatus transitions the session to a new status, stamping UpdatedAt.
func (s *Session) SetStatus(status Status, now time.Time) {
	s.Status = status
	s.UpdatedAt = now.UTC()
}

// Snapshot records a named note about the session's current state without
// copying any of its artifacts.
func (s *Session) Snapshot(note string, now time.Time) string {
	name := fmt.Sprintf("snapshot_%s", now.UTC().Format("20060102_150405"))
	s.Snapshots = append(s.Snapshots, Snapshot{
		Name:      name,
		Note:      note,
		CreatedAt: now.UTC().Format(time.RFC3339),
		Status:    s.Status,
	})
	return name
}
