package port

import (
	"context"

	"github.com/google/uuid"
)

type ExecOutcome string

const (
	// ExecSuccess: the video is processed and published.
	ExecSuccess ExecOutcome = "success"
	// ExecFailed: a processing step failed; the job row was marked failed
	// (best-effort) and the delivery substrate decides on retry.
	ExecFailed ExecOutcome = "failed"
	// ExecNotFound: no job row matches the id. Terminal, never retryable.
	ExecNotFound ExecOutcome = "not_found"
)

// ExecResult is the executor's whole contract: it never lets a processing
// error escape as a panic or a returned Go error.
type ExecResult struct {
	VideoID uuid.UUID
	Outcome ExecOutcome
	Message string
}

// Executor is the shared processing core both delivery coordinators invoke.
// Safe to re-invoke for the same id (at-least-once delivery).
type Executor interface {
	Execute(ctx context.Context, videoID uuid.UUID) ExecResult
}
