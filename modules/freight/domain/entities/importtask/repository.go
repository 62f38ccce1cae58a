package importtask

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("import task not found")
	// ErrInvalidTransition is returned when a state change would skip
	// Running or resurrect a terminal task.
	ErrInvalidTransition = errors.New("invalid import task state transition")
)

type Repository interface {
	Create(ctx context.Context, task ImportTask) (ImportTask, error)
	GetByID(ctx context.Context, id uuid.UUID) (ImportTask, error)
	// MarkRunning moves a Queued task to Running and resets its counters.
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	// UpdateProgress writes back counters and the capped error list of a
	// Running task so pollers observe incremental progress.
	UpdateProgress(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []RowError) error
	MarkCompleted(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []RowError, message string) error
	MarkFailed(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []RowError, message string) error
}
