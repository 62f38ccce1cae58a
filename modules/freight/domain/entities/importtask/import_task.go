package importtask

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RowError records one failed row of an import run. The persisted list is
// capped; failures beyond the cap still count toward FailedCount.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Message   string `json:"message"`
}

// ImportTask is the persisted lifecycle record of one asynchronous import
// run. It is created Queued by the submitter, mutated only by the worker
// that picked it up, and never deleted by the pipeline: callers poll it
// for progress and it stays around for audit.
type ImportTask struct {
	id       uuid.UUID
	tenantID uuid.UUID
	ownerID  uuid.UUID
	variant  string

	status       Status
	totalRows    int
	createdCount int
	failedCount  int
	errors       []RowError
	message      string

	createdAt  time.Time
	startedAt  *time.Time
	finishedAt *time.Time
	updatedAt  time.Time
}

func New(tenantID, ownerID uuid.UUID, variant string, totalRows int) ImportTask {
	return ImportTask{
		id:        uuid.New(),
		tenantID:  tenantID,
		ownerID:   ownerID,
		variant:   variant,
		status:    StatusQueued,
		totalRows: totalRows,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	ownerID uuid.UUID,
	variant string,
	status Status,
	totalRows int,
	createdCount int,
	failedCount int,
	rowErrors []RowError,
	message string,
	createdAt time.Time,
	startedAt *time.Time,
	finishedAt *time.Time,
	updatedAt time.Time,
) ImportTask {
	return ImportTask{
		id:           id,
		tenantID:     tenantID,
		ownerID:      ownerID,
		variant:      variant,
		status:       status,
		totalRows:    totalRows,
		createdCount: createdCount,
		failedCount:  failedCount,
		errors:       rowErrors,
		message:      message,
		createdAt:    createdAt,
		startedAt:    startedAt,
		finishedAt:   finishedAt,
		updatedAt:    updatedAt,
	}
}

func (t ImportTask) ID() uuid.UUID          { return t.id }
func (t ImportTask) TenantID() uuid.UUID    { return t.tenantID }
func (t ImportTask) OwnerID() uuid.UUID     { return t.ownerID }
func (t ImportTask) Variant() string        { return t.variant }
func (t ImportTask) Status() Status         { return t.status }
func (t ImportTask) TotalRows() int         { return t.totalRows }
func (t ImportTask) CreatedCount() int      { return t.createdCount }
func (t ImportTask) FailedCount() int       { return t.failedCount }
func (t ImportTask) Errors() []RowError     { return t.errors }
func (t ImportTask) Message() string        { return t.message }
func (t ImportTask) CreatedAt() time.Time   { return t.createdAt }
func (t ImportTask) StartedAt() *time.Time  { return t.startedAt }
func (t ImportTask) FinishedAt() *time.Time { return t.finishedAt }
func (t ImportTask) UpdatedAt() time.Time   { return t.updatedAt }

// ProgressPercent reports processed rows against the total, saturating at
// 100 once the task is terminal.
func (t ImportTask) ProgressPercent() int {
	if t.status.IsTerminal() {
		return 100
	}
	if t.totalRows <= 0 {
		return 0
	}
	pct := (t.createdCount + t.failedCount) * 100 / t.totalRows
	if pct > 100 {
		pct = 100
	}
	return pct
}
