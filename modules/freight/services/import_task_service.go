package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/importtask"
	"github.com/cargoflow/cargoflow/pkg/composables"
	"github.com/cargoflow/cargoflow/pkg/configuration"
	"github.com/cargoflow/cargoflow/pkg/importer"
	"github.com/cargoflow/cargoflow/pkg/metrics"
	"github.com/cargoflow/cargoflow/pkg/taskqueue"
)

const JobKindCustomerImport = "customer-import"

// rowsPerEstimatedSecond is the flat per-row budget behind the submission
// estimate. It is a hint for pollers, not a deadline.
const rowsPerEstimatedSecond = 20

// customerImportJob carries everything the worker needs; all persistent
// state lives in the import task record.
type customerImportJob struct {
	TaskID   uuid.UUID
	TenantID uuid.UUID
	Rows     []importer.CandidateRow
}

func (customerImportJob) Kind() string { return JobKindCustomerImport }

// Submission is returned to the caller before any row processing begins.
type Submission struct {
	TaskID           uuid.UUID `json:"taskId"`
	TotalCustomers   int       `json:"totalCustomers"`
	EstimatedSeconds int       `json:"estimatedTimeSeconds"`
}

// TaskSnapshot is the poll-facing view of an import task.
type TaskSnapshot struct {
	TaskID          uuid.UUID             `json:"taskId"`
	Status          importtask.Status     `json:"status"`
	TotalCustomers  int                   `json:"totalCustomers"`
	CreatedCount    int                   `json:"createdCount"`
	FailedCount     int                   `json:"failedCount"`
	Errors          []importtask.RowError `json:"errors"`
	ProgressPercent int                   `json:"progressPercent"`
	IsComplete      bool                  `json:"isComplete"`
	IsFailed        bool                  `json:"isFailed"`
	Message         string                `json:"message,omitempty"`
}

// ImportTaskService is the task orchestrator: it persists a Queued task,
// hands the rows to the worker pool, and serves progress polls. The task
// record is the only channel between submitter and worker.
type ImportTaskService struct {
	tasks   importtask.Repository
	imports *ImportService
	queue   *taskqueue.Queue
	cfg     configuration.ImportOptions
	log     *logrus.Logger

	// operators may read any task's status, not just their own.
	operators map[uuid.UUID]struct{}
}

func NewImportTaskService(
	tasks importtask.Repository,
	imports *ImportService,
	queue *taskqueue.Queue,
	cfg configuration.ImportOptions,
	log *logrus.Logger,
	operators ...uuid.UUID,
) *ImportTaskService {
	s := &ImportTaskService{
		tasks:     tasks,
		imports:   imports,
		queue:     queue,
		cfg:       cfg,
		log:       log,
		operators: make(map[uuid.UUID]struct{}, len(operators)),
	}
	for _, op := range operators {
		s.operators[op] = struct{}{}
	}
	queue.Register(JobKindCustomerImport, s.handleCustomerImport)
	return s
}

// Submit persists a Queued task and enqueues the rows, returning in
// constant time regardless of input size. If the queue refuses the job
// the task stays Queued for an external supervisor to requeue.
func (s *ImportTaskService) Submit(ctx context.Context, rows []importer.CandidateRow, ownerID uuid.UUID) (Submission, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return Submission{}, err
	}

	task := importtask.New(tenantID, ownerID, string(importer.VariantCustomers), len(rows))
	task, err = s.tasks.Create(ctx, task)
	if err != nil {
		return Submission{}, err
	}

	if err := s.queue.Enqueue(customerImportJob{
		TaskID:   task.ID(),
		TenantID: tenantID,
		Rows:     rows,
	}); err != nil {
		return Submission{}, errors.Wrap(err, "enqueue customer import")
	}

	estimate := len(rows) / rowsPerEstimatedSecond
	if estimate < 1 {
		estimate = 1
	}
	return Submission{
		TaskID:           task.ID(),
		TotalCustomers:   len(rows),
		EstimatedSeconds: estimate,
	}, nil
}

// Status returns a read-only snapshot. Only the task owner and configured
// operators see task data.
func (s *ImportTaskService) Status(ctx context.Context, taskID, requester uuid.UUID) (TaskSnapshot, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return TaskSnapshot{}, err
	}
	if task.OwnerID() != requester {
		if _, operator := s.operators[requester]; !operator {
			return TaskSnapshot{}, ErrPermissionDenied
		}
	}
	return TaskSnapshot{
		TaskID:          task.ID(),
		Status:          task.Status(),
		TotalCustomers:  task.TotalRows(),
		CreatedCount:    task.CreatedCount(),
		FailedCount:     task.FailedCount(),
		Errors:          task.Errors(),
		ProgressPercent: task.ProgressPercent(),
		IsComplete:      task.Status() == importtask.StatusCompleted,
		IsFailed:        task.Status() == importtask.StatusFailed,
		Message:         task.Message(),
	}, nil
}

// handleCustomerImport is the worker side. It marks the task Running,
// processes fixed-size batches writing counters back after each one, and
// finishes Completed even with partial failures. A panic or an error
// outside the per-row boundary marks the task Failed with the counts
// accumulated so far.
func (s *ImportTaskService) handleCustomerImport(ctx context.Context, job taskqueue.Job) error {
	j, ok := job.(customerImportJob)
	if !ok {
		return errors.Errorf("unexpected job type %T", job)
	}
	ctx = composables.WithTenantID(ctx, j.TenantID)
	started := time.Now()

	if err := s.tasks.MarkRunning(ctx, j.TaskID, started); err != nil {
		return errors.Wrap(err, "mark running")
	}

	var created, failed int
	var rowErrors []importtask.RowError

	fail := func(cause string) {
		metrics.Import().RecordTask(string(importer.VariantCustomers), string(importtask.StatusFailed), started)
		if err := s.tasks.MarkFailed(ctx, j.TaskID, created, failed, rowErrors, cause); err != nil {
			s.log.WithError(err).WithField("task_id", j.TaskID).Error("failed to mark import task failed")
		}
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("task_id", j.TaskID).Errorf("import task panic: %v", r)
			fail(fmt.Sprintf("panic: %v", r))
		}
	}()

	batchSize := s.cfg.BatchSize
	for start := 0; start < len(j.Rows); start += batchSize {
		end := start + batchSize
		if end > len(j.Rows) {
			end = len(j.Rows)
		}

		outcome, err := s.imports.CreateCustomers(ctx, j.Rows[start:end])
		if err != nil {
			fail(err.Error())
			return nil
		}
		created += outcome.Created
		failed += outcome.Failed
		for _, e := range outcome.Errors {
			if len(rowErrors) >= s.cfg.ErrorCap {
				break
			}
			rowErrors = append(rowErrors, e)
		}

		if err := s.tasks.UpdateProgress(ctx, j.TaskID, created, failed, rowErrors); err != nil {
			fail(err.Error())
			return nil
		}
	}

	message := fmt.Sprintf("imported %d of %d rows", created, len(j.Rows))
	if err := s.tasks.MarkCompleted(ctx, j.TaskID, created, failed, rowErrors, message); err != nil {
		return errors.Wrap(err, "mark completed")
	}
	metrics.Import().RecordTask(string(importer.VariantCustomers), string(importtask.StatusCompleted), started)
	return nil
}
