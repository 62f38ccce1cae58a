package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/importtask"
	"github.com/cargoflow/cargoflow/modules/freight/infrastructure/persistence/models"
	"github.com/cargoflow/cargoflow/pkg/composables"
)

const importTaskFields = `id, tenant_id, owner_id, variant, status, total_rows, created_count, failed_count, errors, message, created_at, started_at, finished_at, updated_at`

type PgImportTaskRepository struct{}

func NewImportTaskRepository() importtask.Repository {
	return &PgImportTaskRepository{}
}

func scanImportTask(row pgx.Row) (models.ImportTask, error) {
	var m models.ImportTask
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.OwnerID,
		&m.Variant,
		&m.Status,
		&m.TotalRows,
		&m.CreatedCount,
		&m.FailedCount,
		&m.Errors,
		&m.Message,
		&m.CreatedAt,
		&m.StartedAt,
		&m.FinishedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *PgImportTaskRepository) Create(ctx context.Context, task importtask.ImportTask) (importtask.ImportTask, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importtask.ImportTask{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importtask.ImportTask{}, err
	}

	rowErrors, err := marshalRowErrors(task.Errors())
	if err != nil {
		return importtask.ImportTask{}, err
	}
	m, err := scanImportTask(tx.QueryRow(ctx, `
		INSERT INTO import_tasks (id, tenant_id, owner_id, variant, status, total_rows, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+importTaskFields+`
	`, task.ID(), tenantID, task.OwnerID(), task.Variant(), string(task.Status()), task.TotalRows(), rowErrors))
	if err != nil {
		return importtask.ImportTask{}, gerrors.Wrap(err, "create import task")
	}
	return toDomainImportTask(m)
}

func (r *PgImportTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (importtask.ImportTask, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importtask.ImportTask{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importtask.ImportTask{}, err
	}

	m, err := scanImportTask(tx.QueryRow(ctx, `
		SELECT `+importTaskFields+`
		FROM import_tasks
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return importtask.ImportTask{}, importtask.ErrNotFound
		}
		return importtask.ImportTask{}, err
	}
	return toDomainImportTask(m)
}

func (r *PgImportTaskRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE import_tasks SET
			status = $3,
			started_at = $4,
			created_count = 0,
			failed_count = 0,
			errors = '[]'::jsonb,
			message = '',
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $5
	`, tenantID, id, string(importtask.StatusRunning), startedAt, string(importtask.StatusQueued))
	if err != nil {
		return gerrors.Wrap(err, "mark import task running")
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}
	return nil
}

func (r *PgImportTaskRepository) UpdateProgress(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	encoded, err := marshalRowErrors(rowErrors)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE import_tasks SET
			created_count = $3,
			failed_count = $4,
			errors = $5,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $6
	`, tenantID, id, created, failed, encoded, string(importtask.StatusRunning))
	if err != nil {
		return gerrors.Wrap(err, "update import task progress")
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}
	return nil
}

func (r *PgImportTaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError, message string) error {
	return r.finish(ctx, id, importtask.StatusCompleted, created, failed, rowErrors, message)
}

func (r *PgImportTaskRepository) MarkFailed(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError, message string) error {
	return r.finish(ctx, id, importtask.StatusFailed, created, failed, rowErrors, message)
}

func (r *PgImportTaskRepository) finish(ctx context.Context, id uuid.UUID, status importtask.Status, created, failed int, rowErrors []importtask.RowError, message string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	encoded, err := marshalRowErrors(rowErrors)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE import_tasks SET
			status = $3,
			created_count = $4,
			failed_count = $5,
			errors = $6,
			message = $7,
			finished_at = now(),
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $8
	`, tenantID, id, string(status), created, failed, encoded, message, string(importtask.StatusRunning))
	if err != nil {
		return gerrors.Wrapf(err, "mark import task %s", status)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionError(ctx, id)
	}
	return nil
}

// transitionError distinguishes a missing task from one in the wrong state
// after a guarded UPDATE touched zero rows.
func (r *PgImportTaskRepository) transitionError(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return importtask.ErrInvalidTransition
}
