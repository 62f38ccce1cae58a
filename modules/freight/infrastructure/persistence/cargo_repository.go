package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/cargo"
	"github.com/cargoflow/cargoflow/modules/freight/infrastructure/persistence/models"
	"github.com/cargoflow/cargoflow/pkg/composables"
)

const cargoFields = `id, tenant_id, customer_id, tracking_number, description, supplier, quantity, volume, source_row, created_at`

type PgCargoRepository struct{}

func NewCargoRepository() cargo.Repository {
	return &PgCargoRepository{}
}

func scanCargo(row pgx.Row) (models.Cargo, error) {
	var m models.Cargo
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.CustomerID,
		&m.TrackingNumber,
		&m.Description,
		&m.Supplier,
		&m.Quantity,
		&m.Volume,
		&m.SourceRow,
		&m.CreatedAt,
	)
	return m, err
}

func (r *PgCargoRepository) Create(ctx context.Context, data cargo.Cargo) (cargo.Cargo, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return cargo.Cargo{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return cargo.Cargo{}, err
	}

	// Empty tracking numbers are stored as NULL so the unique key only
	// guards real identifiers.
	var tracking *string
	if tn := data.TrackingNumber(); tn != "" {
		tracking = &tn
	}

	m, err := scanCargo(tx.QueryRow(ctx, `
		INSERT INTO cargo (tenant_id, customer_id, tracking_number, description, supplier, quantity, volume, source_row)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+cargoFields+`
	`, tenantID, data.CustomerID(), tracking, data.Description(), data.Supplier(), data.Quantity(), data.Volume(), data.SourceRow()))
	if err != nil {
		if isUniqueViolation(err) {
			return cargo.Cargo{}, cargo.ErrTrackingNumberTaken
		}
		return cargo.Cargo{}, gerrors.Wrap(err, "create cargo")
	}
	return toDomainCargo(m), nil
}

func (r *PgCargoRepository) ExistingTrackingNumbers(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT tracking_number, id
		FROM cargo
		WHERE tenant_id = $1 AND tracking_number = ANY($2)
	`, tenantID, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64, len(keys))
	for rows.Next() {
		var tn string
		var id int64
		if err := rows.Scan(&tn, &id); err != nil {
			return nil, err
		}
		out[tn] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgCargoRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM cargo WHERE tenant_id = $1 AND customer_id = $2
	`, tenantID, customerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
