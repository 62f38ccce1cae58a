package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/modules/freight/infrastructure/persistence/models"
	"github.com/cargoflow/cargoflow/pkg/composables"
	"github.com/cargoflow/cargoflow/pkg/repo"
)

const customerFields = `id, tenant_id, shipping_mark, name, phone, cargo_count, total_volume, created_at, updated_at`

type PgCustomerRepository struct{}

func NewCustomerRepository() customer.Repository {
	return &PgCustomerRepository{}
}

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var m models.Customer
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.ShippingMark,
		&m.Name,
		&m.Phone,
		&m.CargoCount,
		&m.TotalVolume,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *PgCustomerRepository) GetAll(ctx context.Context) ([]customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+customerFields+`
		FROM customers
		WHERE tenant_id = $1
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []customer.Customer
	for rows.Next() {
		m, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, toDomainCustomer(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgCustomerRepository) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+customerFields+`
		FROM customers
		WHERE tenant_id = $1
		ORDER BY id
	`+repo.FormatLimitOffset(limit, offset), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []customer.Customer
	for rows.Next() {
		m, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, toDomainCustomer(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgCustomerRepository) GetByID(ctx context.Context, id int64) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	m, err := scanCustomer(tx.QueryRow(ctx, `
		SELECT `+customerFields+`
		FROM customers
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}
		return customer.Customer{}, err
	}
	return toDomainCustomer(m), nil
}

func (r *PgCustomerRepository) GetByShippingMark(ctx context.Context, mark string) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	m, err := scanCustomer(tx.QueryRow(ctx, `
		SELECT `+customerFields+`
		FROM customers
		WHERE tenant_id = $1 AND shipping_mark = $2
	`, tenantID, mark))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}
		return customer.Customer{}, err
	}
	return toDomainCustomer(m), nil
}

func (r *PgCustomerRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE tenant_id = $1`, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgCustomerRepository) Create(ctx context.Context, data customer.Customer) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	m, err := scanCustomer(tx.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, shipping_mark, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING `+customerFields+`
	`, tenantID, data.ShippingMark(), data.Name(), data.Phone()))
	if err != nil {
		if isUniqueViolation(err) {
			return customer.Customer{}, customer.ErrShippingMarkTaken
		}
		return customer.Customer{}, gerrors.Wrap(err, "create customer")
	}
	return toDomainCustomer(m), nil
}

func (r *PgCustomerRepository) RecalculateTotals(ctx context.Context, id int64) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE customers c SET
			cargo_count = agg.cnt,
			total_volume = agg.vol,
			updated_at = now()
		FROM (
			SELECT COUNT(*) AS cnt, COALESCE(SUM(volume), 0) AS vol
			FROM cargo
			WHERE tenant_id = $1 AND customer_id = $2
		) agg
		WHERE c.tenant_id = $1 AND c.id = $2
	`, tenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "recalculate customer totals")
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}
