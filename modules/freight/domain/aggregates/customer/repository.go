package customer

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound          = errors.New("customer not found")
	ErrShippingMarkTaken = errors.New("shipping mark already taken")
)

type Repository interface {
	// GetAll returns every customer of the tenant; it is the single full
	// scan the entity index snapshot is built from.
	GetAll(ctx context.Context) ([]Customer, error)
	// List returns a stable id-ordered page.
	List(ctx context.Context, limit, offset int) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (Customer, error)
	GetByShippingMark(ctx context.Context, mark string) (Customer, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, data Customer) (Customer, error)
	// RecalculateTotals recomputes the customer's denormalized cargo
	// aggregates from its cargo rows, inside the caller's transaction.
	RecalculateTotals(ctx context.Context, id int64) error
}

// CreatedEvent is published after a customer row is committed.
type CreatedEvent struct {
	Customer  Customer
	SourceRow int
}
