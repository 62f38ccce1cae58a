package cargo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("cargo not found")
	ErrTrackingNumberTaken = errors.New("tracking number already taken")
)

// Cargo is one shipment item owned by a customer. TrackingNumber is
// unique per tenant when present; SourceRow points back at the spreadsheet
// line the record was imported from.
type Cargo struct {
	id             int64
	tenantID       uuid.UUID
	customerID     int64
	trackingNumber string
	description    string
	supplier       string
	quantity       int
	volume         decimal.Decimal
	sourceRow      int
	createdAt      time.Time
}

func New(
	tenantID uuid.UUID,
	customerID int64,
	trackingNumber string,
	description string,
	supplier string,
	quantity int,
	volume decimal.Decimal,
	sourceRow int,
) Cargo {
	return Cargo{
		tenantID:       tenantID,
		customerID:     customerID,
		trackingNumber: strings.ToUpper(strings.TrimSpace(trackingNumber)),
		description:    strings.TrimSpace(description),
		supplier:       strings.TrimSpace(supplier),
		quantity:       quantity,
		volume:         volume,
		sourceRow:      sourceRow,
	}
}

func Hydrate(
	id int64,
	tenantID uuid.UUID,
	customerID int64,
	trackingNumber string,
	description string,
	supplier string,
	quantity int,
	volume decimal.Decimal,
	sourceRow int,
	createdAt time.Time,
) Cargo {
	return Cargo{
		id:             id,
		tenantID:       tenantID,
		customerID:     customerID,
		trackingNumber: trackingNumber,
		description:    description,
		supplier:       supplier,
		quantity:       quantity,
		volume:         volume,
		sourceRow:      sourceRow,
		createdAt:      createdAt,
	}
}

func (c Cargo) ID() int64                { return c.id }
func (c Cargo) TenantID() uuid.UUID      { return c.tenantID }
func (c Cargo) CustomerID() int64        { return c.customerID }
func (c Cargo) TrackingNumber() string   { return c.trackingNumber }
func (c Cargo) Description() string      { return c.description }
func (c Cargo) Supplier() string         { return c.supplier }
func (c Cargo) Quantity() int            { return c.quantity }
func (c Cargo) Volume() decimal.Decimal  { return c.volume }
func (c Cargo) SourceRow() int           { return c.sourceRow }
func (c Cargo) CreatedAt() time.Time     { return c.createdAt }

type Repository interface {
	Create(ctx context.Context, data Cargo) (Cargo, error)
	// ExistingTrackingNumbers returns, for the subset of keys already
	// persisted for the tenant, a map from tracking number to cargo id.
	ExistingTrackingNumbers(ctx context.Context, keys []string) (map[string]int64, error)
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
}
