package customer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cargoflow/cargoflow/pkg/shipmark"
)

// Customer is a consolidation customer identified by a normalized shipping
// mark, unique per tenant. CargoCount and TotalVolume are denormalized
// aggregates over the customer's cargo records, recomputed whenever a
// dependent cargo row is written.
type Customer struct {
	id           int64
	tenantID     uuid.UUID
	shippingMark string
	name         string
	phone        string
	cargoCount   int
	totalVolume  decimal.Decimal
	createdAt    time.Time
	updatedAt    time.Time
}

func New(tenantID uuid.UUID, rawMark, name, phone string) Customer {
	return Customer{
		tenantID:     tenantID,
		shippingMark: shipmark.Normalize(rawMark),
		name:         strings.TrimSpace(name),
		phone:        shipmark.NormalizePhone(phone),
		totalVolume:  decimal.Zero,
	}
}

func Hydrate(
	id int64,
	tenantID uuid.UUID,
	shippingMark string,
	name string,
	phone string,
	cargoCount int,
	totalVolume decimal.Decimal,
	createdAt time.Time,
	updatedAt time.Time,
) Customer {
	return Customer{
		id:           id,
		tenantID:     tenantID,
		shippingMark: shipmark.Normalize(shippingMark),
		name:         strings.TrimSpace(name),
		phone:        phone,
		cargoCount:   cargoCount,
		totalVolume:  totalVolume,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (c Customer) ID() int64                    { return c.id }
func (c Customer) TenantID() uuid.UUID          { return c.tenantID }
func (c Customer) ShippingMark() string         { return c.shippingMark }
func (c Customer) Name() string                 { return c.name }
func (c Customer) Phone() string                { return c.phone }
func (c Customer) CargoCount() int              { return c.cargoCount }
func (c Customer) TotalVolume() decimal.Decimal { return c.totalVolume }
func (c Customer) CreatedAt() time.Time         { return c.createdAt }
func (c Customer) UpdatedAt() time.Time         { return c.updatedAt }
func (c Customer) IsZero() bool                 { return c.id == 0 && c.shippingMark == "" }
