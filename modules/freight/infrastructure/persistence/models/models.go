package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID           int64
	TenantID     uuid.UUID
	ShippingMark string
	Name         string
	Phone        string
	CargoCount   int
	TotalVolume  decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Cargo struct {
	ID         int64
	TenantID   uuid.UUID
	CustomerID int64
	// TrackingNumber is NULL when the source row carried no tracking key,
	// keeping rows without one out of the unique index.
	TrackingNumber *string
	Description    string
	Supplier       string
	Quantity       int
	Volume         decimal.Decimal
	SourceRow      int
	CreatedAt      time.Time
}

type ImportTask struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	OwnerID      uuid.UUID
	Variant      string
	Status       string
	TotalRows    int
	CreatedCount int
	FailedCount  int
	Errors       []byte
	Message      string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
	UpdatedAt    time.Time
}
