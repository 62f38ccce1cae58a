package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/cargo"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/importtask"
	"github.com/cargoflow/cargoflow/pkg/composables"
	"github.com/cargoflow/cargoflow/pkg/configuration"
	"github.com/cargoflow/cargoflow/pkg/eventbus"
	"github.com/cargoflow/cargoflow/pkg/excel"
	"github.com/cargoflow/cargoflow/pkg/importer"
	"github.com/cargoflow/cargoflow/pkg/metrics"
)

// MappingDecision is a human resolution for a row the matcher could not
// place on its own.
type MappingDecision string

const (
	DecisionCreateNew     MappingDecision = "create-new-entity"
	DecisionMapToExisting MappingDecision = "map-to-existing-entity"
	DecisionSkip          MappingDecision = "skip"
)

type ResolvedMapping struct {
	Candidate importer.CandidateRow
	Decision  MappingDecision
	// ExistingID is the target customer for DecisionMapToExisting.
	ExistingID int64
}

// BatchOutcome is the result of one batch-creation run. Errors carries at
// most the configured cap; Failed keeps the true count.
type BatchOutcome struct {
	Created int
	Failed  int
	Skipped int
	Errors  []importtask.RowError
}

type ParsingResults struct {
	TotalRows       int
	ValidCandidates int
	InvalidRows     []importer.InvalidRow
}

type DuplicateResults struct {
	ExistingDuplicates int
	BatchDuplicates    int
	UniqueCandidates   int
}

// CheckResult is the synchronous result shape for small files: everything
// a caller needs to either confirm creation or route rows to human
// resolution.
type CheckResult struct {
	Success    bool
	Parsing    ParsingResults
	Duplicates DuplicateResults
	Resolution importer.Resolution
}

// ImportService runs the synchronous import pipeline: upload validation,
// parsing, matching against a registry snapshot, and the batch creation
// engine with per-row failure isolation.
type ImportService struct {
	customers customer.Repository
	cargo     cargo.Repository
	publisher eventbus.EventBus
	cfg       configuration.ImportOptions
	log       *logrus.Logger

	// inTx is the per-row unit of work; a field so tests can run the
	// engine against in-memory repositories.
	inTx func(ctx context.Context, fn func(context.Context) error) error
}

func NewImportService(
	customers customer.Repository,
	cargoRepo cargo.Repository,
	publisher eventbus.EventBus,
	cfg configuration.ImportOptions,
	log *logrus.Logger,
) *ImportService {
	return &ImportService{
		customers: customers,
		cargo:     cargoRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		inTx:      composables.InTx,
	}
}

// BuildIndex snapshots the customer registry into an entity index with a
// single full scan. The snapshot is owned by one run and never refreshed
// mid-run; concurrent creations are invisible to it and backstopped by
// the unique keys.
func (s *ImportService) BuildIndex(ctx context.Context) (*importer.EntityIndex, error) {
	all, err := s.customers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := importer.NewEntityIndex()
	for _, c := range all {
		index.Add(importer.EntityRef{
			ID:           c.ID(),
			ShippingMark: c.ShippingMark(),
			Name:         c.Name(),
			Phone:        c.Phone(),
		})
	}
	return index, nil
}

// ParseUpload validates the upload gate and parses the workbook into
// candidates without touching storage.
func (s *ImportService) ParseUpload(filename string, size int64, r io.Reader, variant importer.Variant) (importer.ParseResult, error) {
	if err := excel.ValidateUpload(filename, size, s.cfg.MaxUploadSize); err != nil {
		return importer.ParseResult{}, err
	}
	rows, err := excel.ReadRows(r)
	if err != nil {
		return importer.ParseResult{}, err
	}
	return importer.Parse(rows, importer.Columns(variant)), nil
}

// CheckFile runs parse + resolve and reports the synchronous result shape
// without creating anything.
func (s *ImportService) CheckFile(ctx context.Context, filename string, size int64, r io.Reader, variant importer.Variant) (CheckResult, error) {
	parsed, err := s.ParseUpload(filename, size, r, variant)
	if err != nil {
		return CheckResult{}, err
	}
	resolution, err := s.ResolveCandidates(ctx, parsed.Candidates)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		Success: len(parsed.InvalidRows) == 0,
		Parsing: ParsingResults{
			TotalRows:       parsed.TotalRows,
			ValidCandidates: len(parsed.Candidates),
			InvalidRows:     parsed.InvalidRows,
		},
		Duplicates: DuplicateResults{
			ExistingDuplicates: resolution.Stats.StoreDuplicates,
			BatchDuplicates:    resolution.Stats.BatchDuplicates,
			UniqueCandidates:   resolution.Stats.Matched + resolution.Stats.Unmatched,
		},
		Resolution: resolution,
	}, nil
}

// ResolveCandidates snapshots the index, looks up persisted tracking
// numbers in one query, and classifies every candidate.
func (s *ImportService) ResolveCandidates(ctx context.Context, candidates []importer.CandidateRow) (importer.Resolution, error) {
	index, err := s.BuildIndex(ctx)
	if err != nil {
		return importer.Resolution{}, err
	}

	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.TrackingNumber != "" {
			keys = append(keys, c.TrackingNumber)
		}
	}
	existing, err := s.cargo.ExistingTrackingNumbers(ctx, keys)
	if err != nil {
		return importer.Resolution{}, err
	}

	return importer.Resolve(candidates, index, existing, importer.ResolveOptions{
		SuggestionLimit: s.cfg.SuggestionLimit,
	}), nil
}

func (o *BatchOutcome) recordFailure(cap int, rowNumber int, err error) {
	o.Failed++
	if len(o.Errors) < cap {
		o.Errors = append(o.Errors, importtask.RowError{
			RowNumber: rowNumber,
			Message:   err.Error(),
		})
	}
}

// CreateCargo is the batch creation engine for the cargo variant: matched
// rows plus human decisions for previously unmatched or duplicate rows.
// Each row runs in its own transaction, so a failure (including a
// uniqueness race the matcher could not see) is recorded and the run
// continues. Re-running the same mapping surfaces a duplicate error via
// the tracking-number unique key rather than inserting twice.
func (s *ImportService) CreateCargo(ctx context.Context, matched []importer.MatchedItem, mappings []ResolvedMapping) (BatchOutcome, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return BatchOutcome{}, err
	}
	outcome := BatchOutcome{}

	for _, m := range matched {
		if err := s.createCargoRow(ctx, tenantID, m.Candidate, m.Entity.ID); err != nil {
			s.log.WithError(err).WithField("row", m.Candidate.RowNumber).Warn("cargo row failed")
			outcome.recordFailure(s.cfg.ErrorCap, m.Candidate.RowNumber, err)
			continue
		}
		outcome.Created++
	}

	for _, mapping := range mappings {
		c := mapping.Candidate
		switch mapping.Decision {
		case DecisionSkip:
			outcome.Skipped++
		case DecisionMapToExisting:
			if err := s.createCargoRow(ctx, tenantID, c, mapping.ExistingID); err != nil {
				s.log.WithError(err).WithField("row", c.RowNumber).Warn("cargo row failed")
				outcome.recordFailure(s.cfg.ErrorCap, c.RowNumber, err)
				continue
			}
			outcome.Created++
		case DecisionCreateNew:
			if err := s.createCargoWithCustomer(ctx, tenantID, c); err != nil {
				s.log.WithError(err).WithField("row", c.RowNumber).Warn("cargo row failed")
				outcome.recordFailure(s.cfg.ErrorCap, c.RowNumber, err)
				continue
			}
			outcome.Created++
		default:
			outcome.recordFailure(s.cfg.ErrorCap, c.RowNumber, ErrUnknownDecision)
		}
	}

	metrics.Import().RecordRows(string(importer.VariantCargo), "created", outcome.Created)
	metrics.Import().RecordRows(string(importer.VariantCargo), "failed", outcome.Failed)
	return outcome, nil
}

// createCargoRow inserts one cargo record and recomputes its owner's
// denormalized totals inside the same transaction.
func (s *ImportService) createCargoRow(ctx context.Context, tenantID uuid.UUID, c importer.CandidateRow, customerID int64) error {
	return s.inTx(ctx, func(txCtx context.Context) error {
		record := cargo.New(
			tenantID,
			customerID,
			c.TrackingNumber,
			c.Description,
			c.Supplier,
			c.Quantity,
			c.Volume,
			c.RowNumber,
		)
		if _, err := s.cargo.Create(txCtx, record); err != nil {
			return err
		}
		return s.customers.RecalculateTotals(txCtx, customerID)
	})
}

// createCargoWithCustomer handles the create-new-entity decision: the new
// customer and its first cargo record commit or roll back together.
func (s *ImportService) createCargoWithCustomer(ctx context.Context, tenantID uuid.UUID, c importer.CandidateRow) error {
	var created customer.Customer
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.customers.Create(txCtx, customer.New(tenantID, c.Mark, c.CustomerName, c.Phone))
		if err != nil {
			return err
		}
		record := cargo.New(
			tenantID,
			created.ID(),
			c.TrackingNumber,
			c.Description,
			c.Supplier,
			c.Quantity,
			c.Volume,
			c.RowNumber,
		)
		if _, err := s.cargo.Create(txCtx, record); err != nil {
			return err
		}
		return s.customers.RecalculateTotals(txCtx, created.ID())
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(customer.CreatedEvent{Customer: created, SourceRow: c.RowNumber})
	return nil
}

// CreateCustomers is the batch creation engine for the bulk customer
// variant. One transaction per row; a duplicate shipping mark fails that
// row only.
func (s *ImportService) CreateCustomers(ctx context.Context, candidates []importer.CandidateRow) (BatchOutcome, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return BatchOutcome{}, err
	}
	outcome := BatchOutcome{}

	for _, c := range candidates {
		var created customer.Customer
		err := s.inTx(ctx, func(txCtx context.Context) error {
			var err error
			created, err = s.customers.Create(txCtx, customer.New(tenantID, c.Mark, c.CustomerName, c.Phone))
			return err
		})
		if err != nil {
			s.log.WithError(err).WithField("row", c.RowNumber).Warn("customer row failed")
			outcome.recordFailure(s.cfg.ErrorCap, c.RowNumber, err)
			continue
		}
		outcome.Created++
		s.publisher.Publish(customer.CreatedEvent{Customer: created, SourceRow: c.RowNumber})
	}

	metrics.Import().RecordRows(string(importer.VariantCustomers), "created", outcome.Created)
	metrics.Import().RecordRows(string(importer.VariantCustomers), "failed", outcome.Failed)
	return outcome, nil
}
