package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/cargo"
	"github.com/cargoflow/cargoflow/pkg/importer"
)

func seedCustomer(t *testing.T, repo *inMemoryCustomerRepository, mark, name string) importer.EntityRef {
	t.Helper()
	ctx := testContext()
	created, err := repo.Create(ctx, customerWith(mark, name))
	require.NoError(t, err)
	return importer.EntityRef{
		ID:           created.ID(),
		ShippingMark: created.ShippingMark(),
		Name:         created.Name(),
	}
}

func cargoCandidate(row int, mark, tracking string) importer.CandidateRow {
	return importer.CandidateRow{
		RowNumber:      row,
		RawMark:        mark,
		Mark:           mark,
		TrackingNumber: tracking,
		Description:    "boxes",
		Quantity:       2,
		Volume:         decimal.RequireFromString("0.5"),
	}
}

func TestCreateCargo_RowFailureDoesNotAbortSiblings(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	entity := seedCustomer(t, customers, "PM JOHN", "John")

	matched := make([]importer.MatchedItem, 0, 10)
	for i := 1; i <= 10; i++ {
		matched = append(matched, importer.MatchedItem{
			Candidate: cargoCandidate(i, "PM JOHN", fmt.Sprintf("TN-%03d", i)),
			Entity:    entity,
		})
	}
	cargoRepo.failRows[5] = cargo.ErrTrackingNumberTaken

	outcome, err := svc.CreateCargo(ctx, matched, nil)
	require.NoError(t, err)

	assert.Equal(t, 9, outcome.Created)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 5, outcome.Errors[0].RowNumber)

	count, err := cargoRepo.CountByCustomer(ctx, entity.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 9, count)
}

func TestCreateCargo_RerunSurfacesDuplicateError(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	entity := seedCustomer(t, customers, "PM JOHN", "John")
	mappings := []ResolvedMapping{{
		Candidate:  cargoCandidate(2, "PMJON", "TN-001"),
		Decision:   DecisionMapToExisting,
		ExistingID: entity.ID,
	}}

	first, err := svc.CreateCargo(ctx, nil, mappings)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, first.Failed)

	second, err := svc.CreateCargo(ctx, nil, mappings)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Failed)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, 2, second.Errors[0].RowNumber)
	assert.Contains(t, second.Errors[0].Message, "tracking number")

	count, err := cargoRepo.CountByCustomer(ctx, entity.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateCargo_CreateNewDecisionCreatesCustomerAndCargo(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	outcome, err := svc.CreateCargo(ctx, nil, []ResolvedMapping{{
		Candidate: cargoCandidate(3, "PM NEW", "TN-777"),
		Decision:  DecisionCreateNew,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, 0, outcome.Failed)

	created, err := customers.GetByShippingMark(ctx, "PM NEW")
	require.NoError(t, err)
	count, err := cargoRepo.CountByCustomer(ctx, created.ID())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateCargo_SkipDecisionCreatesNothing(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	outcome, err := svc.CreateCargo(ctx, nil, []ResolvedMapping{{
		Candidate: cargoCandidate(4, "PM SKIP", "TN-888"),
		Decision:  DecisionSkip,
	}})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Created)
	assert.Equal(t, 0, outcome.Failed)
	assert.Equal(t, 1, outcome.Skipped)

	all, err := customers.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateCustomers_DuplicateMarkFailsThatRowOnly(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	candidates := []importer.CandidateRow{
		{RowNumber: 1, Mark: "PM A", CustomerName: "Alice"},
		{RowNumber: 2, Mark: "PM A", CustomerName: "Alice again"},
		{RowNumber: 3, Mark: "PM B", CustomerName: "Bob"},
	}

	outcome, err := svc.CreateCustomers(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Created)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, 2, outcome.Errors[0].RowNumber)
}

func TestResolveCandidates_UsesRegistrySnapshotAndStoreDuplicates(t *testing.T) {
	customers := newInMemoryCustomerRepository()
	cargoRepo := newInMemoryCargoRepository()
	svc := newTestImportService(customers, cargoRepo)
	ctx := testContext()

	entity := seedCustomer(t, customers, "PM JOHN", "John")
	_, err := cargoRepo.Create(ctx, cargo.New(testTenantID, entity.ID, "TN-OLD", "boxes", "", 1, decimal.Zero, 1))
	require.NoError(t, err)

	res, err := svc.ResolveCandidates(ctx, []importer.CandidateRow{
		cargoCandidate(2, "PM JOHN", "TN-NEW"),
		cargoCandidate(3, "PMJOHN", ""),
		cargoCandidate(4, "PM JOHN", "TN-OLD"),
	})
	require.NoError(t, err)

	require.Len(t, res.Matched, 1)
	assert.Equal(t, entity.ID, res.Matched[0].Entity.ID)

	require.Len(t, res.Unmatched, 1)
	require.NotEmpty(t, res.Unmatched[0].Suggestions)
	assert.Equal(t, 0, res.Unmatched[0].Suggestions[0].Rank)
	assert.Equal(t, entity.ID, res.Unmatched[0].Suggestions[0].Entity.ID)

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, importer.DuplicateInStore, res.Duplicates[0].Reason)
}
