package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/cargo"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/importtask"
	"github.com/cargoflow/cargoflow/pkg/composables"
	"github.com/cargoflow/cargoflow/pkg/configuration"
	"github.com/cargoflow/cargoflow/pkg/eventbus"
)

var testTenantID = uuid.MustParse("4b9cbcf3-8d9e-4e60-8a4c-7f54a4d1c0aa")

func testContext() context.Context {
	return composables.WithTenantID(context.Background(), testTenantID)
}

func customerWith(mark, name string) customer.Customer {
	return customer.New(testTenantID, mark, name, "")
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testImportOptions() configuration.ImportOptions {
	return configuration.ImportOptions{
		BatchSize:       25,
		ErrorCap:        100,
		SuggestionLimit: 5,
		MaxUploadSize:   10 << 20,
		Workers:         1,
		QueueCapacity:   8,
	}
}

// inMemoryCustomerRepository enforces the tenant-scoped unique shipping
// mark the same way the database index does.
type inMemoryCustomerRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]customer.Customer
	byMark map[string]int64
}

func newInMemoryCustomerRepository() *inMemoryCustomerRepository {
	return &inMemoryCustomerRepository{
		byID:   make(map[int64]customer.Customer),
		byMark: make(map[string]int64),
	}
}

func (r *inMemoryCustomerRepository) GetAll(ctx context.Context) ([]customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]customer.Customer, 0, len(r.byID))
	for id := int64(1); id <= r.nextID; id++ {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *inMemoryCustomerRepository) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *inMemoryCustomerRepository) GetByID(ctx context.Context, id int64) (customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (r *inMemoryCustomerRepository) GetByShippingMark(ctx context.Context, mark string) (customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byMark[mark]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *inMemoryCustomerRepository) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *inMemoryCustomerRepository) Create(ctx context.Context, data customer.Customer) (customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byMark[data.ShippingMark()]; taken {
		return customer.Customer{}, customer.ErrShippingMarkTaken
	}
	r.nextID++
	created := customer.Hydrate(
		r.nextID,
		data.TenantID(),
		data.ShippingMark(),
		data.Name(),
		data.Phone(),
		0,
		data.TotalVolume(),
		time.Now(),
		time.Now(),
	)
	r.byID[created.ID()] = created
	r.byMark[created.ShippingMark()] = created.ID()
	return created, nil
}

func (r *inMemoryCustomerRepository) RecalculateTotals(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return customer.ErrNotFound
	}
	return nil
}

// inMemoryCargoRepository enforces the tenant-scoped unique tracking
// number; empty tracking numbers are never unique-checked.
type inMemoryCargoRepository struct {
	mu         sync.Mutex
	nextID     int64
	records    []cargo.Cargo
	byTracking map[string]int64

	// failRows makes Create fail for specific source rows, standing in
	// for races the matcher could not foresee.
	failRows map[int]error
}

func newInMemoryCargoRepository() *inMemoryCargoRepository {
	return &inMemoryCargoRepository{
		byTracking: make(map[string]int64),
		failRows:   make(map[int]error),
	}
}

func (r *inMemoryCargoRepository) Create(ctx context.Context, data cargo.Cargo) (cargo.Cargo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failRows[data.SourceRow()]; ok {
		return cargo.Cargo{}, err
	}
	if tn := data.TrackingNumber(); tn != "" {
		if _, taken := r.byTracking[tn]; taken {
			return cargo.Cargo{}, cargo.ErrTrackingNumberTaken
		}
	}
	r.nextID++
	created := cargo.Hydrate(
		r.nextID,
		data.TenantID(),
		data.CustomerID(),
		data.TrackingNumber(),
		data.Description(),
		data.Supplier(),
		data.Quantity(),
		data.Volume(),
		data.SourceRow(),
		time.Now(),
	)
	r.records = append(r.records, created)
	if tn := created.TrackingNumber(); tn != "" {
		r.byTracking[tn] = created.ID()
	}
	return created, nil
}

func (r *inMemoryCargoRepository) ExistingTrackingNumbers(ctx context.Context, keys []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, k := range keys {
		if id, ok := r.byTracking[k]; ok {
			out[k] = id
		}
	}
	return out, nil
}

func (r *inMemoryCargoRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, c := range r.records {
		if c.CustomerID() == customerID {
			count++
		}
	}
	return count, nil
}

// inMemoryTaskRepository enforces the same transition guards as the SQL
// repository.
type inMemoryTaskRepository struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]importtask.ImportTask
}

func newInMemoryTaskRepository() *inMemoryTaskRepository {
	return &inMemoryTaskRepository{tasks: make(map[uuid.UUID]importtask.ImportTask)}
}

func (r *inMemoryTaskRepository) get(id uuid.UUID) (importtask.ImportTask, error) {
	t, ok := r.tasks[id]
	if !ok {
		return importtask.ImportTask{}, importtask.ErrNotFound
	}
	return t, nil
}

func (r *inMemoryTaskRepository) put(t importtask.ImportTask) {
	r.tasks[t.ID()] = t
}

func (r *inMemoryTaskRepository) Create(ctx context.Context, task importtask.ImportTask) (importtask.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(task)
	return task, nil
}

func (r *inMemoryTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (importtask.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *inMemoryTaskRepository) rehydrate(t importtask.ImportTask, status importtask.Status, created, failed int, rowErrors []importtask.RowError, message string, startedAt, finishedAt *time.Time) importtask.ImportTask {
	if startedAt == nil {
		startedAt = t.StartedAt()
	}
	if finishedAt == nil {
		finishedAt = t.FinishedAt()
	}
	return importtask.Hydrate(
		t.ID(), t.TenantID(), t.OwnerID(), t.Variant(),
		status, t.TotalRows(), created, failed, rowErrors, message,
		t.CreatedAt(), startedAt, finishedAt, time.Now(),
	)
}

func (r *inMemoryTaskRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status() != importtask.StatusQueued {
		return importtask.ErrInvalidTransition
	}
	r.put(r.rehydrate(t, importtask.StatusRunning, 0, 0, nil, "", &startedAt, nil))
	return nil
}

func (r *inMemoryTaskRepository) UpdateProgress(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status() != importtask.StatusRunning {
		return importtask.ErrInvalidTransition
	}
	r.put(r.rehydrate(t, importtask.StatusRunning, created, failed, rowErrors, t.Message(), nil, nil))
	return nil
}

func (r *inMemoryTaskRepository) finish(id uuid.UUID, status importtask.Status, created, failed int, rowErrors []importtask.RowError, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.get(id)
	if err != nil {
		return err
	}
	if t.Status() != importtask.StatusRunning {
		return importtask.ErrInvalidTransition
	}
	now := time.Now()
	r.put(r.rehydrate(t, status, created, failed, rowErrors, message, nil, &now))
	return nil
}

func (r *inMemoryTaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError, message string) error {
	return r.finish(id, importtask.StatusCompleted, created, failed, rowErrors, message)
}

func (r *inMemoryTaskRepository) MarkFailed(ctx context.Context, id uuid.UUID, created, failed int, rowErrors []importtask.RowError, message string) error {
	return r.finish(id, importtask.StatusFailed, created, failed, rowErrors, message)
}

// newTestImportService wires an ImportService against the in-memory
// repositories, with the per-row transaction collapsed to a direct call.
func newTestImportService(customers *inMemoryCustomerRepository, cargoRepo *inMemoryCargoRepository) *ImportService {
	svc := NewImportService(
		customers,
		cargoRepo,
		eventbus.NewEventPublisher(testLogger()),
		testImportOptions(),
		testLogger(),
	)
	svc.inTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	return svc
}
