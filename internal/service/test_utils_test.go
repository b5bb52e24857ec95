package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/advisor"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/logging"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/printer"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/repository"
)

var testStart = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one minute on every read
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("id-%d", g.n.Add(1))
}

// fakePrinter records what it was asked to print
type fakePrinter struct {
	mu    sync.Mutex
	err   error
	calls []string
	metas []printer.Meta

	lastItem         printer.ItemReport
	lastWarehouse    printer.WarehouseReport
	lastTransactions printer.TransactionsReport
}

func (p *fakePrinter) record(kind string, meta printer.Meta) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.calls = append(p.calls, kind)
	p.metas = append(p.metas, meta)
	return fmt.Sprintf("/reports/%s-%d.pdf", kind, len(p.calls)), nil
}

func (p *fakePrinter) PrintItem(ctx context.Context, r printer.ItemReport, meta printer.Meta) (string, error) {
	p.mu.Lock()
	p.lastItem = r
	p.mu.Unlock()
	return p.record("item", meta)
}

func (p *fakePrinter) PrintWarehouse(ctx context.Context, r printer.WarehouseReport, meta printer.Meta) (string, error) {
	p.mu.Lock()
	p.lastWarehouse = r
	p.mu.Unlock()
	return p.record("warehouse", meta)
}

func (p *fakePrinter) PrintTransactions(ctx context.Context, r printer.TransactionsReport, meta printer.Meta) (string, error) {
	p.mu.Lock()
	p.lastTransactions = r
	p.mu.Unlock()
	return p.record("transactions", meta)
}

type fakeAdvisor struct {
	got advisor.Input
	err error
}

func (a *fakeAdvisor) Suggest(ctx context.Context, in advisor.Input) (advisor.Suggestion, error) {
	a.got = in
	if a.err != nil {
		return advisor.Suggestion{}, a.err
	}
	return advisor.Suggestion{SuggestedStockLevel: 80, Reasoning: "steady use"}, nil
}

type testEnv struct {
	svc     *WarehouseService
	repo    *repository.InMemoryRepository
	bus     *events.EventBus
	printer *fakePrinter
	clock   *stepClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	logger := logging.Discard()
	env := &testEnv{
		repo:    repository.NewInMemoryRepository(),
		bus:     events.NewEventBus("warehouse-test", logger),
		printer: &fakePrinter{},
		clock:   &stepClock{t: testStart},
	}

	base := []Option{WithClock(env.clock), WithIDGenerator(&seqIDs{}), WithPrinter(env.printer)}
	env.svc = NewWarehouseService(env.repo, env.bus, logger, append(base, opts...)...)
	return env
}

func userContext() context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: "u-1", Name: "Dana", Role: auth.RoleClerk})
}

func adminContext() context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: "u-0", Name: "Root", Role: auth.RoleAdmin})
}

func (e *testEnv) warehouse(t *testing.T, name string) *domain.Warehouse {
	t.Helper()
	wh, err := e.svc.CreateWarehouse(userContext(), name, "")
	require.NoError(t, err)
	return wh
}

func (e *testEnv) item(t *testing.T, warehouseID, name string, qty int) *domain.Item {
	t.Helper()
	item, err := e.svc.CreateItem(userContext(), warehouseID, name, qty)
	require.NoError(t, err)
	return item
}

var errDatabase = errors.New("database error")

// MockRepository implements repository.Repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Warehouse), args.Error(1)
}

func (m *MockRepository) SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error {
	return m.Called(ctx, warehouses).Error(0)
}

func (m *MockRepository) LoadItems(ctx context.Context) ([]*domain.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockRepository) SaveItems(ctx context.Context, items []*domain.Item) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockRepository) LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.ArchivedReport), args.Error(1)
}

func (m *MockRepository) SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error {
	return m.Called(ctx, reports).Error(0)
}

func (m *MockRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Warehouse), args.Error(1)
}

func (m *MockRepository) PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error {
	return m.Called(ctx, warehouse).Error(0)
}

func (m *MockRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockRepository) PutItem(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockRepository) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error) {
	args := m.Called(ctx, warehouseID)
	return args.Get(0).([]*domain.Item), args.Error(1)
}

func (m *MockRepository) AddReport(ctx context.Context, report *domain.ArchivedReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockRepository) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.ArchivedReport), args.Error(1)
}

func (m *MockRepository) Close() error {
	return m.Called().Error(0)
}

func itemWithID(id string) any {
	return mock.MatchedBy(func(item *domain.Item) bool { return item != nil && item.ID == id })
}

// gatedRepository pauses the first GetWarehouse after arm, once the read has
// happened, until release is closed
type gatedRepository struct {
	repository.Repository
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newGatedRepository(inner repository.Repository) *gatedRepository {
	return &gatedRepository{
		Repository: inner,
		reached:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (r *gatedRepository) arm() {
	r.armed.Store(true)
}

func (r *gatedRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	wh, err := r.Repository.GetWarehouse(ctx, id)
	if r.armed.CompareAndSwap(true, false) {
		close(r.reached)
		<-r.release
	}
	return wh, err
}
