package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// InMemoryRepository is a map-backed Repository for tests and ephemeral servers.
// Records are copied on every read and write.
type InMemoryRepository struct {
	mutex      sync.RWMutex
	warehouses map[string]*domain.Warehouse
	items      map[string]*domain.Item
	reports    map[string]*domain.ArchivedReport
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		warehouses: make(map[string]*domain.Warehouse),
		items:      make(map[string]*domain.Item),
		reports:    make(map[string]*domain.ArchivedReport),
	}
}

func sortedValues[T any](m map[string]T, clone func(T) T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(m[k]))
	}
	return out
}

func (r *InMemoryRepository) LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedValues(r.warehouses, (*domain.Warehouse).Clone), nil
}

func (r *InMemoryRepository) SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error {
	next := make(map[string]*domain.Warehouse, len(warehouses))
	for _, wh := range warehouses {
		if err := validateWarehouse(wh); err != nil {
			return err
		}
		next[wh.ID] = wh.Clone()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.warehouses = next
	return nil
}

func (r *InMemoryRepository) LoadItems(ctx context.Context) ([]*domain.Item, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedValues(r.items, (*domain.Item).Clone), nil
}

func (r *InMemoryRepository) SaveItems(ctx context.Context, items []*domain.Item) error {
	next := make(map[string]*domain.Item, len(items))
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return err
		}
		next[item.ID] = item.Clone()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.items = next
	return nil
}

func (r *InMemoryRepository) LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return sortedValues(r.reports, (*domain.ArchivedReport).Clone), nil
}

func (r *InMemoryRepository) SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error {
	next := make(map[string]*domain.ArchivedReport, len(reports))
	for _, report := range reports {
		if err := validateReport(report); err != nil {
			return err
		}
		next[report.ID] = report.Clone()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = next
	return nil
}

func (r *InMemoryRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	wh, exists := r.warehouses[id]
	if !exists {
		return nil, &domain.NotFoundError{Kind: domain.KindWarehouse, ID: id}
	}
	return wh.Clone(), nil
}

func (r *InMemoryRepository) PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error {
	if err := validateWarehouse(warehouse); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.warehouses[warehouse.ID] = warehouse.Clone()
	return nil
}

func (r *InMemoryRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, &domain.NotFoundError{Kind: domain.KindItem, ID: id}
	}
	return item.Clone(), nil
}

func (r *InMemoryRepository) PutItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.items[item.ID] = item.Clone()
	return nil
}

func (r *InMemoryRepository) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	items := make([]*domain.Item, 0)
	for _, item := range sortedValues(r.items, (*domain.Item).Clone) {
		if item.WarehouseID == warehouseID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *InMemoryRepository) AddReport(ctx context.Context, report *domain.ArchivedReport) error {
	if err := validateReport(report); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.reports[report.ID]; exists {
		return &domain.ReportExistsError{ID: report.ID}
	}
	r.reports[report.ID] = report.Clone()
	return nil
}

func (r *InMemoryRepository) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	report, exists := r.reports[id]
	if !exists {
		return nil, &domain.NotFoundError{Kind: domain.KindReport, ID: id}
	}
	return report.Clone(), nil
}

// Close is a no-op for the in-memory repository
func (r *InMemoryRepository) Close() error {
	return nil
}
