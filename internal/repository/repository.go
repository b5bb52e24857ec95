package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// Repository persists warehouses, items and archived reports.
//
// The Load/Save methods move whole collections with replace semantics and
// back export and import. Everyday mutations go through the per-entity
// methods, which write one record atomically.
type Repository interface {
	LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error)
	SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error
	LoadItems(ctx context.Context) ([]*domain.Item, error)
	SaveItems(ctx context.Context, items []*domain.Item) error
	LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error)
	SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error

	GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error)
	PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	PutItem(ctx context.Context, item *domain.Item) error
	ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error)

	// AddReport stores a new archived report. Reports are write-once: a
	// second write with the same id fails with *domain.ReportExistsError.
	AddReport(ctx context.Context, report *domain.ArchivedReport) error
	GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error)

	Close() error
}

// Error message templates
const (
	errNilWarehouse = "warehouse cannot be nil"
	errNilItem      = "item cannot be nil"
	errNilReport    = "report cannot be nil"
	errEmptyID      = "id cannot be empty"
)

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound *domain.NotFoundError
		exists   *domain.ReportExistsError
		invalid  *domain.ValidationError
	)
	if errors.As(err, &notFound) || errors.As(err, &exists) || errors.As(err, &invalid) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func validateWarehouse(wh *domain.Warehouse) error {
	if wh == nil {
		return domain.NewValidationError("warehouse", errNilWarehouse)
	}
	if wh.ID == "" {
		return domain.NewValidationError("warehouse.id", errEmptyID)
	}
	return nil
}

func validateItem(item *domain.Item) error {
	if item == nil {
		return domain.NewValidationError("item", errNilItem)
	}
	if item.ID == "" {
		return domain.NewValidationError("item.id", errEmptyID)
	}
	return nil
}

func validateReport(report *domain.ArchivedReport) error {
	if report == nil {
		return domain.NewValidationError("report", errNilReport)
	}
	if report.ID == "" {
		return domain.NewValidationError("report.id", errEmptyID)
	}
	if report.Snapshot == nil {
		return domain.NewValidationError("report.snapshot", "is required")
	}
	return nil
}

// decodeRecord unmarshals a stored document. Malformed documents are logged
// and reported as skipped so the rest of a collection still loads.
func decodeRecord[T any](logger *logrus.Logger, kind string, key []byte, data []byte) (*T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logger.WithFields(logrus.Fields{
			"kind": kind,
			"key":  string(key),
		}).WithError(err).Warn("skipping malformed stored record")
		return nil, false
	}
	return &v, true
}
