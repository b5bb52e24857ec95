package repository

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/security"
)

const (
	warehousePrefix = "warehouse:"
	itemPrefix      = "item:"
	reportPrefix    = "report:"
)

// BadgerRepository implements Repository using BadgerDB
type BadgerRepository struct {
	db     *badger.DB
	logger *logrus.Logger
}

// NewBadgerRepository opens or creates a BadgerDB directory at dbPath
func NewBadgerRepository(dbPath string, logger *logrus.Logger) (*BadgerRepository, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger database")
	}

	logger.WithField("path", dbPath).Debug("badger repository opened")
	return &BadgerRepository{db: db, logger: logger}, nil
}

// Close closes the database connection
func (r *BadgerRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func badgerLoad[T any](r *BadgerRepository, prefix, kind string) ([]*T, error) {
	out := make([]*T, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			entry := it.Item()
			key := entry.KeyCopy(nil)
			err := entry.Value(func(val []byte) error {
				if record, ok := decodeRecord[T](r.logger, kind, key, val); ok {
					out = append(out, record)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s collection", kind)
	}
	return out, nil
}

// badgerReplace deletes every key under prefix and writes records in one transaction
func badgerReplace(r *BadgerRepository, prefix string, records map[string][]byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return errors.Wrap(err, "failed to delete stale record")
			}
		}
		for id, data := range records {
			key, err := security.BuildKey(prefix, id)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return errors.Wrapf(err, "failed to store %s", id)
			}
		}
		return nil
	})
}

func badgerGet[T any](r *BadgerRepository, prefix, kind, id string) (*T, error) {
	var record T
	err := r.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get([]byte(prefix + id))
		if err != nil {
			return err
		}
		return entry.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, &domain.NotFoundError{Kind: kind, ID: id}
		}
		return nil, errors.Wrapf(err, "failed to retrieve %s %s", kind, id)
	}
	return &record, nil
}

func badgerPut(r *BadgerRepository, prefix, id string, v any) error {
	key, err := security.BuildKey(prefix, id)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (r *BadgerRepository) LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	warehouses, err := badgerLoad[domain.Warehouse](r, warehousePrefix, domain.KindWarehouse)
	return warehouses, persistenceErr("load warehouses", err)
}

func (r *BadgerRepository) SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error {
	records, err := marshalAll(warehouses, warehouseID, validateWarehouse)
	if err != nil {
		return persistenceErr("save warehouses", err)
	}
	return persistenceErr("save warehouses", badgerReplace(r, warehousePrefix, records))
}

func (r *BadgerRepository) LoadItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := badgerLoad[domain.Item](r, itemPrefix, domain.KindItem)
	return items, persistenceErr("load items", err)
}

func (r *BadgerRepository) SaveItems(ctx context.Context, items []*domain.Item) error {
	records, err := marshalAll(items, itemID, validateItem)
	if err != nil {
		return persistenceErr("save items", err)
	}
	return persistenceErr("save items", badgerReplace(r, itemPrefix, records))
}

func (r *BadgerRepository) LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error) {
	reports, err := badgerLoad[domain.ArchivedReport](r, reportPrefix, domain.KindReport)
	return reports, persistenceErr("load archived reports", err)
}

func (r *BadgerRepository) SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error {
	records, err := marshalAll(reports, reportID, validateReport)
	if err != nil {
		return persistenceErr("save archived reports", err)
	}
	return persistenceErr("save archived reports", badgerReplace(r, reportPrefix, records))
}

func (r *BadgerRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	wh, err := badgerGet[domain.Warehouse](r, warehousePrefix, domain.KindWarehouse, id)
	return wh, persistenceErr("get warehouse", err)
}

func (r *BadgerRepository) PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error {
	if err := validateWarehouse(warehouse); err != nil {
		return err
	}
	return persistenceErr("put warehouse", badgerPut(r, warehousePrefix, warehouse.ID, warehouse))
}

func (r *BadgerRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := badgerGet[domain.Item](r, itemPrefix, domain.KindItem, id)
	return item, persistenceErr("get item", err)
}

func (r *BadgerRepository) PutItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return persistenceErr("put item", badgerPut(r, itemPrefix, item.ID, item))
}

func (r *BadgerRepository) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error) {
	all, err := r.LoadItems(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.Item, 0)
	for _, item := range all {
		if item.WarehouseID == warehouseID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *BadgerRepository) AddReport(ctx context.Context, report *domain.ArchivedReport) error {
	if err := validateReport(report); err != nil {
		return err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return persistenceErr("add report", errors.Wrap(err, "failed to marshal report"))
	}

	key, err := security.BuildKey(reportPrefix, report.ID)
	if err != nil {
		return persistenceErr("add report", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return &domain.ReportExistsError{ID: report.ID}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, data)
	})
	return persistenceErr("add report", err)
}

func (r *BadgerRepository) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	report, err := badgerGet[domain.ArchivedReport](r, reportPrefix, domain.KindReport, id)
	return report, persistenceErr("get report", err)
}

// badgerLogger adapts logrus to BadgerDB's logger interface
type badgerLogger struct {
	logger *logrus.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
