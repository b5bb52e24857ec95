package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/security"
)

var (
	warehousesBucket = []byte("warehouses")
	itemsBucket      = []byte("items")
	reportsBucket    = []byte("reports")
)

// BoltRepository implements Repository using BoltDB (bbolt).
// BoltDB keeps everything in one compact file, which suits a single warehouse site.
type BoltRepository struct {
	db     *bbolt.DB
	logger *logrus.Logger
}

// NewBoltRepository opens or creates the BoltDB file at dbPath
func NewBoltRepository(dbPath string, logger *logrus.Logger) (*BoltRepository, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create parent directory for bolt db")
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{warehousesBucket, itemsBucket, reportsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", bucket)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", dbPath).Debug("bolt repository opened")
	return &BoltRepository{db: db, logger: logger}, nil
}

// Close closes the database connection
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func boltLoad[T any](r *BoltRepository, bucket []byte, kind string) ([]*T, error) {
	out := make([]*T, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			if record, ok := decodeRecord[T](r.logger, kind, k, v); ok {
				out = append(out, record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s collection", kind)
	}
	return out, nil
}

// boltReplace swaps the bucket contents for records in one transaction
func boltReplace(r *BoltRepository, bucket []byte, records map[string][]byte) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return errors.Wrapf(err, "failed to clear bucket %s", bucket)
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return errors.Wrapf(err, "failed to recreate bucket %s", bucket)
		}
		for id, data := range records {
			if err := security.ValidateID(id, "id"); err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return errors.Wrapf(err, "failed to store %s", id)
			}
		}
		return nil
	})
}

func boltGet[T any](r *BoltRepository, bucket []byte, kind, id string) (*T, error) {
	var record *T
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(id))
		if data == nil {
			return &domain.NotFoundError{Kind: kind, ID: id}
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return errors.Wrapf(err, "failed to unmarshal %s %s", kind, id)
		}
		record = &v
		return nil
	})
	return record, err
}

func boltPut(r *BoltRepository, bucket []byte, id string, v any) error {
	if err := security.ValidateID(id, "id"); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(id), data)
	})
}

func marshalAll[T any](records []T, id func(T) string, validate func(T) error) (map[string][]byte, error) {
	out := make(map[string][]byte, len(records))
	for _, record := range records {
		if err := validate(record); err != nil {
			return nil, err
		}
		data, err := json.Marshal(record)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal record")
		}
		out[id(record)] = data
	}
	return out, nil
}

func warehouseID(wh *domain.Warehouse) string { return wh.ID }
func itemID(item *domain.Item) string { return item.ID }
func reportID(report *domain.ArchivedReport) string { return report.ID }

func (r *BoltRepository) LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	warehouses, err := boltLoad[domain.Warehouse](r, warehousesBucket, domain.KindWarehouse)
	return warehouses, persistenceErr("load warehouses", err)
}

func (r *BoltRepository) SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error {
	records, err := marshalAll(warehouses, warehouseID, validateWarehouse)
	if err != nil {
		return persistenceErr("save warehouses", err)
	}
	return persistenceErr("save warehouses", boltReplace(r, warehousesBucket, records))
}

func (r *BoltRepository) LoadItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := boltLoad[domain.Item](r, itemsBucket, domain.KindItem)
	return items, persistenceErr("load items", err)
}

func (r *BoltRepository) SaveItems(ctx context.Context, items []*domain.Item) error {
	records, err := marshalAll(items, itemID, validateItem)
	if err != nil {
		return persistenceErr("save items", err)
	}
	return persistenceErr("save items", boltReplace(r, itemsBucket, records))
}

func (r *BoltRepository) LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error) {
	reports, err := boltLoad[domain.ArchivedReport](r, reportsBucket, domain.KindReport)
	return reports, persistenceErr("load archived reports", err)
}

func (r *BoltRepository) SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error {
	records, err := marshalAll(reports, reportID, validateReport)
	if err != nil {
		return persistenceErr("save archived reports", err)
	}
	return persistenceErr("save archived reports", boltReplace(r, reportsBucket, records))
}

func (r *BoltRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	wh, err := boltGet[domain.Warehouse](r, warehousesBucket, domain.KindWarehouse, id)
	return wh, persistenceErr("get warehouse", err)
}

func (r *BoltRepository) PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error {
	if err := validateWarehouse(warehouse); err != nil {
		return err
	}
	return persistenceErr("put warehouse", boltPut(r, warehousesBucket, warehouse.ID, warehouse))
}

func (r *BoltRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := boltGet[domain.Item](r, itemsBucket, domain.KindItem, id)
	return item, persistenceErr("get item", err)
}

func (r *BoltRepository) PutItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return persistenceErr("put item", boltPut(r, itemsBucket, item.ID, item))
}

func (r *BoltRepository) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error) {
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

func (r *BoltRepository) AddReport(ctx context.Context, report *domain.ArchivedReport) error {
	if err := validateReport(report); err != nil {
		return err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return persistenceErr("add report", errors.Wrap(err, "failed to marshal report"))
	}

	if err := security.ValidateID(report.ID, "id"); err != nil {
		return persistenceErr("add report", err)
	}

	err = r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(reportsBucket)
		if b.Get([]byte(report.ID)) != nil {
			return &domain.ReportExistsError{ID: report.ID}
		}
		return b.Put([]byte(report.ID), data)
	})
	return persistenceErr("add report", err)
}

func (r *BoltRepository) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	report, err := boltGet[domain.ArchivedReport](r, reportsBucket, domain.KindReport, id)
	return report, persistenceErr("get report", err)
}
