package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS warehouses (
	id         TEXT PRIMARY KEY,
	doc        JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	warehouse_id TEXT NOT NULL,
	doc          JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS items_warehouse_id_idx ON items (warehouse_id);
CREATE TABLE IF NOT EXISTS archived_reports (
	id          TEXT PRIMARY KEY,
	report_type TEXT NOT NULL,
	printed_at  TIMESTAMPTZ NOT NULL,
	doc         JSONB NOT NULL
);`

// PostgresRepository implements Repository on PostgreSQL, one JSONB document per record
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewPostgresRepository connects to databaseURL and ensures the schema exists
func NewPostgresRepository(ctx context.Context, databaseURL string, logger *logrus.Logger) (*PostgresRepository, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if databaseURL == "" {
		return nil, errors.New("postgres database url cannot be empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to reach postgres")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to apply postgres schema")
	}

	logger.Debug("postgres repository ready")
	return &PostgresRepository{pool: pool, logger: logger}, nil
}

// Close releases the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func pgLoad[T any](ctx context.Context, r *PostgresRepository, query, kind string) ([]*T, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s collection", kind)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s row", kind)
		}
		if record, ok := decodeRecord[T](r.logger, kind, []byte(id), doc); ok {
			out = append(out, record)
		}
	}
	return out, errors.Wrapf(rows.Err(), "failed to iterate %s rows", kind)
}

func pgGet[T any](ctx context.Context, r *PostgresRepository, query, kind, id string) (*T, error) {
	var doc []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: kind, ID: id}
		}
		return nil, errors.Wrapf(err, "failed to retrieve %s %s", kind, id)
	}

	var record T
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s %s", kind, id)
	}
	return &record, nil
}

// pgReplace truncates table and inserts the queued rows in one transaction
func (r *PostgresRepository) pgReplace(ctx context.Context, table string, queue func(*pgx.Batch) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
		return errors.Wrapf(err, "failed to clear %s", table)
	}

	batch := &pgx.Batch{}
	if err := queue(batch); err != nil {
		return err
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "failed to insert into %s", table)
		}
	}

	return errors.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

const (
	upsertWarehouseSQL = `INSERT INTO warehouses (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`
	upsertItemSQL = `INSERT INTO items (id, warehouse_id, doc) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET warehouse_id = EXCLUDED.warehouse_id, doc = EXCLUDED.doc`
	insertReportSQL = `INSERT INTO archived_reports (id, report_type, printed_at, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`
)

func (r *PostgresRepository) LoadWarehouses(ctx context.Context) ([]*domain.Warehouse, error) {
	warehouses, err := pgLoad[domain.Warehouse](ctx, r, "SELECT id, doc FROM warehouses ORDER BY id", domain.KindWarehouse)
	return warehouses, persistenceErr("load warehouses", err)
}

func (r *PostgresRepository) SaveWarehouses(ctx context.Context, warehouses []*domain.Warehouse) error {
	records, err := marshalAll(warehouses, warehouseID, validateWarehouse)
	if err != nil {
		return persistenceErr("save warehouses", err)
	}
	err = r.pgReplace(ctx, "warehouses", func(b *pgx.Batch) error {
		for id, doc := range records {
			b.Queue(upsertWarehouseSQL, id, doc)
		}
		return nil
	})
	return persistenceErr("save warehouses", err)
}

func (r *PostgresRepository) LoadItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := pgLoad[domain.Item](ctx, r, "SELECT id, doc FROM items ORDER BY id", domain.KindItem)
	return items, persistenceErr("load items", err)
}

func (r *PostgresRepository) SaveItems(ctx context.Context, items []*domain.Item) error {
	records, err := marshalAll(items, itemID, validateItem)
	if err != nil {
		return persistenceErr("save items", err)
	}
	owners := make(map[string]string, len(items))
	for _, item := range items {
		owners[item.ID] = item.WarehouseID
	}

	err = r.pgReplace(ctx, "items", func(b *pgx.Batch) error {
		for id, doc := range records {
			b.Queue(upsertItemSQL, id, owners[id], doc)
		}
		return nil
	})
	return persistenceErr("save items", err)
}

func (r *PostgresRepository) LoadArchivedReports(ctx context.Context) ([]*domain.ArchivedReport, error) {
	reports, err := pgLoad[domain.ArchivedReport](ctx, r, "SELECT id, doc FROM archived_reports ORDER BY printed_at DESC, id", domain.KindReport)
	return reports, persistenceErr("load archived reports", err)
}

func (r *PostgresRepository) SaveArchivedReports(ctx context.Context, reports []*domain.ArchivedReport) error {
	records, err := marshalAll(reports, reportID, validateReport)
	if err != nil {
		return persistenceErr("save archived reports", err)
	}

	err = r.pgReplace(ctx, "archived_reports", func(b *pgx.Batch) error {
		for _, report := range reports {
			b.Queue(insertReportSQL, report.ID, string(report.Type()), report.PrintedAt, records[report.ID])
		}
		return nil
	})
	return persistenceErr("save archived reports", err)
}

func (r *PostgresRepository) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	wh, err := pgGet[domain.Warehouse](ctx, r, "SELECT doc FROM warehouses WHERE id = $1", domain.KindWarehouse, id)
	return wh, persistenceErr("get warehouse", err)
}

func (r *PostgresRepository) PutWarehouse(ctx context.Context, warehouse *domain.Warehouse) error {
	if err := validateWarehouse(warehouse); err != nil {
		return err
	}
	doc, err := json.Marshal(warehouse)
	if err != nil {
		return persistenceErr("put warehouse", errors.Wrap(err, "failed to marshal warehouse"))
	}
	_, err = r.pool.Exec(ctx, upsertWarehouseSQL, warehouse.ID, doc)
	return persistenceErr("put warehouse", err)
}

func (r *PostgresRepository) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := pgGet[domain.Item](ctx, r, "SELECT doc FROM items WHERE id = $1", domain.KindItem, id)
	return item, persistenceErr("get item", err)
}

func (r *PostgresRepository) PutItem(ctx context.Context, item *domain.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return persistenceErr("put item", errors.Wrap(err, "failed to marshal item"))
	}
	_, err = r.pool.Exec(ctx, upsertItemSQL, item.ID, item.WarehouseID, doc)
	return persistenceErr("put item", err)
}

func (r *PostgresRepository) ListItemsByWarehouse(ctx context.Context, warehouseID string) ([]*domain.Item, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, doc FROM items WHERE warehouse_id = $1 ORDER BY id", warehouseID)
	if err != nil {
		return nil, persistenceErr("list items", errors.Wrap(err, "failed to query items"))
	}
	defer rows.Close()

	items := make([]*domain.Item, 0)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, persistenceErr("list items", errors.Wrap(err, "failed to scan item row"))
		}
		if item, ok := decodeRecord[domain.Item](r.logger, domain.KindItem, []byte(id), doc); ok {
			items = append(items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list items", errors.Wrap(err, "failed to iterate item rows"))
	}
	return items, nil
}

func (r *PostgresRepository) AddReport(ctx context.Context, report *domain.ArchivedReport) error {
	if err := validateReport(report); err != nil {
		return err
	}
	doc, err := json.Marshal(report)
	if err != nil {
		return persistenceErr("add report", errors.Wrap(err, "failed to marshal report"))
	}

	tag, err := r.pool.Exec(ctx, insertReportSQL, report.ID, string(report.Type()), report.PrintedAt, doc)
	if err != nil {
		return persistenceErr("add report", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ReportExistsError{ID: report.ID}
	}
	return nil
}

func (r *PostgresRepository) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	report, err := pgGet[domain.ArchivedReport](ctx, r, "SELECT doc FROM archived_reports WHERE id = $1", domain.KindReport, id)
	return report, persistenceErr("get report", err)
}
