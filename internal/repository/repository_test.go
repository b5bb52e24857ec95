package repository

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

const testPostgresURLEnv = "WAREHOUSE_TEST_POSTGRES_URL"

var testTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// testRepositories yields every backend that can run here. Postgres joins
// only when a test database URL is configured.
func testRepositories(t *testing.T) iter.Seq2[string, func(t *testing.T) Repository] {
	return func(yield func(string, func(t *testing.T) Repository) bool) {
		if !yield("memory", func(t *testing.T) Repository { return NewInMemoryRepository() }) {
			return
		}

		if !yield("bolt", func(t *testing.T) Repository {
			repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "test.bolt"), testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		}) {
			return
		}

		if !yield("badger", func(t *testing.T) Repository {
			repo, err := NewBadgerRepository(filepath.Join(t.TempDir(), "badger"), testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { repo.Close() })
			return repo
		}) {
			return
		}

		url := os.Getenv(testPostgresURLEnv)
		if url == "" {
			t.Logf("%s not set, skipping postgres backend", testPostgresURLEnv)
			return
		}
		yield("postgres", func(t *testing.T) Repository {
			repo, err := NewPostgresRepository(context.Background(), url, testLogger())
			require.NoError(t, err)
			ctx := context.Background()
			require.NoError(t, repo.SaveWarehouses(ctx, nil))
			require.NoError(t, repo.SaveItems(ctx, nil))
			require.NoError(t, repo.SaveArchivedReports(ctx, nil))
			t.Cleanup(func() { repo.Close() })
			return repo
		})
	}
}

func sampleWarehouse(id string) *domain.Warehouse {
	return &domain.Warehouse{ID: id, Name: "Warehouse " + id, Description: "test", CreatedAt: testTime, UpdatedAt: testTime}
}

func sampleItem(id, warehouseID string, quantity int) *domain.Item {
	return &domain.Item{
		ID:          id,
		WarehouseID: warehouseID,
		Name:        "Item " + id,
		Quantity:    quantity,
		History: []domain.HistoryEntry{{
			ID: id + "-1", Type: domain.EntryCreateItem, Change: quantity,
			QuantityBefore: 0, QuantityAfter: quantity, Comment: "Initial item creation", Timestamp: testTime,
		}},
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func sampleReport(id string) *domain.ArchivedReport {
	return &domain.ArchivedReport{
		ID:        id,
		PrintedBy: "dana",
		PrintedAt: testTime,
		Snapshot: domain.WarehouseSnapshot{
			WarehouseID:   "wh1",
			WarehouseName: "Main",
			Items:         []domain.StockLine{{Name: "Widget", Quantity: 3}},
		},
	}
}

func TestRepositoryWarehouseRoundTrip(t *testing.T) {
	for name, open := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			wh := sampleWarehouse("wh1")
			require.NoError(t, repo.PutWarehouse(ctx, wh))

			got, err := repo.GetWarehouse(ctx, "wh1")
			require.NoError(t, err)
			assert.Equal(t, wh.Name, got.Name)
			assert.True(t, wh.UpdatedAt.Equal(got.UpdatedAt))

			got.Name = "changed locally"
			again, err := repo.GetWarehouse(ctx, "wh1")
			require.NoError(t, err)
			assert.Equal(t, "Warehouse wh1", again.Name)

			_, err = repo.GetWarehouse(ctx, "missing")
			var notFound *domain.NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, domain.KindWarehouse, notFound.Kind)
		})
	}
}

func TestRepositoryItemRoundTrip(t *testing.T) {
	for name, open := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			require.NoError(t, repo.PutItem(ctx, sampleItem("a", "wh1", 5)))
			require.NoError(t, repo.PutItem(ctx, sampleItem("b", "wh1", 7)))
			require.NoError(t, repo.PutItem(ctx, sampleItem("c", "wh2", 1)))

			item, err := repo.GetItem(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 5, item.Quantity)
			require.Len(t, item.History, 1)
			assert.Equal(t, domain.EntryCreateItem, item.History[0].Type)

			listed, err := repo.ListItemsByWarehouse(ctx, "wh1")
			require.NoError(t, err)
			assert.Len(t, listed, 2)

			item.Quantity = 9
			require.NoError(t, repo.PutItem(ctx, item))
			updated, err := repo.GetItem(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, 9, updated.Quantity)

			_, err = repo.GetItem(ctx, "zzz")
			var notFound *domain.NotFoundError
			assert.ErrorAs(t, err, &notFound)

			err = repo.PutItem(ctx, &domain.Item{})
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestRepositoryReportsAreWriteOnce(t *testing.T) {
	for name, open := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			report := sampleReport("r1")
			require.NoError(t, repo.AddReport(ctx, report))

			duplicate := sampleReport("r1")
			duplicate.PrintedBy = "someone else"
			err := repo.AddReport(ctx, duplicate)
			var exists *domain.ReportExistsError
			require.ErrorAs(t, err, &exists)

			got, err := repo.GetReport(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "dana", got.PrintedBy)
			assert.Equal(t, domain.ReportTypeWarehouse, got.Type())
			snap, ok := got.Snapshot.(domain.WarehouseSnapshot)
			require.True(t, ok)
			assert.Equal(t, []domain.StockLine{{Name: "Widget", Quantity: 3}}, snap.Items)

			_, err = repo.GetReport(ctx, "r2")
			var notFound *domain.NotFoundError
			assert.ErrorAs(t, err, &notFound)
		})
	}
}

func TestRepositoryWholeCollectionReplace(t *testing.T) {
	for name, open := range testRepositories(t) {
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			require.NoError(t, repo.PutWarehouse(ctx, sampleWarehouse("old")))
			require.NoError(t, repo.PutItem(ctx, sampleItem("old-item", "old", 1)))
			require.NoError(t, repo.AddReport(ctx, sampleReport("old-report")))

			require.NoError(t, repo.SaveWarehouses(ctx, []*domain.Warehouse{sampleWarehouse("wh1"), sampleWarehouse("wh2")}))
			require.NoError(t, repo.SaveItems(ctx, []*domain.Item{sampleItem("a", "wh1", 2)}))
			require.NoError(t, repo.SaveArchivedReports(ctx, []*domain.ArchivedReport{sampleReport("r1"), sampleReport("r2")}))

			warehouses, err := repo.LoadWarehouses(ctx)
			require.NoError(t, err)
			require.Len(t, warehouses, 2)
			assert.ElementsMatch(t, []string{"wh1", "wh2"}, []string{warehouses[0].ID, warehouses[1].ID})

			items, err := repo.LoadItems(ctx)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "a", items[0].ID)

			reports, err := repo.LoadArchivedReports(ctx)
			require.NoError(t, err)
			assert.Len(t, reports, 2)

			_, err = repo.GetWarehouse(ctx, "old")
			var notFound *domain.NotFoundError
			assert.ErrorAs(t, err, &notFound)

			require.NoError(t, repo.SaveItems(ctx, nil))
			items, err = repo.LoadItems(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestBoltSkipsMalformedRecords(t *testing.T) {
	repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "malformed.bolt"), testLogger())
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.PutItem(ctx, sampleItem("good", "wh1", 3)))
	require.NoError(t, repo.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(itemsBucket).Put([]byte("bad"), []byte("{not json"))
	}))

	items, err := repo.LoadItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "good", items[0].ID)
}

func TestBadgerSkipsMalformedRecords(t *testing.T) {
	repo, err := NewBadgerRepository(filepath.Join(t.TempDir(), "badger"), testLogger())
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.PutWarehouse(ctx, sampleWarehouse("good")))
	require.NoError(t, repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(warehousePrefix+"bad"), []byte("[]"))
	}))

	warehouses, err := repo.LoadWarehouses(ctx)
	require.NoError(t, err)
	require.Len(t, warehouses, 1)
	assert.Equal(t, "good", warehouses[0].ID)
}

func TestDiskBackendsRejectUnsafeKeys(t *testing.T) {
	for name, open := range testRepositories(t) {
		if name == "memory" || name == "postgres" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			repo := open(t)
			ctx := context.Background()

			var invalid *domain.ValidationError
			require.ErrorAs(t, repo.PutWarehouse(ctx, sampleWarehouse("../escape")), &invalid)
			require.ErrorAs(t, repo.SaveItems(ctx, []*domain.Item{sampleItem("a:b", "wh1", 1)}), &invalid)
			require.ErrorAs(t, repo.AddReport(ctx, sampleReport("r 1")), &invalid)

			warehouses, err := repo.LoadWarehouses(ctx)
			require.NoError(t, err)
			assert.Empty(t, warehouses)
		})
	}
}

func TestClosedBoltReturnsPersistenceError(t *testing.T) {
	repo, err := NewBoltRepository(filepath.Join(t.TempDir(), "closed.bolt"), testLogger())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	err = repo.PutWarehouse(context.Background(), sampleWarehouse("wh1"))
	var persistence *domain.PersistenceError
	require.True(t, errors.As(err, &persistence), "got %v", err)
	assert.Equal(t, "put warehouse", persistence.Op)
}

func TestNewRepositoryFactory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bolt, err := NewRepository(ctx, Options{Type: DatabaseTypeBolt, Path: filepath.Join(dir, "inventory")}, testLogger())
	require.NoError(t, err)
	defer bolt.Close()
	_, statErr := os.Stat(filepath.Join(dir, "inventory.bolt"))
	assert.NoError(t, statErr)

	memory, err := NewRepository(ctx, Options{Type: DatabaseTypeMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &InMemoryRepository{}, memory)

	_, err = NewRepository(ctx, Options{Type: "sqlite"}, testLogger())
	assert.Error(t, err)

	_, err = NewBoltRepository(filepath.Join(dir, "x.bolt"), nil)
	assert.Error(t, err)

	assert.Len(t, GetDatabaseInfo(), 4)
}
