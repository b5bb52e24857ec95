// Package printer renders inventory reports to printable documents.
package printer

import (
	"context"
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// Meta is the print-time information shown on every page
type Meta struct {
	PrintedBy string
	PrintedAt time.Time
}

// ItemReport is an item with its history in display order
type ItemReport struct {
	Warehouse *domain.Warehouse
	Item      *domain.Item
	History   []domain.HistoryEntry
}

// WarehouseReport is a warehouse with its active items
type WarehouseReport struct {
	Warehouse *domain.Warehouse
	Items     []*domain.Item
}

// TransactionsReport is a filtered transaction feed under its title
type TransactionsReport struct {
	Title        string
	Transactions []domain.Transaction
}

// Printer renders reports and returns a reference to the output, such as a file path.
// A returned error means nothing was produced.
type Printer interface {
	PrintItem(ctx context.Context, report ItemReport, meta Meta) (string, error)
	PrintWarehouse(ctx context.Context, report WarehouseReport, meta Meta) (string, error)
	PrintTransactions(ctx context.Context, report TransactionsReport, meta Meta) (string, error)
}
