// Package report derives read-only views from item ledgers. Nothing in this
// package mutates its inputs; every result is a fresh copy.
package report

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// AllOption matches any warehouse or item in a Filter
const AllOption = "all"

// ItemHistoryView returns a copy of the item's history, most recent first.
// Entries sharing a timestamp keep reverse insertion order.
func ItemHistoryView(item *domain.Item) []domain.HistoryEntry {
	if item == nil || len(item.History) == 0 {
		return []domain.HistoryEntry{}
	}

	view := domain.CloneHistory(item.History)
	slices.Reverse(view)
	slices.SortStableFunc(view, func(a, b domain.HistoryEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return view
}

// ListingOrder selects how WarehouseItemListing orders its result
type ListingOrder int

const (
	OrderInput ListingOrder = iota
	OrderName
	OrderRecency
)

// ParseListingOrder maps "name", "recent" and "" (input order) to a ListingOrder
func ParseListingOrder(s string) (ListingOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "input":
		return OrderInput, true
	case "name":
		return OrderName, true
	case "recent", "recency":
		return OrderRecency, true
	default:
		return OrderInput, false
	}
}

// WarehouseItemListing returns copies of the active items of warehouseID
func WarehouseItemListing(warehouseID string, items []*domain.Item, order ListingOrder) []*domain.Item {
	listing := make([]*domain.Item, 0)
	for _, item := range items {
		if item == nil || item.IsArchived || item.WarehouseID != warehouseID {
			continue
		}
		listing = append(listing, item.Clone())
	}

	switch order {
	case OrderName:
		slices.SortStableFunc(listing, func(a, b *domain.Item) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case OrderRecency:
		slices.SortStableFunc(listing, func(a, b *domain.Item) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
	return listing
}

// Filter narrows the flattened transaction feed. Zero values match everything.
type Filter struct {
	WarehouseID string
	ItemID      string
	StartDate   time.Time
	EndDate     time.Time
}

func isAll(id string) bool {
	return id == "" || id == AllOption
}

// HasWarehouse reports whether the filter narrows to a single warehouse
func (f Filter) HasWarehouse() bool {
	return !isAll(f.WarehouseID)
}

// HasItem reports whether the item filter is in effect. It only applies
// once a warehouse has been selected.
func (f Filter) HasItem() bool {
	return f.HasWarehouse() && !isAll(f.ItemID)
}

// StartOfDay floors t to 00:00:00.000 of its day in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay ceils t to 23:59:59.999 of its day in its own location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func (f Filter) matches(tx domain.Transaction) bool {
	if f.HasWarehouse() && tx.WarehouseID != f.WarehouseID {
		return false
	}
	if f.HasItem() && tx.ItemID != f.ItemID {
		return false
	}
	if !f.StartDate.IsZero() && tx.Timestamp.Before(StartOfDay(f.StartDate)) {
		return false
	}
	if !f.EndDate.IsZero() && tx.Timestamp.After(EndOfDay(f.EndDate)) {
		return false
	}
	return true
}

// TransactionFeed flattens the history of every active item in every active
// warehouse into transactions, newest first, keeping only those matching
// filter. Items whose warehouse is unknown contribute nothing. The returned
// sequence can be ranged over any number of times and always yields the same
// transactions for the same inputs.
func TransactionFeed(warehouses []*domain.Warehouse, items []*domain.Item, filter Filter) iter.Seq[domain.Transaction] {
	active := make(map[string]*domain.Warehouse, len(warehouses))
	for _, wh := range warehouses {
		if wh != nil && !wh.IsArchived {
			active[wh.ID] = wh.Clone()
		}
	}

	var txs []domain.Transaction
	for _, item := range items {
		if item == nil || item.IsArchived {
			continue
		}
		wh, ok := active[item.WarehouseID]
		if !ok {
			continue
		}
		for _, entry := range item.History {
			tx := domain.Transaction{
				HistoryEntry:  entry,
				ItemID:        item.ID,
				ItemName:      item.Name,
				WarehouseID:   wh.ID,
				WarehouseName: wh.Name,
			}
			if filter.matches(tx) {
				txs = append(txs, tx)
			}
		}
	}

	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return func(yield func(domain.Transaction) bool) {
		for _, tx := range txs {
			if !yield(tx) {
				return
			}
		}
	}
}

// CollectTransactions materializes a feed. It never returns nil.
func CollectTransactions(feed iter.Seq[domain.Transaction]) []domain.Transaction {
	txs := slices.Collect(feed)
	if txs == nil {
		return []domain.Transaction{}
	}
	return txs
}

// TitleDateLayout formats date bounds in report titles
const TitleDateLayout = "Jan 2, 2006"

// Title describes the active filters. warehouseName and itemName are the
// display names of the filtered entities and are ignored when the
// corresponding filter is not in effect.
func Title(filter Filter, warehouseName, itemName string) string {
	var b strings.Builder

	switch {
	case filter.HasItem():
		b.WriteString("Transactions for ")
		b.WriteString(orID(itemName, filter.ItemID))
		b.WriteString(" in ")
		b.WriteString(orID(warehouseName, filter.WarehouseID))
	case filter.HasWarehouse():
		b.WriteString("Transactions for ")
		b.WriteString(orID(warehouseName, filter.WarehouseID))
	default:
		b.WriteString("All Transactions")
	}

	if !filter.StartDate.IsZero() {
		b.WriteString(" from ")
		b.WriteString(filter.StartDate.Format(TitleDateLayout))
	}
	if !filter.EndDate.IsZero() {
		b.WriteString(" to ")
		b.WriteString(filter.EndDate.Format(TitleDateLayout))
	}
	return b.String()
}

func orID(name, id string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return id
}
