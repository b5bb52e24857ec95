package report

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

var day = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func entry(id string, typ domain.EntryType, change, before int, ts time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:             id,
		Type:           typ,
		Change:         change,
		QuantityBefore: before,
		QuantityAfter:  before + change,
		Timestamp:      ts,
	}
}

func fixture() ([]*domain.Warehouse, []*domain.Item) {
	warehouses := []*domain.Warehouse{
		{ID: "wh1", Name: "Main", CreatedAt: day, UpdatedAt: day.Add(5 * time.Hour)},
		{ID: "wh2", Name: "Overflow", CreatedAt: day, UpdatedAt: day.Add(time.Hour)},
		{ID: "wh3", Name: "Closed", IsArchived: true, CreatedAt: day},
	}

	items := []*domain.Item{
		{
			ID: "a", WarehouseID: "wh1", Name: "widget", Quantity: 70, UpdatedAt: day.Add(2 * time.Hour),
			History: []domain.HistoryEntry{
				entry("a1", domain.EntryCreateItem, 100, 0, day),
				entry("a2", domain.EntryConsumeStock, -30, 100, day.Add(23*time.Hour+59*time.Minute+59*time.Second+999*time.Millisecond)),
			},
		},
		{
			ID: "b", WarehouseID: "wh1", Name: "Bolt", Quantity: 15, UpdatedAt: day.Add(3 * time.Hour),
			History: []domain.HistoryEntry{
				entry("b1", domain.EntryCreateItem, 10, 0, day.Add(-time.Millisecond)),
				entry("b2", domain.EntryAddStock, 5, 10, day.Add(24*time.Hour)),
			},
		},
		{
			ID: "c", WarehouseID: "wh2", Name: "Crate", Quantity: 3, UpdatedAt: day.Add(time.Hour),
			History: []domain.HistoryEntry{entry("c1", domain.EntryCreateItem, 3, 0, day.Add(12*time.Hour))},
		},
		{
			ID: "d", WarehouseID: "wh1", Name: "archived", Quantity: 1, IsArchived: true,
			History: []domain.HistoryEntry{entry("d1", domain.EntryCreateItem, 1, 0, day.Add(6*time.Hour))},
		},
		{
			ID: "e", WarehouseID: "wh3", Name: "in closed warehouse", Quantity: 1,
			History: []domain.HistoryEntry{entry("e1", domain.EntryCreateItem, 1, 0, day.Add(7*time.Hour))},
		},
		{
			ID: "f", WarehouseID: "missing", Name: "orphan", Quantity: 1,
			History: []domain.HistoryEntry{entry("f1", domain.EntryCreateItem, 1, 0, day.Add(8*time.Hour))},
		},
	}
	return warehouses, items
}

func ids(txs []domain.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestItemHistoryView(t *testing.T) {
	item := &domain.Item{History: []domain.HistoryEntry{
		entry("1", domain.EntryCreateItem, 5, 0, day),
		entry("2", domain.EntryAddStock, 1, 5, day.Add(time.Hour)),
		entry("3", domain.EntryAddStock, 1, 6, day.Add(time.Hour)),
		entry("4", domain.EntryConsumeStock, -2, 7, day.Add(2*time.Hour)),
	}}
	original := domain.CloneHistory(item.History)

	view := ItemHistoryView(item)
	got := make([]string, 0, len(view))
	for _, e := range view {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"4", "3", "2", "1"}, got)
	assert.Equal(t, original, item.History, "view must not reorder the ledger")

	assert.Equal(t, view, ItemHistoryView(item))

	view[0].Comment = "changed"
	assert.Empty(t, item.History[3].Comment)
}

func TestItemHistoryViewEmpty(t *testing.T) {
	assert.Empty(t, ItemHistoryView(&domain.Item{}))
	assert.NotNil(t, ItemHistoryView(nil))
}

func TestWarehouseItemListing(t *testing.T) {
	_, items := fixture()

	byInput := WarehouseItemListing("wh1", items, OrderInput)
	require.Len(t, byInput, 2)
	assert.Equal(t, "a", byInput[0].ID)
	assert.Equal(t, "b", byInput[1].ID)

	byName := WarehouseItemListing("wh1", items, OrderName)
	assert.Equal(t, "Bolt", byName[0].Name)
	assert.Equal(t, "widget", byName[1].Name)

	byRecency := WarehouseItemListing("wh1", items, OrderRecency)
	assert.Equal(t, "b", byRecency[0].ID)

	byRecency[0].Name = "mutated"
	assert.Equal(t, "Bolt", items[1].Name)

	assert.Empty(t, WarehouseItemListing("nope", items, OrderName))
}

func TestParseListingOrder(t *testing.T) {
	for in, want := range map[string]ListingOrder{"": OrderInput, "name": OrderName, "Recent": OrderRecency} {
		got, ok := ParseListingOrder(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseListingOrder("price")
	assert.False(t, ok)
}

func TestTransactionFeedUnfiltered(t *testing.T) {
	warehouses, items := fixture()

	txs := CollectTransactions(TransactionFeed(warehouses, items, Filter{}))
	assert.Equal(t, []string{"b2", "a2", "c1", "a1", "b1"}, ids(txs))

	first := txs[0]
	assert.Equal(t, "b", first.ItemID)
	assert.Equal(t, "Bolt", first.ItemName)
	assert.Equal(t, "wh1", first.WarehouseID)
	assert.Equal(t, "Main", first.WarehouseName)
}

func TestTransactionFeedFilters(t *testing.T) {
	warehouses, items := fixture()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all keyword", Filter{WarehouseID: AllOption, ItemID: AllOption}, []string{"b2", "a2", "c1", "a1", "b1"}},
		{"warehouse", Filter{WarehouseID: "wh2"}, []string{"c1"}},
		{"item within warehouse", Filter{WarehouseID: "wh1", ItemID: "a"}, []string{"a2", "a1"}},
		{"item ignored without warehouse", Filter{ItemID: "a"}, []string{"b2", "a2", "c1", "a1", "b1"}},
		{"single day", Filter{StartDate: day.Add(15 * time.Hour), EndDate: day.Add(8 * time.Hour)}, []string{"a2", "c1", "a1"}},
		{"start only", Filter{StartDate: day.Add(24 * time.Hour)}, []string{"b2"}},
		{"end only", Filter{EndDate: day.Add(-time.Hour)}, []string{"b1"}},
		{"conjunction", Filter{WarehouseID: "wh1", StartDate: day, EndDate: day}, []string{"a2", "a1"}},
		{"archived warehouse", Filter{WarehouseID: "wh3"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectTransactions(TransactionFeed(warehouses, items, tt.filter))
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTransactionFeedIsRestartable(t *testing.T) {
	warehouses, items := fixture()
	feed := TransactionFeed(warehouses, items, Filter{WarehouseID: "wh1"})

	first := CollectTransactions(feed)
	second := CollectTransactions(feed)
	assert.Equal(t, first, second)

	count := 0
	for range feed {
		count++
		break
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, first, CollectTransactions(feed))

	items[0].History[0].Comment = "edited later"
	assert.Equal(t, first, CollectTransactions(feed), "the feed must not observe later source changes")
}

func TestTransactionFeedEmptyInputs(t *testing.T) {
	assert.Empty(t, CollectTransactions(TransactionFeed(nil, nil, Filter{})))
}

func TestDayBoundsKeepLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	d := time.Date(2024, 3, 10, 1, 30, 0, 0, loc)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), StartOfDay(d))
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999000000, loc), EndOfDay(d))
}

func TestTitle(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    Filter
		warehouse string
		item      string
		want      string
	}{
		{"no filters", Filter{}, "", "", "All Transactions"},
		{"warehouse", Filter{WarehouseID: "wh1"}, "Main", "", "Transactions for Main"},
		{"item", Filter{WarehouseID: "wh1", ItemID: "a"}, "Main", "Widget", "Transactions for Widget in Main"},
		{"item without warehouse", Filter{ItemID: "a"}, "", "Widget", "All Transactions"},
		{"dates", Filter{StartDate: start, EndDate: end}, "", "", "All Transactions from Jan 5, 2024 to Feb 1, 2024"},
		{"warehouse from", Filter{WarehouseID: "wh1", StartDate: start}, "Main", "", "Transactions for Main from Jan 5, 2024"},
		{"missing name falls back to id", Filter{WarehouseID: "wh9"}, "", "", "Transactions for wh9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.filter, tt.warehouse, tt.item))
		})
	}
}

// TestDateFilterProperty checks that a date-bounded feed is exactly the
// subset of the unfiltered feed inside the inclusive day bounds.
func TestDateFilterProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		wh := &domain.Warehouse{ID: "wh", Name: "W"}

		n := rapid.IntRange(0, 30).Draw(t, "entries")
		history := make([]domain.HistoryEntry, 0, n)
		for i := 0; i < n; i++ {
			offset := time.Duration(rapid.Int64Range(0, int64(10*24*time.Hour)).Draw(t, "offset"))
			history = append(history, entry(fmt.Sprint(i), domain.EntryAddStock, 1, i, base.Add(offset)))
		}
		item := &domain.Item{ID: "i", WarehouseID: "wh", Name: "I", History: history}

		d1 := base.Add(time.Duration(rapid.IntRange(0, 10).Draw(t, "d1")) * 24 * time.Hour).Add(time.Duration(rapid.IntRange(0, 23).Draw(t, "h1")) * time.Hour)
		d2 := base.Add(time.Duration(rapid.IntRange(0, 10).Draw(t, "d2")) * 24 * time.Hour).Add(time.Duration(rapid.IntRange(0, 23).Draw(t, "h2")) * time.Hour)

		all := CollectTransactions(TransactionFeed([]*domain.Warehouse{wh}, []*domain.Item{item}, Filter{}))
		got := CollectTransactions(TransactionFeed([]*domain.Warehouse{wh}, []*domain.Item{item}, Filter{StartDate: d1, EndDate: d2}))

		lo, hi := StartOfDay(d1), EndOfDay(d2)
		want := slices.DeleteFunc(slices.Clone(all), func(tx domain.Transaction) bool {
			return tx.Timestamp.Before(lo) || tx.Timestamp.After(hi)
		})

		if !slices.Equal(ids(want), ids(got)) {
			t.Fatalf("filtered feed %v, want %v", ids(got), ids(want))
		}
		for i := 1; i < len(all); i++ {
			if all[i].Timestamp.After(all[i-1].Timestamp) {
				t.Fatalf("feed not in descending order at %d", i)
			}
		}
	})
}
