package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/ledger"
)

// SearchWarehouses returns copies of the active warehouses whose name contains
// term (case-insensitive), most recently active first. A limit <= 0 returns
// every match; an empty term matches all warehouses.
func SearchWarehouses(warehouses []*domain.Warehouse, term string, limit int) []*domain.Warehouse {
	needle := strings.ToLower(strings.TrimSpace(term))

	matches := make([]*domain.Warehouse, 0)
	for _, wh := range warehouses {
		if wh == nil || wh.IsArchived {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(wh.Name), needle) {
			continue
		}
		matches = append(matches, wh.Clone())
	}

	slices.SortStableFunc(matches, func(a, b *domain.Warehouse) int {
		return b.LastActivity().Compare(a.LastActivity())
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ArchivedWarehouses returns copies of archived warehouses, most recently changed first
func ArchivedWarehouses(warehouses []*domain.Warehouse) []*domain.Warehouse {
	out := make([]*domain.Warehouse, 0)
	for _, wh := range warehouses {
		if wh != nil && wh.IsArchived {
			out = append(out, wh.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Warehouse) int {
		return b.LastActivity().Compare(a.LastActivity())
	})
	return out
}

// ArchivedItems returns copies of archived items, most recently changed first
func ArchivedItems(items []*domain.Item) []*domain.Item {
	out := make([]*domain.Item, 0)
	for _, item := range items {
		if item != nil && item.IsArchived {
			out = append(out, item.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Item) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// SortReports orders archived reports by print time, newest first
func SortReports(reports []*domain.ArchivedReport) {
	slices.SortStableFunc(reports, func(a, b *domain.ArchivedReport) int {
		return b.PrintedAt.Compare(a.PrintedAt)
	})
}

// HistorySummary renders an item's ledger as plain text, oldest entry first.
// The output is deterministic for a given item and feeds stock advisors.
func HistorySummary(item *domain.Item) string {
	if item == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Item: %s\n", item.Name)
	fmt.Fprintf(&b, "Current quantity: %d\n", item.Quantity)

	totals := ledger.Sum(item.History)
	fmt.Fprintf(&b, "Totals: created %d, added %d, consumed %d", totals.Created, totals.Added, totals.Consumed)
	if totals.AdjustedNet != 0 {
		fmt.Fprintf(&b, ", adjusted %+d", totals.AdjustedNet)
	}
	b.WriteString("\n")

	if len(item.History) == 0 {
		b.WriteString("No transactions recorded.\n")
		return b.String()
	}

	b.WriteString("Transactions:\n")
	for _, entry := range item.History {
		fmt.Fprintf(&b, "- %s %s %+d (%d -> %d)",
			entry.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
			entry.Type.Label(), entry.Change, entry.QuantityBefore, entry.QuantityAfter)
		if entry.Comment != "" {
			fmt.Fprintf(&b, ": %s", entry.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}
