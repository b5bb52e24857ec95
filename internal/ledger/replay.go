package ledger

import (
	"fmt"
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

// InconsistencyError describes the first broken link found in an item's ledger
type InconsistencyError struct {
	ItemID string
	Index  int
	Reason string
}

// Error names the item only when it is known; Replay works on bare history
func (e *InconsistencyError) Error() string {
	subject := "ledger"
	if e.ItemID != "" {
		subject = fmt.Sprintf("ledger of item '%s'", e.ItemID)
	}
	if e.Index < 0 {
		return fmt.Sprintf("%s is inconsistent: %s", subject, e.Reason)
	}
	return fmt.Sprintf("%s is inconsistent at entry %d: %s", subject, e.Index, e.Reason)
}

// Replay folds the signed changes of history in insertion order and returns
// the resulting quantity. Every known entry type is folded, ADJUST_STOCK
// included. A running balance below zero or an unknown type is an error.
func Replay(history []domain.HistoryEntry) (int, error) {
	balance := 0
	for i, entry := range history {
		if !entry.Type.Valid() {
			return 0, &InconsistencyError{Index: i, Reason: fmt.Sprintf("unknown entry type %q", entry.Type)}
		}
		balance += entry.Change
		if balance < 0 {
			return 0, &InconsistencyError{Index: i, Reason: fmt.Sprintf("balance drops to %d", balance)}
		}
	}
	return balance, nil
}

// BalanceAt reconstructs the quantity held at instant t: the fold of every
// entry whose timestamp is not after t. Entries are taken in insertion order.
func BalanceAt(history []domain.HistoryEntry, t time.Time) int {
	balance := 0
	for _, entry := range history {
		if entry.Timestamp.After(t) {
			break
		}
		balance += entry.Change
	}
	return balance
}

// Totals summarizes an item's movements by direction
type Totals struct {
	Created     int
	Added       int
	Consumed    int
	AdjustedNet int
}

// Sum aggregates history per entry type. Consumed is reported as a positive number.
func Sum(history []domain.HistoryEntry) Totals {
	var t Totals
	for _, entry := range history {
		switch entry.Type {
		case domain.EntryCreateItem:
			t.Created += entry.Change
		case domain.EntryAddStock:
			t.Added += entry.Change
		case domain.EntryConsumeStock:
			t.Consumed -= entry.Change
		case domain.EntryAdjustStock:
			t.AdjustedNet += entry.Change
		}
	}
	return t
}

// Verify checks every ledger invariant of item: known entry types,
// non-negative balances, after = before + change, the before/after chain,
// non-decreasing timestamps and quantity == last.after.
func Verify(item *domain.Item) error {
	if item == nil {
		return &InconsistencyError{Index: -1, Reason: "item is nil"}
	}

	fail := func(index int, format string, args ...any) error {
		return &InconsistencyError{ItemID: item.ID, Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	if len(item.History) == 0 {
		if item.Quantity != 0 {
			return fail(-1, "quantity %d with empty history", item.Quantity)
		}
		return nil
	}

	if item.Quantity < 0 {
		return fail(-1, "negative quantity %d", item.Quantity)
	}

	for i, entry := range item.History {
		if !entry.Type.Valid() {
			return fail(i, "unknown entry type %q", entry.Type)
		}
		if entry.QuantityBefore < 0 || entry.QuantityAfter < 0 {
			return fail(i, "negative quantity (before %d, after %d)", entry.QuantityBefore, entry.QuantityAfter)
		}
		if entry.QuantityBefore+entry.Change != entry.QuantityAfter {
			return fail(i, "%d %+d != %d", entry.QuantityBefore, entry.Change, entry.QuantityAfter)
		}
		if i == 0 {
			if entry.QuantityBefore != 0 {
				return fail(i, "first entry starts at %d instead of 0", entry.QuantityBefore)
			}
			continue
		}

		prev := item.History[i-1]
		if prev.QuantityAfter != entry.QuantityBefore {
			return fail(i, "chain broken: previous after %d, before %d", prev.QuantityAfter, entry.QuantityBefore)
		}
		if entry.Timestamp.Before(prev.Timestamp) {
			return fail(i, "timestamp %s precedes previous entry %s", entry.Timestamp.Format(time.RFC3339Nano), prev.Timestamp.Format(time.RFC3339Nano))
		}
	}

	last := item.History[len(item.History)-1]
	if item.Quantity != last.QuantityAfter {
		return fail(-1, "quantity %d does not match last entry %d", item.Quantity, last.QuantityAfter)
	}

	return nil
}
