package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestEntryTypeValid(t *testing.T) {
	tests := []struct {
		name     string
		t        EntryType
		expected bool
	}{
		{name: "create item", t: EntryCreateItem, expected: true},
		{name: "add stock", t: EntryAddStock, expected: true},
		{name: "consume stock", t: EntryConsumeStock, expected: true},
		{name: "adjust stock is reserved but valid", t: EntryAdjustStock, expected: true},
		{name: "warehouse events are not ledger entries", t: EntryType("CREATE_WAREHOUSE"), expected: false},
		{name: "empty", t: EntryType(""), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.t.Valid(); got != tt.expected {
				t.Errorf("Valid() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestEntryTypeLabel(t *testing.T) {
	if got := EntryConsumeStock.Label(); got != "Stock Consumed" {
		t.Errorf("Label() = %q", got)
	}
	if got := EntryType("SOMETHING_ELSE").Label(); got != "SOMETHING_ELSE" {
		t.Errorf("Label() for unknown type = %q", got)
	}
}

func TestItemCloneIsDeep(t *testing.T) {
	original := &Item{
		ID:       "item-1",
		Name:     "Widget",
		Quantity: 10,
		History: []HistoryEntry{
			{ID: "h1", Type: EntryCreateItem, Change: 10, QuantityAfter: 10, Timestamp: time.Now()},
		},
	}

	clone := original.Clone()
	clone.History[0].Comment = "changed"
	clone.History = append(clone.History, HistoryEntry{ID: "h2"})
	clone.Quantity = 99

	if original.History[0].Comment != "" {
		t.Errorf("mutating clone history leaked into original: %q", original.History[0].Comment)
	}
	if len(original.History) != 1 {
		t.Errorf("original history length = %d, expected 1", len(original.History))
	}
	if original.Quantity != 10 {
		t.Errorf("original quantity = %d, expected 10", original.Quantity)
	}
}

func TestItemLastEntry(t *testing.T) {
	item := &Item{}
	if _, ok := item.LastEntry(); ok {
		t.Fatal("expected no last entry on empty history")
	}

	item.History = []HistoryEntry{{ID: "a"}, {ID: "b"}}
	last, ok := item.LastEntry()
	if !ok || last.ID != "b" {
		t.Errorf("LastEntry() = %+v, %v", last, ok)
	}
}

func TestWarehouseLastActivity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := &Warehouse{CreatedAt: created}
	if !w.LastActivity().Equal(created) {
		t.Errorf("expected fallback to CreatedAt")
	}

	updated := created.Add(time.Hour)
	w.UpdatedAt = updated
	if !w.LastActivity().Equal(updated) {
		t.Errorf("expected UpdatedAt")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "insufficient stock carries available quantity",
			err:      &InsufficientStockError{ItemID: "x", Requested: 15, Available: 10},
			expected: "Not enough stock: only 10 available.",
		},
		{
			name:     "wrapped not found",
			err:      fmt.Errorf("loading: %w", &NotFoundError{Kind: KindItem, ID: "x"}),
			expected: "The item no longer exists. Refresh and try again.",
		},
		{
			name:     "validation",
			err:      NewValidationError("name", "must not be empty"),
			expected: "invalid name: must not be empty",
		},
		{
			name:     "persistence",
			err:      &PersistenceError{Op: "save items", Err: errors.New("disk full")},
			expected: "Could not save or load data. Please try again.",
		},
		{
			name:     "partial cascade is distinct from persistence",
			err:      &PartialCascadeError{WarehouseID: "w", Archived: []string{"a"}, Failed: []string{"b"}, Err: &PersistenceError{Op: "put item", Err: errors.New("boom")}},
			expected: "Warehouse archived, but 1 of its items could not be archived.",
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			expected: "Something went wrong.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
