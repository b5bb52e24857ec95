package domain

import (
	"time"
)

// Warehouse is a named storage location that owns a set of items
type Warehouse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns an independent copy of the warehouse
func (w *Warehouse) Clone() *Warehouse {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// LastActivity returns UpdatedAt, falling back to CreatedAt for records that never changed
func (w *Warehouse) LastActivity() time.Time {
	if !w.UpdatedAt.IsZero() {
		return w.UpdatedAt
	}
	return w.CreatedAt
}

// EntryType identifies the kind of stock movement recorded by a history entry
type EntryType string

const (
	EntryCreateItem   EntryType = "CREATE_ITEM"
	EntryAddStock     EntryType = "ADD_STOCK"
	EntryConsumeStock EntryType = "CONSUME_STOCK"
	// EntryAdjustStock is reserved for direct corrections. Nothing produces it yet,
	// but replay and verification fold it like any other signed change.
	EntryAdjustStock EntryType = "ADJUST_STOCK"
)

// Valid reports whether t is one of the known entry types
func (t EntryType) Valid() bool {
	switch t {
	case EntryCreateItem, EntryAddStock, EntryConsumeStock, EntryAdjustStock:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name used on screens and printouts
func (t EntryType) Label() string {
	switch t {
	case EntryCreateItem:
		return "Item Created"
	case EntryAddStock:
		return "Stock Added"
	case EntryConsumeStock:
		return "Stock Consumed"
	case EntryAdjustStock:
		return "Stock Adjusted"
	default:
		return string(t)
	}
}

// HistoryEntry is one immutable ledger record
type HistoryEntry struct {
	ID             string    `json:"id"`
	Type           EntryType `json:"type"`
	Change         int       `json:"change"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Comment        string    `json:"comment,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Item is a stocked good belonging to exactly one warehouse. Quantity is
// derived from History and must equal the QuantityAfter of the last entry.
type Item struct {
	ID          string         `json:"id"`
	WarehouseID string         `json:"warehouse_id"`
	Name        string         `json:"name"`
	Quantity    int            `json:"quantity"`
	History     []HistoryEntry `json:"history"`
	IsArchived  bool           `json:"is_archived"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the item, history included
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.History = CloneHistory(i.History)
	return &c
}

// LastEntry returns the most recently appended history entry
func (i *Item) LastEntry() (HistoryEntry, bool) {
	if len(i.History) == 0 {
		return HistoryEntry{}, false
	}
	return i.History[len(i.History)-1], true
}

// IsEmpty checks if the item has no stock
func (i *Item) IsEmpty() bool {
	return i.Quantity <= 0
}

// CloneHistory copies a history slice so the result shares no backing array with the input
func CloneHistory(history []HistoryEntry) []HistoryEntry {
	if history == nil {
		return nil
	}
	out := make([]HistoryEntry, len(history))
	copy(out, history)
	return out
}
