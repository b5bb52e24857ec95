package ledger

import (
	"strings"
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/security"
)

// InitialEntryComment is recorded on the CREATE_ITEM entry of every new item
const InitialEntryComment = "Initial item creation"

// Engine applies validated stock movements to items. It never mutates the
// item it is given: every operation returns an updated deep copy, so a
// rejected movement leaves the caller's state untouched.
type Engine struct {
	clock Clock
	ids   IDGenerator
}

// NewEngine creates a ledger engine. Nil collaborators fall back to the
// system clock and UUID identifiers.
func NewEngine(clock Clock, ids IDGenerator) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Engine{clock: clock, ids: ids}
}

// CreateItem builds a new item whose history starts with a CREATE_ITEM entry
func (e *Engine) CreateItem(warehouseID, name string, initialQuantity int) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(warehouseID) == "" {
		return nil, domain.NewValidationError("warehouse_id", "is required")
	}
	if err := security.ValidateName(name, "name"); err != nil {
		return nil, err
	}
	if initialQuantity <= 0 {
		return nil, domain.NewValidationError("initial_quantity", "must be a positive integer")
	}

	now := e.clock.Now()
	item := &domain.Item{
		ID:          e.ids.NewID(),
		WarehouseID: warehouseID,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.append(item, domain.EntryCreateItem, initialQuantity, InitialEntryComment, now)
	return item, nil
}

// AddStock appends an ADD_STOCK entry of +amount
func (e *Engine) AddStock(item *domain.Item, amount int, comment string) (*domain.Item, domain.HistoryEntry, error) {
	if item == nil {
		return nil, domain.HistoryEntry{}, domain.NewValidationError("item", "is required")
	}
	if amount <= 0 {
		return nil, domain.HistoryEntry{}, domain.NewValidationError("amount", "must be a positive integer")
	}
	if err := security.ValidateLength(comment, "comment", security.MaxCommentLength); err != nil {
		return nil, domain.HistoryEntry{}, err
	}

	updated := item.Clone()
	entry := e.append(updated, domain.EntryAddStock, amount, comment, e.clock.Now())
	return updated, entry, nil
}

// ConsumeStock appends a CONSUME_STOCK entry of -amount. The availability
// check reads the same quantity the entry is computed from.
func (e *Engine) ConsumeStock(item *domain.Item, amount int, comment string) (*domain.Item, domain.HistoryEntry, error) {
	if item == nil {
		return nil, domain.HistoryEntry{}, domain.NewValidationError("item", "is required")
	}
	if amount <= 0 {
		return nil, domain.HistoryEntry{}, domain.NewValidationError("amount", "must be a positive integer")
	}
	if err := security.ValidateLength(comment, "comment", security.MaxCommentLength); err != nil {
		return nil, domain.HistoryEntry{}, err
	}

	updated := item.Clone()
	if amount > updated.Quantity {
		return nil, domain.HistoryEntry{}, &domain.InsufficientStockError{
			ItemID:    item.ID,
			Requested: amount,
			Available: updated.Quantity,
		}
	}

	entry := e.append(updated, domain.EntryConsumeStock, -amount, comment, e.clock.Now())
	return updated, entry, nil
}

// append records a movement on item in place. Timestamps never go backwards
// within one item's history even if the clock does.
func (e *Engine) append(item *domain.Item, entryType domain.EntryType, change int, comment string, now time.Time) domain.HistoryEntry {
	if last, ok := item.LastEntry(); ok && last.Timestamp.After(now) {
		now = last.Timestamp
	}

	entry := domain.HistoryEntry{
		ID:             e.ids.NewID(),
		Type:           entryType,
		Change:         change,
		QuantityBefore: item.Quantity,
		QuantityAfter:  item.Quantity + change,
		Comment:        security.CleanText(comment),
		Timestamp:      now,
	}

	item.History = append(item.History, entry)
	item.Quantity = entry.QuantityAfter
	if now.After(item.UpdatedAt) {
		item.UpdatedAt = now
	}
	return entry
}
