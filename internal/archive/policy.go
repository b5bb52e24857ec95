// Package archive governs soft deletion of warehouses and items and the
// write-once snapshots taken when reports are printed.
package archive

import (
	"context"
	"fmt"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/ledger"
)

// Policy applies archive and restore transitions. Every method returns
// updated copies and leaves its arguments untouched.
type Policy struct {
	clock ledger.Clock
	ids   ledger.IDGenerator
}

// NewPolicy creates an archival policy. Nil collaborators fall back to the
// system clock and UUID identifiers.
func NewPolicy(clock ledger.Clock, ids ledger.IDGenerator) *Policy {
	if clock == nil {
		clock = ledger.SystemClock{}
	}
	if ids == nil {
		ids = ledger.UUIDGenerator{}
	}
	return &Policy{clock: clock, ids: ids}
}

// MarkWarehouseArchived archives the warehouse itself without touching its items
func (p *Policy) MarkWarehouseArchived(wh *domain.Warehouse) *domain.Warehouse {
	updated := wh.Clone()
	updated.IsArchived = true
	updated.UpdatedAt = p.clock.Now()
	return updated
}

// CascadeTargets lists the ids of the warehouse's items that an archive must reach
func CascadeTargets(warehouseID string, items []*domain.Item) []string {
	var targets []string
	for _, item := range items {
		if item != nil && item.WarehouseID == warehouseID && !item.IsArchived {
			targets = append(targets, item.ID)
		}
	}
	return targets
}

// RestoreWarehouse un-archives the warehouse. Its items stay archived and
// must be restored one by one.
func (p *Policy) RestoreWarehouse(wh *domain.Warehouse) *domain.Warehouse {
	updated := wh.Clone()
	updated.IsArchived = false
	updated.UpdatedAt = p.clock.Now()
	return updated
}

// ArchiveItem archives a single item. Archiving an archived item is a no-op.
func (p *Policy) ArchiveItem(item *domain.Item) *domain.Item {
	updated := item.Clone()
	if updated.IsArchived {
		return updated
	}
	updated.IsArchived = true
	updated.UpdatedAt = p.clock.Now()
	return updated
}

// RestoreItem un-archives item. The parent warehouse is refreshed
// separately with Touch under the warehouse's own lock.
func (p *Policy) RestoreItem(item *domain.Item) *domain.Item {
	updated := item.Clone()
	updated.IsArchived = false
	updated.UpdatedAt = p.clock.Now()
	return updated
}

// Touch refreshes a warehouse's updatedAt after one of its items changed
func (p *Policy) Touch(wh *domain.Warehouse) *domain.Warehouse {
	updated := wh.Clone()
	if now := p.clock.Now(); now.After(updated.UpdatedAt) {
		updated.UpdatedAt = now
	}
	return updated
}

// ItemSnapshot deep-copies an item and its history for an ITEM report
func ItemSnapshot(wh *domain.Warehouse, item *domain.Item) domain.ItemSnapshot {
	snap := domain.ItemSnapshot{
		ItemID:   item.ID,
		ItemName: item.Name,
		Quantity: item.Quantity,
		History:  domain.CloneHistory(item.History),
	}
	if wh != nil {
		snap.WarehouseID = wh.ID
		snap.WarehouseName = wh.Name
	} else {
		snap.WarehouseID = item.WarehouseID
	}
	return snap
}

// WarehouseSnapshot records the name and quantity of each active item of wh
func WarehouseSnapshot(wh *domain.Warehouse, items []*domain.Item) domain.WarehouseSnapshot {
	snap := domain.WarehouseSnapshot{
		WarehouseID:          wh.ID,
		WarehouseName:        wh.Name,
		WarehouseDescription: wh.Description,
		Items:                []domain.StockLine{},
	}
	for _, item := range items {
		if item == nil || item.IsArchived || item.WarehouseID != wh.ID {
			continue
		}
		snap.Items = append(snap.Items, domain.StockLine{Name: item.Name, Quantity: item.Quantity})
	}
	return snap
}

// TransactionsSnapshot copies a filtered transaction list under its title
func TransactionsSnapshot(title string, txs []domain.Transaction) domain.TransactionsSnapshot {
	copied := make([]domain.Transaction, len(txs))
	copy(copied, txs)
	return domain.TransactionsSnapshot{Title: title, Transactions: copied}
}

// CreateReportSnapshot wraps a deep copy of snap in a new ArchivedReport
// printed by the caller identified in ctx.
func (p *Policy) CreateReportSnapshot(ctx context.Context, snap domain.Snapshot) (*domain.ArchivedReport, error) {
	if snap == nil {
		return nil, domain.NewValidationError("snapshot", "is required")
	}

	claims, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot record printed report: %w", err)
	}

	return &domain.ArchivedReport{
		ID:        p.ids.NewID(),
		PrintedBy: claims.DisplayName(),
		PrintedAt: p.clock.Now(),
		Snapshot:  domain.CloneSnapshot(snap),
	}, nil
}
