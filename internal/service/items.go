package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/report"
)

// stockMove is the ledger operation shared by AddStock and ConsumeStock
type stockMove func(item *domain.Item, amount int, comment string) (*domain.Item, domain.HistoryEntry, error)

// CreateItem stocks a new item in an active warehouse
func (s *WarehouseService) CreateItem(ctx context.Context, warehouseID, name string, initialQuantity int) (_ *domain.Item, err error) {
	ctx, span := s.startSpan(ctx, "create_item",
		attribute.String("warehouse.id", warehouseID),
		attribute.Int("initial_quantity", initialQuantity),
	)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(warehouseID) == "" {
		return nil, domain.NewValidationError("warehouse_id", "is required")
	}

	// The warehouse lock spans the archived check and the item write so a
	// concurrent ArchiveWarehouse either sees the new item or rejects it.
	unlock := s.warehouseLocks.Lock(warehouseID)
	defer unlock()

	wh, err := s.repo.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh.IsArchived {
		return nil, domain.NewValidationError("warehouse", "is archived")
	}

	item, err := s.engine.CreateItem(warehouseID, name, initialQuantity)
	if err != nil {
		return nil, err
	}

	if err := s.repo.PutItem(ctx, item); err != nil {
		s.logger.WithError(err).WithField("item_name", item.Name).Error("failed to create item")
		return nil, err
	}
	if err := s.repo.PutWarehouse(ctx, s.policy.Touch(wh)); err != nil {
		s.logger.WithError(err).WithField("warehouse_id", warehouseID).Warn("failed to refresh warehouse updated_at")
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":      item.ID,
		"item_name":    item.Name,
		"warehouse_id": warehouseID,
		"quantity":     item.Quantity,
	}).Info("item created")
	s.publish(ctx, events.Event{
		Type:          events.ItemCreated,
		WarehouseID:   warehouseID,
		ItemID:        item.ID,
		QuantityAfter: item.Quantity,
	})
	return item, nil
}

// GetItem loads a single item, archived or not
func (s *WarehouseService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("item_id", "is required")
	}
	return s.repo.GetItem(ctx, id)
}

// AddStock records a stock addition on an active item
func (s *WarehouseService) AddStock(ctx context.Context, itemID string, amount int, comment string) (*domain.Item, domain.HistoryEntry, error) {
	return s.moveStock(ctx, "add_stock", events.StockAdded, s.engine.AddStock, itemID, amount, comment)
}

// ConsumeStock records a stock consumption on an active item. The
// availability check and the write happen under the item lock.
func (s *WarehouseService) ConsumeStock(ctx context.Context, itemID string, amount int, comment string) (*domain.Item, domain.HistoryEntry, error) {
	return s.moveStock(ctx, "consume_stock", events.StockConsumed, s.engine.ConsumeStock, itemID, amount, comment)
}

func (s *WarehouseService) moveStock(
	ctx context.Context,
	op string,
	eventType events.EventType,
	move stockMove,
	itemID string,
	amount int,
	comment string,
) (_ *domain.Item, _ domain.HistoryEntry, err error) {
	ctx, span := s.startSpan(ctx, op,
		attribute.String("item.id", itemID),
		attribute.Int("amount", amount),
	)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(itemID) == "" {
		return nil, domain.HistoryEntry{}, domain.NewValidationError("item_id", "is required")
	}

	updated, entry, err := s.moveStockLocked(ctx, move, itemID, amount, comment)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"item_id": itemID,
			"amount":  amount,
			"op":      op,
		}).Warn("stock movement rejected")
		return nil, domain.HistoryEntry{}, err
	}
	s.touchWarehouse(ctx, updated.WarehouseID)

	s.logger.WithFields(logrus.Fields{
		"item_id":         updated.ID,
		"warehouse_id":    updated.WarehouseID,
		"change":          entry.Change,
		"quantity_before": entry.QuantityBefore,
		"quantity_after":  entry.QuantityAfter,
	}).Info("stock updated")
	s.publish(ctx, events.Event{
		Type:           eventType,
		WarehouseID:    updated.WarehouseID,
		ItemID:         updated.ID,
		QuantityBefore: entry.QuantityBefore,
		QuantityAfter:  entry.QuantityAfter,
	})
	return updated, entry, nil
}

func (s *WarehouseService) moveStockLocked(ctx context.Context, move stockMove, itemID string, amount int, comment string) (*domain.Item, domain.HistoryEntry, error) {
	unlock := s.itemLocks.Lock(itemID)
	defer unlock()

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, domain.HistoryEntry{}, err
	}

	// Item lock first, then warehouse lock. No path takes them the other way round.
	unlockWarehouse := s.warehouseLocks.Lock(item.WarehouseID)
	defer unlockWarehouse()

	if err := s.checkStockable(ctx, item); err != nil {
		return nil, domain.HistoryEntry{}, err
	}

	updated, entry, err := move(item, amount, comment)
	if err != nil {
		return nil, domain.HistoryEntry{}, err
	}
	if err := s.repo.PutItem(ctx, updated); err != nil {
		return nil, domain.HistoryEntry{}, err
	}
	return updated, entry, nil
}

// checkStockable rejects stock movements on archived items and on items of
// archived warehouses. Callers hold the item and warehouse locks.
func (s *WarehouseService) checkStockable(ctx context.Context, item *domain.Item) error {
	if item.IsArchived {
		return domain.NewValidationError("item", "is archived")
	}
	wh, err := s.repo.GetWarehouse(ctx, item.WarehouseID)
	if err != nil {
		return err
	}
	if wh.IsArchived {
		return domain.NewValidationError("warehouse", "is archived")
	}
	return nil
}

// ArchiveItem archives a single item and refreshes its warehouse
func (s *WarehouseService) ArchiveItem(ctx context.Context, id string) (_ *domain.Item, err error) {
	ctx, span := s.startSpan(ctx, "archive_item", attribute.String("item.id", id))
	defer func() { endSpan(span, err) }()

	unlock := s.itemLocks.Lock(id)
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	archived := s.policy.ArchiveItem(item)
	changed := !item.IsArchived
	if changed {
		err = s.repo.PutItem(ctx, archived)
	}
	unlock()
	if err != nil {
		s.logger.WithError(err).WithField("item_id", id).Error("failed to archive item")
		return nil, err
	}

	if changed {
		s.touchWarehouse(ctx, archived.WarehouseID)
		s.logger.WithField("item_id", id).Info("item archived")
		s.publish(ctx, events.Event{Type: events.ItemArchived, WarehouseID: archived.WarehouseID, ItemID: id})
	}
	return archived, nil
}

// archiveItemLocked archives one cascade target. It reports whether the item
// changed; an item archived concurrently counts as done.
func (s *WarehouseService) archiveItemLocked(ctx context.Context, id string) (bool, error) {
	unlock := s.itemLocks.Lock(id)
	defer unlock()

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	if item.IsArchived {
		return false, nil
	}
	return true, s.repo.PutItem(ctx, s.policy.ArchiveItem(item))
}

// RestoreItem un-archives an item and refreshes its parent warehouse. The
// warehouse itself is not restored.
func (s *WarehouseService) RestoreItem(ctx context.Context, id string) (_ *domain.Item, err error) {
	ctx, span := s.startSpan(ctx, "restore_item", attribute.String("item.id", id))
	defer func() { endSpan(span, err) }()

	unlock := s.itemLocks.Lock(id)
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	restored := s.policy.RestoreItem(item)
	err = s.repo.PutItem(ctx, restored)
	unlock()
	if err != nil {
		s.logger.WithError(err).WithField("item_id", id).Error("failed to restore item")
		return nil, err
	}

	s.touchWarehouse(ctx, restored.WarehouseID)
	s.logger.WithField("item_id", id).Info("item restored")
	s.publish(ctx, events.Event{Type: events.ItemRestored, WarehouseID: restored.WarehouseID, ItemID: id})
	return restored, nil
}

// ItemHistory returns the item and its history newest first
func (s *WarehouseService) ItemHistory(ctx context.Context, id string) (*domain.Item, []domain.HistoryEntry, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return item, report.ItemHistoryView(item), nil
}
