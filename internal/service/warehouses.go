package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/archive"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/report"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/security"
)

// WarehouseUpdate carries the editable warehouse fields. Nil fields are left unchanged.
type WarehouseUpdate struct {
	Name        *string
	Description *string
}

// ArchivedListing lists everything currently archived
type ArchivedListing struct {
	Warehouses []*domain.Warehouse
	Items      []*domain.Item
}

// clean returns a copy of u with trimmed, validated fields
func (u WarehouseUpdate) clean() (WarehouseUpdate, error) {
	var out WarehouseUpdate
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := security.ValidateName(name, "name"); err != nil {
			return out, err
		}
		out.Name = &name
	}
	if u.Description != nil {
		description := security.CleanText(*u.Description)
		if err := security.ValidateLength(description, "description", security.MaxDescriptionLength); err != nil {
			return out, err
		}
		out.Description = &description
	}
	return out, nil
}

func cleanWarehouseFields(name, description string) (string, string, error) {
	cleaned, err := WarehouseUpdate{Name: &name, Description: &description}.clean()
	if err != nil {
		return "", "", err
	}
	return *cleaned.Name, *cleaned.Description, nil
}

// CreateWarehouse creates a new active warehouse
func (s *WarehouseService) CreateWarehouse(ctx context.Context, name, description string) (_ *domain.Warehouse, err error) {
	ctx, span := s.startSpan(ctx, "create_warehouse")
	defer func() { endSpan(span, err) }()

	name, description, err = cleanWarehouseFields(name, description)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	wh := &domain.Warehouse{
		ID:          s.ids.NewID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.PutWarehouse(ctx, wh); err != nil {
		s.logger.WithError(err).WithField("warehouse_name", name).Error("failed to create warehouse")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"warehouse_id":   wh.ID,
		"warehouse_name": wh.Name,
	}).Info("warehouse created")
	s.publish(ctx, events.Event{Type: events.WarehouseCreated, WarehouseID: wh.ID})
	return wh, nil
}

// UpdateWarehouse renames or re-describes an active warehouse
func (s *WarehouseService) UpdateWarehouse(ctx context.Context, id string, update WarehouseUpdate) (_ *domain.Warehouse, err error) {
	ctx, span := s.startSpan(ctx, "update_warehouse", attribute.String("warehouse.id", id))
	defer func() { endSpan(span, err) }()

	update, err = update.clean()
	if err != nil {
		return nil, err
	}

	unlock := s.warehouseLocks.Lock(id)
	defer unlock()

	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if wh.IsArchived {
		return nil, domain.NewValidationError("warehouse", "is archived")
	}

	updated := wh.Clone()
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	updated = s.policy.Touch(updated)

	if err := s.repo.PutWarehouse(ctx, updated); err != nil {
		s.logger.WithError(err).WithField("warehouse_id", id).Error("failed to update warehouse")
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.WarehouseUpdated, WarehouseID: id})
	return updated, nil
}

// GetWarehouse loads a single warehouse, archived or not
func (s *WarehouseService) GetWarehouse(ctx context.Context, id string) (*domain.Warehouse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("warehouse_id", "is required")
	}
	return s.repo.GetWarehouse(ctx, id)
}

// SearchWarehouses finds active warehouses by name, most recently active first
func (s *WarehouseService) SearchWarehouses(ctx context.Context, term string, limit int) (_ []*domain.Warehouse, err error) {
	ctx, span := s.startSpan(ctx, "search_warehouses", attribute.Int("limit", limit))
	defer func() { endSpan(span, err) }()

	warehouses, err := s.repo.LoadWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	return report.SearchWarehouses(warehouses, term, limit), nil
}

// ListArchived returns archived warehouses and items, most recently changed first
func (s *WarehouseService) ListArchived(ctx context.Context) (_ *ArchivedListing, err error) {
	ctx, span := s.startSpan(ctx, "list_archived")
	defer func() { endSpan(span, err) }()

	warehouses, err := s.repo.LoadWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.LoadItems(ctx)
	if err != nil {
		return nil, err
	}
	return &ArchivedListing{
		Warehouses: report.ArchivedWarehouses(warehouses),
		Items:      report.ArchivedItems(items),
	}, nil
}

// ArchiveWarehouse archives the warehouse and then each of its active items.
// The warehouse write commits first; items are archived one at a time under
// their own locks. If some item writes fail the returned error is a
// *domain.PartialCascadeError and the archived warehouse is still returned.
func (s *WarehouseService) ArchiveWarehouse(ctx context.Context, id string) (_ *domain.Warehouse, err error) {
	ctx, span := s.startSpan(ctx, "archive_warehouse", attribute.String("warehouse.id", id))
	defer func() { endSpan(span, err) }()

	archived, err := s.markWarehouseArchived(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.WarehouseArchived, WarehouseID: id})

	items, err := s.repo.ListItemsByWarehouse(ctx, id)
	if err != nil {
		return archived, &domain.PartialCascadeError{WarehouseID: id, Err: err}
	}

	targets := archive.CascadeTargets(id, items)
	span.SetAttributes(attribute.Int("cascade.targets", len(targets)))

	var done, failed []string
	var firstErr error
	for _, itemID := range targets {
		changed, err := s.archiveItemLocked(ctx, itemID)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"warehouse_id": id,
				"item_id":      itemID,
			}).Error("failed to archive item during warehouse cascade")
			failed = append(failed, itemID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done = append(done, itemID)
		if changed {
			s.publish(ctx, events.Event{Type: events.ItemArchived, WarehouseID: id, ItemID: itemID})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"warehouse_id":   id,
		"items_archived": len(done),
		"items_failed":   len(failed),
	}).Info("warehouse archived")

	if len(failed) > 0 {
		return archived, &domain.PartialCascadeError{
			WarehouseID: id,
			Archived:    done,
			Failed:      failed,
			Err:         firstErr,
		}
	}
	return archived, nil
}

func (s *WarehouseService) markWarehouseArchived(ctx context.Context, id string) (*domain.Warehouse, error) {
	unlock := s.warehouseLocks.Lock(id)
	defer unlock()

	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	archived := s.policy.MarkWarehouseArchived(wh)
	if err := s.repo.PutWarehouse(ctx, archived); err != nil {
		s.logger.WithError(err).WithField("warehouse_id", id).Error("failed to archive warehouse")
		return nil, err
	}
	return archived, nil
}

// RestoreWarehouse un-archives the warehouse. Its items are left archived.
func (s *WarehouseService) RestoreWarehouse(ctx context.Context, id string) (_ *domain.Warehouse, err error) {
	ctx, span := s.startSpan(ctx, "restore_warehouse", attribute.String("warehouse.id", id))
	defer func() { endSpan(span, err) }()

	unlock := s.warehouseLocks.Lock(id)
	defer unlock()

	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	restored := s.policy.RestoreWarehouse(wh)
	if err := s.repo.PutWarehouse(ctx, restored); err != nil {
		s.logger.WithError(err).WithField("warehouse_id", id).Error("failed to restore warehouse")
		return nil, err
	}

	s.logger.WithField("warehouse_id", id).Info("warehouse restored")
	s.publish(ctx, events.Event{Type: events.WarehouseRestored, WarehouseID: id})
	return restored, nil
}

// WarehouseListing returns the warehouse and its active items in the requested order
func (s *WarehouseService) WarehouseListing(ctx context.Context, id string, order report.ListingOrder) (_ *domain.Warehouse, _ []*domain.Item, err error) {
	ctx, span := s.startSpan(ctx, "warehouse_listing", attribute.String("warehouse.id", id))
	defer func() { endSpan(span, err) }()

	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItemsByWarehouse(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return wh, report.WarehouseItemListing(id, items, order), nil
}
