package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/ledger"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/security"
)

// Dataset is the complete persisted state, used for backup and restore
type Dataset struct {
	Warehouses []*domain.Warehouse      `json:"warehouses"`
	Items      []*domain.Item           `json:"items"`
	Reports    []*domain.ArchivedReport `json:"archived_reports"`
}

// LedgerProblem is one item whose ledger failed verification
type LedgerProblem struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// Export reads every warehouse, item and archived report
func (s *WarehouseService) Export(ctx context.Context) (_ *Dataset, err error) {
	ctx, span := s.startSpan(ctx, "export")
	defer func() { endSpan(span, err) }()

	warehouses, err := s.repo.LoadWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.LoadItems(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.repo.LoadArchivedReports(ctx)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("warehouses", len(warehouses)),
		attribute.Int("items", len(items)),
		attribute.Int("reports", len(reports)),
	)
	return &Dataset{Warehouses: warehouses, Items: items, Reports: reports}, nil
}

// Import replaces the persisted state with data. Only admins may import.
// The dataset is validated as a whole before anything is written: every
// ledger must verify and every item must reference a warehouse in the dataset.
func (s *WarehouseService) Import(ctx context.Context, data *Dataset) (err error) {
	ctx, span := s.startSpan(ctx, "import")
	defer func() { endSpan(span, err) }()

	if _, err := auth.RequireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if err := validateDataset(data); err != nil {
		return err
	}

	if err := s.repo.SaveWarehouses(ctx, data.Warehouses); err != nil {
		return err
	}
	if err := s.repo.SaveItems(ctx, data.Items); err != nil {
		return err
	}
	if err := s.repo.SaveArchivedReports(ctx, data.Reports); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"warehouses": len(data.Warehouses),
		"items":      len(data.Items),
		"reports":    len(data.Reports),
	}).Info("dataset imported")
	s.publish(ctx, events.Event{Type: events.DataImported})
	return nil
}

func validateDataset(data *Dataset) error {
	if data == nil {
		return domain.NewValidationError("dataset", "is required")
	}

	warehouses := make(map[string]bool, len(data.Warehouses))
	for i, wh := range data.Warehouses {
		if wh == nil {
			return domain.NewValidationError(fmt.Sprintf("warehouses[%d]", i), "is required")
		}
		if err := security.ValidateID(wh.ID, fmt.Sprintf("warehouses[%d].id", i)); err != nil {
			return err
		}
		if warehouses[wh.ID] {
			return domain.NewValidationError(fmt.Sprintf("warehouses[%d].id", i), fmt.Sprintf("duplicate id %q", wh.ID))
		}
		warehouses[wh.ID] = true
		if err := security.ValidateName(strings.TrimSpace(wh.Name), fmt.Sprintf("warehouses[%d].name", i)); err != nil {
			return err
		}
		if err := security.ValidateLength(wh.Description, fmt.Sprintf("warehouses[%d].description", i), security.MaxDescriptionLength); err != nil {
			return err
		}
	}

	items := make(map[string]bool, len(data.Items))
	for i, item := range data.Items {
		if item == nil {
			return domain.NewValidationError(fmt.Sprintf("items[%d]", i), "is required")
		}
		if err := security.ValidateID(item.ID, fmt.Sprintf("items[%d].id", i)); err != nil {
			return err
		}
		if items[item.ID] {
			return domain.NewValidationError(fmt.Sprintf("items[%d].id", i), fmt.Sprintf("duplicate id %q", item.ID))
		}
		items[item.ID] = true
		if !warehouses[item.WarehouseID] {
			return domain.NewValidationError(fmt.Sprintf("items[%d].warehouse_id", i), fmt.Sprintf("unknown warehouse %q", item.WarehouseID))
		}
		if err := security.ValidateName(strings.TrimSpace(item.Name), fmt.Sprintf("items[%d].name", i)); err != nil {
			return err
		}
		if err := validateImportedHistory(i, item.History); err != nil {
			return err
		}
		if err := ledger.Verify(item); err != nil {
			return domain.NewValidationError(fmt.Sprintf("items[%d].history", i), err.Error())
		}
	}

	reports := make(map[string]bool, len(data.Reports))
	for i, r := range data.Reports {
		if r == nil || r.Snapshot == nil {
			return domain.NewValidationError(fmt.Sprintf("archived_reports[%d]", i), "snapshot is required")
		}
		if err := security.ValidateID(r.ID, fmt.Sprintf("archived_reports[%d].id", i)); err != nil {
			return err
		}
		if reports[r.ID] {
			return domain.NewValidationError(fmt.Sprintf("archived_reports[%d].id", i), fmt.Sprintf("duplicate id %q", r.ID))
		}
		reports[r.ID] = true
	}
	return nil
}

// validateImportedHistory holds imported ledgers to what CreateItem and the
// stock operations produce: a single leading CREATE_ITEM and unique entry ids.
func validateImportedHistory(itemIndex int, history []domain.HistoryEntry) error {
	if len(history) == 0 {
		return domain.NewValidationError(fmt.Sprintf("items[%d].history", itemIndex), "must start with a CREATE_ITEM entry")
	}

	seen := make(map[string]bool, len(history))
	for j, entry := range history {
		field := fmt.Sprintf("items[%d].history[%d]", itemIndex, j)
		if (j == 0) != (entry.Type == domain.EntryCreateItem) {
			return domain.NewValidationError(field+".type", "CREATE_ITEM must be the first entry and only the first")
		}
		if err := security.ValidateID(entry.ID, field+".id"); err != nil {
			return err
		}
		if seen[entry.ID] {
			return domain.NewValidationError(field+".id", fmt.Sprintf("duplicate entry id %q", entry.ID))
		}
		seen[entry.ID] = true
	}
	return nil
}

// VerifyLedgers checks every stored item's ledger and lists the broken ones
func (s *WarehouseService) VerifyLedgers(ctx context.Context) (_ []LedgerProblem, err error) {
	ctx, span := s.startSpan(ctx, "verify_ledgers")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.LoadItems(ctx)
	if err != nil {
		return nil, err
	}

	problems := make([]LedgerProblem, 0)
	for _, item := range items {
		if err := ledger.Verify(item); err != nil {
			s.logger.WithError(err).WithField("item_id", item.ID).Warn("ledger verification failed")
			problems = append(problems, LedgerProblem{ItemID: item.ID, Reason: err.Error()})
		}
	}

	span.SetAttributes(attribute.Int("items", len(items)), attribute.Int("problems", len(problems)))
	return problems, nil
}
