package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/advisor"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/archive"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/events"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/printer"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/report"
)

// TransactionList is a filtered transaction feed with its derived title
type TransactionList struct {
	Title        string
	Transactions []domain.Transaction
}

// PrintResult describes a rendered report and its archived snapshot
type PrintResult struct {
	Output string
	Report *domain.ArchivedReport
}

// Transactions flattens every active ledger matching filter, newest first
func (s *WarehouseService) Transactions(ctx context.Context, filter report.Filter) (_ *TransactionList, err error) {
	ctx, span := s.startSpan(ctx, "transactions",
		attribute.String("filter.warehouse_id", filter.WarehouseID),
		attribute.String("filter.item_id", filter.ItemID),
	)
	defer func() { endSpan(span, err) }()

	warehouses, err := s.repo.LoadWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.LoadItems(ctx)
	if err != nil {
		return nil, err
	}

	var warehouseName, itemName string
	for _, wh := range warehouses {
		if wh.ID == filter.WarehouseID {
			warehouseName = wh.Name
		}
	}
	for _, item := range items {
		if item.ID == filter.ItemID {
			itemName = item.Name
		}
	}

	txs := report.CollectTransactions(report.TransactionFeed(warehouses, items, filter))
	span.SetAttributes(attribute.Int("transactions", len(txs)))
	return &TransactionList{
		Title:        report.Title(filter, warehouseName, itemName),
		Transactions: txs,
	}, nil
}

// PrintItemReport renders an item's history and archives its snapshot
func (s *WarehouseService) PrintItemReport(ctx context.Context, itemID string) (_ *PrintResult, err error) {
	ctx, span := s.startSpan(ctx, "print_item_report", attribute.String("item.id", itemID))
	defer func() { endSpan(span, err) }()

	item, history, err := s.ItemHistory(ctx, itemID)
	if err != nil {
		return nil, err
	}
	wh, err := s.repo.GetWarehouse(ctx, item.WarehouseID)
	if err != nil {
		return nil, err
	}

	return s.print(ctx, archive.ItemSnapshot(wh, item), func(meta printer.Meta) (string, error) {
		return s.printer.PrintItem(ctx, printer.ItemReport{Warehouse: wh, Item: item, History: history}, meta)
	})
}

// PrintWarehouseReport renders a warehouse's active items and archives its snapshot
func (s *WarehouseService) PrintWarehouseReport(ctx context.Context, warehouseID string) (_ *PrintResult, err error) {
	ctx, span := s.startSpan(ctx, "print_warehouse_report", attribute.String("warehouse.id", warehouseID))
	defer func() { endSpan(span, err) }()

	wh, items, err := s.WarehouseListing(ctx, warehouseID, report.OrderName)
	if err != nil {
		return nil, err
	}

	return s.print(ctx, archive.WarehouseSnapshot(wh, items), func(meta printer.Meta) (string, error) {
		return s.printer.PrintWarehouse(ctx, printer.WarehouseReport{Warehouse: wh, Items: items}, meta)
	})
}

// PrintTransactionsReport renders a filtered transaction feed and archives its snapshot
func (s *WarehouseService) PrintTransactionsReport(ctx context.Context, filter report.Filter) (_ *PrintResult, err error) {
	ctx, span := s.startSpan(ctx, "print_transactions_report")
	defer func() { endSpan(span, err) }()

	list, err := s.Transactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	return s.print(ctx, archive.TransactionsSnapshot(list.Title, list.Transactions), func(meta printer.Meta) (string, error) {
		return s.printer.PrintTransactions(ctx, printer.TransactionsReport{Title: list.Title, Transactions: list.Transactions}, meta)
	})
}

// print renders first and only then records the snapshot, so a failed
// render never leaves an archived report behind.
func (s *WarehouseService) print(ctx context.Context, snap domain.Snapshot, render func(printer.Meta) (string, error)) (*PrintResult, error) {
	if s.printer == nil {
		return nil, ErrPrinterDisabled
	}

	claims, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot print report: %w", err)
	}

	meta := printer.Meta{PrintedBy: claims.DisplayName(), PrintedAt: s.clock.Now()}
	output, err := render(meta)
	if err != nil {
		s.logger.WithError(err).WithField("report_type", snap.ReportType()).Error("failed to render report")
		return nil, fmt.Errorf("failed to render %s report: %w", snap.ReportType(), err)
	}

	archived, err := s.policy.CreateReportSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}
	// the archive records the instant printed on the document
	archived.PrintedAt = meta.PrintedAt
	if err := s.repo.AddReport(ctx, archived); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"report_id": archived.ID,
			"output":    output,
		}).Error("report rendered but snapshot could not be stored")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":   archived.ID,
		"report_type": archived.Type(),
		"printed_by":  archived.PrintedBy,
		"output":      output,
	}).Info("report printed")
	s.publish(ctx, events.Event{Type: events.ReportArchived, ReportID: archived.ID, Actor: archived.PrintedBy})
	return &PrintResult{Output: output, Report: archived}, nil
}

// PrintArchivedReport renders a stored report again from its frozen snapshot.
// The output carries the original printed-by and printed-at; no new report
// is archived.
func (s *WarehouseService) PrintArchivedReport(ctx context.Context, id string) (_ *PrintResult, err error) {
	ctx, span := s.startSpan(ctx, "print_archived_report", attribute.String("report.id", id))
	defer func() { endSpan(span, err) }()

	if s.printer == nil {
		return nil, ErrPrinterDisabled
	}
	claims, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot print report: %w", err)
	}

	archived, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("report.type", string(archived.Type())))

	meta := printer.Meta{PrintedBy: archived.PrintedBy, PrintedAt: archived.PrintedAt}
	var output string
	switch snap := archived.Snapshot.(type) {
	case domain.ItemSnapshot:
		wh := &domain.Warehouse{ID: snap.WarehouseID, Name: snap.WarehouseName}
		item := &domain.Item{
			ID:          snap.ItemID,
			WarehouseID: snap.WarehouseID,
			Name:        snap.ItemName,
			Quantity:    snap.Quantity,
			History:     domain.CloneHistory(snap.History),
		}
		output, err = s.printer.PrintItem(ctx, printer.ItemReport{Warehouse: wh, Item: item, History: report.ItemHistoryView(item)}, meta)
	case domain.WarehouseSnapshot:
		wh := &domain.Warehouse{ID: snap.WarehouseID, Name: snap.WarehouseName, Description: snap.WarehouseDescription}
		items := make([]*domain.Item, 0, len(snap.Items))
		for _, line := range snap.Items {
			items = append(items, &domain.Item{WarehouseID: snap.WarehouseID, Name: line.Name, Quantity: line.Quantity})
		}
		output, err = s.printer.PrintWarehouse(ctx, printer.WarehouseReport{Warehouse: wh, Items: items}, meta)
	case domain.TransactionsSnapshot:
		txs := make([]domain.Transaction, len(snap.Transactions))
		copy(txs, snap.Transactions)
		output, err = s.printer.PrintTransactions(ctx, printer.TransactionsReport{Title: snap.Title, Transactions: txs}, meta)
	default:
		return nil, domain.NewValidationError("report", fmt.Sprintf("unsupported snapshot %T", archived.Snapshot))
	}
	if err != nil {
		s.logger.WithError(err).WithField("report_id", id).Error("failed to render archived report")
		return nil, fmt.Errorf("failed to render %s report: %w", archived.Type(), err)
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":    id,
		"report_type":  archived.Type(),
		"printed_by":   archived.PrintedBy,
		"reprinted_by": claims.DisplayName(),
		"output":       output,
	}).Info("archived report printed")
	return &PrintResult{Output: output, Report: archived}, nil
}

// ListReports returns archived reports newest first. An empty reportType lists every type.
func (s *WarehouseService) ListReports(ctx context.Context, reportType domain.ReportType) (_ []*domain.ArchivedReport, err error) {
	ctx, span := s.startSpan(ctx, "list_reports", attribute.String("report.type", string(reportType)))
	defer func() { endSpan(span, err) }()

	reports, err := s.repo.LoadArchivedReports(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ArchivedReport, 0, len(reports))
	for _, r := range reports {
		if reportType == "" || r.Type() == reportType {
			out = append(out, r)
		}
	}
	report.SortReports(out)
	return out, nil
}

// GetReport loads one archived report
func (s *WarehouseService) GetReport(ctx context.Context, id string) (*domain.ArchivedReport, error) {
	if id == "" {
		return nil, domain.NewValidationError("report_id", "is required")
	}
	return s.repo.GetReport(ctx, id)
}

// SuggestStockLevel asks the configured advisor for an optimal stock level,
// feeding it a text summary of the item's ledger.
func (s *WarehouseService) SuggestStockLevel(ctx context.Context, itemID string) (_ advisor.Suggestion, err error) {
	ctx, span := s.startSpan(ctx, "suggest_stock_level", attribute.String("item.id", itemID))
	defer func() { endSpan(span, err) }()

	if s.advisor == nil {
		return advisor.Suggestion{}, ErrAdvisorDisabled
	}

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return advisor.Suggestion{}, err
	}

	suggestion, err := s.advisor.Suggest(ctx, advisor.Input{
		ItemID:         item.ID,
		HistoricalData: report.HistorySummary(item),
	})
	if err != nil {
		s.logger.WithError(err).WithField("item_id", itemID).Warn("stock level suggestion failed")
		return advisor.Suggestion{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":         itemID,
		"suggested_level": suggestion.SuggestedStockLevel,
		"has_alert":       suggestion.Alert != "",
	}).Info("stock level suggested")
	return suggestion, nil
}
