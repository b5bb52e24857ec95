// Package transport exposes the warehouse service over gRPC. Messages are
// plain Go structs carried by a JSON codec.
package transport

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/report"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/service"
)

// Server implements WarehouseServer on top of the application service
type Server struct {
	svc    *service.WarehouseService
	logger *logrus.Logger
}

// NewServer creates a gRPC-facing server for svc
func NewServer(svc *service.WarehouseService, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{svc: svc, logger: logger}
}

var _ WarehouseServer = (*Server)(nil)

// ToStatus converts service errors into gRPC status errors
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientStockError
		notFound     *domain.NotFoundError
		partial      *domain.PartialCascadeError
		exists       *domain.ReportExistsError
		persistence  *domain.PersistenceError
	)

	switch {
	case errors.As(err, &partial):
		return status.Error(codes.Aborted, err.Error())
	case errors.As(err, &validation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &insufficient):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &notFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &exists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.As(err, &persistence):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, service.ErrAdvisorDisabled), errors.Is(err, service.ErrPrinterDisabled):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) fail(method string, err error) error {
	st := ToStatus(err)
	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"method": method,
		"code":   status.Code(st).String(),
	})
	if status.Code(st) == codes.Internal || status.Code(st) == codes.Unavailable {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	return st
}

func (s *Server) CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*WarehouseResponse, error) {
	wh, err := s.svc.CreateWarehouse(ctx, req.Name, req.Description)
	if err != nil {
		return nil, s.fail("CreateWarehouse", err)
	}
	return &WarehouseResponse{Warehouse: wh}, nil
}

func (s *Server) UpdateWarehouse(ctx context.Context, req *UpdateWarehouseRequest) (*WarehouseResponse, error) {
	wh, err := s.svc.UpdateWarehouse(ctx, req.WarehouseID, service.WarehouseUpdate{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, s.fail("UpdateWarehouse", err)
	}
	return &WarehouseResponse{Warehouse: wh}, nil
}

func (s *Server) GetWarehouse(ctx context.Context, req *WarehouseRequest) (*WarehouseResponse, error) {
	wh, err := s.svc.GetWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, s.fail("GetWarehouse", err)
	}
	return &WarehouseResponse{Warehouse: wh}, nil
}

func (s *Server) SearchWarehouses(ctx context.Context, req *SearchWarehousesRequest) (*WarehousesResponse, error) {
	warehouses, err := s.svc.SearchWarehouses(ctx, req.Term, req.Limit)
	if err != nil {
		return nil, s.fail("SearchWarehouses", err)
	}
	return &WarehousesResponse{Warehouses: warehouses}, nil
}

func (s *Server) ListArchived(ctx context.Context, _ *ListArchivedRequest) (*ArchivedResponse, error) {
	listing, err := s.svc.ListArchived(ctx)
	if err != nil {
		return nil, s.fail("ListArchived", err)
	}
	return &ArchivedResponse{Warehouses: listing.Warehouses, Items: listing.Items}, nil
}

func (s *Server) ArchiveWarehouse(ctx context.Context, req *WarehouseRequest) (*ArchiveWarehouseResponse, error) {
	wh, err := s.svc.ArchiveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, s.fail("ArchiveWarehouse", err)
	}
	return &ArchiveWarehouseResponse{Warehouse: wh}, nil
}

func (s *Server) RestoreWarehouse(ctx context.Context, req *WarehouseRequest) (*WarehouseResponse, error) {
	wh, err := s.svc.RestoreWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, s.fail("RestoreWarehouse", err)
	}
	return &WarehouseResponse{Warehouse: wh}, nil
}

func (s *Server) ListWarehouseItems(ctx context.Context, req *ListWarehouseItemsRequest) (*WarehouseItemsResponse, error) {
	order, ok := report.ParseListingOrder(req.Order)
	if !ok {
		return nil, s.fail("ListWarehouseItems", domain.NewValidationError("order", "must be one of input, name, recent"))
	}
	wh, items, err := s.svc.WarehouseListing(ctx, req.WarehouseID, order)
	if err != nil {
		return nil, s.fail("ListWarehouseItems", err)
	}
	return &WarehouseItemsResponse{Warehouse: wh, Items: items}, nil
}

func (s *Server) CreateItem(ctx context.Context, req *CreateItemRequest) (*ItemResponse, error) {
	item, err := s.svc.CreateItem(ctx, req.WarehouseID, req.Name, req.InitialQuantity)
	if err != nil {
		return nil, s.fail("CreateItem", err)
	}
	return &ItemResponse{Item: item}, nil
}

func (s *Server) GetItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	item, err := s.svc.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("GetItem", err)
	}
	return &ItemResponse{Item: item}, nil
}

func (s *Server) AddStock(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	item, entry, err := s.svc.AddStock(ctx, req.ItemID, req.Amount, req.Comment)
	if err != nil {
		return nil, s.fail("AddStock", err)
	}
	return &StockResponse{Item: item, Entry: entry}, nil
}

func (s *Server) ConsumeStock(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	item, entry, err := s.svc.ConsumeStock(ctx, req.ItemID, req.Amount, req.Comment)
	if err != nil {
		return nil, s.fail("ConsumeStock", err)
	}
	return &StockResponse{Item: item, Entry: entry}, nil
}

func (s *Server) ArchiveItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	item, err := s.svc.ArchiveItem(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("ArchiveItem", err)
	}
	return &ItemResponse{Item: item}, nil
}

func (s *Server) RestoreItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	item, err := s.svc.RestoreItem(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("RestoreItem", err)
	}
	return &ItemResponse{Item: item}, nil
}

func (s *Server) GetItemHistory(ctx context.Context, req *ItemRequest) (*ItemHistoryResponse, error) {
	item, history, err := s.svc.ItemHistory(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("GetItemHistory", err)
	}
	return &ItemHistoryResponse{Item: item, History: history}, nil
}

func (s *Server) ListTransactions(ctx context.Context, req *TransactionFilter) (*TransactionsResponse, error) {
	list, err := s.svc.Transactions(ctx, req.toReport())
	if err != nil {
		return nil, s.fail("ListTransactions", err)
	}
	return &TransactionsResponse{Title: list.Title, Transactions: list.Transactions}, nil
}

func (s *Server) PrintItemReport(ctx context.Context, req *ItemRequest) (*PrintResponse, error) {
	result, err := s.svc.PrintItemReport(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("PrintItemReport", err)
	}
	return &PrintResponse{Output: result.Output, Report: result.Report}, nil
}

func (s *Server) PrintWarehouseReport(ctx context.Context, req *WarehouseRequest) (*PrintResponse, error) {
	result, err := s.svc.PrintWarehouseReport(ctx, req.WarehouseID)
	if err != nil {
		return nil, s.fail("PrintWarehouseReport", err)
	}
	return &PrintResponse{Output: result.Output, Report: result.Report}, nil
}

func (s *Server) PrintTransactionsReport(ctx context.Context, req *TransactionFilter) (*PrintResponse, error) {
	result, err := s.svc.PrintTransactionsReport(ctx, req.toReport())
	if err != nil {
		return nil, s.fail("PrintTransactionsReport", err)
	}
	return &PrintResponse{Output: result.Output, Report: result.Report}, nil
}

func (s *Server) ListReports(ctx context.Context, req *ListReportsRequest) (*ReportsResponse, error) {
	reports, err := s.svc.ListReports(ctx, req.ReportType)
	if err != nil {
		return nil, s.fail("ListReports", err)
	}
	return &ReportsResponse{Reports: reports}, nil
}

func (s *Server) GetReport(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	r, err := s.svc.GetReport(ctx, req.ReportID)
	if err != nil {
		return nil, s.fail("GetReport", err)
	}
	return &ReportResponse{Report: r}, nil
}

func (s *Server) PrintArchivedReport(ctx context.Context, req *ReportRequest) (*PrintResponse, error) {
	result, err := s.svc.PrintArchivedReport(ctx, req.ReportID)
	if err != nil {
		return nil, s.fail("PrintArchivedReport", err)
	}
	return &PrintResponse{Output: result.Output, Report: result.Report}, nil
}

func (s *Server) SuggestStockLevel(ctx context.Context, req *ItemRequest) (*SuggestionResponse, error) {
	suggestion, err := s.svc.SuggestStockLevel(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail("SuggestStockLevel", err)
	}
	return &SuggestionResponse{ItemID: req.ItemID, Suggestion: suggestion}, nil
}

func (s *Server) Export(ctx context.Context, _ *ExportRequest) (*DatasetMessage, error) {
	data, err := s.svc.Export(ctx)
	if err != nil {
		return nil, s.fail("Export", err)
	}
	return &DatasetMessage{Dataset: data}, nil
}

func (s *Server) Import(ctx context.Context, req *DatasetMessage) (*ImportResponse, error) {
	if err := s.svc.Import(ctx, req.Dataset); err != nil {
		return nil, s.fail("Import", err)
	}
	return &ImportResponse{
		Warehouses: len(req.Dataset.Warehouses),
		Items:      len(req.Dataset.Items),
		Reports:    len(req.Dataset.Reports),
	}, nil
}

func (s *Server) VerifyLedgers(ctx context.Context, _ *VerifyLedgersRequest) (*VerifyLedgersResponse, error) {
	problems, err := s.svc.VerifyLedgers(ctx)
	if err != nil {
		return nil, s.fail("VerifyLedgers", err)
	}
	return &VerifyLedgersResponse{Problems: problems}, nil
}
