package transport

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "warehouse.v1.WarehouseService"

// FullMethod returns the /service/method path of an RPC
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// WarehouseServer is the server API of warehouse.v1.WarehouseService
type WarehouseServer interface {
	CreateWarehouse(context.Context, *CreateWarehouseRequest) (*WarehouseResponse, error)
	UpdateWarehouse(context.Context, *UpdateWarehouseRequest) (*WarehouseResponse, error)
	GetWarehouse(context.Context, *WarehouseRequest) (*WarehouseResponse, error)
	SearchWarehouses(context.Context, *SearchWarehousesRequest) (*WarehousesResponse, error)
	ListArchived(context.Context, *ListArchivedRequest) (*ArchivedResponse, error)
	ArchiveWarehouse(context.Context, *WarehouseRequest) (*ArchiveWarehouseResponse, error)
	RestoreWarehouse(context.Context, *WarehouseRequest) (*WarehouseResponse, error)
	ListWarehouseItems(context.Context, *ListWarehouseItemsRequest) (*WarehouseItemsResponse, error)

	CreateItem(context.Context, *CreateItemRequest) (*ItemResponse, error)
	GetItem(context.Context, *ItemRequest) (*ItemResponse, error)
	AddStock(context.Context, *StockRequest) (*StockResponse, error)
	ConsumeStock(context.Context, *StockRequest) (*StockResponse, error)
	ArchiveItem(context.Context, *ItemRequest) (*ItemResponse, error)
	RestoreItem(context.Context, *ItemRequest) (*ItemResponse, error)
	GetItemHistory(context.Context, *ItemRequest) (*ItemHistoryResponse, error)

	ListTransactions(context.Context, *TransactionFilter) (*TransactionsResponse, error)
	PrintItemReport(context.Context, *ItemRequest) (*PrintResponse, error)
	PrintWarehouseReport(context.Context, *WarehouseRequest) (*PrintResponse, error)
	PrintTransactionsReport(context.Context, *TransactionFilter) (*PrintResponse, error)
	ListReports(context.Context, *ListReportsRequest) (*ReportsResponse, error)
	GetReport(context.Context, *ReportRequest) (*ReportResponse, error)
	PrintArchivedReport(context.Context, *ReportRequest) (*PrintResponse, error)

	SuggestStockLevel(context.Context, *ItemRequest) (*SuggestionResponse, error)
	Export(context.Context, *ExportRequest) (*DatasetMessage, error)
	Import(context.Context, *DatasetMessage) (*ImportResponse, error)
	VerifyLedgers(context.Context, *VerifyLedgersRequest) (*VerifyLedgersResponse, error)
}

// unary adapts a typed server method into a grpc.MethodDesc
func unary[Req, Resp any](method string, call func(WarehouseServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WarehouseServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WarehouseServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes warehouse.v1.WarehouseService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WarehouseServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateWarehouse", WarehouseServer.CreateWarehouse),
		unary("UpdateWarehouse", WarehouseServer.UpdateWarehouse),
		unary("GetWarehouse", WarehouseServer.GetWarehouse),
		unary("SearchWarehouses", WarehouseServer.SearchWarehouses),
		unary("ListArchived", WarehouseServer.ListArchived),
		unary("ArchiveWarehouse", WarehouseServer.ArchiveWarehouse),
		unary("RestoreWarehouse", WarehouseServer.RestoreWarehouse),
		unary("ListWarehouseItems", WarehouseServer.ListWarehouseItems),
		unary("CreateItem", WarehouseServer.CreateItem),
		unary("GetItem", WarehouseServer.GetItem),
		unary("AddStock", WarehouseServer.AddStock),
		unary("ConsumeStock", WarehouseServer.ConsumeStock),
		unary("ArchiveItem", WarehouseServer.ArchiveItem),
		unary("RestoreItem", WarehouseServer.RestoreItem),
		unary("GetItemHistory", WarehouseServer.GetItemHistory),
		unary("ListTransactions", WarehouseServer.ListTransactions),
		unary("PrintItemReport", WarehouseServer.PrintItemReport),
		unary("PrintWarehouseReport", WarehouseServer.PrintWarehouseReport),
		unary("PrintTransactionsReport", WarehouseServer.PrintTransactionsReport),
		unary("ListReports", WarehouseServer.ListReports),
		unary("GetReport", WarehouseServer.GetReport),
		unary("PrintArchivedReport", WarehouseServer.PrintArchivedReport),
		unary("SuggestStockLevel", WarehouseServer.SuggestStockLevel),
		unary("Export", WarehouseServer.Export),
		unary("Import", WarehouseServer.Import),
		unary("VerifyLedgers", WarehouseServer.VerifyLedgers),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "warehouse/v1/warehouse.json",
}

// RegisterWarehouseServer registers srv on s
func RegisterWarehouseServer(s grpc.ServiceRegistrar, srv WarehouseServer) {
	s.RegisterService(&ServiceDesc, srv)
}
