package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
)

// Client is a typed client for warehouse.v1.WarehouseService. Every call
// carries the configured caller identity as metadata.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
	claims *auth.Claims
}

// NewClient wraps an existing connection. The caller keeps ownership of conn.
func NewClient(conn grpc.ClientConnInterface, claims *auth.Claims) *Client {
	return &Client{conn: conn, claims: claims}
}

// Dial connects to addr without transport security
func Dial(addr string, claims *auth.Claims, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close, claims: claims}, nil
}

// Close releases the connection when the client owns it
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (*Resp, error) {
	out := new(Resp)
	ctx = auth.OutgoingContext(ctx, c.claims)
	if err := c.conn.Invoke(ctx, FullMethod(method), req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateWarehouse(ctx context.Context, req *CreateWarehouseRequest) (*WarehouseResponse, error) {
	return invoke[WarehouseResponse](ctx, c, "CreateWarehouse", req)
}

func (c *Client) UpdateWarehouse(ctx context.Context, req *UpdateWarehouseRequest) (*WarehouseResponse, error) {
	return invoke[WarehouseResponse](ctx, c, "UpdateWarehouse", req)
}

func (c *Client) GetWarehouse(ctx context.Context, req *WarehouseRequest) (*WarehouseResponse, error) {
	return invoke[WarehouseResponse](ctx, c, "GetWarehouse", req)
}

func (c *Client) SearchWarehouses(ctx context.Context, req *SearchWarehousesRequest) (*WarehousesResponse, error) {
	return invoke[WarehousesResponse](ctx, c, "SearchWarehouses", req)
}

func (c *Client) ListArchived(ctx context.Context, req *ListArchivedRequest) (*ArchivedResponse, error) {
	return invoke[ArchivedResponse](ctx, c, "ListArchived", req)
}

func (c *Client) ArchiveWarehouse(ctx context.Context, req *WarehouseRequest) (*ArchiveWarehouseResponse, error) {
	return invoke[ArchiveWarehouseResponse](ctx, c, "ArchiveWarehouse", req)
}

func (c *Client) RestoreWarehouse(ctx context.Context, req *WarehouseRequest) (*WarehouseResponse, error) {
	return invoke[WarehouseResponse](ctx, c, "RestoreWarehouse", req)
}

func (c *Client) ListWarehouseItems(ctx context.Context, req *ListWarehouseItemsRequest) (*WarehouseItemsResponse, error) {
	return invoke[WarehouseItemsResponse](ctx, c, "ListWarehouseItems", req)
}

func (c *Client) CreateItem(ctx context.Context, req *CreateItemRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "CreateItem", req)
}

func (c *Client) GetItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "GetItem", req)
}

func (c *Client) AddStock(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	return invoke[StockResponse](ctx, c, "AddStock", req)
}

func (c *Client) ConsumeStock(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	return invoke[StockResponse](ctx, c, "ConsumeStock", req)
}

func (c *Client) ArchiveItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "ArchiveItem", req)
}

func (c *Client) RestoreItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	return invoke[ItemResponse](ctx, c, "RestoreItem", req)
}

func (c *Client) GetItemHistory(ctx context.Context, req *ItemRequest) (*ItemHistoryResponse, error) {
	return invoke[ItemHistoryResponse](ctx, c, "GetItemHistory", req)
}

func (c *Client) ListTransactions(ctx context.Context, req *TransactionFilter) (*TransactionsResponse, error) {
	return invoke[TransactionsResponse](ctx, c, "ListTransactions", req)
}

func (c *Client) PrintItemReport(ctx context.Context, req *ItemRequest) (*PrintResponse, error) {
	return invoke[PrintResponse](ctx, c, "PrintItemReport", req)
}

func (c *Client) PrintWarehouseReport(ctx context.Context, req *WarehouseRequest) (*PrintResponse, error) {
	return invoke[PrintResponse](ctx, c, "PrintWarehouseReport", req)
}

func (c *Client) PrintTransactionsReport(ctx context.Context, req *TransactionFilter) (*PrintResponse, error) {
	return invoke[PrintResponse](ctx, c, "PrintTransactionsReport", req)
}

func (c *Client) ListReports(ctx context.Context, req *ListReportsRequest) (*ReportsResponse, error) {
	return invoke[ReportsResponse](ctx, c, "ListReports", req)
}

func (c *Client) GetReport(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c, "GetReport", req)
}

// PrintArchivedReport re-renders a stored report with its original metadata
func (c *Client) PrintArchivedReport(ctx context.Context, req *ReportRequest) (*PrintResponse, error) {
	return invoke[PrintResponse](ctx, c, "PrintArchivedReport", req)
}

func (c *Client) SuggestStockLevel(ctx context.Context, req *ItemRequest) (*SuggestionResponse, error) {
	return invoke[SuggestionResponse](ctx, c, "SuggestStockLevel", req)
}

func (c *Client) Export(ctx context.Context, req *ExportRequest) (*DatasetMessage, error) {
	return invoke[DatasetMessage](ctx, c, "Export", req)
}

func (c *Client) Import(ctx context.Context, req *DatasetMessage) (*ImportResponse, error) {
	return invoke[ImportResponse](ctx, c, "Import", req)
}

func (c *Client) VerifyLedgers(ctx context.Context, req *VerifyLedgersRequest) (*VerifyLedgersResponse, error) {
	return invoke[VerifyLedgersResponse](ctx, c, "VerifyLedgers", req)
}
