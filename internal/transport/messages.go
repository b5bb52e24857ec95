package transport

import (
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/advisor"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/report"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/service"
)

type CreateWarehouseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateWarehouseRequest struct {
	WarehouseID string  `json:"warehouse_id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type WarehouseRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

type WarehouseResponse struct {
	Warehouse *domain.Warehouse `json:"warehouse"`
}

// ArchiveWarehouseResponse carries the archived warehouse. A cascade that
// stops partway fails the RPC with codes.Aborted; the warehouse itself stays
// archived and the call can be repeated to finish the cascade.
type ArchiveWarehouseResponse struct {
	Warehouse *domain.Warehouse `json:"warehouse"`
}

type SearchWarehousesRequest struct {
	Term  string `json:"term,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type WarehousesResponse struct {
	Warehouses []*domain.Warehouse `json:"warehouses"`
}

type ListArchivedRequest struct{}

type ArchivedResponse struct {
	Warehouses []*domain.Warehouse `json:"warehouses"`
	Items      []*domain.Item      `json:"items"`
}

type ListWarehouseItemsRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Order       string `json:"order,omitempty"`
}

type WarehouseItemsResponse struct {
	Warehouse *domain.Warehouse `json:"warehouse"`
	Items     []*domain.Item    `json:"items"`
}

type CreateItemRequest struct {
	WarehouseID     string `json:"warehouse_id"`
	Name            string `json:"name"`
	InitialQuantity int    `json:"initial_quantity"`
}

type ItemRequest struct {
	ItemID string `json:"item_id"`
}

type ItemResponse struct {
	Item *domain.Item `json:"item"`
}

type StockRequest struct {
	ItemID  string `json:"item_id"`
	Amount  int    `json:"amount"`
	Comment string `json:"comment,omitempty"`
}

type StockResponse struct {
	Item  *domain.Item        `json:"item"`
	Entry domain.HistoryEntry `json:"entry"`
}

type ItemHistoryResponse struct {
	Item    *domain.Item          `json:"item"`
	History []domain.HistoryEntry `json:"history"`
}

// TransactionFilter mirrors report.Filter. Dates are interpreted as whole
// days in their own time zone.
type TransactionFilter struct {
	WarehouseID string    `json:"warehouse_id,omitempty"`
	ItemID      string    `json:"item_id,omitempty"`
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
}

func (f TransactionFilter) toReport() report.Filter {
	return report.Filter{
		WarehouseID: f.WarehouseID,
		ItemID:      f.ItemID,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
	}
}

type TransactionsResponse struct {
	Title        string               `json:"title"`
	Transactions []domain.Transaction `json:"transactions"`
}

type PrintResponse struct {
	Output string                 `json:"output"`
	Report *domain.ArchivedReport `json:"report"`
}

type ListReportsRequest struct {
	ReportType domain.ReportType `json:"report_type,omitempty"`
}

type ReportsResponse struct {
	Reports []*domain.ArchivedReport `json:"reports"`
}

type ReportRequest struct {
	ReportID string `json:"report_id"`
}

type ReportResponse struct {
	Report *domain.ArchivedReport `json:"report"`
}

type SuggestionResponse struct {
	ItemID     string             `json:"item_id"`
	Suggestion advisor.Suggestion `json:"suggestion"`
}

type ExportRequest struct{}

type DatasetMessage struct {
	Dataset *service.Dataset `json:"dataset"`
}

type ImportResponse struct {
	Warehouses int `json:"warehouses"`
	Items      int `json:"items"`
	Reports    int `json:"reports"`
}

type VerifyLedgersRequest struct{}

type VerifyLedgersResponse struct {
	Problems []service.LedgerProblem `json:"problems"`
}
