package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReportType discriminates the ArchivedReport variants
type ReportType string

const (
	ReportTypeItem         ReportType = "ITEM"
	ReportTypeWarehouse    ReportType = "WAREHOUSE"
	ReportTypeTransactions ReportType = "TRANSACTIONS"
)

// Transaction is a history entry flattened with the names of its owning item and warehouse
type Transaction struct {
	HistoryEntry
	ItemID        string `json:"item_id"`
	ItemName      string `json:"item_name"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseName string `json:"warehouse_name"`
}

// Snapshot is the point-in-time payload of an ArchivedReport. The set of
// implementations is closed: ItemSnapshot, WarehouseSnapshot, TransactionsSnapshot.
type Snapshot interface {
	ReportType() ReportType
	cloneSnapshot() Snapshot
}

// ItemSnapshot captures one item's full history
type ItemSnapshot struct {
	WarehouseID   string         `json:"warehouse_id"`
	WarehouseName string         `json:"warehouse_name"`
	ItemID        string         `json:"item_id"`
	ItemName      string         `json:"item_name"`
	Quantity      int            `json:"quantity"`
	History       []HistoryEntry `json:"history_snapshot"`
}

func (ItemSnapshot) ReportType() ReportType { return ReportTypeItem }

func (s ItemSnapshot) cloneSnapshot() Snapshot {
	s.History = CloneHistory(s.History)
	return s
}

// StockLine is one row of a warehouse snapshot
type StockLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// WarehouseSnapshot captures a warehouse's active items, name and quantity only
type WarehouseSnapshot struct {
	WarehouseID          string      `json:"warehouse_id"`
	WarehouseName        string      `json:"warehouse_name"`
	WarehouseDescription string      `json:"warehouse_description,omitempty"`
	Items                []StockLine `json:"items_snapshot"`
}

func (WarehouseSnapshot) ReportType() ReportType { return ReportTypeWarehouse }

func (s WarehouseSnapshot) cloneSnapshot() Snapshot {
	if s.Items != nil {
		items := make([]StockLine, len(s.Items))
		copy(items, s.Items)
		s.Items = items
	}
	return s
}

// TransactionsSnapshot captures a filtered transaction list and the title it was printed under
type TransactionsSnapshot struct {
	Title        string        `json:"report_title_snapshot"`
	Transactions []Transaction `json:"transactions_snapshot"`
}

func (TransactionsSnapshot) ReportType() ReportType { return ReportTypeTransactions }

func (s TransactionsSnapshot) cloneSnapshot() Snapshot {
	if s.Transactions != nil {
		txs := make([]Transaction, len(s.Transactions))
		copy(txs, s.Transactions)
		s.Transactions = txs
	}
	return s
}

// CloneSnapshot deep-copies any snapshot variant
func CloneSnapshot(s Snapshot) Snapshot {
	if s == nil {
		return nil
	}
	return s.cloneSnapshot()
}

// ArchivedReport is a write-once record of a printed report
type ArchivedReport struct {
	ID        string
	PrintedBy string
	PrintedAt time.Time
	Snapshot  Snapshot
}

// Type returns the report variant, derived from the snapshot
func (r *ArchivedReport) Type() ReportType {
	if r.Snapshot == nil {
		return ""
	}
	return r.Snapshot.ReportType()
}

// Clone returns a deep copy of the report
func (r *ArchivedReport) Clone() *ArchivedReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Snapshot = CloneSnapshot(r.Snapshot)
	return &c
}

type archivedReportJSON struct {
	ID         string          `json:"id"`
	ReportType ReportType      `json:"report_type"`
	PrintedBy  string          `json:"printed_by"`
	PrintedAt  time.Time       `json:"printed_at"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

// MarshalJSON writes the report with its report_type discriminator
func (r *ArchivedReport) MarshalJSON() ([]byte, error) {
	if r.Snapshot == nil {
		return nil, fmt.Errorf("archived report %s has no snapshot", r.ID)
	}

	payload, err := json.Marshal(r.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report snapshot: %w", err)
	}

	return json.Marshal(archivedReportJSON{
		ID:         r.ID,
		ReportType: r.Snapshot.ReportType(),
		PrintedBy:  r.PrintedBy,
		PrintedAt:  r.PrintedAt,
		Snapshot:   payload,
	})
}

// UnmarshalJSON restores the concrete snapshot variant named by report_type
func (r *ArchivedReport) UnmarshalJSON(data []byte) error {
	var temp archivedReportJSON
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("failed to unmarshal ArchivedReport: %w", err)
	}

	var snapshot Snapshot
	switch temp.ReportType {
	case ReportTypeItem:
		var s ItemSnapshot
		if err := json.Unmarshal(temp.Snapshot, &s); err != nil {
			return fmt.Errorf("failed to unmarshal item snapshot: %w", err)
		}
		snapshot = s
	case ReportTypeWarehouse:
		var s WarehouseSnapshot
		if err := json.Unmarshal(temp.Snapshot, &s); err != nil {
			return fmt.Errorf("failed to unmarshal warehouse snapshot: %w", err)
		}
		snapshot = s
	case ReportTypeTransactions:
		var s TransactionsSnapshot
		if err := json.Unmarshal(temp.Snapshot, &s); err != nil {
			return fmt.Errorf("failed to unmarshal transactions snapshot: %w", err)
		}
		snapshot = s
	default:
		return fmt.Errorf("unknown report type %q", temp.ReportType)
	}

	r.ID = temp.ID
	r.PrintedBy = temp.PrintedBy
	r.PrintedAt = temp.PrintedAt
	r.Snapshot = snapshot
	return nil
}
