package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func newTable(headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printWarehouses(warehouses []*domain.Warehouse) {
	if len(warehouses) == 0 {
		fmt.Println("No warehouses found")
		return
	}

	w := newTable("ID", "NAME", "DESCRIPTION", "UPDATED")
	for _, wh := range warehouses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", wh.ID, wh.Name, wh.Description, formatTime(wh.LastActivity()))
	}
	w.Flush()
}

func printItems(items []*domain.Item) {
	if len(items) == 0 {
		fmt.Println("No items found")
		return
	}

	w := newTable("ID", "NAME", "QUANTITY", "UPDATED")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.ID, item.Name, item.Quantity, formatTime(item.UpdatedAt))
	}
	w.Flush()
}

func printHistory(history []domain.HistoryEntry) {
	if len(history) == 0 {
		fmt.Println("No transactions recorded")
		return
	}

	w := newTable("WHEN", "TYPE", "CHANGE", "BEFORE", "AFTER", "COMMENT")
	for _, entry := range history {
		fmt.Fprintf(w, "%s\t%s\t%+d\t%d\t%d\t%s\n",
			formatTime(entry.Timestamp), entry.Type.Label(), entry.Change,
			entry.QuantityBefore, entry.QuantityAfter, entry.Comment)
	}
	w.Flush()
}

func printTransactions(txs []domain.Transaction) {
	if len(txs) == 0 {
		fmt.Println("No transactions match")
		return
	}

	w := newTable("WHEN", "WAREHOUSE", "ITEM", "TYPE", "CHANGE", "AFTER", "COMMENT")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%+d\t%d\t%s\n",
			formatTime(tx.Timestamp), tx.WarehouseName, tx.ItemName, tx.Type.Label(),
			tx.Change, tx.QuantityAfter, tx.Comment)
	}
	w.Flush()
}

func printReports(reports []*domain.ArchivedReport) {
	if len(reports) == 0 {
		fmt.Println("No archived reports")
		return
	}

	w := newTable("ID", "TYPE", "SUBJECT", "PRINTED BY", "PRINTED AT")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Type(), reportSubject(r), r.PrintedBy, formatTime(r.PrintedAt))
	}
	w.Flush()
}

func reportSubject(r *domain.ArchivedReport) string {
	switch snap := r.Snapshot.(type) {
	case domain.ItemSnapshot:
		return fmt.Sprintf("%s (%s)", snap.ItemName, snap.WarehouseName)
	case domain.WarehouseSnapshot:
		return snap.WarehouseName
	case domain.TransactionsSnapshot:
		return snap.Title
	default:
		return "-"
	}
}
