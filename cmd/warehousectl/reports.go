package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

const dateLayout = "2006-01-02"

func newTransactionsCommand() *cobra.Command {
	var warehouseID, itemID, from, to string
	var printList bool

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List stock movements across items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := &transport.TransactionFilter{
				WarehouseID: warehouseID,
				ItemID:      itemID,
			}

			var err error
			if filter.StartDate, err = parseDate(from); err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
			if filter.EndDate, err = parseDate(to); err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}

			ctx, cancel := requestContext()
			defer cancel()

			if printList {
				resp, err := client.PrintTransactionsReport(ctx, filter)
				if err != nil {
					return fmt.Errorf("failed to print transactions report: %w", err)
				}
				printReportResult(resp)
				return nil
			}

			resp, err := client.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			fmt.Printf("%s\n\n", resp.Title)
			printTransactions(resp.Transactions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&warehouseID, "warehouse", "w", "", "Only movements of items in this warehouse")
	cmd.Flags().StringVarP(&itemID, "item", "i", "", "Only movements of this item")
	cmd.Flags().StringVar(&from, "from", "", "First day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to include (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&printList, "print", "p", false, "Print the list as a report and archive it")
	return cmd
}

// parseDate reads a calendar day in the local time zone; empty means unbounded
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

func newReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Archived report commands",
	}

	var reportType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &transport.ListReportsRequest{}
			if reportType != "" {
				req.ReportType = domain.ReportType(strings.ToUpper(reportType))
			}

			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.ListReports(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			printReports(resp.Reports)
			return nil
		},
	}
	list.Flags().StringVarP(&reportType, "type", "t", "", "Filter by type: item, warehouse or transactions")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <report-id>",
		Short: "Show an archived report snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.GetReport(ctx, &transport.ReportRequest{ReportID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to get report: %w", err)
			}

			showReport(resp.Report)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print <report-id>",
		Short: "Render an archived report again from its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.PrintArchivedReport(ctx, &transport.ReportRequest{ReportID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to print archived report: %w", err)
			}

			fmt.Printf("Report written to: %s\n", resp.Output)
			if resp.Report != nil {
				fmt.Printf("Originally printed by %s at %s\n", resp.Report.PrintedBy, formatTime(resp.Report.PrintedAt))
			}
			return nil
		},
	})

	return cmd
}

func showReport(r *domain.ArchivedReport) {
	fmt.Printf("Report: %s\n", r.ID)
	fmt.Printf("Type: %s\n", r.Type())
	fmt.Printf("Printed By: %s\n", r.PrintedBy)
	fmt.Printf("Printed At: %s\n\n", formatTime(r.PrintedAt))

	switch snap := r.Snapshot.(type) {
	case domain.ItemSnapshot:
		fmt.Printf("%s in %s, quantity %d\n\n", snap.ItemName, snap.WarehouseName, snap.Quantity)
		printHistory(snap.History)
	case domain.WarehouseSnapshot:
		fmt.Printf("%s\n", snap.WarehouseName)
		if snap.WarehouseDescription != "" {
			fmt.Printf("%s\n", snap.WarehouseDescription)
		}
		fmt.Println()
		w := newTable("ITEM", "QUANTITY")
		for _, line := range snap.Items {
			fmt.Fprintf(w, "%s\t%d\n", line.Name, line.Quantity)
		}
		w.Flush()
	case domain.TransactionsSnapshot:
		fmt.Printf("%s\n\n", snap.Title)
		printTransactions(snap.Transactions)
	}
}

func newArchivedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archived",
		Short: "List archived warehouses and items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.ListArchived(ctx, &transport.ListArchivedRequest{})
			if err != nil {
				return fmt.Errorf("failed to list archived records: %w", err)
			}

			fmt.Println("Archived warehouses:")
			printWarehouses(resp.Warehouses)
			fmt.Println()
			fmt.Println("Archived items:")
			printItems(resp.Items)
			return nil
		},
	}
}
