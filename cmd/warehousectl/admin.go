package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/service"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export every warehouse, item and archived report to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.Export(ctx, &transport.ExportRequest{})
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			data, err := json.MarshalIndent(resp.Dataset, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode dataset: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}

			fmt.Printf("Exported %d warehouses, %d items and %d reports to %s\n",
				len(resp.Dataset.Warehouses), len(resp.Dataset.Items), len(resp.Dataset.Reports), args[0])
			return nil
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a dataset exported by warehousectl export (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var dataset service.Dataset
			if err := json.Unmarshal(data, &dataset); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.Import(ctx, &transport.DatasetMessage{Dataset: &dataset})
			if err != nil {
				return fmt.Errorf("failed to import: %w", err)
			}

			fmt.Printf("Imported %d warehouses, %d items and %d reports\n", resp.Warehouses, resp.Items, resp.Reports)
			return nil
		},
	}
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay every item ledger and report inconsistencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.VerifyLedgers(ctx, &transport.VerifyLedgersRequest{})
			if err != nil {
				return fmt.Errorf("failed to verify ledgers: %w", err)
			}

			if len(resp.Problems) == 0 {
				fmt.Println("All item ledgers are consistent")
				return nil
			}

			w := newTable("ITEM", "PROBLEM")
			for _, p := range resp.Problems {
				fmt.Fprintf(w, "%s\t%s\n", p.ItemID, p.Reason)
			}
			w.Flush()
			return fmt.Errorf("%d item ledgers are inconsistent", len(resp.Problems))
		},
	}
}
