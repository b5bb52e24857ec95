package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

func newWarehouseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "warehouse",
		Aliases: []string{"wh"},
		Short:   "Warehouse management commands",
	}

	cmd.AddCommand(newWarehouseCreateCommand())
	cmd.AddCommand(newWarehouseListCommand())
	cmd.AddCommand(newWarehouseShowCommand())
	cmd.AddCommand(newWarehouseUpdateCommand())
	cmd.AddCommand(newWarehouseArchiveCommand())
	cmd.AddCommand(newWarehouseRestoreCommand())
	cmd.AddCommand(newWarehousePrintCommand())

	return cmd
}

func newWarehouseCreateCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.CreateWarehouse(ctx, &transport.CreateWarehouseRequest{
				Name:        args[0],
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("failed to create warehouse: %w", err)
			}

			fmt.Printf("Created warehouse: %s (%s)\n", resp.Warehouse.Name, resp.Warehouse.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Warehouse description")
	return cmd
}

func newWarehouseListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [search-term]",
		Short: "List active warehouses, most recently active first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			req := &transport.SearchWarehousesRequest{Limit: limit}
			if len(args) == 1 {
				req.Term = args[0]
			}

			resp, err := client.SearchWarehouses(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to list warehouses: %w", err)
			}

			printWarehouses(resp.Warehouses)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of warehouses to show")
	return cmd
}

func newWarehouseShowCommand() *cobra.Command {
	var order string

	cmd := &cobra.Command{
		Use:   "show <warehouse-id>",
		Short: "Show a warehouse and its active items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.ListWarehouseItems(ctx, &transport.ListWarehouseItemsRequest{
				WarehouseID: args[0],
				Order:       order,
			})
			if err != nil {
				return fmt.Errorf("failed to load warehouse: %w", err)
			}

			wh := resp.Warehouse
			fmt.Printf("Warehouse: %s\n", wh.Name)
			fmt.Printf("ID: %s\n", wh.ID)
			if wh.Description != "" {
				fmt.Printf("Description: %s\n", wh.Description)
			}
			if wh.IsArchived {
				fmt.Println("Status: archived")
			}
			fmt.Printf("Last Activity: %s\n\n", formatTime(wh.LastActivity()))

			printItems(resp.Items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&order, "order", "o", "name", "Item order: name, recent or input")
	return cmd
}

func newWarehouseUpdateCommand() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update <warehouse-id>",
		Short: "Rename a warehouse or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &transport.UpdateWarehouseRequest{WarehouseID: args[0]}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if req.Name == nil && req.Description == nil {
				return fmt.Errorf("nothing to update: pass --name or --description")
			}

			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.UpdateWarehouse(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to update warehouse: %w", err)
			}

			fmt.Printf("Updated warehouse: %s (%s)\n", resp.Warehouse.Name, resp.Warehouse.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New warehouse name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New warehouse description")
	return cmd
}

func newWarehouseArchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <warehouse-id>",
		Short: "Archive a warehouse and every active item in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.ArchiveWarehouse(ctx, &transport.WarehouseRequest{WarehouseID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to archive warehouse: %w", err)
			}

			fmt.Printf("Archived warehouse: %s\n", resp.Warehouse.Name)
			return nil
		},
	}
}

func newWarehouseRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <warehouse-id>",
		Short: "Restore an archived warehouse (its items stay archived)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.RestoreWarehouse(ctx, &transport.WarehouseRequest{WarehouseID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to restore warehouse: %w", err)
			}

			fmt.Printf("Restored warehouse: %s\n", resp.Warehouse.Name)
			return nil
		},
	}
}

func newWarehousePrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print <warehouse-id>",
		Short: "Print a stock report for a warehouse and archive it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.PrintWarehouseReport(ctx, &transport.WarehouseRequest{WarehouseID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to print warehouse report: %w", err)
			}

			printReportResult(resp)
			return nil
		},
	}
}

func printReportResult(resp *transport.PrintResponse) {
	fmt.Printf("Report written to: %s\n", resp.Output)
	if resp.Report != nil {
		fmt.Printf("Archived as report %s\n", resp.Report.ID)
	}
}
