package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/domain"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

func newItemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Item and stock commands",
		Long:  "Item and stock commands. Commands taking an optional item ID open a fuzzy finder when it is omitted.",
	}

	cmd.AddCommand(newItemCreateCommand())
	cmd.AddCommand(newItemShowCommand())
	cmd.AddCommand(newStockCommand("add", "Add stock to an item", (*transport.Client).AddStock))
	cmd.AddCommand(newStockCommand("consume", "Consume stock from an item", (*transport.Client).ConsumeStock))
	cmd.AddCommand(newItemHistoryCommand())
	cmd.AddCommand(newItemArchiveCommand())
	cmd.AddCommand(newItemRestoreCommand())
	cmd.AddCommand(newItemPrintCommand())
	cmd.AddCommand(newItemSuggestCommand())

	return cmd
}

func newItemCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <warehouse-id> <name> <initial-quantity>",
		Short: "Create an item with an opening stock entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid initial quantity %q: %w", args[2], err)
			}

			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.CreateItem(ctx, &transport.CreateItemRequest{
				WarehouseID:     args[0],
				Name:            args[1],
				InitialQuantity: quantity,
			})
			if err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}

			fmt.Printf("Created item: %s (%s) with quantity %d\n", resp.Item.Name, resp.Item.ID, resp.Item.Quantity)
			return nil
		},
	}
}

func newItemShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [item-id]",
		Short: "Show an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 0)
			if err != nil {
				return err
			}

			resp, err := client.GetItem(ctx, &transport.ItemRequest{ItemID: itemID})
			if err != nil {
				return fmt.Errorf("failed to get item: %w", err)
			}

			item := resp.Item
			fmt.Printf("Item: %s\n", item.Name)
			fmt.Printf("ID: %s\n", item.ID)
			fmt.Printf("Warehouse: %s\n", item.WarehouseID)
			fmt.Printf("Quantity: %d\n", item.Quantity)
			if item.IsArchived {
				fmt.Println("Status: archived")
			}
			fmt.Printf("Created: %s\n", formatTime(item.CreatedAt))
			fmt.Printf("Updated: %s\n", formatTime(item.UpdatedAt))
			if last, ok := item.LastEntry(); ok {
				fmt.Printf("Last Movement: %s %+d\n", last.Type.Label(), last.Change)
			}
			return nil
		},
	}
}

type stockCall func(*transport.Client, context.Context, *transport.StockRequest) (*transport.StockResponse, error)

func newStockCommand(use, short string, call stockCall) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   use + " <amount> [item-id]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 1)
			if err != nil {
				return err
			}

			resp, err := call(client, ctx, &transport.StockRequest{
				ItemID:  itemID,
				Amount:  amount,
				Comment: comment,
			})
			if err != nil {
				return fmt.Errorf("failed to %s stock: %w", use, err)
			}

			fmt.Printf("%s: %s %d -> %d\n", resp.Entry.Type.Label(), resp.Item.Name,
				resp.Entry.QuantityBefore, resp.Entry.QuantityAfter)
			return nil
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Comment recorded on the ledger entry")
	return cmd
}

func newItemHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [item-id]",
		Short: "Show an item's stock ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 0)
			if err != nil {
				return err
			}

			resp, err := client.GetItemHistory(ctx, &transport.ItemRequest{ItemID: itemID})
			if err != nil {
				return fmt.Errorf("failed to get item history: %w", err)
			}

			fmt.Printf("History for %s (quantity %d)\n\n", resp.Item.Name, resp.Item.Quantity)
			printHistory(resp.History)
			return nil
		},
	}
}

func newItemArchiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [item-id]",
		Short: "Archive an item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 0)
			if err != nil {
				return err
			}

			resp, err := client.ArchiveItem(ctx, &transport.ItemRequest{ItemID: itemID})
			if err != nil {
				return fmt.Errorf("failed to archive item: %w", err)
			}

			fmt.Printf("Archived item: %s\n", resp.Item.Name)
			return nil
		},
	}
}

// newItemRestoreCommand takes an explicit ID because archived items never
// show up in the picker.
func newItemRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <item-id>",
		Short: "Restore an archived item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			resp, err := client.RestoreItem(ctx, &transport.ItemRequest{ItemID: args[0]})
			if err != nil {
				return fmt.Errorf("failed to restore item: %w", err)
			}

			fmt.Printf("Restored item: %s\n", resp.Item.Name)
			return nil
		},
	}
}

func newItemPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print [item-id]",
		Short: "Print an item history report and archive it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 0)
			if err != nil {
				return err
			}

			resp, err := client.PrintItemReport(ctx, &transport.ItemRequest{ItemID: itemID})
			if err != nil {
				return fmt.Errorf("failed to print item report: %w", err)
			}

			printReportResult(resp)
			return nil
		},
	}
}

func newItemSuggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest [item-id]",
		Short: "Ask the stock advisor for a suggested stock level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext()
			defer cancel()

			itemID, err := resolveItemID(ctx, args, 0)
			if err != nil {
				return err
			}

			resp, err := client.SuggestStockLevel(ctx, &transport.ItemRequest{ItemID: itemID})
			if err != nil {
				return fmt.Errorf("failed to get suggestion: %w", err)
			}

			fmt.Printf("Suggested stock level: %d\n", resp.Suggestion.SuggestedStockLevel)
			fmt.Printf("Reasoning: %s\n", resp.Suggestion.Reasoning)
			if resp.Suggestion.Alert != "" {
				fmt.Printf("Alert: %s\n", resp.Suggestion.Alert)
			}
			return nil
		},
	}
}

// resolveItemID returns args[pos] when present, otherwise lets the user pick
// an active item interactively
func resolveItemID(ctx context.Context, args []string, pos int) (string, error) {
	if len(args) > pos {
		return args[pos], nil
	}
	return pickItem(ctx)
}

type pickEntry struct {
	warehouse *domain.Warehouse
	item      *domain.Item
}

func pickItem(ctx context.Context) (string, error) {
	warehouses, err := client.SearchWarehouses(ctx, &transport.SearchWarehousesRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to list warehouses: %w", err)
	}

	var entries []pickEntry
	for _, wh := range warehouses.Warehouses {
		listing, err := client.ListWarehouseItems(ctx, &transport.ListWarehouseItemsRequest{
			WarehouseID: wh.ID,
			Order:       "name",
		})
		if err != nil {
			return "", fmt.Errorf("failed to list items of %s: %w", wh.Name, err)
		}
		for _, item := range listing.Items {
			entries = append(entries, pickEntry{warehouse: wh, item: item})
		}
	}

	if len(entries) == 0 {
		return "", fmt.Errorf("no active items to choose from")
	}

	idx, err := fuzzyfinder.Find(entries,
		func(i int) string {
			return fmt.Sprintf("%s / %s", entries[i].warehouse.Name, entries[i].item.Name)
		},
		fuzzyfinder.WithPromptString("item> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i < 0 {
				return ""
			}
			item := entries[i].item
			return fmt.Sprintf("%s\nWarehouse: %s\nQuantity: %d\nID: %s",
				item.Name, entries[i].warehouse.Name, item.Quantity, item.ID)
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return "", fmt.Errorf("no item selected")
	}
	if err != nil {
		return "", fmt.Errorf("item picker failed: %w", err)
	}

	return entries[idx].item.ID, nil
}
