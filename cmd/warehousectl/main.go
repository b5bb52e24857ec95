package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/config"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/transport"
)

var (
	serverAddr string
	userFlag   string
	cfgPath    string
	cfg        *config.ClientConfig
	client     *transport.Client
)

const requestTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "warehousectl",
		Short:         "Warehouse inventory CLI client",
		Long:          "Manage warehouses, item stock ledgers and printed reports on a warehouse-core server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeClient()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if client != nil {
				client.Close()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "Server address (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User ID (overrides config)")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newWarehouseCommand())
	rootCmd.AddCommand(newItemCommand())
	rootCmd.AddCommand(newTransactionsCommand())
	rootCmd.AddCommand(newReportsCommand())
	rootCmd.AddCommand(newArchivedCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newVerifyCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
		os.Exit(1)
	}
}

func initializeClient() error {
	var err error
	cfgPath, err = config.ClientConfigPath()
	if err != nil {
		return err
	}

	cfg, err = config.LoadClientConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
	}

	if serverAddr == "" {
		serverAddr = cfg.ServerAddr
	}

	claims := &auth.Claims{
		UserID: cfg.CurrentUser,
		Name:   cfg.DisplayName,
		Role:   auth.NormalizeRole(cfg.Role),
	}
	if userFlag != "" {
		claims = &auth.Claims{UserID: userFlag}
	}

	client, err = transport.Dial(serverAddr, claims)
	return err
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// errorMessage prefers the server's status message over the wrapped gRPC error text
func errorMessage(err error) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}
