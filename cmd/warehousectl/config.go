package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/auth"
	"github.com/DaDevFox/task-systems/warehouse-core/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	var name, role string
	setUser := &cobra.Command{
		Use:   "set-user <user-id>",
		Short: "Set the current user recorded on printed reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" && auth.NormalizeRole(role) == auth.RoleUnknown {
				return fmt.Errorf("unknown role %q (use viewer, clerk or admin)", role)
			}

			cfg.CurrentUser = args[0]
			cfg.DisplayName = name
			cfg.Role = role
			if err := cfg.Save(cfgPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Current user set to: %s\n", args[0])
			return nil
		},
	}
	setUser.Flags().StringVar(&name, "name", "", "Display name shown on printed reports")
	setUser.Flags().StringVar(&role, "role", "", "Role: viewer, clerk or admin")
	cmd.AddCommand(setUser)

	cmd.AddCommand(&cobra.Command{
		Use:   "set-server <address>",
		Short: "Set the server address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ServerAddr = args[0]
			if err := cfg.Save(cfgPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Server address set to: %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Current Configuration:\n")
			fmt.Printf("  Current User: %s\n", cfg.CurrentUser)
			fmt.Printf("  Display Name: %s\n", cfg.DisplayName)
			fmt.Printf("  Role: %s\n", cfg.Role)
			fmt.Printf("  Server Address: %s\n", cfg.ServerAddr)
			fmt.Printf("  Config File: %s\n", cfgPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.DefaultClientConfig()
			if err := cfg.Save(cfgPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Println("Configuration reset to defaults")
			return nil
		},
	})

	return cmd
}
