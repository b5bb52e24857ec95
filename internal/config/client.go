package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ClientConfig represents the warehousectl configuration
type ClientConfig struct {
	ServerAddr  string `json:"server_addr"`
	CurrentUser string `json:"current_user"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// DefaultClientConfig returns the default configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerAddr: "localhost:" + defaultPort,
	}
}

// ClientConfigPath returns the path to the configuration file, creating its directory
func ClientConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".warehousectl")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// LoadClientConfig reads the configuration at path. A missing file yields the defaults.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultClientConfig(), nil
		}
		return DefaultClientConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultClientConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultClientConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path
func (c *ClientConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
