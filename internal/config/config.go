// Package config loads server settings from the environment and the CLI's
// JSON settings file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	defaultPort      = "50055"
	defaultDBPath    = "./data/warehouse"
	defaultDBType    = "bolt"
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultReportDir = "./data/reports"
	defaultRPS       = 1.0
)

// Advisor backends
const (
	AdvisorNone   = "none"
	AdvisorGemini = "gemini"
	AdvisorOpenAI = "openai"
)

// ServerConfig holds everything cmd/server needs to start
type ServerConfig struct {
	Port         string
	DBPath       string
	DBType       string
	PostgresURL  string
	LogLevel     string
	LogFormat    string
	ReportDir    string
	Advisor      string
	GeminiAPIKey string
	OpenAIAPIKey string
	AdvisorModel string
	AdvisorRPS   float64
	RequireUser  bool
}

// LoadServerConfig reads an optional .env file, then the environment.
// Variables already set in the environment win over .env values.
func LoadServerConfig(envFiles ...string) (*ServerConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to load .env file")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a ServerConfig from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (*ServerConfig, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &ServerConfig{
		Port:         get("WAREHOUSE_PORT", defaultPort),
		DBPath:       get("WAREHOUSE_DB_PATH", defaultDBPath),
		DBType:       strings.ToLower(get("WAREHOUSE_DB_TYPE", defaultDBType)),
		PostgresURL:  get("WAREHOUSE_POSTGRES_URL", ""),
		LogLevel:     get("WAREHOUSE_LOG_LEVEL", defaultLogLevel),
		LogFormat:    get("WAREHOUSE_LOG_FORMAT", defaultLogFormat),
		ReportDir:    get("WAREHOUSE_REPORT_DIR", defaultReportDir),
		Advisor:      strings.ToLower(get("WAREHOUSE_ADVISOR", AdvisorNone)),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		OpenAIAPIKey: get("OPENAI_API_KEY", ""),
		AdvisorModel: get("WAREHOUSE_ADVISOR_MODEL", ""),
		AdvisorRPS:   defaultRPS,
	}

	if raw := get("WAREHOUSE_ADVISOR_RPS", ""); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return nil, errors.Errorf("WAREHOUSE_ADVISOR_RPS must be a positive number, got %q", raw)
		}
		cfg.AdvisorRPS = rps
	}

	if raw := get("WAREHOUSE_REQUIRE_USER", ""); raw != "" {
		required, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Errorf("WAREHOUSE_REQUIRE_USER must be a boolean, got %q", raw)
		}
		cfg.RequireUser = required
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *ServerConfig) Validate() error {
	switch c.DBType {
	case "bolt", "badger", "memory":
	case "postgres":
		if c.PostgresURL == "" {
			return errors.New("WAREHOUSE_POSTGRES_URL is required when WAREHOUSE_DB_TYPE=postgres")
		}
	default:
		return errors.Errorf("unsupported WAREHOUSE_DB_TYPE %q", c.DBType)
	}

	switch c.Advisor {
	case AdvisorNone:
	case AdvisorGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when WAREHOUSE_ADVISOR=gemini")
		}
	case AdvisorOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when WAREHOUSE_ADVISOR=openai")
		}
	default:
		return errors.Errorf("unsupported WAREHOUSE_ADVISOR %q", c.Advisor)
	}
	return nil
}
