package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DatabaseType represents different database backend options
type DatabaseType string

const (
	DatabaseTypeBolt     DatabaseType = "bolt"
	DatabaseTypeBadger   DatabaseType = "badger"
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMemory   DatabaseType = "memory"
)

// Options selects and configures a backend
type Options struct {
	Type        DatabaseType
	Path        string
	PostgresURL string
}

// NewRepository creates a repository with the specified database type
//
// Database Types:
// - bolt: compact single-file B+ tree database (default)
// - badger: LSM-tree database directory, fast writes but large .vlog files
// - postgres: shared PostgreSQL database, one JSONB document per record
// - memory: nothing persisted, for tests and demos
func NewRepository(ctx context.Context, opts Options, logger *logrus.Logger) (Repository, error) {
	switch opts.Type {
	case DatabaseTypeBolt, "":
		path := opts.Path
		if !strings.HasSuffix(path, ".bolt") {
			path = path + ".bolt"
		}
		return NewBoltRepository(path, logger)

	case DatabaseTypeBadger:
		return NewBadgerRepository(opts.Path, logger)

	case DatabaseTypePostgres:
		return NewPostgresRepository(ctx, opts.PostgresURL, logger)

	case DatabaseTypeMemory:
		return NewInMemoryRepository(), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", opts.Type)
	}
}

// GetDatabaseInfo returns information about the different database options
func GetDatabaseInfo() map[DatabaseType]string {
	return map[DatabaseType]string{
		DatabaseTypeBolt:     "Compact B+ tree database in a single file. Default; suits one site with modest history.",
		DatabaseTypeBadger:   "LSM-tree database directory. Fast for heavy write loads, but creates large .vlog files.",
		DatabaseTypePostgres: "PostgreSQL with one JSONB document per record. Use when several servers share the ledger.",
		DatabaseTypeMemory:   "Nothing is persisted. For tests and demos only.",
	}
}
