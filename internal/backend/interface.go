// Package backend assembles the ledger from configuration: the store, the
// optional event publisher, the category cache and the spreadsheet mirror.
package backend

import (
	"context"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/services"
	"saldo/internal/sheets"
	"saldo/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is a ready ledger plus the pieces callers may need directly.
type BackendResult struct {
	Ledger *services.Ledger
	Store  store.Store
	// Events is nil when AMQP is not configured or unreachable.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store and wires a Ledger over it.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror returns the Google Sheets mirror when a spreadsheet is
	// configured, otherwise an in-memory one.
	CreateMirror(ctx context.Context, config Config) (sheets.LedgerMirror, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	DeletePolicy      services.DeletePolicy
	CategoryCacheTTL  time.Duration
	CategoryCacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
