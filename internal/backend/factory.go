package backend

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	sheetsmem "saldo/internal/sheets/memory"
	"saldo/internal/storage"
	"saldo/internal/store"
	storemem "saldo/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := OpenStore(config)
	if err != nil {
		return nil, err
	}

	// A nil *amqp.Client must not reach the ledger as a non-nil interface.
	var events services.EventPublisher
	client := f.connectAMQP(config)
	if client != nil {
		events = client
	}

	opts := services.LedgerOptions{DeletePolicy: config.DeletePolicy}
	var categories *cache.LRU[[]core.Category]
	if config.CategoryCacheTTL > 0 {
		categories = cache.NewLRU[[]core.Category](config.CategoryCacheSize, config.CategoryCacheTTL)
		opts.CategoryCache = categories
	}

	ledger := services.NewLedger(st, events, opts)

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		"backend", config.Type,
		"amqp_enabled", client != nil,
		"delete_policy", config.DeletePolicy,
		"category_cache", categories != nil)

	return &BackendResult{
		Ledger: ledger,
		Store:  st,
		Events: client,
		Cleanup: func() error {
			if categories != nil {
				stats := categories.Stats()
				f.logger.Info("Category cache stats",
					"hits", stats.Hits,
					"misses", stats.Misses,
					"evictions", stats.Evictions,
					"discarded", stats.Discarded)
			}
			return ledger.Close()
		},
	}, nil
}

// OpenStore opens the store selected by config.Type.
func OpenStore(config Config) (store.Store, error) {
	switch config.Type {
	case MemoryBackend:
		return storemem.New(), nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case PostgresBackend:
		repo, err := storage.Open(storage.DialectPostgres, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// connectAMQP returns nil when AMQP is off or unreachable; writes then
// proceed without mirror events.
func (f *DefaultFactory) connectAMQP(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without mirror events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (sheets.LedgerMirror, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "No spreadsheet configured, mirroring to memory")
		return sheetsmem.New(), nil
	}
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
	return cli, nil
}

// ErrNoBroker is returned by ConnectConsumer when AMQP is not configured.
var ErrNoBroker = errors.New("AMQP_URL is not configured")

// ConnectConsumer opens the AMQP client the mirror worker consumes from.
// Unlike CreateBackend it fails when the broker is missing.
func ConnectConsumer(config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		return nil, ErrNoBroker
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}
