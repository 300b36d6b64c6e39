package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"costs/internal/amqp"
	"costs/internal/cache"
	applog "costs/internal/log"
	"costs/internal/report"
	"costs/internal/services"
	"costs/internal/storage"
	"costs/internal/storage/memory"
	"costs/internal/storage/sqlite"
)

const (
	defaultCacheSize = 32
	defaultCacheTTL  = 5 * time.Minute
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

	driver, err := f.createDriver(config)
	if err != nil {
		return nil, err
	}

	store := storage.New(driver)
	table, err := store.Open(ctx, config.StoreName, config.StoreVersion)
	if err != nil {
		return nil, err
	}

	publisher := f.createPublisher(ctx, config)

	size, ttl := config.ReportCacheSize, config.ReportCacheTTL
	if size < 1 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	reports := cache.NewLRUCache[report.Summary](size, ttl)

	svc := services.NewExpenseService(table, publisher, reports)

	fields := applog.NewFields().WithStore(config.StoreName, config.StoreVersion)
	fields = append(fields, applog.FieldBackend, config.Type.String(), "amqp_enabled", publisher != nil)
	f.logger.DebugContext(ctx, "Initialized backend", fields.ToSlice()...)

	return &BackendResult{
		Store:   store,
		Table:   table,
		Service: svc,
		Cleanup: func() error {
			return errors.Join(svc.Close(), store.Close())
		},
	}, nil
}

func (f *DefaultFactory) createDriver(config Config) (storage.Driver, error) {
	switch config.Type {
	case SQLiteBackend:
		return sqlite.NewDriver(config.DataDirectory), nil
	case MemoryBackend:
		return memory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createPublisher connects to the broker when configured. A broker that
// cannot be reached disables events instead of failing the backend.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) services.Publisher {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
			applog.FieldError, err)
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
