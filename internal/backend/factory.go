package backend

import (
	"context"
	"fmt"

	"spendwise/internal/amqp"
	"spendwise/internal/log"
	"spendwise/internal/services"
	"spendwise/internal/storage"
	"spendwise/internal/store"
	"spendwise/internal/store/memory"
	"spendwise/internal/store/remote"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RemoteBackend:
		return f.createRemoteStore(ctx, config), nil
	case MemoryBackend:
		st, err := f.createMemory(config)
		if err != nil {
			return nil, err
		}
		return &StoreResult{Store: st, Cleanup: st.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", config.Type)
	}
}

// CreateRepository implements Factory.CreateRepository
func (f *DefaultFactory) CreateRepository(ctx context.Context, config Config) (*RepositoryResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var repo store.Repository
	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repo = sqliteRepo
	case MemoryBackend:
		st, err := f.createMemory(config)
		if err != nil {
			return nil, err
		}
		repo = st
	default:
		return nil, fmt.Errorf("unsupported repository backend: %s", config.Type)
	}

	// AMQP is optional: without it the store still serves requests.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err,
				"error_type", log.ErrorTypeNetwork)
		} else {
			amqpClient = c
			publisher = c
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(repo, publisher)
	f.logger.InfoContext(ctx, "Initialized repository",
		"backend", config.Type.String(),
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &RepositoryResult{
		Service: svc,
		Cleanup: func() error {
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					f.logger.Warn("Failed to close AMQP client", log.FieldError, err)
				}
			}
			return svc.Close()
		},
	}, nil
}

// createRemoteStore does not fail when the store is down: reads degrade to
// empty until it answers.
func (f *DefaultFactory) createRemoteStore(ctx context.Context, config Config) *StoreResult {
	client := remote.New(config.StoreURL, config.StoreTimeout)
	if err := client.Ping(ctx); err != nil {
		f.logger.WarnContext(ctx, "Expense store not reachable yet",
			"url", config.StoreURL,
			log.FieldError, err,
			"error_type", log.ErrorTypeNetwork)
	} else {
		f.logger.InfoContext(ctx, "Connected to expense store", "url", config.StoreURL)
	}
	return &StoreResult{Store: client}
}

func (f *DefaultFactory) createMemory(config Config) (*memory.Store, error) {
	if config.SeedFile == "" {
		f.logger.Info("Initialized empty memory store")
		return memory.New(), nil
	}
	st, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory store: %w", err)
	}
	f.logger.Info("Initialized memory store", "seed_file", config.SeedFile)
	return st, nil
}
