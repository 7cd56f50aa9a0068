package backend

import (
	"context"
	"time"

	"spendwise/internal/services"
	"spendwise/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// StoreResult is the store the dashboard reads and writes through.
type StoreResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// RepositoryResult is the authoritative store served by cmd/expense-store,
// wrapped in the service that publishes change events.
type RepositoryResult struct {
	Service *services.ExpenseService
	Cleanup CleanupFunc
}

// Factory creates store backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateRepository(ctx context.Context, config Config) (*RepositoryResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Remote
	StoreURL     string
	StoreTimeout time.Duration

	// Memory
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// Change events, used by repositories only
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	RemoteBackend BackendType = "remote"
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RemoteBackend, MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
