package backend

import (
	"fmt"

	"spendwise/internal/config"
)

// StoreConfig selects the dashboard's store from the application config.
func StoreConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	c := Config{
		Type:         BackendType(appConfig.StoreBackend),
		StoreURL:     appConfig.StoreURL,
		StoreTimeout: appConfig.StoreTimeout,
		SeedFile:     appConfig.StoreSeedFile,
	}
	if c.Type == SQLiteBackend {
		return Config{}, fmt.Errorf("the dashboard reads the store over HTTP, use remote or memory")
	}
	return c, c.Validate()
}

// RepositoryConfig selects the expense store server's repository.
func RepositoryConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	c := Config{
		Type:         BackendType(appConfig.RepositoryBackend),
		SeedFile:     appConfig.StoreSeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if c.Type == RemoteBackend {
		return Config{}, fmt.Errorf("the expense store cannot use another store as its repository")
	}
	return c, c.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RemoteBackend:
		if c.StoreURL == "" {
			return fmt.Errorf("store URL is required for remote backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
		// Seed file is optional
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{RemoteBackend, MemoryBackend, SQLiteBackend}
}
