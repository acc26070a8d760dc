package core

import (
	"fmt"
	"os"

	"librarycore/internal/infra/persistence/memory"
	"librarycore/internal/infra/persistence/postgres"
	"librarycore/internal/infra/persistence/sqlite"
	"librarycore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// NewInMemoryService creates a service backed by a fresh in-memory store.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(), opts...)
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	LIBRARYCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	LIBRARYCORE_SQLITE_PATH: path to sqlite file (default ./librarycore.db)
//	LIBRARYCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore() (domain.PersistentStore, error) {
	driver := os.Getenv("LIBRARYCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("LIBRARYCORE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("LIBRARYCORE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
