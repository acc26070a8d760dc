package core

import (
	"path/filepath"
	"testing"

	"librarycore/internal/infra/persistence/memory"
	"librarycore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("LIBRARYCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("LIBRARYCORE_STORAGE_DRIVER", "")
	t.Setenv("LIBRARYCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "library.db"))
	store, err := OpenPersistentStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("LIBRARYCORE_STORAGE_DRIVER", "bogus")
	if _, err := OpenPersistentStore(); err == nil {
		t.Fatal("unknown driver must error")
	}
}

func TestNewInMemoryService(t *testing.T) {
	svc := NewInMemoryService()
	if _, ok := svc.Store().(*memory.Store); !ok {
		t.Fatalf("expected memory-backed service, got %T", svc.Store())
	}
}
