package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"librarycore/internal/infra/persistence/postgres/testutil"
	"librarycore/pkg/domain"
)

func TestNewStoreAppliesDDLAndLoadsSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	seedBucket(t, conn, "users", map[int64]domain.User{
		1: {Base: domain.Base{ID: 1}, Name: "Alice"},
	})

	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	user, ok := store.GetUser(1)
	if !ok || user.Name != "Alice" {
		t.Fatalf("snapshot not hydrated: %+v ok=%v", user, ok)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE") {
			sawDDL = true
			break
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsState(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBook(domain.Book{Title: "Dune"})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	payload, ok := conn.Buckets["books"]
	if !ok {
		t.Fatalf("books bucket not written, have %v", conn.Buckets)
	}
	var books map[int64]domain.Book
	if err := json.Unmarshal(payload, &books); err != nil {
		t.Fatalf("decode books bucket: %v", err)
	}
	if len(books) != 1 || books[1].Title != "Dune" {
		t.Fatalf("unexpected persisted books %v", books)
	}
	if _, ok := conn.Buckets["sequences"]; !ok {
		t.Fatal("sequence counters must be snapshotted")
	}
}

func TestRunInTransactionStopsOnUserError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	userErr := fmt.Errorf("user fail")
	if err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return userErr }); !errors.Is(err, userErr) {
		t.Fatalf("expected user error to propagate, got %v", err)
	}
	if len(conn.Buckets) != 0 {
		t.Fatalf("failed transaction must not persist, have %v", conn.Buckets)
	}
}

func TestRunInTransactionPersistErrorWhenExecFails(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailExec = true
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateUser(domain.User{Name: "Alice"})
		return err
	})
	if err == nil {
		t.Fatal("expected persistence error when exec fails")
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, fmt.Errorf("open fail")
	})
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "open fail") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestNewStorePingError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestNewStoreRowsError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.RowsErr = fmt.Errorf("row err")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected rows error")
	}
}

func TestLoadSnapshotIgnoresUnknownBuckets(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.Buckets["legacy"] = []byte(`{"anything":true}`)
	seedBucket(t, conn, "loans", map[int64]domain.Loan{
		3: {
			Base:       domain.Base{ID: 3},
			BookID:     1,
			UserID:     1,
			LoanDate:   domain.NewDate(2024, time.May, 1),
			ReturnDate: domain.NewDate(2024, time.May, 31),
		},
	})

	snapshot, err := loadSnapshot(context.Background(), db)
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if len(snapshot.Loans) != 1 {
		t.Fatalf("expected one loan, got %v", snapshot.Loans)
	}
}

func TestPersistCommitError(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	conn.FailCommit = true
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateUser(domain.User{Name: "Alice"})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestStoreDBExposesHandle(t *testing.T) {
	db, _ := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	store, err := NewStore("ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.DB() == nil {
		t.Fatal("expected DB handle")
	}
}

func seedBucket(t *testing.T, conn *testutil.StubConn, bucket string, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal %s bucket: %v", bucket, err)
	}
	conn.Buckets[bucket] = data
}
