package archive

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"librarycore/internal/infra/blob"
	"librarycore/internal/infra/persistence/memory"
	"librarycore/pkg/domain"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		user, err := tx.CreateUser(domain.User{Name: "Alice"})
		if err != nil {
			return err
		}
		book, err := tx.CreateBook(domain.Book{Title: "Dune"})
		if err != nil {
			return err
		}
		_, err = tx.CreateLoan(domain.Loan{
			BookID:     book.ID,
			UserID:     user.ID,
			LoanDate:   domain.NewDate(2024, time.May, 1),
			ReturnDate: domain.NewDate(2024, time.May, 31),
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestArchiveWritesTimestampedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	blobs := blob.NewMemory()

	archiver := NewArchiver(store, blobs)
	archiver.nowFn = func() time.Time { return time.Date(2024, time.June, 1, 12, 30, 45, 0, time.UTC) }

	info, err := archiver.Archive(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if info.Key != "snapshots/librarycore-20240601T123045Z.json" {
		t.Fatalf("unexpected key %q", info.Key)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}

	_, rc, err := blobs.Get(ctx, info.Key)
	if err != nil {
		t.Fatalf("get archived blob: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Users) != 1 || len(snapshot.Books) != 1 || len(snapshot.Loans) != 1 {
		t.Fatalf("snapshot incomplete: %+v", snapshot)
	}
	if snapshot.Loans[1].LoanDate.String() != "2024-05-01" {
		t.Fatalf("loan date corrupted: %s", snapshot.Loans[1].LoanDate)
	}
}

func TestArchiveListReturnsOnlySnapshots(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	blobs := blob.NewMemory()
	if _, err := blobs.Put(ctx, "unrelated/key", strings.NewReader("x"), blob.PutOptions{}); err != nil {
		t.Fatalf("put unrelated: %v", err)
	}

	archiver := NewArchiver(store, blobs)
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		offset := i
		archiver.nowFn = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }
		if _, err := archiver.Archive(ctx); err != nil {
			t.Fatalf("archive %d: %v", i, err)
		}
	}

	infos, err := archiver.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(infos))
	}
}
