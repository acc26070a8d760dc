package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"librarycore/pkg/domain"
)

func TestCreateAssignsSequentialIDs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var first, second domain.User
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		if first, err = tx.CreateUser(domain.User{Name: "Alice"}); err != nil {
			return err
		}
		second, err = tx.CreateUser(domain.User{Name: "Bob"})
		return err
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected sequential IDs 1,2 got %d,%d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Fatal("timestamps should be set on create")
	}
}

func TestSequencesAreIndependentPerEntity(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		user, err := tx.CreateUser(domain.User{Name: "Alice"})
		if err != nil {
			return err
		}
		book, err := tx.CreateBook(domain.Book{Title: "Dune"})
		if err != nil {
			return err
		}
		if user.ID != 1 || book.ID != 1 {
			t.Fatalf("sequences should not share a counter: user=%d book=%d", user.ID, book.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}

func TestCreateWithExplicitIDRejectsDuplicates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateBook(domain.Book{Base: domain.Base{ID: 5}, Title: "Dune"}); err != nil {
			return err
		}
		_, err := tx.CreateBook(domain.Book{Base: domain.Base{ID: 5}, Title: "Other"})
		return err
	})
	if err == nil {
		t.Fatal("expected duplicate ID error")
	}
}

func TestFailedTransactionLeavesNoPartialWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedUser(t, store, "Alice")

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateUser(domain.User{Name: "Bob"}); err != nil {
			return err
		}
		if err := tx.DeleteUser(1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transaction error, got %v", err)
	}

	if _, ok := store.GetUser(1); !ok {
		t.Fatal("delete inside failed transaction should not commit")
	}
	if users := store.ListUsers(); len(users) != 1 {
		t.Fatalf("create inside failed transaction should not commit, have %d users", len(users))
	}
}

func TestUpdateMissingRecordReturnsNotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateLoan(99, func(*domain.Loan) error { return nil })
		return err
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Entity != domain.EntityLoan || nf.ID != 99 {
		t.Fatalf("unexpected error detail %+v", nf)
	}
}

func TestDeleteMissingRecordReturnsNotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, del := range []func(domain.Transaction) error{
		func(tx domain.Transaction) error { return tx.DeleteUser(1) },
		func(tx domain.Transaction) error { return tx.DeleteBook(1) },
		func(tx domain.Transaction) error { return tx.DeleteLoan(1) },
	} {
		err := store.RunInTransaction(ctx, del)
		if !domain.IsNotFound(err) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
	}
}

func TestUpdatePreservesIDAndBumpsUpdatedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created := seedUser(t, store, "Alice")

	store.nowFn = func() time.Time { return created.CreatedAt.Add(time.Hour) }
	var updated domain.User
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateUser(created.ID, func(u *domain.User) error {
			u.ID = 999 // mutator cannot reassign identity
			u.Name = "Alicia"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("ID should be immutable, got %d", updated.ID)
	}
	if updated.Name != "Alicia" {
		t.Fatalf("mutation lost, name=%q", updated.Name)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatal("UpdatedAt should advance on update")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("CreatedAt should be preserved on update")
	}
}

func TestMutatorErrorAbortsUpdate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created := seedUser(t, store, "Alice")

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateUser(created.ID, func(u *domain.User) error {
			u.Name = "changed"
			return boom
		})
		return err
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	stored, _ := store.GetUser(created.ID)
	if stored.Name != "Alice" {
		t.Fatalf("failed mutator should not commit, name=%q", stored.Name)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedUser(t, store, "Alice")
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		book, err := tx.CreateBook(domain.Book{Title: "Dune", Author: "Herbert"})
		if err != nil {
			return err
		}
		_, err = tx.CreateLoan(domain.Loan{
			BookID:     book.ID,
			UserID:     1,
			LoanDate:   domain.NewDate(2024, time.May, 1),
			ReturnDate: domain.NewDate(2024, time.May, 31),
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	restored := NewStore()
	restored.ImportState(store.ExportState())

	if _, ok := restored.GetUser(1); !ok {
		t.Fatal("user lost in round trip")
	}
	if _, ok := restored.GetBook(1); !ok {
		t.Fatal("book lost in round trip")
	}
	loan, ok := restored.GetLoan(1)
	if !ok {
		t.Fatal("loan lost in round trip")
	}
	if loan.LoanDate.String() != "2024-05-01" {
		t.Fatalf("loan date corrupted: %s", loan.LoanDate)
	}

	// New records after a restore must not collide with restored IDs.
	var next domain.User
	err = restored.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		next, err = tx.CreateUser(domain.User{Name: "Bob"})
		return err
	})
	if err != nil {
		t.Fatalf("create after restore failed: %v", err)
	}
	if next.ID != 2 {
		t.Fatalf("sequence not restored, got ID %d", next.ID)
	}
}

func TestImportRebuildsSequencesFromIDs(t *testing.T) {
	store := NewStore()
	store.ImportState(Snapshot{
		Users: map[int64]domain.User{
			7: {Base: domain.Base{ID: 7}, Name: "Alice"},
		},
	})

	var created domain.User
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateUser(domain.User{Name: "Bob"})
		return err
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 8 {
		t.Fatalf("sequence should resume past highest ID, got %d", created.ID)
	}
}

func TestViewSeesCommittedStateOnly(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedUser(t, store, "Alice")

	err := store.View(ctx, func(v domain.TransactionView) error {
		if len(v.ListUsers()) != 1 {
			t.Fatalf("expected one user in view")
		}
		if _, ok := v.FindUser(1); !ok {
			t.Fatal("committed user should be visible")
		}
		if _, ok := v.FindUser(2); ok {
			t.Fatal("unknown user should not be visible")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func seedUser(t *testing.T, store *Store, name string) domain.User {
	t.Helper()
	var created domain.User
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateUser(domain.User{Name: name})
		return err
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return created
}
