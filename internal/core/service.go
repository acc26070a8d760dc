package core

import (
	"context"
	"sort"
	"time"

	"librarycore/pkg/domain"
)

// Service exposes the CRUD operations for the library schema. It is the sole
// mutator of loan state: every loan write passes through validation and
// cross-entity resolution before the store is touched.
type Service struct {
	store   domain.PersistentStore
	metrics MetricsRecorder
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetricsRecorder attaches a recorder observing every service operation.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
}

// Loans -----------------------------------------------------------------------

// ListLoans returns all loans with their book and user resolved into embedded
// records, ordered by ID.
func (s *Service) ListLoans(ctx context.Context) (out []LoanDetail, err error) {
	defer s.observe(ctx, "list_loans", time.Now(), nil)
	err = s.store.View(ctx, func(v domain.TransactionView) error {
		loans := v.ListLoans()
		out = make([]LoanDetail, 0, len(loans))
		for _, loan := range loans {
			out = append(out, resolveLoan(v, loan))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetLoan returns the loan for id with book and user embedded.
func (s *Service) GetLoan(ctx context.Context, id int64) (detail LoanDetail, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_loan", start, err) }(time.Now())
	err = s.store.View(ctx, func(v domain.TransactionView) error {
		loan, ok := v.FindLoan(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityLoan, ID: id}
		}
		detail = resolveLoan(v, loan)
		return nil
	})
	return detail, err
}

// CreateLoan validates the candidate, resolves its book and user references,
// and persists a new loan with a store-assigned ID. Validation failures are
// reported before any store access; resolution failures before any write.
func (s *Service) CreateLoan(ctx context.Context, input LoanInput) (detail LoanDetail, err error) {
	defer func(start time.Time) { s.observe(ctx, "create_loan", start, err) }(time.Now())
	if err = ValidateLoan(input); err != nil {
		return LoanDetail{}, err
	}
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		book, ok := tx.FindBook(*input.Book.ID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBook, ID: *input.Book.ID}
		}
		user, ok := tx.FindUser(*input.User.ID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityUser, ID: *input.User.ID}
		}
		created, err := tx.CreateLoan(domain.Loan{
			BookID:     book.ID,
			UserID:     user.ID,
			LoanDate:   *input.LoanDate,
			ReturnDate: *input.ReturnDate,
		})
		if err != nil {
			return err
		}
		detail = LoanDetail{Loan: created, Book: book, User: user}
		return nil
	})
	return detail, err
}

// UpdateLoan overwrites the book, user, and both dates of an existing loan.
// The full validation set is reapplied before the store is touched.
func (s *Service) UpdateLoan(ctx context.Context, id int64, input LoanInput) (detail LoanDetail, err error) {
	defer func(start time.Time) { s.observe(ctx, "update_loan", start, err) }(time.Now())
	if err = ValidateLoan(input); err != nil {
		return LoanDetail{}, err
	}
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindLoan(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityLoan, ID: id}
		}
		book, ok := tx.FindBook(*input.Book.ID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBook, ID: *input.Book.ID}
		}
		user, ok := tx.FindUser(*input.User.ID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityUser, ID: *input.User.ID}
		}
		updated, err := tx.UpdateLoan(id, func(l *domain.Loan) error {
			l.BookID = book.ID
			l.UserID = user.ID
			l.LoanDate = *input.LoanDate
			l.ReturnDate = *input.ReturnDate
			return nil
		})
		if err != nil {
			return err
		}
		detail = LoanDetail{Loan: updated, Book: book, User: user}
		return nil
	})
	return detail, err
}

// PatchLoan applies only the fields present in patch. Reference fields are
// resolved before assignment. The merged record is re-validated before
// persisting, so a patch cannot move the return date before the loan date.
// On any failure the stored record is left unmutated.
func (s *Service) PatchLoan(ctx context.Context, id int64, patch LoanPatch) (detail LoanDetail, err error) {
	defer func(start time.Time) { s.observe(ctx, "patch_loan", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		current, ok := tx.FindLoan(id)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityLoan, ID: id}
		}
		merged := current
		if patch.LoanDate != nil {
			merged.LoanDate = *patch.LoanDate
		}
		if patch.ReturnDate != nil {
			merged.ReturnDate = *patch.ReturnDate
		}
		if patch.BookID != nil {
			book, ok := tx.FindBook(*patch.BookID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityBook, ID: *patch.BookID}
			}
			merged.BookID = book.ID
		}
		if patch.UserID != nil {
			user, ok := tx.FindUser(*patch.UserID)
			if !ok {
				return domain.NotFoundError{Entity: domain.EntityUser, ID: *patch.UserID}
			}
			merged.UserID = user.ID
		}
		if err := ValidateLoan(loanAsInput(merged)); err != nil {
			return err
		}
		updated, err := tx.UpdateLoan(id, func(l *domain.Loan) error {
			l.BookID = merged.BookID
			l.UserID = merged.UserID
			l.LoanDate = merged.LoanDate
			l.ReturnDate = merged.ReturnDate
			return nil
		})
		if err != nil {
			return err
		}
		book, _ := tx.FindBook(updated.BookID)
		user, _ := tx.FindUser(updated.UserID)
		detail = LoanDetail{Loan: updated, Book: book, User: user}
		return nil
	})
	return detail, err
}

// DeleteLoan removes a loan record, failing when the ID does not exist.
func (s *Service) DeleteLoan(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete_loan", start, err) }(time.Now())
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteLoan(id)
	})
}

// loanAsInput rebuilds the validator input from a stored loan so the merged
// record of a partial update can pass through the same checks as a create.
func loanAsInput(l domain.Loan) LoanInput {
	bookID, userID := l.BookID, l.UserID
	loanDate, returnDate := l.LoanDate, l.ReturnDate
	return LoanInput{
		Book:       &EntityRef{ID: &bookID},
		User:       &EntityRef{ID: &userID},
		LoanDate:   &loanDate,
		ReturnDate: &returnDate,
	}
}

// resolveLoan embeds the referenced book and user into a read view. Dangling
// references (a referenced record deleted after the loan was written) resolve
// to zero values; the design does not guard against them.
func resolveLoan(v domain.TransactionView, loan domain.Loan) LoanDetail {
	book, _ := v.FindBook(loan.BookID)
	user, _ := v.FindUser(loan.UserID)
	return LoanDetail{Loan: loan, Book: book, User: user}
}

// Users -----------------------------------------------------------------------

// ListUsers returns all users ordered by ID.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	defer s.observe(ctx, "list_users", time.Now(), nil)
	users := s.store.ListUsers()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// GetUser returns the user for id.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	var err error
	defer func(start time.Time) { s.observe(ctx, "get_user", start, err) }(time.Now())
	user, ok := s.store.GetUser(id)
	if !ok {
		err = domain.NotFoundError{Entity: domain.EntityUser, ID: id}
		return User{}, err
	}
	return user, nil
}

// CreateUser persists a new user.
func (s *Service) CreateUser(ctx context.Context, user User) (created User, err error) {
	defer func(start time.Time) { s.observe(ctx, "create_user", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		user.ID = 0
		created, err = tx.CreateUser(user)
		return err
	})
	return created, err
}

// UpdateUser overwrites the mutable fields of an existing user.
func (s *Service) UpdateUser(ctx context.Context, id int64, user User) (updated User, err error) {
	defer func(start time.Time) { s.observe(ctx, "update_user", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err = tx.UpdateUser(id, func(u *domain.User) error {
			u.Name = user.Name
			u.PhoneNumber = user.PhoneNumber
			u.RegistrationDate = user.RegistrationDate
			return nil
		})
		return err
	})
	return updated, err
}

// PatchUser applies only the fields present in patch.
func (s *Service) PatchUser(ctx context.Context, id int64, patch UserPatch) (updated User, err error) {
	defer func(start time.Time) { s.observe(ctx, "patch_user", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err = tx.UpdateUser(id, func(u *domain.User) error {
			if patch.Name != nil {
				u.Name = *patch.Name
			}
			if patch.PhoneNumber != nil {
				u.PhoneNumber = *patch.PhoneNumber
			}
			if patch.RegistrationDate != nil {
				u.RegistrationDate = *patch.RegistrationDate
			}
			return nil
		})
		return err
	})
	return updated, err
}

// DeleteUser removes a user record, failing when the ID does not exist.
// Deletion is not guarded against loans still referencing the user.
func (s *Service) DeleteUser(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete_user", start, err) }(time.Now())
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteUser(id)
	})
}

// Books -----------------------------------------------------------------------

// ListBooks returns all books ordered by ID.
func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	defer s.observe(ctx, "list_books", time.Now(), nil)
	books := s.store.ListBooks()
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// GetBook returns the book for id.
func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	var err error
	defer func(start time.Time) { s.observe(ctx, "get_book", start, err) }(time.Now())
	book, ok := s.store.GetBook(id)
	if !ok {
		err = domain.NotFoundError{Entity: domain.EntityBook, ID: id}
		return Book{}, err
	}
	return book, nil
}

// CreateBook persists a new book.
func (s *Service) CreateBook(ctx context.Context, book Book) (created Book, err error) {
	defer func(start time.Time) { s.observe(ctx, "create_book", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		book.ID = 0
		created, err = tx.CreateBook(book)
		return err
	})
	return created, err
}

// UpdateBook overwrites the mutable fields of an existing book.
func (s *Service) UpdateBook(ctx context.Context, id int64, book Book) (updated Book, err error) {
	defer func(start time.Time) { s.observe(ctx, "update_book", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err = tx.UpdateBook(id, func(b *domain.Book) error {
			b.Title = book.Title
			b.Author = book.Author
			b.ISBN = book.ISBN
			b.PublicationDate = book.PublicationDate
			return nil
		})
		return err
	})
	return updated, err
}

// PatchBook applies only the fields present in patch.
func (s *Service) PatchBook(ctx context.Context, id int64, patch BookPatch) (updated Book, err error) {
	defer func(start time.Time) { s.observe(ctx, "patch_book", start, err) }(time.Now())
	err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err = tx.UpdateBook(id, func(b *domain.Book) error {
			if patch.Title != nil {
				b.Title = *patch.Title
			}
			if patch.Author != nil {
				b.Author = *patch.Author
			}
			if patch.ISBN != nil {
				b.ISBN = *patch.ISBN
			}
			if patch.PublicationDate != nil {
				b.PublicationDate = *patch.PublicationDate
			}
			return nil
		})
		return err
	})
	return updated, err
}

// DeleteBook removes a book record, failing when the ID does not exist.
// Deletion is not guarded against loans still referencing the book.
func (s *Service) DeleteBook(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe(ctx, "delete_book", start, err) }(time.Now())
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteBook(id)
	})
}
