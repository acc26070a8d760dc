package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Create calls assign the record ID on
// first save; Update and Delete return NotFoundError when the ID is absent.
type Transaction interface {
	CreateUser(User) (User, error)
	UpdateUser(id int64, mutator func(*User) error) (User, error)
	DeleteUser(id int64) error
	CreateBook(Book) (Book, error)
	UpdateBook(id int64, mutator func(*Book) error) (Book, error)
	DeleteBook(id int64) error
	CreateLoan(Loan) (Loan, error)
	UpdateLoan(id int64, mutator func(*Loan) error) (Loan, error)
	DeleteLoan(id int64) error
	FindUser(id int64) (User, bool)
	FindBook(id int64) (Book, bool)
	FindLoan(id int64) (Loan, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	ListUsers() []User
	ListBooks() []Book
	ListLoans() []Loan
	FindUser(id int64) (User, bool)
	FindBook(id int64) (Book, bool)
	FindLoan(id int64) (Loan, bool)
}

// PersistentStore is a minimal abstraction over durable backends. A
// transaction commits only when fn returns nil; any error discards the
// transactional state, so failed operations leave no partial writes.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetUser(id int64) (User, bool)
	ListUsers() []User
	GetBook(id int64) (Book, bool)
	ListBooks() []Book
	GetLoan(id int64) (Loan, bool)
	ListLoans() []Loan
}
