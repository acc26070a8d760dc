// Package domain defines the persistent entities, value types, typed errors,
// and persistence contracts used by librarycore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in error values and persistence buckets.
const (
	// EntityUser identifies a registered library member record.
	EntityUser EntityType = "user"
	// EntityBook identifies a catalogued book record.
	EntityBook EntityType = "book"
	// EntityLoan identifies a loan record linking one book to one user.
	EntityLoan EntityType = "loan"
)

// Base contains common fields for all domain records. IDs are store-assigned
// positive sequence values, immutable after creation.
type Base struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User represents a registered library member.
type User struct {
	Base
	Name             string `json:"name"`
	PhoneNumber      string `json:"phone_number"`
	RegistrationDate Date   `json:"registration_date"`
}

// Book represents a catalogued title. ISBN uniqueness is not enforced.
type Book struct {
	Base
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublicationDate Date   `json:"publication_date"`
}

// Loan links one book and one user for a bounded date range. References are
// non-owning: books and users are unaware of loans pointing at them, and
// deleting a referenced record is not guarded against.
type Loan struct {
	Base
	BookID     int64 `json:"book_id"`
	UserID     int64 `json:"user_id"`
	LoanDate   Date  `json:"loan_date"`
	ReturnDate Date  `json:"return_date"`
}

// LoanDetail is the read view of a loan with its book and user resolved into
// embedded records.
type LoanDetail struct {
	Loan
	Book Book `json:"book"`
	User User `json:"user"`
}
