package core

import "librarycore/pkg/domain"

type (
	EntityType      = domain.EntityType
	User            = domain.User
	Book            = domain.Book
	Loan            = domain.Loan
	LoanDetail      = domain.LoanDetail
	Date            = domain.Date
	ValidationError = domain.ValidationError
	NotFoundError   = domain.NotFoundError
)

const (
	EntityUser = domain.EntityUser
	EntityBook = domain.EntityBook
	EntityLoan = domain.EntityLoan
)

// EntityRef carries an optional reference to a record by identifier. The ID
// is a pointer so an absent reference and an absent identifier can both be
// told apart from a literal zero.
type EntityRef struct {
	ID *int64
}

// LoanInput is a candidate loan payload prior to validation. Every field is
// optional; the validator decides which absences are defects.
type LoanInput struct {
	Book       *EntityRef
	User       *EntityRef
	LoanDate   *Date
	ReturnDate *Date
}

// LoanPatch enumerates the fields a partial update may change. One optional
// slot per recognised field; an unrecognised field cannot be expressed.
type LoanPatch struct {
	LoanDate   *Date
	ReturnDate *Date
	BookID     *int64
	UserID     *int64
}

// UserPatch enumerates the fields a partial user update may change.
type UserPatch struct {
	Name             *string
	PhoneNumber      *string
	RegistrationDate *Date
}

// BookPatch enumerates the fields a partial book update may change.
type BookPatch struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationDate *Date
}
