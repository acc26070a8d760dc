package domain

import (
	"errors"
	"fmt"
)

// ValidationCode classifies a structural defect in a loan payload.
type ValidationCode string

// Validation codes, in the fixed order the validator checks them.
const (
	ValidationBookMissing       ValidationCode = "book_missing"
	ValidationUserMissing       ValidationCode = "user_missing"
	ValidationLoanDateMissing   ValidationCode = "loan_date_missing"
	ValidationReturnDateMissing ValidationCode = "return_date_missing"
	ValidationReturnBeforeLoan  ValidationCode = "return_before_loan"
)

// ValidationError reports a structural defect in a create/update payload.
// It is always a client-input fault and never retriable.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports that a referenced user, book, or loan identifier
// does not exist in its owning collection.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Entity, e.ID)
}

// IsNotFound reports whether err is a NotFoundError for any entity.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
