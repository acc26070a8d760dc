package core

import "librarycore/pkg/domain"

// ValidateLoan performs the structural pre-check of a candidate loan payload.
// Checks run in a fixed order and the first failure short-circuits, so a call
// reports at most one defect. The function is pure: no store access occurs.
func ValidateLoan(input LoanInput) error {
	if input.Book == nil || input.Book.ID == nil {
		return domain.ValidationError{
			Code:    domain.ValidationBookMissing,
			Message: "the loan must have an assigned book",
		}
	}
	if input.User == nil || input.User.ID == nil {
		return domain.ValidationError{
			Code:    domain.ValidationUserMissing,
			Message: "the loan must have an assigned user",
		}
	}
	if input.LoanDate == nil {
		return domain.ValidationError{
			Code:    domain.ValidationLoanDateMissing,
			Message: "the loan date cannot be empty",
		}
	}
	if input.ReturnDate == nil {
		return domain.ValidationError{
			Code:    domain.ValidationReturnDateMissing,
			Message: "the return date cannot be empty",
		}
	}
	if input.ReturnDate.Before(*input.LoanDate) {
		return domain.ValidationError{
			Code:    domain.ValidationReturnBeforeLoan,
			Message: "the return date cannot be before the loan date",
		}
	}
	return nil
}
