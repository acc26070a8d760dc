package httpapi

import (
	"librarycore/internal/core"
	"librarycore/pkg/domain"
)

// Transport payloads keep the wire field names of the original REST contract
// (camelCase, nested book/user objects on loans). Mapping between storage and
// transport representations is done by the stateless functions below.

type userPayload struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	PhoneNumber      string      `json:"phoneNumber"`
	RegistrationDate domain.Date `json:"registrationDate"`
}

type bookPayload struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Author          string      `json:"author"`
	ISBN            string      `json:"isbn"`
	PublicationDate domain.Date `json:"publicationDate"`
}

type loanPayload struct {
	ID         int64       `json:"id"`
	Book       bookPayload `json:"book"`
	User       userPayload `json:"user"`
	LoanDate   domain.Date `json:"loanDate"`
	ReturnDate domain.Date `json:"returnDate"`
}

type userRequest struct {
	Name             string       `json:"name"`
	PhoneNumber      string       `json:"phoneNumber"`
	RegistrationDate *domain.Date `json:"registrationDate"`
}

type bookRequest struct {
	Title           string       `json:"title"`
	Author          string       `json:"author"`
	ISBN            string       `json:"isbn"`
	PublicationDate *domain.Date `json:"publicationDate"`
}

type entityRefPayload struct {
	ID *int64 `json:"id"`
}

type loanRequest struct {
	Book       *entityRefPayload `json:"book"`
	User       *entityRefPayload `json:"user"`
	LoanDate   *domain.Date      `json:"loanDate"`
	ReturnDate *domain.Date      `json:"returnDate"`
}

// loanPatchRequest is the closed partial-update contract: one optional slot
// per recognised field. Unknown JSON keys are dropped by the decoder, which
// preserves the silently-ignored semantics of the original API.
type loanPatchRequest struct {
	LoanDate   *domain.Date `json:"loanDate"`
	ReturnDate *domain.Date `json:"returnDate"`
	BookID     *int64       `json:"bookId"`
	UserID     *int64       `json:"userId"`
}

type userPatchRequest struct {
	Name             *string      `json:"name"`
	PhoneNumber      *string      `json:"phoneNumber"`
	RegistrationDate *domain.Date `json:"registrationDate"`
}

type bookPatchRequest struct {
	Title           *string      `json:"title"`
	Author          *string      `json:"author"`
	ISBN            *string      `json:"isbn"`
	PublicationDate *domain.Date `json:"publicationDate"`
}

func userToPayload(u domain.User) userPayload {
	return userPayload{
		ID:               u.ID,
		Name:             u.Name,
		PhoneNumber:      u.PhoneNumber,
		RegistrationDate: u.RegistrationDate,
	}
}

func bookToPayload(b domain.Book) bookPayload {
	return bookPayload{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationDate: b.PublicationDate,
	}
}

func loanToPayload(d domain.LoanDetail) loanPayload {
	return loanPayload{
		ID:         d.ID,
		Book:       bookToPayload(d.Book),
		User:       userToPayload(d.User),
		LoanDate:   d.LoanDate,
		ReturnDate: d.ReturnDate,
	}
}

func userFromRequest(req userRequest) domain.User {
	u := domain.User{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	}
	if req.RegistrationDate != nil {
		u.RegistrationDate = *req.RegistrationDate
	}
	return u
}

func bookFromRequest(req bookRequest) domain.Book {
	b := domain.Book{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
	}
	if req.PublicationDate != nil {
		b.PublicationDate = *req.PublicationDate
	}
	return b
}

func loanInputFromRequest(req loanRequest) core.LoanInput {
	input := core.LoanInput{
		LoanDate:   req.LoanDate,
		ReturnDate: req.ReturnDate,
	}
	if req.Book != nil {
		input.Book = &core.EntityRef{ID: req.Book.ID}
	}
	if req.User != nil {
		input.User = &core.EntityRef{ID: req.User.ID}
	}
	return input
}

func loanPatchFromRequest(req loanPatchRequest) core.LoanPatch {
	return core.LoanPatch{
		LoanDate:   req.LoanDate,
		ReturnDate: req.ReturnDate,
		BookID:     req.BookID,
		UserID:     req.UserID,
	}
}

func userPatchFromRequest(req userPatchRequest) core.UserPatch {
	return core.UserPatch{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		RegistrationDate: req.RegistrationDate,
	}
}

func bookPatchFromRequest(req bookPatchRequest) core.BookPatch {
	return core.BookPatch{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationDate: req.PublicationDate,
	}
}
