package core

import (
	"context"
	"fmt"

	"librarycore/pkg/domain"
)

// SeedSampleData loads the development fixture set: ten users, ten books, and
// ten loans pairing user i with book i for a thirty day term starting today.
func SeedSampleData(ctx context.Context, svc *Service) error {
	today := domain.Today()
	for i := 1; i <= 10; i++ {
		if _, err := svc.CreateUser(ctx, domain.User{
			Name:             fmt.Sprintf("User %d", i),
			PhoneNumber:      fmt.Sprintf("123456789%d", i),
			RegistrationDate: today,
		}); err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	for i := 1; i <= 10; i++ {
		if _, err := svc.CreateBook(ctx, domain.Book{
			Title:           fmt.Sprintf("Book %d", i),
			Author:          fmt.Sprintf("Author %d", i),
			ISBN:            fmt.Sprintf("ISBN %d", i),
			PublicationDate: today,
		}); err != nil {
			return fmt.Errorf("seed book %d: %w", i, err)
		}
	}
	returnDate := today.AddDays(30)
	for i := 1; i <= 10; i++ {
		id := int64(i)
		if _, err := svc.CreateLoan(ctx, LoanInput{
			Book:       &EntityRef{ID: &id},
			User:       &EntityRef{ID: &id},
			LoanDate:   &today,
			ReturnDate: &returnDate,
		}); err != nil {
			return fmt.Errorf("seed loan %d: %w", i, err)
		}
	}
	return nil
}
