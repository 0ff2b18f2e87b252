package payment

import (
	"context"

	"travelsvc/internal/domain"
)

type Repository interface {
	Save(ctx context.Context, p Payment) error
	FindByID(ctx context.Context, id string) (Payment, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]Payment, error)
	FindAll(ctx context.Context, page domain.Page) ([]Payment, int, error)
	Update(ctx context.Context, p Payment) error
	Delete(ctx context.Context, id string) error
	SumByStatus(ctx context.Context, status Status) (domain.Money, error)
}
