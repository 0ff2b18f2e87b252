package booking

import (
	"context"

	"travelsvc/internal/domain"
)

type Repository interface {
	Save(ctx context.Context, b Booking) error
	FindByID(ctx context.Context, id string) (Booking, error)
	// LockByID acquires a row-level lock for the duration of the ambient
	// transaction, serializing concurrent transitions on the same booking.
	LockByID(ctx context.Context, id string) (Booking, error)
	FindByUserID(ctx context.Context, userID string, page domain.Page) ([]Booking, int, error)
	FindByVendorID(ctx context.Context, vendorID string, page domain.Page) ([]Booking, int, error)
	FindAll(ctx context.Context, page domain.Page) ([]Booking, int, error)
	Update(ctx context.Context, b Booking) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, status Status) (int, error)
}
