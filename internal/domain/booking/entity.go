package booking

import (
	"time"

	"travelsvc/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Booking struct {
	ID         string
	UserID     string
	VendorID   string
	TripDate   time.Time
	Status     Status
	TotalPrice domain.Money
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Terminal statuses admit no further transitions.
func (b Booking) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}
