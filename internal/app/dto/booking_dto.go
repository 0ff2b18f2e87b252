package dto

import (
	"time"

	"travelsvc/internal/domain/booking"
)

type Booking struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	VendorID   string    `json:"vendor_id"`
	TripDate   time.Time `json:"trip_date"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewBooking(b booking.Booking) Booking {
	return Booking{
		ID:         b.ID,
		UserID:     b.UserID,
		VendorID:   b.VendorID,
		TripDate:   b.TripDate,
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice.Amount.StringFixed(2),
		Currency:   b.TotalPrice.Currency,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func NewBookings(items []booking.Booking) []Booking {
	out := make([]Booking, 0, len(items))
	for _, b := range items {
		out = append(out, NewBooking(b))
	}
	return out
}

type BookingList struct {
	Bookings []Booking `json:"bookings"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
