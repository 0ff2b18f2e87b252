package dto

import (
	"time"

	"travelsvc/internal/domain/payment"
)

type Payment struct {
	ID             string    `json:"id"`
	BookingID      string    `json:"booking_id"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	RefundID       string    `json:"refund_id,omitempty"`
	RefundedAmount string    `json:"refunded_amount"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewPayment(p payment.Payment) Payment {
	return Payment{
		ID:             p.ID,
		BookingID:      p.BookingID,
		Amount:         p.Amount.Amount.StringFixed(2),
		Currency:       p.Amount.Currency,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		RefundID:       p.RefundID,
		RefundedAmount: p.RefundedAmount.Amount.StringFixed(2),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func NewPayments(items []payment.Payment) []Payment {
	out := make([]Payment, 0, len(items))
	for _, p := range items {
		out = append(out, NewPayment(p))
	}
	return out
}
