package payment

import (
	"fmt"
	"time"

	"travelsvc/internal/domain"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is the capture record for a booking. Refunds mutate the single
// record; the repository keeps the append-only log that makes the history
// auditable.
type Payment struct {
	ID             string
	BookingID      string
	Amount         domain.Money
	Status         Status
	TransactionID  string
	RefundID       string
	RefundedAmount domain.Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyRefund records a (possibly partial) refund. The refunded total may
// never exceed the captured amount.
func (p *Payment) ApplyRefund(amount domain.Money, refundID string, now time.Time) error {
	if p.Status != StatusCompleted && p.Status != StatusRefunded {
		return fmt.Errorf("cannot refund payment in status %s", p.Status)
	}
	total, err := p.RefundedAmount.Add(amount)
	if err != nil {
		return err
	}
	if p.Amount.LessThan(total) {
		return fmt.Errorf("refund total %s exceeds captured amount %s", total, p.Amount)
	}
	p.RefundedAmount = total
	p.RefundID = refundID
	if total.Equal(p.Amount) {
		p.Status = StatusRefunded
	}
	p.UpdatedAt = now
	return nil
}

// Remaining is the captured amount not yet refunded.
func (p *Payment) Remaining() domain.Money {
	rest, err := p.Amount.Sub(p.RefundedAmount)
	if err != nil {
		return domain.ZeroMoney(p.Amount.Currency)
	}
	return rest
}
