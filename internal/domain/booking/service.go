package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payment"
)

type CreateInput struct {
	UserID        string
	VendorID      string
	TripDate      time.Time
	TotalPrice    domain.Money
	PaymentMethod string
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (Booking, error)
	Cancel(ctx context.Context, bookingID, reason string) (Booking, error)
	Complete(ctx context.Context, bookingID string) (Booking, error)
	Get(ctx context.Context, bookingID string) (Booking, error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]Booking, int, error)
	ListByVendor(ctx context.Context, vendorID string, page domain.Page) ([]Booking, int, error)
	PaymentsFor(ctx context.Context, bookingID string) ([]payment.Payment, error)
}

type service struct {
	uow      domain.UnitOfWork
	bookings Repository
	payments payment.Repository
	charges  *payment.Orchestrator
	events   domain.EventBus
	now      func() time.Time
}

func NewService(
	uow domain.UnitOfWork,
	bookings Repository,
	payments payment.Repository,
	charges *payment.Orchestrator,
	events domain.EventBus,
	now func() time.Time,
) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		uow:      uow,
		bookings: bookings,
		payments: payments,
		charges:  charges,
		events:   events,
		now:      now,
	}
}

func (in CreateInput) validate(now time.Time) error {
	if in.UserID == "" {
		return domain.NewValidationError("user_id is required")
	}
	if in.VendorID == "" {
		return domain.NewValidationError("vendor_id is required")
	}
	if in.TripDate.IsZero() {
		return domain.NewValidationError("trip_date is required")
	}
	if in.TripDate.Before(now.UTC().Truncate(24 * time.Hour)) {
		return domain.NewValidationError("trip_date must not be in the past")
	}
	if !in.TotalPrice.IsPositive() {
		return domain.NewValidationError("total_price must be positive")
	}
	return nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (Booking, error) {
	now := s.now().UTC()
	if err := in.validate(now); err != nil {
		return Booking{}, err
	}

	b := Booking{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		VendorID:   in.VendorID,
		TripDate:   in.TripDate.UTC(),
		Status:     StatusPending,
		TotalPrice: in.TotalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.bookings.Save(ctx, b)
	}); err != nil {
		return Booking{}, err
	}

	txnID, chargeErr := s.charges.Charge(ctx, "charge:"+b.ID, payment.ChargeRequest{
		Amount: b.TotalPrice,
		Method: in.PaymentMethod,
		Metadata: map[string]string{
			"booking_id": b.ID,
			"user_id":    b.UserID,
		},
	})

	now = s.now().UTC()
	p := payment.Payment{
		ID:             uuid.NewString(),
		BookingID:      b.ID,
		Amount:         b.TotalPrice,
		RefundedAmount: domain.ZeroMoney(b.TotalPrice.Currency),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if chargeErr != nil {
		// The booking stays pending and the failed capture is recorded for
		// audit; the stale-pending cleanup job reaps it later. The charge
		// error is what the caller needs, so the audit write is best effort.
		p.Status = payment.StatusFailed
		_ = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.payments.Save(ctx, p)
		})
		return Booking{}, payment.TranslateError(chargeErr)
	}

	p.Status = payment.StatusCompleted
	p.TransactionID = txnID
	b.Status = StatusConfirmed
	b.UpdatedAt = now

	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.payments.Save(ctx, p); err != nil {
			return err
		}
		return s.bookings.Update(ctx, b)
	}); err != nil {
		return Booking{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.BookingCreated{
			BookingID: b.ID,
			UserID:    b.UserID,
			VendorID:  b.VendorID,
			TripDate:  b.TripDate,
			Price:     b.TotalPrice.Amount.StringFixed(2),
			Currency:  b.TotalPrice.Currency,
			At:        now,
		})
		s.events.Publish(ctx, domain.PaymentProcessed{
			PaymentID:     p.ID,
			BookingID:     b.ID,
			UserID:        b.UserID,
			TransactionID: txnID,
			Amount:        p.Amount.Amount.StringFixed(2),
			Currency:      p.Amount.Currency,
			At:            now,
		})
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, bookingID, reason string) (Booking, error) {
	if reason == "" {
		return Booking{}, domain.NewValidationError("reason is required")
	}

	var res Booking
	var refund domain.Money

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Terminal() {
			// A retried cancel must not reach the refund path, so a second
			// cancel is a conflict, not a no-op.
			return domain.NewConflictError("booking already " + string(b.Status))
		}

		refund = domain.ZeroMoney(b.TotalPrice.Currency)
		pays, err := s.payments.FindByBookingID(ctx, b.ID)
		if err != nil {
			return err
		}
		for i := range pays {
			p := pays[i]
			if p.Status != payment.StatusCompleted {
				continue
			}
			amount := p.Remaining()
			if !amount.IsPositive() {
				continue
			}
			refundID, err := s.charges.Refund(ctx, "refund:"+p.ID, payment.RefundRequest{
				TransactionID: p.TransactionID,
				Amount:        amount,
			})
			if err != nil {
				return payment.TranslateError(err)
			}
			if err := p.ApplyRefund(amount, refundID, s.now().UTC()); err != nil {
				return err
			}
			if err := s.payments.Update(ctx, p); err != nil {
				return err
			}
			if refund, err = refund.Add(amount); err != nil {
				return err
			}
		}

		b.Status = StatusCancelled
		b.UpdatedAt = s.now().UTC()
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.BookingCancelled{
			BookingID: res.ID,
			UserID:    res.UserID,
			VendorID:  res.VendorID,
			Reason:    reason,
			Refund:    refund.Amount.StringFixed(2),
			Currency:  refund.Currency,
			At:        res.UpdatedAt,
		})
	}
	return res, nil
}

func (s *service) Complete(ctx context.Context, bookingID string) (Booking, error) {
	var res Booking

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.LockByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != StatusConfirmed {
			return domain.NewConflictError("only confirmed bookings can be completed, booking is " + string(b.Status))
		}
		b.Status = StatusCompleted
		b.UpdatedAt = s.now().UTC()
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return Booking{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.BookingCompleted{
			BookingID: res.ID,
			UserID:    res.UserID,
			VendorID:  res.VendorID,
			At:        res.UpdatedAt,
		})
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, bookingID string) (Booking, error) {
	return s.bookings.FindByID(ctx, bookingID)
}

func (s *service) ListByUser(ctx context.Context, userID string, page domain.Page) ([]Booking, int, error) {
	return s.bookings.FindByUserID(ctx, userID, page.Normalize())
}

func (s *service) ListByVendor(ctx context.Context, vendorID string, page domain.Page) ([]Booking, int, error) {
	return s.bookings.FindByVendorID(ctx, vendorID, page.Normalize())
}

func (s *service) PaymentsFor(ctx context.Context, bookingID string) ([]payment.Payment, error) {
	if _, err := s.bookings.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.payments.FindByBookingID(ctx, bookingID)
}
