package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/domain/payment"
)

const (
	archiveAfter       = 365 * 24 * time.Hour
	stalePendingAfter  = 24 * time.Hour
	failedPaymentAfter = 90 * 24 * time.Hour
)

// CleanupReport summarizes one maintenance run. Counts reflect work actually
// done even when a later task failed.
type CleanupReport struct {
	ArchivedBookings  int
	CancelledBookings int
	DeletedPayments   int
}

// CleanupWorker is the daily maintenance job: it archives old completed
// bookings, cancels pending ones that never got paid, and removes old failed
// payment records. Tasks run independently; one failing does not stop the
// others.
type CleanupWorker struct {
	bookings booking.Repository
	payments payment.Repository
	log      *zap.Logger
	now      func() time.Time
}

func NewCleanupWorker(bookings booking.Repository, payments payment.Repository, log *zap.Logger) *CleanupWorker {
	return &CleanupWorker{bookings: bookings, payments: payments, log: log, now: time.Now}
}

func (w *CleanupWorker) Run(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport
	var errs []error

	n, err := w.archiveCompleted(ctx)
	report.ArchivedBookings = n
	if err != nil {
		errs = append(errs, fmt.Errorf("archive completed bookings: %w", err))
	}

	n, err = w.cancelStalePending(ctx)
	report.CancelledBookings = n
	if err != nil {
		errs = append(errs, fmt.Errorf("cancel stale pending bookings: %w", err))
	}

	n, err = w.deleteFailedPayments(ctx)
	report.DeletedPayments = n
	if err != nil {
		errs = append(errs, fmt.Errorf("delete failed payments: %w", err))
	}

	w.log.Info("maintenance run finished",
		zap.Int("archived_bookings", report.ArchivedBookings),
		zap.Int("cancelled_bookings", report.CancelledBookings),
		zap.Int("deleted_payments", report.DeletedPayments),
		zap.Int("task_errors", len(errs)),
	)
	return report, errors.Join(errs...)
}

func (w *CleanupWorker) archiveCompleted(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-archiveAfter)
	old, err := collectBookings(ctx, w.bookings, func(b booking.Booking) bool {
		return b.Status == booking.StatusCompleted && b.UpdatedAt.Before(cutoff)
	})
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, b := range old {
		w.log.Info("archiving booking",
			zap.String("booking_id", b.ID),
			zap.String("user_id", b.UserID),
			zap.String("vendor_id", b.VendorID),
			zap.Time("trip_date", b.TripDate),
			zap.String("total_price", b.TotalPrice.String()),
		)
		if err := w.bookings.Delete(ctx, b.ID); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

func (w *CleanupWorker) cancelStalePending(ctx context.Context) (int, error) {
	now := w.now()
	cutoff := now.Add(-stalePendingAfter)
	stale, err := collectBookings(ctx, w.bookings, func(b booking.Booking) bool {
		return b.Status == booking.StatusPending && b.CreatedAt.Before(cutoff)
	})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, b := range stale {
		b.Status = booking.StatusCancelled
		b.UpdatedAt = now
		if err := w.bookings.Update(ctx, b); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

func (w *CleanupWorker) deleteFailedPayments(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-failedPaymentAfter)

	var old []payment.Payment
	page := domain.Page{Limit: 100}
	for {
		items, total, err := w.payments.FindAll(ctx, page)
		if err != nil {
			return 0, err
		}
		for _, p := range items {
			if p.Status == payment.StatusFailed && p.UpdatedAt.Before(cutoff) {
				old = append(old, p)
			}
		}
		page.Offset += len(items)
		if len(items) == 0 || page.Offset >= total {
			break
		}
	}

	deleted := 0
	for _, p := range old {
		if err := w.payments.Delete(ctx, p.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// collectBookings pages through the whole table up front so that mutating the
// matches afterwards cannot shift offsets mid-scan.
func collectBookings(ctx context.Context, repo booking.Repository, keep func(booking.Booking) bool) ([]booking.Booking, error) {
	var out []booking.Booking
	page := domain.Page{Limit: 100}
	for {
		items, total, err := repo.FindAll(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, b := range items {
			if keep(b) {
				out = append(out, b)
			}
		}
		page.Offset += len(items)
		if len(items) == 0 || page.Offset >= total {
			break
		}
	}
	return out, nil
}
