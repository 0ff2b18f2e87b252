package workers

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/infrastructure/async"
)

const paymentReminderEvent = "payment.reminder"

// Pending bookings younger than this are likely mid-checkout; nagging them
// would race the payment flow itself.
const reminderAfter = time.Hour

type reminderPayload struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	TripDate  time.Time `json:"trip_date"`
}

// ReminderWorker nudges users whose bookings are still awaiting payment.
// It only enqueues notification jobs; rendering and delivery stay in
// NotificationWorker.
type ReminderWorker struct {
	bookings booking.Repository
	queue    async.Queue
	log      *zap.Logger
	now      func() time.Time
}

func NewReminderWorker(bookings booking.Repository, queue async.Queue, log *zap.Logger) *ReminderWorker {
	return &ReminderWorker{bookings: bookings, queue: queue, log: log, now: time.Now}
}

func (w *ReminderWorker) Run(ctx context.Context) (int, error) {
	now := w.now()
	cutoff := now.Add(-reminderAfter)

	stale, err := collectBookings(ctx, w.bookings, func(b booking.Booking) bool {
		return b.Status == booking.StatusPending && b.CreatedAt.Before(cutoff)
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range stale {
		payload, err := json.Marshal(reminderPayload{
			BookingID: b.ID,
			UserID:    b.UserID,
			Amount:    b.TotalPrice.Amount.StringFixed(2),
			Currency:  b.TotalPrice.Currency,
			TripDate:  b.TripDate,
		})
		if err != nil {
			return sent, err
		}
		body, err := json.Marshal(domain.Envelope{
			EventName:   paymentReminderEvent,
			AggregateID: b.ID,
			Timestamp:   now.UTC(),
			Payload:     payload,
		})
		if err != nil {
			return sent, err
		}
		if err := w.queue.Enqueue(ctx, async.Job{Name: notifyJobPrefix + paymentReminderEvent, Payload: body}); err != nil {
			w.log.Error("failed to enqueue payment reminder",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent, nil
}
