package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/infrastructure/async"
	"travelsvc/internal/infrastructure/notify"
)

var notifyChannels = []notify.Channel{notify.ChannelEmail, notify.ChannelSMS, notify.ChannelPush}

// NotificationWorker turns queued event envelopes into user-facing messages.
// Each channel is attempted independently; the job only fails when every
// channel failed.
type NotificationWorker struct {
	sink notify.Sink
	log  *zap.Logger
}

func NewNotificationWorker(sink notify.Sink, log *zap.Logger) *NotificationWorker {
	return &NotificationWorker{sink: sink, log: log}
}

func (w *NotificationWorker) Register(registry *async.Registry) {
	for _, name := range []string{
		domain.EventBookingCreated,
		domain.EventBookingCancelled,
		domain.EventBookingCompleted,
		domain.EventPaymentProcessed,
		domain.EventVendorPayout,
		paymentReminderEvent,
	} {
		registry.Register(notifyJobPrefix+name, w.Handle)
	}
}

func (w *NotificationWorker) Handle(ctx context.Context, job async.Job) error {
	var env domain.Envelope
	if err := json.Unmarshal(job.Payload, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	recipient, msg, err := w.render(env)
	if err != nil {
		return err
	}

	failed := 0
	for _, ch := range notifyChannels {
		if err := w.sink.Send(ctx, ch, recipient, msg); err != nil {
			failed++
			w.log.Error("notification delivery failed",
				zap.String("channel", string(ch)),
				zap.String("event", env.EventName),
				zap.String("recipient", recipient),
				zap.Error(err),
			)
		}
	}
	if failed == len(notifyChannels) {
		return fmt.Errorf("delivery failed on all channels for event %s", env.EventName)
	}
	return nil
}

func (w *NotificationWorker) render(env domain.Envelope) (string, notify.Message, error) {
	switch env.EventName {
	case domain.EventBookingCreated:
		var e domain.BookingCreated
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return "", notify.Message{}, err
		}
		return e.UserID, notify.Message{
			Subject: "Booking confirmed",
			Body: fmt.Sprintf("Your booking %s for %s is confirmed. We charged %s %s.",
				e.BookingID, e.TripDate.Format("2006-01-02"), e.Price, e.Currency),
		}, nil
	case domain.EventBookingCancelled:
		var e domain.BookingCancelled
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return "", notify.Message{}, err
		}
		return e.UserID, notify.Message{
			Subject: "Booking cancelled",
			Body: fmt.Sprintf("Your booking %s was cancelled. A refund of %s %s is on its way.",
				e.BookingID, e.Refund, e.Currency),
		}, nil
	case domain.EventBookingCompleted:
		var e domain.BookingCompleted
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return "", notify.Message{}, err
		}
		return e.UserID, notify.Message{
			Subject: "Trip completed",
			Body:    fmt.Sprintf("Thanks for travelling with us. Booking %s is now complete.", e.BookingID),
		}, nil
	case domain.EventPaymentProcessed:
		var e domain.PaymentProcessed
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return "", notify.Message{}, err
		}
		return e.UserID, notify.Message{
			Subject: "Payment receipt",
			Body: fmt.Sprintf("Payment of %s %s for booking %s succeeded (transaction %s).",
				e.Amount, e.Currency, e.BookingID, e.TransactionID),
		}, nil
	case domain.EventVendorPayout:
		var e domain.VendorPayout
		if err := json.Unmarshal(env.Payload, &e); err != nil {
			return "", notify.Message{}, err
		}
		return e.VendorID, notify.Message{
			Subject: "Payout issued",
			Body: fmt.Sprintf("A payout of %s %s covering %d bookings has been issued.",
				e.Amount, e.Currency, len(e.BookingIDs)),
		}, nil
	case paymentReminderEvent:
		var p reminderPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return "", notify.Message{}, err
		}
		return p.UserID, notify.Message{
			Subject: "Payment pending",
			Body: fmt.Sprintf("Your booking %s is still awaiting payment of %s %s. It will expire if unpaid.",
				p.BookingID, p.Amount, p.Currency),
		}, nil
	default:
		return "", notify.Message{}, fmt.Errorf("no message template for event %s", env.EventName)
	}
}
