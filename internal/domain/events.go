package domain

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventPaymentProcessed = "payment.processed"
	EventVendorPayout     = "vendor.payout"
)

// Event is the closed set of domain events. Each variant carries a fixed
// payload shape; instances are immutable once constructed.
type Event interface {
	Name() string
	AggregateID() string
	OccurredAt() time.Time
}

// Handler consumes events delivered by the bus. Implementations are registered
// by identity, so they must be comparable (use pointer receivers).
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// EventBus is the publish side seen by use cases. Publish must return normally
// once dispatch is attempted, regardless of subscriber failures.
type EventBus interface {
	Publish(ctx context.Context, e Event)
}

type BookingCreated struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	VendorID  string    `json:"vendor_id"`
	TripDate  time.Time `json:"trip_date"`
	Price     string    `json:"total_price"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"-"`
}

func (e BookingCreated) Name() string          { return EventBookingCreated }
func (e BookingCreated) AggregateID() string   { return e.BookingID }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	VendorID  string    `json:"vendor_id"`
	Reason    string    `json:"reason"`
	Refund    string    `json:"refund_amount"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"-"`
}

func (e BookingCancelled) Name() string          { return EventBookingCancelled }
func (e BookingCancelled) AggregateID() string   { return e.BookingID }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	VendorID  string    `json:"vendor_id"`
	At        time.Time `json:"-"`
}

func (e BookingCompleted) Name() string          { return EventBookingCompleted }
func (e BookingCompleted) AggregateID() string   { return e.BookingID }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type PaymentProcessed struct {
	PaymentID     string    `json:"payment_id"`
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	At            time.Time `json:"-"`
}

func (e PaymentProcessed) Name() string          { return EventPaymentProcessed }
func (e PaymentProcessed) AggregateID() string   { return e.BookingID }
func (e PaymentProcessed) OccurredAt() time.Time { return e.At }

type VendorPayout struct {
	VendorID    string    `json:"vendor_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	BookingIDs  []string  `json:"booking_ids"`
	At          time.Time `json:"-"`
}

func (e VendorPayout) Name() string          { return EventVendorPayout }
func (e VendorPayout) AggregateID() string   { return e.VendorID }
func (e VendorPayout) OccurredAt() time.Time { return e.At }

// Envelope is the wire shape used whenever an event leaves the process.
type Envelope struct {
	EventName   string          `json:"event_name"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

func NewEnvelope(e Event) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventName:   e.Name(),
		AggregateID: e.AggregateID(),
		Timestamp:   e.OccurredAt().UTC(),
		Payload:     payload,
	}, nil
}
