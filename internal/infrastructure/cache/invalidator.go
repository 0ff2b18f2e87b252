package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
)

const (
	// BookingTTL bounds staleness if an invalidation is ever lost; transitions
	// delete the key well before it expires in the normal case.
	BookingTTL = time.Hour
	// ListTTL is short because list pages churn with every booking in them.
	ListTTL = 5 * time.Minute
)

// Invalidator keeps the read cache coherent with booking transitions. It is
// registered on the event bus and must stay quick: a handful of cache calls,
// no external I/O beyond the cache backend, failures logged and swallowed.
type Invalidator struct {
	cache Service
	log   *zap.Logger
}

func NewInvalidator(cache Service, log *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, log: log}
}

// Register subscribes the invalidator to every booking lifecycle event.
func (inv *Invalidator) Register(bus interface {
	Subscribe(eventName string, h domain.Handler)
}) {
	for _, name := range []string{
		domain.EventBookingCreated,
		domain.EventBookingCancelled,
		domain.EventBookingCompleted,
	} {
		bus.Subscribe(name, inv)
	}
}

func (inv *Invalidator) Handle(ctx context.Context, e domain.Event) error {
	switch ev := e.(type) {
	case domain.BookingCreated:
		inv.populate(ctx, ev)
		inv.dropLists(ctx, ev.UserID, ev.VendorID)
	case domain.BookingCancelled:
		inv.drop(ctx, ev.BookingID)
		inv.dropLists(ctx, ev.UserID, ev.VendorID)
	case domain.BookingCompleted:
		inv.drop(ctx, ev.BookingID)
		inv.dropLists(ctx, ev.UserID, ev.VendorID)
	}
	return nil
}

// populate writes the read-model snapshot the HTTP layer serves on a cache
// hit. Creation implies the booking was confirmed, so the status is fixed.
func (inv *Invalidator) populate(ctx context.Context, ev domain.BookingCreated) {
	snapshot, err := json.Marshal(map[string]any{
		"id":          ev.BookingID,
		"user_id":     ev.UserID,
		"vendor_id":   ev.VendorID,
		"trip_date":   ev.TripDate,
		"status":      "confirmed",
		"total_price": ev.Price,
		"currency":    ev.Currency,
		"created_at":  ev.At,
		"updated_at":  ev.At,
	})
	if err != nil {
		return
	}
	if err := inv.cache.Set(ctx, BookingKey(ev.BookingID), string(snapshot), BookingTTL); err != nil {
		inv.log.Warn("cache populate failed",
			zap.String("booking_id", ev.BookingID),
			zap.Error(err),
		)
	}
}

func (inv *Invalidator) drop(ctx context.Context, bookingID string) {
	if err := inv.cache.Delete(ctx, BookingKey(bookingID)); err != nil {
		inv.log.Warn("cache invalidate failed",
			zap.String("booking_id", bookingID),
			zap.Error(err),
		)
	}
}

func (inv *Invalidator) dropLists(ctx context.Context, userID, vendorID string) {
	for _, pattern := range []string{
		"bookings:user:" + userID + ":*",
		"bookings:vendor:" + vendorID + ":*",
	} {
		if _, err := inv.cache.DeletePattern(ctx, pattern); err != nil {
			inv.log.Warn("cache pattern invalidate failed",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
		}
	}
}

func BookingKey(bookingID string) string {
	return "booking:" + bookingID
}

// List keys embed the page so the wildcard invalidation patterns above cover
// every cached page at once.
func UserBookingsKey(userID string, limit, offset int) string {
	return fmt.Sprintf("bookings:user:%s:%d:%d", userID, limit, offset)
}

func VendorBookingsKey(vendorID string, limit, offset int) string {
	return fmt.Sprintf("bookings:vendor:%s:%d:%d", vendorID, limit, offset)
}
