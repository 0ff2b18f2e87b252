package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
)

func TestInvalidator_PopulatesOnCreate(t *testing.T) {
	c := NewMemoryCache()
	inv := NewInvalidator(c, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, UserBookingsKey("u1", 20, 0), "stale page", 0)

	err := inv.Handle(ctx, domain.BookingCreated{
		BookingID: "b1",
		UserID:    "u1",
		VendorID:  "v1",
		TripDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Price:     "150.00",
		Currency:  "USD",
		At:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	raw, ok, _ := c.Get(ctx, BookingKey("b1"))
	if !ok {
		t.Fatal("expected booking snapshot in cache")
	}
	var snapshot map[string]any
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if snapshot["status"] != "confirmed" || snapshot["total_price"] != "150.00" {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}

	if _, ok, _ := c.Get(ctx, UserBookingsKey("u1", 20, 0)); ok {
		t.Fatal("stale list page must be invalidated on create")
	}
}

func TestInvalidator_DropsOnCancel(t *testing.T) {
	c := NewMemoryCache()
	inv := NewInvalidator(c, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, BookingKey("b1"), "snapshot", 0)
	c.Set(ctx, UserBookingsKey("u1", 20, 0), "user page", 0)
	c.Set(ctx, VendorBookingsKey("v1", 20, 0), "vendor page", 0)
	c.Set(ctx, BookingKey("b2"), "unrelated", 0)

	err := inv.Handle(ctx, domain.BookingCancelled{
		BookingID: "b1",
		UserID:    "u1",
		VendorID:  "v1",
		Reason:    "change of plans",
		Refund:    "150.00",
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	for _, key := range []string{BookingKey("b1"), UserBookingsKey("u1", 20, 0), VendorBookingsKey("v1", 20, 0)} {
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Fatalf("expected %s to be invalidated", key)
		}
	}
	if _, ok, _ := c.Get(ctx, BookingKey("b2")); !ok {
		t.Fatal("unrelated booking must survive")
	}
}

type subscribeRecorder struct {
	names []string
}

func (s *subscribeRecorder) Subscribe(eventName string, _ domain.Handler) {
	s.names = append(s.names, eventName)
}

func TestInvalidator_RegistersForBookingEvents(t *testing.T) {
	rec := &subscribeRecorder{}
	NewInvalidator(NewMemoryCache(), zap.NewNop()).Register(rec)

	want := []string{domain.EventBookingCreated, domain.EventBookingCancelled, domain.EventBookingCompleted}
	if len(rec.names) != len(want) {
		t.Fatalf("expected %v, got %v", want, rec.names)
	}
	for i := range want {
		if rec.names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, rec.names)
		}
	}
}
