package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/domain/payment"
)

type uowStub struct{}

func (uowStub) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type eventBusFake struct {
	events []domain.Event
}

func (e *eventBusFake) Publish(_ context.Context, ev domain.Event) {
	e.events = append(e.events, ev)
}

func (e *eventBusFake) names() []string {
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Name())
	}
	return out
}

type gatewayStub struct {
	chargeErr error
	refundErr error
	charges   []payment.ChargeRequest
	refunds   []payment.RefundRequest
}

func (g *gatewayStub) ProcessPayment(_ context.Context, req payment.ChargeRequest) (payment.ChargeResult, error) {
	g.charges = append(g.charges, req)
	if g.chargeErr != nil {
		return payment.ChargeResult{}, g.chargeErr
	}
	return payment.ChargeResult{TransactionID: "txn_1"}, nil
}

func (g *gatewayStub) RefundPayment(_ context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	g.refunds = append(g.refunds, req)
	if g.refundErr != nil {
		return payment.RefundResult{}, g.refundErr
	}
	return payment.RefundResult{RefundID: "rfnd_1"}, nil
}

func (g *gatewayStub) PaymentStatus(_ context.Context, _ string) (payment.TransactionStatus, error) {
	return payment.TransactionSuccessful, nil
}

type bookingRepoFake struct {
	byID map[string]booking.Booking
}

func newBookingRepoFake() *bookingRepoFake {
	return &bookingRepoFake{byID: map[string]booking.Booking{}}
}

func (r *bookingRepoFake) Save(_ context.Context, b booking.Booking) error {
	r.byID[b.ID] = b
	return nil
}
func (r *bookingRepoFake) FindByID(_ context.Context, id string) (booking.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return booking.Booking{}, domain.NewNotFoundError("booking not found")
	}
	return b, nil
}
func (r *bookingRepoFake) LockByID(ctx context.Context, id string) (booking.Booking, error) {
	return r.FindByID(ctx, id)
}
func (r *bookingRepoFake) FindByUserID(_ context.Context, userID string, _ domain.Page) ([]booking.Booking, int, error) {
	var res []booking.Booking
	for _, b := range r.byID {
		if b.UserID == userID {
			res = append(res, b)
		}
	}
	return res, len(res), nil
}
func (r *bookingRepoFake) FindByVendorID(_ context.Context, vendorID string, _ domain.Page) ([]booking.Booking, int, error) {
	var res []booking.Booking
	for _, b := range r.byID {
		if b.VendorID == vendorID {
			res = append(res, b)
		}
	}
	return res, len(res), nil
}
func (r *bookingRepoFake) FindAll(_ context.Context, _ domain.Page) ([]booking.Booking, int, error) {
	var res []booking.Booking
	for _, b := range r.byID {
		res = append(res, b)
	}
	return res, len(res), nil
}
func (r *bookingRepoFake) Update(_ context.Context, b booking.Booking) error {
	if _, ok := r.byID[b.ID]; !ok {
		return domain.NewNotFoundError("booking not found")
	}
	r.byID[b.ID] = b
	return nil
}
func (r *bookingRepoFake) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}
func (r *bookingRepoFake) CountByStatus(_ context.Context, status booking.Status) (int, error) {
	n := 0
	for _, b := range r.byID {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

type paymentRepoFake struct {
	byID map[string]payment.Payment
}

func newPaymentRepoFake() *paymentRepoFake {
	return &paymentRepoFake{byID: map[string]payment.Payment{}}
}

func (r *paymentRepoFake) Save(_ context.Context, p payment.Payment) error {
	r.byID[p.ID] = p
	return nil
}
func (r *paymentRepoFake) FindByID(_ context.Context, id string) (payment.Payment, error) {
	p, ok := r.byID[id]
	if !ok {
		return payment.Payment{}, domain.NewNotFoundError("payment not found")
	}
	return p, nil
}
func (r *paymentRepoFake) FindByBookingID(_ context.Context, bookingID string) ([]payment.Payment, error) {
	var res []payment.Payment
	for _, p := range r.byID {
		if p.BookingID == bookingID {
			res = append(res, p)
		}
	}
	return res, nil
}
func (r *paymentRepoFake) FindAll(_ context.Context, _ domain.Page) ([]payment.Payment, int, error) {
	var res []payment.Payment
	for _, p := range r.byID {
		res = append(res, p)
	}
	return res, len(res), nil
}
func (r *paymentRepoFake) Update(_ context.Context, p payment.Payment) error {
	if _, ok := r.byID[p.ID]; !ok {
		return domain.NewNotFoundError("payment not found")
	}
	r.byID[p.ID] = p
	return nil
}
func (r *paymentRepoFake) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}
func (r *paymentRepoFake) SumByStatus(_ context.Context, status payment.Status) (domain.Money, error) {
	sum := domain.ZeroMoney("USD")
	for _, p := range r.byID {
		if p.Status == status {
			sum, _ = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

type fixture struct {
	svc      booking.Service
	bookings *bookingRepoFake
	payments *paymentRepoFake
	gateway  *gatewayStub
	events   *eventBusFake
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		bookings: newBookingRepoFake(),
		payments: newPaymentRepoFake(),
		gateway:  &gatewayStub{},
		events:   &eventBusFake{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	charges := payment.NewOrchestrator(f.gateway, zap.NewNop())
	f.svc = booking.NewService(uowStub{}, f.bookings, f.payments, charges, f.events,
		func() time.Time { return f.now })
	return f
}

func (f *fixture) createInput(price string) booking.CreateInput {
	m, _ := domain.MoneyFromString(price, "USD")
	return booking.CreateInput{
		UserID:        "u1",
		VendorID:      "v1",
		TripDate:      f.now.AddDate(0, 0, 10),
		TotalPrice:    m,
		PaymentMethod: "card",
	}
}

func TestService_Create_ConfirmsAndCharges(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), f.createInput("150.00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if b.Status != booking.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}

	pays, err := f.payments.FindByBookingID(context.Background(), b.ID)
	if err != nil || len(pays) != 1 {
		t.Fatalf("expected one payment, got %v (%v)", pays, err)
	}
	if pays[0].Status != payment.StatusCompleted || pays[0].TransactionID != "txn_1" {
		t.Fatalf("unexpected payment %+v", pays[0])
	}

	names := f.events.names()
	if len(names) != 2 || names[0] != domain.EventBookingCreated || names[1] != domain.EventPaymentProcessed {
		t.Fatalf("unexpected events %v", names)
	}
}

func TestService_Create_DeclinedKeepsBookingPending(t *testing.T) {
	f := newFixture()
	f.gateway.chargeErr = &payment.GatewayError{Code: payment.GatewayDeclined, Message: "card declined"}

	_, err := f.svc.Create(context.Background(), f.createInput("150.00"))
	if err == nil {
		t.Fatal("expected decline error")
	}
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodePaymentDeclined {
		t.Fatalf("expected PAYMENT_DECLINED, got %v", err)
	}
	if len(f.gateway.charges) != 1 {
		t.Fatalf("declines must not be retried, got %d calls", len(f.gateway.charges))
	}

	pending, _ := f.bookings.CountByStatus(context.Background(), booking.StatusPending)
	if pending != 1 {
		t.Fatalf("booking must stay pending, got %d pending", pending)
	}
	for _, p := range f.payments.byID {
		if p.Status != payment.StatusFailed {
			t.Fatalf("expected failed audit payment, got %+v", p)
		}
	}
	if len(f.events.events) != 0 {
		t.Fatalf("no events expected on failed create, got %v", f.events.names())
	}
}

func TestService_Create_RejectsPastTripDate(t *testing.T) {
	f := newFixture()
	in := f.createInput("150.00")
	in.TripDate = f.now.AddDate(0, 0, -1)

	_, err := f.svc.Create(context.Background(), in)
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
	if len(f.gateway.charges) != 0 {
		t.Fatal("invalid input must never reach the gateway")
	}
}

func TestService_Cancel_RefundsFullAmount(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), f.createInput("150.00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	f.events.events = nil

	cancelled, err := f.svc.Cancel(context.Background(), b.ID, "change of plans")
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if cancelled.Status != booking.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	if len(f.gateway.refunds) != 1 {
		t.Fatalf("expected one refund call, got %d", len(f.gateway.refunds))
	}
	if f.gateway.refunds[0].Amount.MinorUnits() != 15000 {
		t.Fatalf("expected 150.00 refund, got %d minor units", f.gateway.refunds[0].Amount.MinorUnits())
	}

	pays, _ := f.payments.FindByBookingID(context.Background(), b.ID)
	if len(pays) != 1 || pays[0].Status != payment.StatusRefunded {
		t.Fatalf("expected refunded payment, got %+v", pays)
	}

	if len(f.events.events) != 1 {
		t.Fatalf("expected one event, got %v", f.events.names())
	}
	ev, ok := f.events.events[0].(domain.BookingCancelled)
	if !ok || ev.Refund != "150.00" || ev.Reason != "change of plans" {
		t.Fatalf("unexpected cancel event %+v", f.events.events[0])
	}
}

func TestService_Cancel_SecondCancelConflicts(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), f.createInput("150.00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), b.ID, "first"); err != nil {
		t.Fatalf("first Cancel error: %v", err)
	}
	f.events.events = nil

	_, err = f.svc.Cancel(context.Background(), b.ID, "second")
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if len(f.gateway.refunds) != 1 {
		t.Fatalf("second cancel must not refund again, got %d refund calls", len(f.gateway.refunds))
	}
	if len(f.events.events) != 0 {
		t.Fatalf("second cancel must not publish, got %v", f.events.names())
	}
}

func TestService_Complete_OnlyFromConfirmed(t *testing.T) {
	f := newFixture()

	b, err := f.svc.Create(context.Background(), f.createInput("99.00"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	f.events.events = nil

	done, err := f.svc.Complete(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if done.Status != booking.StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	names := f.events.names()
	if len(names) != 1 || names[0] != domain.EventBookingCompleted {
		t.Fatalf("expected booking.completed event, got %v", names)
	}

	_, err = f.svc.Complete(context.Background(), b.ID)
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeConflict {
		t.Fatalf("expected CONFLICT on repeat complete, got %v", err)
	}
}

func TestService_PaymentsFor_UnknownBooking(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PaymentsFor(context.Background(), "missing")
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
