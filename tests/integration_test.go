package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"travelsvc/internal/app/dto"
	httpapi "travelsvc/internal/app/http"
	"travelsvc/internal/app/http/handler"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/domain/payment"
	"travelsvc/internal/domain/payout"
	"travelsvc/internal/infrastructure/async"
	"travelsvc/internal/infrastructure/cache"
	"travelsvc/internal/infrastructure/db/pg"
	"travelsvc/internal/infrastructure/gateway"
	"travelsvc/internal/infrastructure/logging"
	"travelsvc/internal/infrastructure/notify"
	"travelsvc/internal/workers"
)

var migrateOnce sync.Once

func ensureMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	migrateOnce.Do(func() {
		if err := goose.SetDialect("postgres"); err != nil {
			t.Fatalf("goose.SetDialect: %v", err)
		}

		dir := "migrations"
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			alt := filepath.Join("..", "migrations")
			if _, err2 := os.Stat(alt); err2 == nil {
				dir = alt
			} else {
				t.Fatalf("migrations directory not found: tried %q (%v) and %q (%v)", dir, err, alt, err2)
			}
		}

		if err := goose.Up(db, dir); err != nil {
			t.Fatalf("goose.Up: %v", err)
		}
	})
}

func resetDB(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		TRUNCATE TABLE payout_receipts, payment_log, payments, bookings, vendors
		RESTART IDENTITY CASCADE;
	`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Fatalf("ping db: %v", err)
	}

	ensureMigrations(t, db)
	resetDB(t, db)

	return db
}

func insertVendor(t *testing.T, db *sql.DB, id string) {
	t.Helper()

	now := time.Now().UTC()
	if _, err := db.Exec(`
		INSERT INTO vendors (id, email, business_name, phone, bank_account, status, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, '', $4, 'approved', TRUE, $5, $5)`,
		id, id+"@example.com", "Vendor "+id, "acct-"+id, now,
	); err != nil {
		t.Fatalf("insert vendor: %v", err)
	}
}

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, func()) {
	t.Helper()

	db := getTestDB(t)

	log, err := logging.NewLogger()
	if err != nil {
		_ = db.Close()
		t.Fatalf("create logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	uow := pg.NewTxManager(db)
	bookingRepo := pg.NewBookingRepository(db)
	paymentRepo := pg.NewPaymentRepository(db, "USD")
	vendorRepo := pg.NewVendorRepository(db)
	receiptRepo := pg.NewReceiptRepository(db)

	charges := payment.NewOrchestrator(gateway.NewSandbox(), log)
	bus := async.NewBus(log)
	cacheSvc := cache.NewMemoryCache()

	pool := async.NewWorkerPool(ctx, 2, log)
	registry := async.NewRegistry()
	queue := async.NewPoolQueue(pool, registry, log)

	workers.NewNotificationWorker(notify.NewLogSink(log), log).Register(registry)
	workers.NewSubscriber(queue, log).Register(bus)
	cache.NewInvalidator(cacheSvc, log).Register(bus)

	bookingSvc := booking.NewService(uow, bookingRepo, paymentRepo, charges, bus, nil)
	calc := payout.NewCalculator(bookingRepo, "USD")
	payoutSvc := payout.NewService(uow, vendorRepo, calc, receiptRepo, charges, bus, nil)

	h := handler.New(bookingSvc, payoutSvc, cacheSvc, log)
	router := httpapi.NewRouter(h, log)

	ts := httptest.NewServer(router)

	cleanup := func() {
		ts.Close()
		cancel()
		pool.Shutdown()
		_ = log.Sync()
		_ = db.Close()
	}

	return ts, db, cleanup
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		t.Fatalf("%s %s: unexpected status %d (want %d), body=%v", method, url, resp.StatusCode, wantStatus, errBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func TestIntegration_BookingLifecycle(t *testing.T) {
	ts, _, cleanup := setupTestServer(t)
	defer cleanup()

	client := &http.Client{Timeout: 5 * time.Second}
	tripDate := time.Now().UTC().AddDate(0, 0, 14).Format(time.RFC3339)

	var created struct {
		Booking dto.Booking `json:"booking"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/bookings", map[string]string{
		"user_id":        "u1",
		"vendor_id":      "v1",
		"trip_date":      tripDate,
		"total_price":    "150.00",
		"currency":       "USD",
		"payment_method": "card",
	}, http.StatusCreated, &created)

	if created.Booking.Status != "confirmed" {
		t.Fatalf("expected confirmed booking, got %s", created.Booking.Status)
	}
	id := created.Booking.ID

	var fetched struct {
		Booking dto.Booking `json:"booking"`
	}
	doJSON(t, client, http.MethodGet, ts.URL+"/bookings/"+id, nil, http.StatusOK, &fetched)
	if fetched.Booking.TotalPrice != "150.00" {
		t.Fatalf("unexpected price %s", fetched.Booking.TotalPrice)
	}

	var listed dto.BookingList
	doJSON(t, client, http.MethodGet, ts.URL+"/bookings?user_id=u1", nil, http.StatusOK, &listed)
	if listed.Total != 1 || len(listed.Bookings) != 1 {
		t.Fatalf("expected one booking for u1, got %+v", listed)
	}

	var cancelled struct {
		Booking dto.Booking `json:"booking"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/bookings/"+id+"/cancel",
		map[string]string{"reason": "change of plans"}, http.StatusOK, &cancelled)
	if cancelled.Booking.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", cancelled.Booking.Status)
	}

	var pays struct {
		Payments []dto.Payment `json:"payments"`
	}
	doJSON(t, client, http.MethodGet, ts.URL+"/bookings/"+id+"/payments", nil, http.StatusOK, &pays)
	if len(pays.Payments) != 1 || pays.Payments[0].Status != "refunded" {
		t.Fatalf("expected one refunded payment, got %+v", pays.Payments)
	}
	if pays.Payments[0].RefundedAmount != "150.00" {
		t.Fatalf("expected 150.00 refunded, got %s", pays.Payments[0].RefundedAmount)
	}

	// Second cancel must conflict.
	doJSON(t, client, http.MethodPost, ts.URL+"/bookings/"+id+"/cancel",
		map[string]string{"reason": "again"}, http.StatusConflict, nil)
}

func TestIntegration_VendorPayout(t *testing.T) {
	ts, db, cleanup := setupTestServer(t)
	defer cleanup()

	insertVendor(t, db, "v1")
	client := &http.Client{Timeout: 5 * time.Second}

	// Trip today at midnight: valid on create, inside the payout period once
	// the trip is completed.
	tripDate := time.Now().UTC().Truncate(24 * time.Hour)

	var created struct {
		Booking dto.Booking `json:"booking"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/bookings", map[string]string{
		"user_id":        "u1",
		"vendor_id":      "v1",
		"trip_date":      tripDate.Format(time.RFC3339),
		"total_price":    "650.00",
		"currency":       "USD",
		"payment_method": "card",
	}, http.StatusCreated, &created)

	doJSON(t, client, http.MethodPost, ts.URL+"/bookings/"+created.Booking.ID+"/complete",
		nil, http.StatusOK, nil)

	start := tripDate.AddDate(0, 0, -1).Format(time.RFC3339)
	end := tripDate.AddDate(0, 0, 1).Format(time.RFC3339)

	var earnings struct {
		Earnings dto.Earnings `json:"earnings"`
	}
	doJSON(t, client, http.MethodGet,
		fmt.Sprintf("%s/vendors/v1/earnings?start=%s&end=%s", ts.URL, start, end),
		nil, http.StatusOK, &earnings)
	if earnings.Earnings.Gross != "650.00" || earnings.Earnings.Net != "520.00" {
		t.Fatalf("expected 650.00 gross / 520.00 net, got %+v", earnings.Earnings)
	}

	var paid struct {
		Receipt dto.Receipt `json:"receipt"`
	}
	doJSON(t, client, http.MethodPost,
		fmt.Sprintf("%s/vendors/v1/payout?start=%s&end=%s", ts.URL, start, end),
		nil, http.StatusCreated, &paid)
	if paid.Receipt.Amount != "520.00" || paid.Receipt.TransactionID == "" {
		t.Fatalf("unexpected receipt %+v", paid.Receipt)
	}
}
