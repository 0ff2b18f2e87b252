package payout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"travelsvc/internal/domain"
)

// VendorEarnings is computed on demand and never persisted; the receipt is the
// durable record once money actually moves.
type VendorEarnings struct {
	VendorID       string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Gross          domain.Money
	CommissionRate decimal.Decimal
	Net            domain.Money
	BookingIDs     []string
}

type Receipt struct {
	ID            string
	VendorID      string
	Amount        domain.Money
	PeriodStart   time.Time
	PeriodEnd     time.Time
	BookingIDs    []string
	TransactionID string
	IssuedAt      time.Time
}

type ReceiptRepository interface {
	Save(ctx context.Context, r Receipt) error
	FindByVendorID(ctx context.Context, vendorID string, page domain.Page) ([]Receipt, int, error)
}
