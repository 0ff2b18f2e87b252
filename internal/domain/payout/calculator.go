package payout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
)

// CommissionRate is the platform's retained share; vendors keep the rest.
var CommissionRate = decimal.RequireFromString("0.20")

const earningsPageSize = 100

// Calculator derives vendor earnings from completed bookings. The net amount
// is rounded half-to-even exactly once, on the final sum, so earnings stay
// additive no matter how many bookings compose them.
type Calculator struct {
	bookings booking.Repository
	currency string
}

func NewCalculator(bookings booking.Repository, currency string) *Calculator {
	return &Calculator{bookings: bookings, currency: currency}
}

func (c *Calculator) VendorEarnings(ctx context.Context, vendorID string, start, end time.Time) (VendorEarnings, error) {
	gross := domain.ZeroMoney(c.currency)
	var ids []string

	page := domain.Page{Limit: earningsPageSize}
	for {
		items, total, err := c.bookings.FindByVendorID(ctx, vendorID, page)
		if err != nil {
			return VendorEarnings{}, err
		}
		for _, b := range items {
			if b.Status != booking.StatusCompleted {
				continue
			}
			if b.TripDate.Before(start) || !b.TripDate.Before(end) {
				continue
			}
			if gross, err = gross.Add(b.TotalPrice); err != nil {
				return VendorEarnings{}, err
			}
			ids = append(ids, b.ID)
		}
		page.Offset += len(items)
		if len(items) == 0 || page.Offset >= total {
			break
		}
	}

	vendorShare := decimal.NewFromInt(1).Sub(CommissionRate)
	net := gross.Mul(vendorShare).RoundBank()

	return VendorEarnings{
		VendorID:       vendorID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Gross:          gross,
		CommissionRate: CommissionRate,
		Net:            net,
		BookingIDs:     ids,
	}, nil
}
