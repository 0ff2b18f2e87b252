package pg

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payout"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Save(ctx context.Context, rec payout.Receipt) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO payout_receipts
		     (id, vendor_id, amount, currency, period_start, period_end, booking_ids, transaction_id, issued_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.VendorID, rec.Amount.Amount.String(), rec.Amount.Currency,
		rec.PeriodStart, rec.PeriodEnd, strings.Join(rec.BookingIDs, ","),
		rec.TransactionID, rec.IssuedAt,
	)
	return err
}

func (r *ReceiptRepository) FindByVendorID(ctx context.Context, vendorID string, page domain.Page) ([]payout.Receipt, int, error) {
	var total int
	if err := queryRow(ctx, r.db,
		`SELECT COUNT(*) FROM payout_receipts WHERE vendor_id = $1`, vendorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := query(ctx, r.db,
		`SELECT id, vendor_id, amount, currency, period_start, period_end, booking_ids, transaction_id, issued_at
		   FROM payout_receipts
		  WHERE vendor_id = $1
		  ORDER BY issued_at DESC
		  LIMIT $2 OFFSET $3`,
		vendorID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []payout.Receipt
	for rows.Next() {
		var rec payout.Receipt
		var amount, currency, bookingIDs string
		if err := rows.Scan(
			&rec.ID, &rec.VendorID, &amount, &currency,
			&rec.PeriodStart, &rec.PeriodEnd, &bookingIDs, &rec.TransactionID, &rec.IssuedAt,
		); err != nil {
			return nil, 0, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, 0, err
		}
		rec.Amount = domain.NewMoney(d, currency)
		if bookingIDs != "" {
			rec.BookingIDs = strings.Split(bookingIDs, ",")
		}
		res = append(res, rec)
	}
	return res, total, rows.Err()
}
