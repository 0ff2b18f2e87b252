package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payment"
)

type PaymentRepository struct {
	db       *sql.DB
	currency string
}

func NewPaymentRepository(db *sql.DB, currency string) *PaymentRepository {
	return &PaymentRepository{db: db, currency: currency}
}

func (r *PaymentRepository) Save(ctx context.Context, p payment.Payment) error {
	if _, err := exec(ctx, r.db,
		`INSERT INTO payments
		     (id, booking_id, amount, currency, status, transaction_id, refund_id, refunded_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.BookingID, p.Amount.Amount.String(), p.Amount.Currency, string(p.Status),
		nullable(p.TransactionID), nullable(p.RefundID), p.RefundedAmount.Amount.String(),
		p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return err
	}
	return r.appendLog(ctx, p)
}

func (r *PaymentRepository) Update(ctx context.Context, p payment.Payment) error {
	res, err := exec(ctx, r.db,
		`UPDATE payments
		    SET status = $2, transaction_id = $3, refund_id = $4, refunded_amount = $5, updated_at = $6
		  WHERE id = $1`,
		p.ID, string(p.Status), nullable(p.TransactionID), nullable(p.RefundID),
		p.RefundedAmount.Amount.String(), p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("payment not found")
	}
	return r.appendLog(ctx, p)
}

// appendLog keeps the auditable trail: every insert and update leaves an
// immutable row behind.
func (r *PaymentRepository) appendLog(ctx context.Context, p payment.Payment) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO payment_log (payment_id, booking_id, status, amount, refunded_amount, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())`,
		p.ID, p.BookingID, string(p.Status), p.Amount.Amount.String(), p.RefundedAmount.Amount.String(),
	)
	return err
}

const paymentColumns = `id, booking_id, amount, currency, status, transaction_id, refund_id, refunded_amount, created_at, updated_at`

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (payment.Payment, error) {
	row := queryRow(ctx, r.db, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return payment.Payment{}, domain.NewNotFoundError("payment not found")
	}
	return p, err
}

func (r *PaymentRepository) FindByBookingID(ctx context.Context, bookingID string) ([]payment.Payment, error) {
	rows, err := query(ctx, r.db,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *PaymentRepository) FindAll(ctx context.Context, page domain.Page) ([]payment.Payment, int, error) {
	var total int
	if err := queryRow(ctx, r.db, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := query(ctx, r.db,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, p)
	}
	return res, total, rows.Err()
}

func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.db, `DELETE FROM payments WHERE id = $1`, id)
	return err
}

func (r *PaymentRepository) SumByStatus(ctx context.Context, status payment.Status) (domain.Money, error) {
	var sum string
	err := queryRow(ctx, r.db,
		`SELECT COALESCE(SUM(amount), 0)::text FROM payments WHERE status = $1`,
		string(status),
	).Scan(&sum)
	if err != nil {
		return domain.Money{}, err
	}
	amount, err := decimal.NewFromString(sum)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(amount, r.currency), nil
}

func scanPayment(scan func(dest ...any) error) (payment.Payment, error) {
	var p payment.Payment
	var amount, refunded, status, currency string
	var txnID, refundID sql.NullString

	if err := scan(
		&p.ID, &p.BookingID, &amount, &currency, &status,
		&txnID, &refundID, &refunded, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return payment.Payment{}, err
	}

	p.Status = payment.Status(status)
	p.TransactionID = txnID.String
	p.RefundID = refundID.String

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return payment.Payment{}, err
	}
	p.Amount = domain.NewMoney(d, currency)

	rd, err := decimal.NewFromString(refunded)
	if err != nil {
		return payment.Payment{}, err
	}
	p.RefundedAmount = domain.NewMoney(rd, currency)
	return p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
