package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `user_id, vendor_id, trip_date, status, total_price, currency, created_at, updated_at`

func (r *BookingRepository) Save(ctx context.Context, b booking.Booking) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO bookings (id, `+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.UserID, b.VendorID, b.TripDate, string(b.Status),
		b.TotalPrice.Amount.String(), b.TotalPrice.Currency, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (booking.Booking, error) {
	return r.scanOne(ctx, id, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`)
}

func (r *BookingRepository) LockByID(ctx context.Context, id string) (booking.Booking, error) {
	return r.scanOne(ctx, id, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`)
}

func (r *BookingRepository) scanOne(ctx context.Context, id, q string) (booking.Booking, error) {
	var b booking.Booking
	var status, price, currency string

	err := queryRow(ctx, r.db, q, id).Scan(
		&b.UserID, &b.VendorID, &b.TripDate, &status, &price, &currency,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Booking{}, domain.NewNotFoundError("booking not found")
	}
	if err != nil {
		return booking.Booking{}, err
	}

	b.ID = id
	b.Status = booking.Status(status)
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return booking.Booking{}, err
	}
	b.TotalPrice = domain.NewMoney(amount, currency)
	return b, nil
}

func (r *BookingRepository) FindByUserID(ctx context.Context, userID string, page domain.Page) ([]booking.Booking, int, error) {
	return r.list(ctx, page,
		`SELECT id, `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		`SELECT COUNT(*) FROM bookings WHERE user_id = $1`,
		userID,
	)
}

func (r *BookingRepository) FindByVendorID(ctx context.Context, vendorID string, page domain.Page) ([]booking.Booking, int, error) {
	return r.list(ctx, page,
		`SELECT id, `+bookingColumns+` FROM bookings WHERE vendor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		`SELECT COUNT(*) FROM bookings WHERE vendor_id = $1`,
		vendorID,
	)
}

func (r *BookingRepository) FindAll(ctx context.Context, page domain.Page) ([]booking.Booking, int, error) {
	return r.list(ctx, page,
		`SELECT id, `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		`SELECT COUNT(*) FROM bookings`,
	)
}

func (r *BookingRepository) list(ctx context.Context, page domain.Page, listQ, countQ string, args ...any) ([]booking.Booking, int, error) {
	var total int
	if err := queryRow(ctx, r.db, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := query(ctx, r.db, listQ, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []booking.Booking
	for rows.Next() {
		var b booking.Booking
		var status, price, currency string
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.VendorID, &b.TripDate, &status, &price, &currency,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		b.Status = booking.Status(status)
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return nil, 0, err
		}
		b.TotalPrice = domain.NewMoney(amount, currency)
		res = append(res, b)
	}
	return res, total, rows.Err()
}

func (r *BookingRepository) Update(ctx context.Context, b booking.Booking) error {
	res, err := exec(ctx, r.db,
		`UPDATE bookings
		    SET status = $2, trip_date = $3, total_price = $4, currency = $5, updated_at = $6
		  WHERE id = $1`,
		b.ID, string(b.Status), b.TripDate,
		b.TotalPrice.Amount.String(), b.TotalPrice.Currency, b.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("booking not found")
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	_, err := exec(ctx, r.db, `DELETE FROM bookings WHERE id = $1`, id)
	return err
}

func (r *BookingRepository) CountByStatus(ctx context.Context, status booking.Status) (int, error) {
	var n int
	err := queryRow(ctx, r.db,
		`SELECT COUNT(*) FROM bookings WHERE status = $1`, string(status),
	).Scan(&n)
	return n, err
}
