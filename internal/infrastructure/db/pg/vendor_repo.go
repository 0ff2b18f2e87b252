package pg

import (
	"context"
	"database/sql"
	"errors"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/vendor"
)

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

const vendorColumns = `id, email, business_name, phone, bank_account, status, is_active, created_at, updated_at`

func (r *VendorRepository) FindByID(ctx context.Context, id string) (vendor.Vendor, error) {
	var v vendor.Vendor
	var status string
	var bank sql.NullString

	err := queryRow(ctx, r.db,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id,
	).Scan(&v.ID, &v.Email, &v.BusinessName, &v.Phone, &bank, &status, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.Vendor{}, domain.NewNotFoundError("vendor not found")
	}
	if err != nil {
		return vendor.Vendor{}, err
	}
	v.Status = vendor.Status(status)
	v.BankAccount = bank.String
	return v, nil
}

func (r *VendorRepository) FindAll(ctx context.Context, page domain.Page) ([]vendor.Vendor, int, error) {
	return r.list(ctx, page,
		`SELECT `+vendorColumns+` FROM vendors ORDER BY created_at LIMIT $1 OFFSET $2`,
		`SELECT COUNT(*) FROM vendors`,
	)
}

func (r *VendorRepository) FindPayable(ctx context.Context, page domain.Page) ([]vendor.Vendor, int, error) {
	return r.list(ctx, page,
		`SELECT `+vendorColumns+` FROM vendors
		  WHERE status = 'approved' AND is_active AND bank_account IS NOT NULL
		  ORDER BY created_at LIMIT $1 OFFSET $2`,
		`SELECT COUNT(*) FROM vendors
		  WHERE status = 'approved' AND is_active AND bank_account IS NOT NULL`,
	)
}

func (r *VendorRepository) list(ctx context.Context, page domain.Page, listQ, countQ string) ([]vendor.Vendor, int, error) {
	var total int
	if err := queryRow(ctx, r.db, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := query(ctx, r.db, listQ, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []vendor.Vendor
	for rows.Next() {
		var v vendor.Vendor
		var status string
		var bank sql.NullString
		if err := rows.Scan(&v.ID, &v.Email, &v.BusinessName, &v.Phone, &bank, &status, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		v.Status = vendor.Status(status)
		v.BankAccount = bank.String
		res = append(res, v)
	}
	return res, total, rows.Err()
}
