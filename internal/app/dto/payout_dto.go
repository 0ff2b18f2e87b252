package dto

import (
	"time"

	"travelsvc/internal/domain/payout"
)

type Earnings struct {
	VendorID       string    `json:"vendor_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Gross          string    `json:"gross"`
	CommissionRate string    `json:"commission_rate"`
	Net            string    `json:"net"`
	Currency       string    `json:"currency"`
	BookingIDs     []string  `json:"booking_ids"`
}

func NewEarnings(e payout.VendorEarnings) Earnings {
	return Earnings{
		VendorID:       e.VendorID,
		PeriodStart:    e.PeriodStart,
		PeriodEnd:      e.PeriodEnd,
		Gross:          e.Gross.Amount.StringFixed(2),
		CommissionRate: e.CommissionRate.String(),
		Net:            e.Net.Amount.StringFixed(2),
		Currency:       e.Net.Currency,
		BookingIDs:     append([]string(nil), e.BookingIDs...),
	}
}

type Receipt struct {
	ID            string    `json:"id"`
	VendorID      string    `json:"vendor_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	BookingIDs    []string  `json:"booking_ids"`
	TransactionID string    `json:"transaction_id"`
	IssuedAt      time.Time `json:"issued_at"`
}

func NewReceipt(r payout.Receipt) Receipt {
	return Receipt{
		ID:            r.ID,
		VendorID:      r.VendorID,
		Amount:        r.Amount.Amount.StringFixed(2),
		Currency:      r.Amount.Currency,
		PeriodStart:   r.PeriodStart,
		PeriodEnd:     r.PeriodEnd,
		BookingIDs:    append([]string(nil), r.BookingIDs...),
		TransactionID: r.TransactionID,
		IssuedAt:      r.IssuedAt,
	}
}

type VendorResult struct {
	VendorID  string `json:"vendor_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount,omitempty"`
	ReceiptID string `json:"receipt_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type RunReport struct {
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Paid        int            `json:"paid"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	Results     []VendorResult `json:"results"`
}

func NewRunReport(r payout.RunReport) RunReport {
	out := RunReport{
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
		Paid:        r.Paid,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Results:     make([]VendorResult, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		vr := VendorResult{
			VendorID:  res.VendorID,
			Status:    string(res.Status),
			ReceiptID: res.ReceiptID,
			Reason:    res.Reason,
		}
		if res.Status == payout.ResultPaid {
			vr.Amount = res.Amount.Amount.StringFixed(2)
		}
		out.Results = append(out.Results, vr)
	}
	return out
}
