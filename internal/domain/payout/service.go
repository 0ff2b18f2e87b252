package payout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payment"
	"travelsvc/internal/domain/vendor"
)

// MinimumPayout is the smallest net amount worth a bank transfer; vendors
// below it are skipped for the run, not queued for later.
var MinimumPayout = decimal.RequireFromString("50.00")

const (
	payrollConcurrency = 4
	vendorPageSize     = 100
)

type ResultStatus string

const (
	ResultPaid    ResultStatus = "paid"
	ResultSkipped ResultStatus = "skipped"
	ResultFailed  ResultStatus = "failed"
)

type VendorResult struct {
	VendorID  string
	Status    ResultStatus
	Amount    domain.Money
	ReceiptID string
	Reason    string
}

type RunReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Results     []VendorResult
	Paid        int
	Skipped     int
	Failed      int
}

type Service interface {
	VendorEarnings(ctx context.Context, vendorID string, start, end time.Time) (VendorEarnings, error)
	PayoutVendor(ctx context.Context, vendorID string, start, end time.Time) (Receipt, error)
	ProcessWeeklyPayroll(ctx context.Context) (RunReport, error)
	ProcessMonthlyPayroll(ctx context.Context) (RunReport, error)
}

type service struct {
	uow      domain.UnitOfWork
	vendors  vendor.Repository
	calc     *Calculator
	receipts ReceiptRepository
	charges  *payment.Orchestrator
	events   domain.EventBus
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

func NewService(
	uow domain.UnitOfWork,
	vendors vendor.Repository,
	calc *Calculator,
	receipts ReceiptRepository,
	charges *payment.Orchestrator,
	events domain.EventBus,
	now func() time.Time,
) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		uow:      uow,
		vendors:  vendors,
		calc:     calc,
		receipts: receipts,
		charges:  charges,
		events:   events,
		now:      now,
		inflight: make(map[string]*sync.Mutex),
	}
}

func (s *service) VendorEarnings(ctx context.Context, vendorID string, start, end time.Time) (VendorEarnings, error) {
	if _, err := s.vendors.FindByID(ctx, vendorID); err != nil {
		return VendorEarnings{}, err
	}
	return s.calc.VendorEarnings(ctx, vendorID, start, end)
}

func (s *service) PayoutVendor(ctx context.Context, vendorID string, start, end time.Time) (Receipt, error) {
	v, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		return Receipt{}, err
	}

	// Payouts for the same vendor and period must not race each other.
	periodKey := vendorID + "|" + start.UTC().Format(time.RFC3339)
	unlock := s.lock(periodKey)
	defer unlock()

	earnings, err := s.calc.VendorEarnings(ctx, vendorID, start, end)
	if err != nil {
		return Receipt{}, err
	}
	if earnings.Net.Amount.LessThan(MinimumPayout) {
		return Receipt{}, &domain.DomainError{
			Code: domain.ErrorCodeThresholdNotMet,
			Message: fmt.Sprintf("net earnings %s below minimum payout %s",
				earnings.Net, MinimumPayout.StringFixed(2)),
			HTTPStatus: http.StatusUnprocessableEntity,
		}
	}

	txnID, err := s.charges.Charge(ctx, "payout:"+periodKey, payment.ChargeRequest{
		Amount: earnings.Net,
		Method: "bank_transfer",
		Metadata: map[string]string{
			"vendor_id":    v.ID,
			"bank_account": v.BankAccount,
		},
	})
	if err != nil {
		return Receipt{}, payment.TranslateError(err)
	}

	receipt := Receipt{
		ID:            uuid.NewString(),
		VendorID:      v.ID,
		Amount:        earnings.Net,
		PeriodStart:   start,
		PeriodEnd:     end,
		BookingIDs:    earnings.BookingIDs,
		TransactionID: txnID,
		IssuedAt:      s.now().UTC(),
	}
	if err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		return s.receipts.Save(ctx, receipt)
	}); err != nil {
		return Receipt{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, domain.VendorPayout{
			VendorID:    v.ID,
			Amount:      receipt.Amount.Amount.StringFixed(2),
			Currency:    receipt.Amount.Currency,
			PeriodStart: start,
			PeriodEnd:   end,
			BookingIDs:  receipt.BookingIDs,
			At:          receipt.IssuedAt,
		})
	}
	return receipt, nil
}

func (s *service) ProcessWeeklyPayroll(ctx context.Context) (RunReport, error) {
	end := s.now().UTC()
	return s.run(ctx, end.AddDate(0, 0, -7), end)
}

func (s *service) ProcessMonthlyPayroll(ctx context.Context) (RunReport, error) {
	end := s.now().UTC()
	return s.run(ctx, end.AddDate(0, 0, -30), end)
}

func (s *service) run(ctx context.Context, start, end time.Time) (RunReport, error) {
	report := RunReport{PeriodStart: start, PeriodEnd: end}

	var vendors []vendor.Vendor
	page := domain.Page{Limit: vendorPageSize}
	for {
		items, total, err := s.vendors.FindPayable(ctx, page)
		if err != nil {
			return report, err
		}
		vendors = append(vendors, items...)
		page.Offset += len(items)
		if len(items) == 0 || page.Offset >= total {
			break
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payrollConcurrency)

	for _, v := range vendors {
		v := v
		g.Go(func() error {
			res := s.payoutResult(gctx, v.ID, start, end)
			mu.Lock()
			report.Results = append(report.Results, res)
			switch res.Status {
			case ResultPaid:
				report.Paid++
			case ResultSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
			mu.Unlock()
			// One vendor's failure must not abort the rest of the run.
			return nil
		})
	}
	_ = g.Wait()

	if report.Failed > 0 {
		return report, &domain.DomainError{
			Code: domain.ErrorCodePartialFailure,
			Message: fmt.Sprintf("%d of %d vendor payouts failed",
				report.Failed, len(vendors)),
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return report, nil
}

func (s *service) payoutResult(ctx context.Context, vendorID string, start, end time.Time) VendorResult {
	receipt, err := s.PayoutVendor(ctx, vendorID, start, end)
	if err == nil {
		return VendorResult{
			VendorID:  vendorID,
			Status:    ResultPaid,
			Amount:    receipt.Amount,
			ReceiptID: receipt.ID,
		}
	}
	var de *domain.DomainError
	if errors.As(err, &de) && de.Code == domain.ErrorCodeThresholdNotMet {
		return VendorResult{VendorID: vendorID, Status: ResultSkipped, Reason: de.Message}
	}
	return VendorResult{VendorID: vendorID, Status: ResultFailed, Reason: err.Error()}
}

func (s *service) lock(key string) func() {
	s.mu.Lock()
	m, ok := s.inflight[key]
	if !ok {
		m = &sync.Mutex{}
		s.inflight[key] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
