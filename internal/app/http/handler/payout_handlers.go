package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travelsvc/internal/app/dto"
	"travelsvc/internal/domain"
	"travelsvc/internal/domain/payout"
)

func (h *Handler) VendorEarnings(c *gin.Context) {
	start, end, ok := h.periodQuery(c)
	if !ok {
		return
	}

	earnings, err := h.PayoutSvc.VendorEarnings(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Earnings dto.Earnings `json:"earnings"`
	}{Earnings: dto.NewEarnings(earnings)})
}

func (h *Handler) VendorPayout(c *gin.Context) {
	start, end, ok := h.periodQuery(c)
	if !ok {
		return
	}

	receipt, err := h.PayoutSvc.PayoutVendor(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, struct {
		Receipt dto.Receipt `json:"receipt"`
	}{Receipt: dto.NewReceipt(receipt)})
}

func (h *Handler) PayrollWeekly(c *gin.Context) {
	h.payroll(c, h.PayoutSvc.ProcessWeeklyPayroll)
}

func (h *Handler) PayrollMonthly(c *gin.Context) {
	h.payroll(c, h.PayoutSvc.ProcessMonthlyPayroll)
}

func (h *Handler) payroll(c *gin.Context, run func(ctx context.Context) (payout.RunReport, error)) {
	report, err := run(c.Request.Context())
	if err != nil {
		// A partial failure still produced a report worth returning; anything
		// else goes through the usual error mapping.
		var de *domain.DomainError
		if errors.As(err, &de) && de.Code == domain.ErrorCodePartialFailure {
			c.JSON(de.HTTPStatus, struct {
				Report dto.RunReport `json:"report"`
				Error  dto.Error     `json:"error"`
			}{
				Report: dto.NewRunReport(report),
				Error:  dto.Error{Code: string(de.Code), Message: de.Message},
			})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Report dto.RunReport `json:"report"`
	}{Report: dto.NewRunReport(report)})
}

func (h *Handler) periodQuery(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		h.badRequest(c, "start must be an RFC 3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		h.badRequest(c, "end must be an RFC 3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	if !start.Before(end) {
		h.badRequest(c, "start must be before end")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
