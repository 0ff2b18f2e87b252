package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"travelsvc/internal/app/dto"
	"travelsvc/internal/domain"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/infrastructure/cache"
)

func (h *Handler) BookingCreate(c *gin.Context) {
	var body struct {
		UserID        string    `json:"user_id"`
		VendorID      string    `json:"vendor_id"`
		TripDate      time.Time `json:"trip_date"`
		TotalPrice    string    `json:"total_price"`
		Currency      string    `json:"currency"`
		PaymentMethod string    `json:"payment_method"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}

	amount, err := decimal.NewFromString(body.TotalPrice)
	if err != nil {
		h.badRequest(c, "total_price must be a decimal number")
		return
	}

	b, err := h.BookingSvc.Create(c.Request.Context(), booking.CreateInput{
		UserID:        body.UserID,
		VendorID:      body.VendorID,
		TripDate:      body.TripDate,
		TotalPrice:    domain.NewMoney(amount, body.Currency),
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := struct {
		Booking dto.Booking `json:"booking"`
	}{
		Booking: dto.NewBooking(b),
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) BookingGet(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	key := cache.BookingKey(id)

	if raw, ok, err := h.Cache.Get(ctx, key); err == nil && ok {
		var cached dto.Booking
		if json.Unmarshal([]byte(raw), &cached) == nil {
			c.JSON(http.StatusOK, struct {
				Booking dto.Booking `json:"booking"`
			}{Booking: cached})
			return
		}
	}

	b, err := h.BookingSvc.Get(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := dto.NewBooking(b)
	if body, err := json.Marshal(out); err == nil {
		if err := h.Cache.Set(ctx, key, string(body), cache.BookingTTL); err != nil {
			h.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, struct {
		Booking dto.Booking `json:"booking"`
	}{Booking: out})
}

func (h *Handler) BookingList(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Query("user_id")
	vendorID := c.Query("vendor_id")

	if (userID == "") == (vendorID == "") {
		h.badRequest(c, "exactly one of user_id or vendor_id is required")
		return
	}

	page := domain.Page{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}.Normalize()

	var key string
	if userID != "" {
		key = cache.UserBookingsKey(userID, page.Limit, page.Offset)
	} else {
		key = cache.VendorBookingsKey(vendorID, page.Limit, page.Offset)
	}

	if raw, ok, err := h.Cache.Get(ctx, key); err == nil && ok {
		var cached dto.BookingList
		if json.Unmarshal([]byte(raw), &cached) == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	var (
		items []booking.Booking
		total int
		err   error
	)
	if userID != "" {
		items, total, err = h.BookingSvc.ListByUser(ctx, userID, page)
	} else {
		items, total, err = h.BookingSvc.ListByVendor(ctx, vendorID, page)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := dto.BookingList{
		Bookings: dto.NewBookings(items),
		Total:    total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if body, err := json.Marshal(resp); err == nil {
		if err := h.Cache.Set(ctx, key, string(body), cache.ListTTL); err != nil {
			h.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) BookingCancel(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, "invalid JSON")
		return
	}

	b, err := h.BookingSvc.Cancel(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Booking dto.Booking `json:"booking"`
	}{Booking: dto.NewBooking(b)})
}

func (h *Handler) BookingComplete(c *gin.Context) {
	b, err := h.BookingSvc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Booking dto.Booking `json:"booking"`
	}{Booking: dto.NewBooking(b)})
}

func (h *Handler) BookingPayments(c *gin.Context) {
	pays, err := h.BookingSvc.PaymentsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, struct {
		Payments []dto.Payment `json:"payments"`
	}{Payments: dto.NewPayments(pays)})
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
