package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelsvc/internal/app/http/handler"
	"travelsvc/internal/app/http/middleware"
)

func NewRouter(h *handler.Handler, log *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		middleware.ZapLogger(log),
		middleware.ZapRecovery(log),
	)

	r.GET("/health", h.Health)

	r.POST("/bookings", h.BookingCreate)
	r.GET("/bookings", h.BookingList)
	r.GET("/bookings/:id", h.BookingGet)
	r.POST("/bookings/:id/cancel", h.BookingCancel)
	r.POST("/bookings/:id/complete", h.BookingComplete)
	r.GET("/bookings/:id/payments", h.BookingPayments)

	r.GET("/vendors/:id/earnings", h.VendorEarnings)
	r.POST("/vendors/:id/payout", h.VendorPayout)

	r.POST("/payroll/weekly", h.PayrollWeekly)
	r.POST("/payroll/monthly", h.PayrollMonthly)

	return r
}
