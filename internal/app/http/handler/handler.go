package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travelsvc/internal/domain/booking"
	"travelsvc/internal/domain/payout"
	"travelsvc/internal/infrastructure/cache"
)

type Handler struct {
	BookingSvc booking.Service
	PayoutSvc  payout.Service
	Cache      cache.Service
	Log        *zap.Logger
}

func New(
	bookingSvc booking.Service,
	payoutSvc payout.Service,
	cacheSvc cache.Service,
	log *zap.Logger,
) *Handler {
	return &Handler{
		BookingSvc: bookingSvc,
		PayoutSvc:  payoutSvc,
		Cache:      cacheSvc,
		Log:        log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
