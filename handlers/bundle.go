package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thelocals/projector"
	"thelocals/services/booking"
	"thelocals/services/notification"
)

// HandlerBundle carries the wired services the HTTP layer depends on.
type HandlerBundle struct {
	BookingSvc booking.BookingService
	Notifier   notification.NotificationService
	Registry   *projector.Registry
	Logger     *zap.Logger
}

func NewHandlerBundle(
	bookingSvc booking.BookingService,
	notifier notification.NotificationService,
	registry *projector.Registry,
	logger *zap.Logger,
) *HandlerBundle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandlerBundle{
		BookingSvc: bookingSvc,
		Notifier:   notifier,
		Registry:   registry,
		Logger:     logger,
	}
}

// respondServiceError maps service-layer errors to HTTP responses so
// every endpoint reports lifecycle rejections the same way.
func (hb *HandlerBundle) respondServiceError(c *gin.Context, err error) {
	var vErr *booking.ValidationError
	var pErr *booking.PaymentError

	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, booking.ErrAlreadyAssigned),
		errors.Is(err, booking.ErrWrongStatus),
		errors.Is(err, booking.ErrPaymentNotDue),
		errors.Is(err, booking.ErrReviewNotDue):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidOTP):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &pErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": pErr.Message, "code": pErr.Code})
	default:
		hb.Logger.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
