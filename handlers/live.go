package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"thelocals/middleware"
	"thelocals/models"
	"thelocals/projector"
	"thelocals/services/booking"
)

// NewProjectorDeps assembles the projector collaborators from the
// server-side services: the repo-backed fetch, the Redis change feed,
// the OTP cache, and the booking service for user actions.
func NewProjectorDeps(svc booking.BookingService, feed projector.Feed, otp booking.OTPStore) projector.Deps {
	return projector.Deps{
		Fetcher: fetcherFunc(func(ctx context.Context, id string) (*models.Booking, error) {
			return svc.GetBooking(ctx, id)
		}),
		Feed: feed,
		OTP: otpFunc(func(ctx context.Context, id string) (string, error) {
			return otp.FetchOrGenerate(ctx, id)
		}),
		Actions: &serviceActions{svc: svc},
	}
}

type fetcherFunc func(ctx context.Context, bookingID string) (*models.Booking, error)

func (f fetcherFunc) FetchBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return f(ctx, bookingID)
}

type otpFunc func(ctx context.Context, bookingID string) (string, error)

func (f otpFunc) FetchOTP(ctx context.Context, bookingID string) (string, error) {
	return f(ctx, bookingID)
}

// serviceActions resolves the booking owner before delegating, since the
// projector's action surface has no notion of accounts.
type serviceActions struct {
	svc booking.BookingService
}

func (a *serviceActions) CancelBooking(ctx context.Context, bookingID, reason string) error {
	b, err := a.svc.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	_, err = a.svc.CancelBooking(ctx, bookingID, b.ClientID, reason)
	return err
}

func (a *serviceActions) SubmitPayment(ctx context.Context, bookingID string, amount float64, method string) error {
	b, err := a.svc.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	_, err = a.svc.PayBooking(ctx, bookingID, b.ClientID, amount, method)
	return err
}

func (a *serviceActions) SubmitReview(ctx context.Context, bookingID string, rating int, text string) error {
	b, err := a.svc.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	return a.svc.SubmitReview(ctx, bookingID, b.ClientID, rating, text)
}

type liveEvent struct {
	View models.ProjectedView      `json:"view"`
	Conn projector.ConnectionState `json:"connectionState"`
}

// LiveBookingHandler streams ProjectedView snapshots over SSE. The first
// event is the current snapshot; every lifecycle change pushes a fresh
// one. Slow consumers only ever see the latest state, never a backlog.
func (hb *HandlerBundle) LiveBookingHandler(c *gin.Context) {
	bookingID := c.Param("id")

	b, err := hb.BookingSvc.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	if b.ClientID != middleware.AccountID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "booking does not belong to this account"})
		return
	}

	proj, release, err := hb.Registry.Acquire(c.Request.Context(), bookingID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live view unavailable, retry shortly"})
		return
	}
	defer release()

	views, stop := proj.Watch()
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-views:
			if !ok {
				return false
			}
			c.SSEvent("booking", liveEvent{View: v, Conn: proj.ConnState()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
