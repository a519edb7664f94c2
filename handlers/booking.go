package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thelocals/middleware"
	"thelocals/models"
	"thelocals/services/booking"
)

type createBookingInput struct {
	ServiceCategory string                 `json:"serviceCategory" binding:"required,service_category"`
	Requirements    map[string]interface{} `json:"requirements"`
	EstimatedCost   float64                `json:"estimatedCost" binding:"omitempty,gte=0"`
	Latitude        float64                `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude       float64                `json:"longitude" binding:"required,gte=-180,lte=180"`
	Address         string                 `json:"address"`
	Notes           string                 `json:"notes"`
}

// CreateBookingHandler opens a new live request for the authenticated client.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	var in createBookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.BookingSvc.CreateRequest(c.Request.Context(), booking.CreateRequestInput{
		ClientID:        middleware.AccountID(c),
		ServiceCategory: in.ServiceCategory,
		Requirements:    in.Requirements,
		EstimatedCost:   in.EstimatedCost,
		Location:        models.Coordinates{Lat: in.Latitude, Lng: in.Longitude},
		Address:         in.Address,
		Notes:           in.Notes,
	})
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GetBookingHandler returns one booking owned by the caller.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	b, err := hb.BookingSvc.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	if b.ClientID != middleware.AccountID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "booking does not belong to this account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListBookingsHandler returns the client's active bookings, newest first.
func (hb *HandlerBundle) ListBookingsHandler(c *gin.Context) {
	list, err := hb.BookingSvc.ListClientBookings(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

type cancelBookingInput struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelBookingHandler cancels a booking that hasn't progressed past CONFIRMED.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	var in cancelBookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.BookingSvc.CancelBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c), in.Reason)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GetOTPHandler returns the start-of-service code once a provider is assigned.
func (hb *HandlerBundle) GetOTPHandler(c *gin.Context) {
	code, err := hb.BookingSvc.GetOTP(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp": code})
}

type payBookingInput struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=card cash"`
}

// PayBookingHandler charges the client for a completed job.
func (hb *HandlerBundle) PayBookingHandler(c *gin.Context) {
	var in payBookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	inv, err := hb.BookingSvc.PayBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c), in.Amount, in.Method)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

type reviewInput struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Text   string `json:"text" binding:"omitempty,max=2000"`
}

// SubmitReviewHandler records the one-shot post-payment review.
func (hb *HandlerBundle) SubmitReviewHandler(c *gin.Context) {
	var in reviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.BookingSvc.SubmitReview(c.Request.Context(), c.Param("id"), middleware.AccountID(c), in.Rating, in.Text); err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "review submitted"})
}
