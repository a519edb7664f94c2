package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thelocals/middleware"
)

// ListProviderJobsHandler lists the provider's assigned bookings.
// ?active=true narrows to jobs still in flight.
func (hb *HandlerBundle) ListProviderJobsHandler(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	jobs, err := hb.BookingSvc.ListProviderJobs(c.Request.Context(), middleware.AccountID(c), activeOnly)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// AcceptRequestHandler claims a pending request for the provider.
// Whoever accepts first wins; everyone else gets a conflict.
func (hb *HandlerBundle) AcceptRequestHandler(c *gin.Context) {
	b, err := hb.BookingSvc.AcceptRequest(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// MarkEnRouteHandler reports the provider heading to the client.
func (hb *HandlerBundle) MarkEnRouteHandler(c *gin.Context) {
	b, err := hb.BookingSvc.MarkEnRoute(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

type startServiceInput struct {
	OTP string `json:"otp" binding:"required,len=4,numeric"`
}

// StartServiceHandler verifies the client's code and starts the job.
func (hb *HandlerBundle) StartServiceHandler(c *gin.Context) {
	var in startServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.BookingSvc.StartService(c.Request.Context(), c.Param("id"), middleware.AccountID(c), in.OTP)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

type completeServiceInput struct {
	FinalCost float64 `json:"finalCost" binding:"omitempty,gte=0"`
}

// CompleteServiceHandler finishes the job and records the amount due.
func (hb *HandlerBundle) CompleteServiceHandler(c *gin.Context) {
	var in completeServiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.BookingSvc.CompleteService(c.Request.Context(), c.Param("id"), middleware.AccountID(c), in.FinalCost)
	if err != nil {
		hb.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
