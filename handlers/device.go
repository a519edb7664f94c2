package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"thelocals/middleware"
)

type registerTokenInput struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDeviceTokenHandler stores the FCM token the app reports after
// login so lifecycle pushes can reach this account.
func (hb *HandlerBundle) RegisterDeviceTokenHandler(c *gin.Context) {
	var in registerTokenInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.Notifier.RegisterToken(c.Request.Context(), middleware.AccountID(c), in.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}
