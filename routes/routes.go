package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"thelocals/handlers"
	"thelocals/middleware"
	"thelocals/utils"
)

// RegisterBookingRoutes registers the client-facing booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.ClientAuth())
		api.POST("", hb.CreateBookingHandler)
		api.GET("", hb.ListBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.POST("/:id/cancel", hb.CancelBookingHandler)
		api.GET("/:id/otp", hb.GetOTPHandler)
		api.POST("/:id/pay", hb.PayBookingHandler)
		api.POST("/:id/review", hb.SubmitReviewHandler)
		api.GET("/:id/live", hb.LiveBookingHandler)
		api.POST("/device-token", hb.RegisterDeviceTokenHandler)
	}
}

// RegisterProviderRoutes registers the provider job endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/provider")
	{
		api.Use(middleware.ProviderAuth())
		api.GET("/jobs", hb.ListProviderJobsHandler)
		api.POST("/jobs/:id/accept", hb.AcceptRequestHandler)
		api.POST("/jobs/:id/enroute", hb.MarkEnRouteHandler)
		api.POST("/jobs/:id/start", hb.StartServiceHandler)
		api.POST("/jobs/:id/complete", hb.CompleteServiceHandler)
		api.POST("/device-token", hb.RegisterDeviceTokenHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterProviderRoutes(r, hb)
}
