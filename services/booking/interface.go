package booking

import (
	"context"

	"go.uber.org/zap"

	bookingRepo "thelocals/database/repository/booking"
	"thelocals/models"
	"thelocals/services/notification"
)

// CreateRequestInput is everything a client supplies to open a live request.
type CreateRequestInput struct {
	ClientID        string
	ServiceCategory string
	Requirements    map[string]interface{}
	EstimatedCost   float64
	Location        models.Coordinates
	Address         string
	Notes           string
}

// BookingService orchestrates the live-booking lifecycle: request
// creation and broadcast, provider actions, the OTP start gate, payment
// and review, and the change-feed publications every mutation emits.
type BookingService interface {
	// Client side.
	CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListClientBookings(ctx context.Context, clientID string) ([]models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, clientID, reason string) (*models.Booking, error)
	GetOTP(ctx context.Context, bookingID, clientID string) (string, error)
	PayBooking(ctx context.Context, bookingID, clientID string, amount float64, method string) (*models.Invoice, error)
	SubmitReview(ctx context.Context, bookingID, clientID string, rating int, text string) error

	// Provider side.
	ListProviderJobs(ctx context.Context, providerID string, activeOnly bool) ([]models.Booking, error)
	AcceptRequest(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	MarkEnRoute(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	StartService(ctx context.Context, bookingID, providerID, otpCode string) (*models.Booking, error)
	CompleteService(ctx context.Context, bookingID, providerID string, finalCost float64) (*models.Booking, error)

	// Worker side.
	ExpireRequest(ctx context.Context, bookingID string) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo        bookingRepo.BookingRepository
	MatchingSvc MatchingService
	Payments    PaymentHandler
	Notifier    notification.NotificationService
	FeedPub     ChangePublisher
	Expiry      ExpiryScheduler
	OTP         OTPStore
	Logger      *zap.Logger
}

// ChangePublisher is the slice of the feed publisher the service needs.
type ChangePublisher interface {
	PublishBookingChange(ctx context.Context, b *models.Booking) error
}

// OTPStore is the slice of the OTP cache the service needs.
type OTPStore interface {
	FetchOrGenerate(ctx context.Context, bookingID string) (string, error)
	Verify(ctx context.Context, bookingID, code string) error
}
