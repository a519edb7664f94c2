package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "thelocals/database/repository/booking"
	"thelocals/lifecycle"
	"thelocals/models"
	"thelocals/utils"
)

// CreateRequest persists a new PENDING booking, broadcasts it to nearby
// online providers, and schedules the expiry task that cancels the
// request if nobody accepts in time.
func (s *DefaultBookingService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Booking, error) {
	if in.ServiceCategory == "" {
		return nil, &ValidationError{Field: "serviceCategory", Message: "must not be empty"}
	}

	b := &models.Booking{
		ID:              uuid.New().String(),
		ClientID:        in.ClientID,
		ServiceCategory: in.ServiceCategory,
		Requirements:    in.Requirements,
		Status:          lifecycle.StatusPending,
		PaymentStatus:   lifecycle.PaymentUnpaid,
		EstimatedCost:   in.EstimatedCost,
		Location:        in.Location,
		LocationGeo:     models.NewGeoPoint(in.Location),
		Address:         in.Address,
		Notes:           in.Notes,
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	// Broadcast is best-effort: a request nobody hears about simply
	// expires; it must not fail the creation.
	matched, err := s.MatchingSvc.MatchNearbyProviders(ctx, in.ServiceCategory, in.Location)
	if err != nil {
		s.Logger.Warn("provider matching failed for new request",
			zap.String("bookingId", b.ID), zap.Error(err))
	} else {
		s.Notifier.BroadcastRequest(ctx, matched, b)
	}

	if err := s.Expiry.ScheduleRequestExpiry(b.ID); err != nil {
		s.Logger.Error("failed to schedule request expiry",
			zap.String("bookingId", b.ID), zap.Error(err))
	}

	s.publish(ctx, b)
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *DefaultBookingService) ListClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	return s.Repo.ListActiveByClient(ctx, clientID)
}

func (s *DefaultBookingService) ListProviderJobs(ctx context.Context, providerID string, activeOnly bool) ([]models.Booking, error) {
	return s.Repo.ListByProvider(ctx, providerID, activeOnly)
}

// CancelBooking rejects locally before touching the store: cancellation
// is only open while the booking is PENDING or CONFIRMED.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID, clientID, reason string) (*models.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, ErrNotOwner
	}
	if !lifecycle.IsCancellable(b.Status) {
		return nil, ErrNotCancellable
	}

	cancelled, err := s.Repo.Cancel(ctx, bookingID, reason)
	if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
		// Lost the race with a provider moving the job forward.
		return nil, ErrNotCancellable
	}
	if err != nil {
		return nil, err
	}

	if cancelled.ProviderID != "" {
		s.Notifier.NotifyBookingUpdate(ctx, cancelled.ProviderID, cancelled, "Booking cancelled",
			"The client cancelled this booking.")
	}
	s.publish(ctx, cancelled)
	return cancelled, nil
}

// GetOTP lazily generates the start-of-service code once a provider is
// assigned. Generation is idempotent; repeated calls return the same code.
func (s *DefaultBookingService) GetOTP(ctx context.Context, bookingID, clientID string) (string, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if b.ClientID != clientID {
		return "", ErrNotOwner
	}
	if b.Status == lifecycle.StatusCancelled || lifecycle.StepIndex(b.Status) < 1 {
		return "", fmt.Errorf("%w: OTP is only available once a provider is assigned", ErrWrongStatus)
	}
	return s.OTP.FetchOrGenerate(ctx, bookingID)
}

// ExpireRequest is invoked by the background worker when the acceptance
// window closes. Requests that were accepted (or already cancelled) in
// the meantime are left untouched.
func (s *DefaultBookingService) ExpireRequest(ctx context.Context, bookingID string) error {
	b, err := s.Repo.CancelIfUnassigned(ctx, bookingID, "No providers were available in time")
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to expire booking %s: %w", bookingID, err)
	}
	if b == nil {
		return nil // a provider got there first
	}
	s.Logger.Info("expired unaccepted booking request", zap.String("bookingId", bookingID))
	s.publish(ctx, b)
	return nil
}

func (s *DefaultBookingService) publish(ctx context.Context, b *models.Booking) {
	if err := s.FeedPub.PublishBookingChange(ctx, b); err != nil {
		s.Logger.Warn("change feed publish failed", zap.String("bookingId", b.ID), zap.Error(err))
	}
}

// redisOTPStore adapts the utils OTP cache to the OTPStore interface.
type redisOTPStore struct{}

// NewRedisOTPStore returns the production OTP store.
func NewRedisOTPStore() OTPStore { return redisOTPStore{} }

func (redisOTPStore) FetchOrGenerate(ctx context.Context, bookingID string) (string, error) {
	return utils.FetchOrGenerateBookingOTP(ctx, bookingID)
}

func (redisOTPStore) Verify(ctx context.Context, bookingID, code string) error {
	return utils.VerifyBookingOTP(ctx, bookingID, code)
}
