package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	bookingRepo "thelocals/database/repository/booking"
	"thelocals/lifecycle"
	"thelocals/models"
)

// AcceptRequest assigns the provider to a pending request. Assignment is
// first-write-wins: the repo update only matches a row that is still
// PENDING and unassigned, so the second provider to tap Accept loses
// cleanly instead of overwriting the first.
func (s *DefaultBookingService) AcceptRequest(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := s.Repo.AssignProvider(ctx, bookingID, providerID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
		return nil, ErrAlreadyAssigned
	}
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking accepted",
		zap.String("bookingId", bookingID), zap.String("providerId", providerID))
	s.Notifier.NotifyBookingUpdate(ctx, b.ClientID, b, "Provider found",
		"A provider accepted your request.")
	s.publish(ctx, b)
	return b, nil
}

// MarkEnRoute moves an accepted booking to EN_ROUTE.
func (s *DefaultBookingService) MarkEnRoute(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	if err := s.checkAssignment(ctx, bookingID, providerID); err != nil {
		return nil, err
	}
	b, err := s.updateStatus(ctx, bookingID, lifecycle.StatusEnRoute)
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyBookingUpdate(ctx, b.ClientID, b, "On the way",
		"Your provider is on the way.")
	s.publish(ctx, b)
	return b, nil
}

// StartService verifies the client's OTP and only then moves the booking
// to IN_PROGRESS. The code is single-use; verification consumes it.
func (s *DefaultBookingService) StartService(ctx context.Context, bookingID, providerID, otpCode string) (*models.Booking, error) {
	if err := s.checkAssignment(ctx, bookingID, providerID); err != nil {
		return nil, err
	}
	if err := s.OTP.Verify(ctx, bookingID, otpCode); err != nil {
		s.Logger.Warn("OTP verification failed",
			zap.String("bookingId", bookingID), zap.String("providerId", providerID))
		return nil, ErrInvalidOTP
	}
	b, err := s.updateStatus(ctx, bookingID, lifecycle.StatusInProgress)
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyBookingUpdate(ctx, b.ClientID, b, "Work started",
		"Your provider has started the service.")
	s.publish(ctx, b)
	return b, nil
}

// CompleteService finishes the job and records the final amount the
// client owes.
func (s *DefaultBookingService) CompleteService(ctx context.Context, bookingID, providerID string, finalCost float64) (*models.Booking, error) {
	if err := s.checkAssignment(ctx, bookingID, providerID); err != nil {
		return nil, err
	}
	if finalCost < 0 {
		return nil, &ValidationError{Field: "finalCost", Message: "must not be negative"}
	}
	b, err := s.updateStatus(ctx, bookingID, lifecycle.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if finalCost > 0 {
		b, err = s.Repo.SetPayment(ctx, bookingID, lifecycle.PaymentUnpaid, finalCost)
		if err != nil {
			return nil, fmt.Errorf("failed to record final cost: %w", err)
		}
	}
	s.Notifier.NotifyBookingUpdate(ctx, b.ClientID, b, "Job completed",
		"Your service is complete. Please review and pay.")
	s.publish(ctx, b)
	return b, nil
}

func (s *DefaultBookingService) checkAssignment(ctx context.Context, bookingID, providerID string) error {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ProviderID != providerID {
		return ErrNotOwner
	}
	return nil
}

func (s *DefaultBookingService) updateStatus(ctx context.Context, bookingID string, to lifecycle.Status) (*models.Booking, error) {
	b, err := s.Repo.UpdateStatus(ctx, bookingID, to)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
		return nil, fmt.Errorf("%w: cannot move to %s", ErrWrongStatus, to)
	}
	return b, err
}
