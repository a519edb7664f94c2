package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "thelocals/database/repository/booking"
	"thelocals/lifecycle"
	"thelocals/models"
)

// PayBooking charges the client for a completed job. The gate is local
// first (payment is only due on an unpaid COMPLETED booking) so a stale
// client never reaches the gateway.
func (s *DefaultBookingService) PayBooking(ctx context.Context, bookingID, clientID string, amount float64, method string) (*models.Invoice, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, ErrNotOwner
	}
	if !lifecycle.IsPaymentDue(b.Status, b.PaymentStatus) {
		return nil, ErrPaymentNotDue
	}
	if b.FinalCost > 0 && amount < b.FinalCost {
		return nil, &ValidationError{Field: "amount", Message: "less than the final cost"}
	}

	inv, err := s.Payments.ProcessPayment(ctx, models.PaymentRequest{
		BookingID: bookingID,
		ClientID:  clientID,
		Amount:    amount,
		Currency:  "usd",
		Method:    method,
	})
	if err != nil {
		return nil, err
	}

	paid, err := s.Repo.SetPayment(ctx, bookingID, lifecycle.PaymentPaid, amount)
	if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
		// Charged but the row moved on, e.g. a concurrent duplicate pay.
		s.Logger.Error("payment recorded but booking no longer accepts it",
			zap.String("bookingId", bookingID), zap.String("invoice", inv.InvoiceID))
		return nil, ErrPaymentNotDue
	}
	if err != nil {
		return nil, err
	}

	if paid.ProviderID != "" {
		s.Notifier.NotifyBookingUpdate(ctx, paid.ProviderID, paid, "Payment received",
			"The client has paid for this booking.")
	}
	s.publish(ctx, paid)
	return inv, nil
}

// SubmitReview records the one-shot post-payment review.
func (s *DefaultBookingService) SubmitReview(ctx context.Context, bookingID, clientID string, rating int, text string) error {
	if rating < 1 || rating > 5 {
		return &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.ClientID != clientID {
		return ErrNotOwner
	}
	if !lifecycle.IsReviewDue(b.Status, b.PaymentStatus, b.ReviewSubmitted) {
		return ErrReviewNotDue
	}

	review := &models.Review{
		ID:         uuid.New().String(),
		BookingID:  bookingID,
		ClientID:   clientID,
		ProviderID: b.ProviderID,
		Rating:     rating,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.Repo.SaveReview(ctx, review); err != nil {
		if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
			return ErrReviewNotDue
		}
		return err
	}

	reviewed, err := s.Repo.SetReviewSubmitted(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrPreconditionFailed) {
		return ErrReviewNotDue
	}
	if err != nil {
		return err
	}

	s.publish(ctx, reviewed)
	return nil
}
