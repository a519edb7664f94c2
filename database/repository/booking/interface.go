package bookingRepo

import (
	"context"

	"thelocals/lifecycle"
	"thelocals/models"
)

// BookingRepository defines the data access surface for bookings.
//
// Status-mutating methods enforce the lifecycle table inside the update
// filter, so a lost race or a replayed request fails the precondition
// instead of corrupting the row.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)

	// AssignProvider is first-write-wins: it confirms the booking for the
	// given provider only while the row is still PENDING and unassigned.
	AssignProvider(ctx context.Context, bookingID, providerID string) (*models.Booking, error)

	// UpdateStatus moves the booking to the target status, matching only
	// rows whose current status is a legal single-hop source.
	UpdateStatus(ctx context.Context, bookingID string, to lifecycle.Status) (*models.Booking, error)

	// Cancel is UpdateStatus to CANCELLED plus the recorded reason.
	Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error)

	// CancelIfUnassigned expires a stale request: only rows still PENDING
	// with no provider are touched. Returns (nil, nil) when the row moved
	// on before the expiry fired.
	CancelIfUnassigned(ctx context.Context, bookingID, reason string) (*models.Booking, error)

	// SetPayment flips the payment flag; only legal on COMPLETED rows.
	SetPayment(ctx context.Context, bookingID string, status lifecycle.PaymentStatus, finalCost float64) (*models.Booking, error)

	// SetReviewSubmitted marks the one-shot review flag on a paid,
	// completed, not-yet-reviewed row.
	SetReviewSubmitted(ctx context.Context, bookingID string) (*models.Booking, error)

	SaveReview(ctx context.Context, review *models.Review) error

	ListActiveByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]models.Booking, error)
}
