package projector

import (
	"context"

	"thelocals/models"
)

// ConnectionState describes the health of the change-feed link.
type ConnectionState string

const (
	ConnLive     ConnectionState = "live"
	ConnDegraded ConnectionState = "degraded"
	ConnLost     ConnectionState = "lost"
)

// Unsubscribe tears down one feed subscription.
type Unsubscribe func()

// Fetcher performs the point-in-time booking load.
type Fetcher interface {
	FetchBooking(ctx context.Context, id string) (*models.Booking, error)
}

// Feed delivers row changes for one booking. Delivery is at-least-once and
// approximately ordered; the projector defends against duplicates, replays
// and gaps, so implementations only promise eventual delivery.
type Feed interface {
	Subscribe(ctx context.Context, bookingID string,
		onUpdate func(models.BookingDelta),
		onState func(ConnectionState)) (Unsubscribe, error)
}

// OTPSource fetches (lazily generating if needed) the booking OTP.
// Implementations must be idempotent per booking.
type OTPSource interface {
	FetchOTP(ctx context.Context, bookingID string) (string, error)
}

// Actions are the user-initiated mutations the projector delegates.
type Actions interface {
	CancelBooking(ctx context.Context, bookingID, reason string) error
	SubmitPayment(ctx context.Context, bookingID string, amount float64, method string) error
	SubmitReview(ctx context.Context, bookingID string, rating int, text string) error
}

// Deps bundles the injected collaborators. Nothing here is global state;
// whoever composes a projector owns the lifecycle of these.
type Deps struct {
	Fetcher Fetcher
	Feed    Feed
	OTP     OTPSource
	Actions Actions
}
