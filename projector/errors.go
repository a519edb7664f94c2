package projector

import "errors"

var (
	// ErrNotFound means the initial fetch found no such booking.
	ErrNotFound = errors.New("booking not found")
	// ErrUnavailable means the initial fetch failed in transit; the
	// projector stays in the unavailable display state until Retry.
	ErrUnavailable = errors.New("booking unavailable")
	// ErrClosed is returned by operations invoked after Close.
	ErrClosed = errors.New("projector closed")
	// ErrNotReady is returned by actions before the initial fetch lands.
	ErrNotReady = errors.New("booking state not loaded")

	// ErrNotCancellable rejects cancel attempts past CONFIRMED, locally,
	// before any network call.
	ErrNotCancellable = errors.New("booking can no longer be cancelled")
	// ErrPaymentNotDue rejects payment attempts outside COMPLETED+UNPAID.
	ErrPaymentNotDue = errors.New("no payment is due on this booking")
	// ErrReviewNotDue rejects reviews before payment or after a review.
	ErrReviewNotDue = errors.New("no review is due on this booking")
)
