package lifecycle

import "fmt"

// Status is the lifecycle stage of a booking.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusEnRoute    Status = "EN_ROUTE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// PaymentStatus is the independent payment flag on a booking. It only
// carries meaning once the booking is COMPLETED.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// progressOrder is the canonical ordering used by step indicators.
// CANCELLED is a side branch and is deliberately absent.
var progressOrder = []Status{
	StatusPending,
	StatusConfirmed,
	StatusEnRoute,
	StatusInProgress,
	StatusCompleted,
}

// ParseStatus maps a stored status string onto the enum. The legacy
// "ACCEPTED" spelling written by older provider apps maps to CONFIRMED.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusEnRoute, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	if s == "ACCEPTED" {
		return StatusConfirmed, nil
	}
	return "", fmt.Errorf("unknown booking status: %q", s)
}

// StepIndex returns the position of the status in the canonical progress
// ordering. Statuses outside the ordering (CANCELLED, unrecognized values)
// return 0 so the timeline renders from the first step; clients special-case
// cancellation before they ever look at the index.
func StepIndex(s Status) int {
	for i, step := range progressOrder {
		if step == s {
			return i
		}
	}
	return 0
}

// StepCount is the number of steps in the canonical ordering.
func StepCount() int {
	return len(progressOrder)
}

// AllStatuses returns every member of the enum.
func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusConfirmed, StatusEnRoute,
		StatusInProgress, StatusCompleted, StatusCancelled,
	}
}

// DisplayText returns the label shown next to the status in timelines.
func DisplayText(s Status) string {
	switch s {
	case StatusPending:
		return "Finding Provider"
	case StatusConfirmed:
		return "Provider Found"
	case StatusEnRoute:
		return "On The Way"
	case StatusInProgress:
		return "Work Started"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	}
	return string(s)
}
