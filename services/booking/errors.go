package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("booking not found")
	ErrNotCancellable  = errors.New("booking can no longer be cancelled")
	ErrAlreadyAssigned = errors.New("booking was already taken by another provider")
	ErrNotOwner        = errors.New("booking does not belong to this account")
	ErrWrongStatus     = errors.New("booking is not in a state that allows this action")
	ErrInvalidOTP      = errors.New("invalid or expired verification code")
	ErrPaymentNotDue   = errors.New("no payment is due on this booking")
	ErrReviewNotDue    = errors.New("no review is due on this booking")
)

// PaymentError wraps a gateway failure so handlers can distinguish it
// from lifecycle rejections.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed (%s): %s", e.Code, e.Message)
}

// ValidationError reports a malformed user-supplied value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
