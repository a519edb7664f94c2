package models

import (
	"time"

	"thelocals/lifecycle"
)

// ProjectedView is the derived, read-only snapshot presentation layers
// bind to. It is computed, never persisted.
type ProjectedView struct {
	BookingID         string                  `json:"bookingId"`
	Status            lifecycle.Status        `json:"status"`
	ProviderID        string                  `json:"providerId,omitempty"`
	PaymentStatus     lifecycle.PaymentStatus `json:"paymentStatus"`
	CurrentStepIndex  int                     `json:"currentStepIndex"`
	IsCancellable     bool                    `json:"isCancellable"`
	IsPaymentDue      bool                    `json:"isPaymentDue"`
	IsReviewDue       bool                    `json:"isReviewDue"`
	DisplayStatusText string                  `json:"displayStatusText"`
	OTPCode           string                  `json:"otpCode,omitempty"`
	FinalCost         float64                 `json:"finalCost,omitempty"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}
