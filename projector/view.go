package projector

import (
	"thelocals/lifecycle"
	"thelocals/models"
)

// DeriveView computes the presentation snapshot for a booking. It is
// referentially pure: no I/O, no mutation of its inputs.
func DeriveView(b *models.Booking, otpCode string, reviewSubmitted bool) models.ProjectedView {
	return models.ProjectedView{
		BookingID:         b.ID,
		Status:            b.Status,
		ProviderID:        b.ProviderID,
		PaymentStatus:     b.PaymentStatus,
		CurrentStepIndex:  lifecycle.StepIndex(b.Status),
		IsCancellable:     lifecycle.IsCancellable(b.Status),
		IsPaymentDue:      lifecycle.IsPaymentDue(b.Status, b.PaymentStatus),
		IsReviewDue:       lifecycle.IsReviewDue(b.Status, b.PaymentStatus, reviewSubmitted),
		DisplayStatusText: lifecycle.DisplayText(b.Status),
		OTPCode:           otpCode,
		FinalCost:         b.FinalCost,
		UpdatedAt:         b.UpdatedAt,
	}
}
