package models

import "time"

// PaymentRequest is the input to the payment handler.
type PaymentRequest struct {
	BookingID string  `json:"bookingId"`
	ClientID  string  `json:"clientId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method"` // "card" or "cash"
}

// Invoice records the outcome of a payment attempt.
type Invoice struct {
	InvoiceID string    `bson:"invoice_id" json:"invoiceId"`
	BookingID string    `bson:"booking_id" json:"bookingId"`
	ClientID  string    `bson:"client_id" json:"clientId"`
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Method    string    `bson:"method" json:"method"`
	PaymentID string    `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	Status    string    `bson:"status" json:"status"` // "paid" or "pending"
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
