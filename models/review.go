package models

import "time"

// Review is the client's post-payment rating of a completed booking.
// At most one review exists per booking.
type Review struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"bookingId"`
	ClientID   string    `bson:"client_id" json:"clientId"`
	ProviderID string    `bson:"provider_id" json:"providerId"`
	Rating     int       `bson:"rating" json:"rating"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
