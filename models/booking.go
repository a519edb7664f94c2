package models

import (
	"time"

	"thelocals/lifecycle"
)

// Coordinates is a plain lat/lng pair used on API surfaces.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// GeoPoint is the GeoJSON form Mongo geo queries operate on.
// Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from API coordinates.
func NewGeoPoint(c Coordinates) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{c.Lng, c.Lat}}
}

// Booking is one client-provider service engagement.
//
// ProviderID stays empty until a provider accepts and is set exactly once.
// PaymentStatus only carries meaning once the booking is COMPLETED.
type Booking struct {
	ID              string                  `bson:"id" json:"id"`
	ClientID        string                  `bson:"client_id" json:"clientId"`
	ProviderID      string                  `bson:"provider_id,omitempty" json:"providerId,omitempty"`
	ServiceCategory string                  `bson:"service_category" json:"serviceCategory"`
	Requirements    map[string]interface{}  `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Status          lifecycle.Status        `bson:"status" json:"status"`
	PaymentStatus   lifecycle.PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	ReviewSubmitted bool                    `bson:"review_submitted" json:"reviewSubmitted"`
	EstimatedCost   float64                 `bson:"estimated_cost,omitempty" json:"estimatedCost,omitempty"`
	FinalCost       float64                 `bson:"final_cost,omitempty" json:"finalCost,omitempty"`
	Location        Coordinates             `bson:"location" json:"location"`
	LocationGeo     GeoPoint                `bson:"location_geo" json:"-"`
	Address         string                  `bson:"address,omitempty" json:"address,omitempty"`
	Notes           string                  `bson:"notes,omitempty" json:"notes,omitempty"`
	CancelReason    string                  `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt       time.Time               `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time               `bson:"updated_at" json:"updatedAt"`
	AcceptedAt      *time.Time              `bson:"accepted_at,omitempty" json:"acceptedAt,omitempty"`
	StartedAt       *time.Time              `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt     *time.Time              `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// BookingDelta is a partial row change delivered by the change feed.
// Absent fields are nil and leave the projected state untouched.
type BookingDelta struct {
	ID              string                   `json:"id"`
	Status          *string                  `json:"status,omitempty"`
	ProviderID      *string                  `json:"providerId,omitempty"`
	PaymentStatus   *lifecycle.PaymentStatus `json:"paymentStatus,omitempty"`
	ReviewSubmitted *bool                    `json:"reviewSubmitted,omitempty"`
	FinalCost       *float64                 `json:"finalCost,omitempty"`
	CancelReason    *string                  `json:"cancelReason,omitempty"`
	AcceptedAt      *time.Time               `json:"acceptedAt,omitempty"`
	StartedAt       *time.Time               `json:"startedAt,omitempty"`
	CompletedAt     *time.Time               `json:"completedAt,omitempty"`
	UpdatedAt       *time.Time               `json:"updatedAt,omitempty"`
}

// DeltaFromBooking renders a full row as a feed delta. The publisher sends
// whole rows; subscribers treat every field as an ordinary partial update.
func DeltaFromBooking(b *Booking) BookingDelta {
	status := string(b.Status)
	d := BookingDelta{
		ID:              b.ID,
		Status:          &status,
		PaymentStatus:   &b.PaymentStatus,
		ReviewSubmitted: &b.ReviewSubmitted,
		UpdatedAt:       &b.UpdatedAt,
		AcceptedAt:      b.AcceptedAt,
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
	}
	if b.ProviderID != "" {
		d.ProviderID = &b.ProviderID
	}
	if b.FinalCost != 0 {
		d.FinalCost = &b.FinalCost
	}
	if b.CancelReason != "" {
		d.CancelReason = &b.CancelReason
	}
	return d
}
