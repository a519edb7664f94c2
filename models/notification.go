package models

// RequestBroadcast is the payload pushed to nearby providers when a new
// live request is created. Carried in the FCM data map.
type RequestBroadcast struct {
	BookingID       string `json:"bookingId"`
	ServiceCategory string `json:"serviceCategory"`
	DistanceKm      string `json:"distanceKm"`
	EstimatedCost   string `json:"estimatedCost,omitempty"`
}

// ExpirePayload is the asynq task payload for request expiry.
type ExpirePayload struct {
	BookingID string `json:"bookingId"`
}
