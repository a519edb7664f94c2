package models

import "time"

// Provider is a service professional who can accept live requests.
type Provider struct {
	ID                string    `bson:"id" json:"id"`
	Name              string    `bson:"name" json:"name"`
	ServiceCategories []string  `bson:"service_categories" json:"serviceCategories"`
	Online            bool      `bson:"online" json:"online"`
	LocationGeo       GeoPoint  `bson:"location_geo" json:"-"`
	Rating            float64   `bson:"rating,omitempty" json:"rating,omitempty"`
	CompletedJobs     int       `bson:"completed_jobs,omitempty" json:"completedJobs,omitempty"`
	Verified          bool      `bson:"verified" json:"verified"`
	FCMToken          string    `bson:"fcm_token,omitempty" json:"-"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// NearbyProvider is the trimmed shape returned to matching callers.
type NearbyProvider struct {
	ProviderID string  `json:"providerId"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distanceKm"`
	Rating     float64 `json:"rating"`
	Verified   bool    `json:"verified"`
}
