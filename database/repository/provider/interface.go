package providerRepo

import (
	"context"

	"thelocals/models"
)

// ProviderRepository defines the data access surface for providers.
type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	Create(ctx context.Context, p *models.Provider) error
	SetOnline(ctx context.Context, id string, online bool, location *models.Coordinates) error

	// FindNearbyOnline returns online providers of the given category
	// within radiusKm of the point, closest first.
	FindNearbyOnline(ctx context.Context, category string, near models.Coordinates, radiusKm float64, limit int) ([]models.Provider, error)
}
