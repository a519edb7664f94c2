package booking

import (
	"context"
	"testing"

	"thelocals/config"
	"thelocals/models"
)

type fakeProviderRepo struct {
	nearby []models.Provider

	gotCategory string
	gotRadius   float64
	gotLimit    int
}

func (f *fakeProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	return nil, nil
}

func (f *fakeProviderRepo) Create(ctx context.Context, p *models.Provider) error { return nil }

func (f *fakeProviderRepo) SetOnline(ctx context.Context, id string, online bool, location *models.Coordinates) error {
	return nil
}

func (f *fakeProviderRepo) FindNearbyOnline(ctx context.Context, category string, near models.Coordinates, radiusKm float64, limit int) ([]models.Provider, error) {
	f.gotCategory = category
	f.gotRadius = radiusKm
	f.gotLimit = limit
	return f.nearby, nil
}

func providerAt(id string, lat, lon, rating float64, jobs int, verified bool) models.Provider {
	return models.Provider{
		ID:            id,
		LocationGeo:   models.NewGeoPoint(models.Coordinates{Lat: lat, Lng: lon}),
		Rating:        rating,
		CompletedJobs: jobs,
		Verified:      verified,
	}
}

func TestMatchNearbyProvidersRanking(t *testing.T) {
	config.AppConfig.NearbyRadiusKm = 8
	config.AppConfig.NearbyProviderLimit = 15

	origin := models.Coordinates{Lat: -1.2921, Lng: 36.8219}
	repo := &fakeProviderRepo{nearby: []models.Provider{
		// Far but highly rated and verified.
		providerAt("veteran", -1.25, 36.80, 4.9, 400, true),
		// Right next door, no history.
		providerAt("rookie", -1.2922, 36.8220, 0, 0, false),
	}}
	svc := &DefaultMatchingService{ProviderRepo: repo}

	matched, err := svc.MatchNearbyProviders(context.Background(), "cleaning", origin)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if repo.gotCategory != "cleaning" || repo.gotRadius != 8 || repo.gotLimit != 15 {
		t.Errorf("repo query = (%s, %v, %d), want (cleaning, 8, 15)",
			repo.gotCategory, repo.gotRadius, repo.gotLimit)
	}
	if len(matched) != 2 {
		t.Fatalf("matched %d providers, want 2", len(matched))
	}
	// Proximity alone shouldn't bury a strong track record: the veteran's
	// rating, history and verification outweigh the rookie's few km edge.
	if matched[0].ID != "veteran" {
		t.Errorf("top match = %s, want veteran", matched[0].ID)
	}
}

func TestMatchNearbyProvidersEmptyResult(t *testing.T) {
	config.AppConfig.NearbyRadiusKm = 8
	config.AppConfig.NearbyProviderLimit = 15

	svc := &DefaultMatchingService{ProviderRepo: &fakeProviderRepo{}}
	matched, err := svc.MatchNearbyProviders(context.Background(),
		"cleaning", models.Coordinates{Lat: 0, Lng: 0})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matched) != 0 {
		t.Errorf("matched %d providers, want none", len(matched))
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Nairobi CBD to Westlands is roughly 3km.
	d := haversine(-1.2921, 36.8219, -1.2673, 36.8110)
	if d < 2 || d > 4 {
		t.Errorf("haversine = %.2fkm, want ~3km", d)
	}
}
