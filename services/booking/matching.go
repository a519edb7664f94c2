package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"thelocals/config"
	providerRepo "thelocals/database/repository/provider"
	"thelocals/models"
)

// MatchingService finds the online providers a new request should be
// broadcast to.
type MatchingService interface {
	MatchNearbyProviders(ctx context.Context, category string, near models.Coordinates) ([]models.Provider, error)
}

// DefaultMatchingService ranks the geo-query result by a blend of
// proximity and track record, with a short cache so bursts of requests
// from the same block don't hammer the geo index.
type DefaultMatchingService struct {
	ProviderRepo providerRepo.ProviderRepository
	CacheClient  *redis.Client
}

const matchCacheTTL = 30 * time.Second

// Scoring constants.
const (
	baseProximityScore = 100.0
	distancePenalty    = 8.0
	ratingWeight       = 10.0
	jobsWeight         = 4.0
	verifiedBonus      = 15.0
)

func (s *DefaultMatchingService) MatchNearbyProviders(ctx context.Context, category string, near models.Coordinates) ([]models.Provider, error) {
	cacheKey := fmt.Sprintf("match:%s:%.3f:%.3f", category, near.Lat, near.Lng)
	if s.CacheClient != nil {
		if cached, err := s.CacheClient.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var providers []models.Provider
			if err := json.Unmarshal([]byte(cached), &providers); err == nil {
				return providers, nil
			}
		}
	}

	radius := config.AppConfig.NearbyRadiusKm
	limit := config.AppConfig.NearbyProviderLimit
	candidates, err := s.ProviderRepo.FindNearbyOnline(ctx, category, near, radius, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby providers: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type scoredProvider struct {
		Provider models.Provider
		Score    float64
	}
	scored := make([]scoredProvider, 0, len(candidates))
	for _, p := range candidates {
		distanceKm := haversine(near.Lat, near.Lng,
			p.LocationGeo.Coordinates[1], p.LocationGeo.Coordinates[0])
		proximity := baseProximityScore - distanceKm*distancePenalty
		if proximity < 0 {
			proximity = 0
		}
		history := p.Rating*ratingWeight + math.Log(float64(p.CompletedJobs)+1)*jobsWeight
		score := proximity + history
		if p.Verified {
			score += verifiedBonus
		}
		scored = append(scored, scoredProvider{Provider: p, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	matched := make([]models.Provider, 0, len(scored))
	for _, sp := range scored {
		matched = append(matched, sp.Provider)
	}

	if s.CacheClient != nil {
		if b, err := json.Marshal(matched); err == nil {
			s.CacheClient.Set(ctx, cacheKey, b, matchCacheTTL)
		}
	}
	return matched, nil
}

// haversine calculates the great-circle distance (in km) between two
// lat/lon points.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
