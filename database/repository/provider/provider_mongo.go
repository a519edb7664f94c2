package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thelocals/database"
	"thelocals/models"
)

// ErrNotFound is returned when no provider matches the id.
var ErrNotFound = errors.New("provider not found")

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo() *MongoProviderRepo {
	return &MongoProviderRepo{coll: database.Collection("providers")}
}

// EnsureIndexes creates the 2dsphere index the nearby query depends on.
func (r *MongoProviderRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "location_geo", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "service_categories", Value: 1}, {Key: "online", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoProviderRepo) Create(ctx context.Context, p *models.Provider) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) SetOnline(ctx context.Context, id string, online bool, location *models.Coordinates) error {
	set := bson.M{"online": online, "updated_at": time.Now()}
	if location != nil {
		set["location_geo"] = models.NewGeoPoint(*location)
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update provider %s presence: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProviderRepo) FindNearbyOnline(ctx context.Context, category string, near models.Coordinates, radiusKm float64, limit int) ([]models.Provider, error) {
	filter := bson.M{
		"online":             true,
		"service_categories": category,
		"location_geo": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    models.NewGeoPoint(near),
				"$maxDistance": radiusKm * 1000, // meters
			},
		},
	}
	opts := options.Find().SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("nearby provider query failed: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Provider
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return out, nil
}
