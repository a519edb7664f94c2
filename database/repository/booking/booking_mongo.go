package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thelocals/database"
	"thelocals/lifecycle"
	"thelocals/models"
)

// ErrNotFound is returned when no booking matches the id.
var ErrNotFound = errors.New("booking not found")

// ErrPreconditionFailed is returned when the row exists but the update's
// lifecycle precondition does not hold (already assigned, wrong source
// status, already paid, already reviewed).
var ErrPreconditionFailed = errors.New("booking state precondition failed")

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll    *mongo.Collection
	reviews *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{
		coll:    database.Collection("bookings"),
		reviews: database.Collection("reviews"),
	}
}

// EnsureIndexes creates the indexes the booking queries rely on.
func (r *MongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	_, err = r.reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create review index: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

// findOneAndApply runs a conditional update and decodes the updated row.
// A miss is disambiguated into ErrNotFound vs ErrPreconditionFailed by a
// follow-up existence check.
func (r *MongoBookingRepo) findOneAndApply(ctx context.Context, filter, update bson.M) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if err == mongo.ErrNoDocuments {
		id, _ := filter["id"].(string)
		if n, countErr := r.coll.CountDocuments(ctx, bson.M{"id": id}); countErr == nil && n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrPreconditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) AssignProvider(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	now := time.Now()
	filter := bson.M{
		"id":     bookingID,
		"status": lifecycle.StatusPending,
		"$or": []bson.M{
			{"provider_id": bson.M{"$exists": false}},
			{"provider_id": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":      lifecycle.StatusConfirmed,
		"provider_id": providerID,
		"accepted_at": now,
		"updated_at":  now,
	}}
	return r.findOneAndApply(ctx, filter, update)
}

// statusSources lists the statuses from which to is one legal hop away.
func statusSources(to lifecycle.Status) []lifecycle.Status {
	var sources []lifecycle.Status
	for _, from := range lifecycle.AllStatuses() {
		if lifecycle.ValidTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

func (r *MongoBookingRepo) UpdateStatus(ctx context.Context, bookingID string, to lifecycle.Status) (*models.Booking, error) {
	sources := statusSources(to)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no status may transition to %s", ErrPreconditionFailed, to)
	}
	now := time.Now()
	set := bson.M{"status": to, "updated_at": now}
	switch to {
	case lifecycle.StatusInProgress:
		set["started_at"] = now
	case lifecycle.StatusCompleted:
		set["completed_at"] = now
	}
	filter := bson.M{"id": bookingID, "status": bson.M{"$in": sources}}
	return r.findOneAndApply(ctx, filter, bson.M{"$set": set})
}

func (r *MongoBookingRepo) Cancel(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	filter := bson.M{
		"id":     bookingID,
		"status": bson.M{"$in": statusSources(lifecycle.StatusCancelled)},
	}
	update := bson.M{"$set": bson.M{
		"status":        lifecycle.StatusCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now(),
	}}
	return r.findOneAndApply(ctx, filter, update)
}

func (r *MongoBookingRepo) CancelIfUnassigned(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	filter := bson.M{
		"id":     bookingID,
		"status": lifecycle.StatusPending,
		"$or": []bson.M{
			{"provider_id": bson.M{"$exists": false}},
			{"provider_id": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"status":        lifecycle.StatusCancelled,
		"cancel_reason": reason,
		"updated_at":    time.Now(),
	}}
	b, err := r.findOneAndApply(ctx, filter, update)
	if errors.Is(err, ErrPreconditionFailed) {
		// The booking was accepted or cancelled before expiry fired.
		return nil, nil
	}
	return b, err
}

func (r *MongoBookingRepo) SetPayment(ctx context.Context, bookingID string, status lifecycle.PaymentStatus, finalCost float64) (*models.Booking, error) {
	filter := bson.M{"id": bookingID, "status": lifecycle.StatusCompleted}
	set := bson.M{"payment_status": status, "updated_at": time.Now()}
	if finalCost > 0 {
		set["final_cost"] = finalCost
	}
	return r.findOneAndApply(ctx, filter, bson.M{"$set": set})
}

func (r *MongoBookingRepo) SetReviewSubmitted(ctx context.Context, bookingID string) (*models.Booking, error) {
	filter := bson.M{
		"id":               bookingID,
		"status":           lifecycle.StatusCompleted,
		"payment_status":   lifecycle.PaymentPaid,
		"review_submitted": false,
	}
	update := bson.M{"$set": bson.M{"review_submitted": true, "updated_at": time.Now()}}
	return r.findOneAndApply(ctx, filter, update)
}

func (r *MongoBookingRepo) SaveReview(ctx context.Context, review *models.Review) error {
	review.CreatedAt = time.Now()
	if _, err := r.reviews.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: booking already reviewed", ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

var activeStatuses = []lifecycle.Status{
	lifecycle.StatusPending, lifecycle.StatusConfirmed,
	lifecycle.StatusEnRoute, lifecycle.StatusInProgress,
}

func (r *MongoBookingRepo) ListActiveByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	filter := bson.M{"client_id": clientID, "status": bson.M{"$in": activeStatuses}}
	return r.list(ctx, filter)
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]models.Booking, error) {
	filter := bson.M{"provider_id": providerID}
	if activeOnly {
		filter["status"] = bson.M{"$in": activeStatuses}
	}
	return r.list(ctx, filter)
}

func (r *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Booking
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return out, nil
}
