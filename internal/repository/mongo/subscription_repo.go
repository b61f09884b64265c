package mongo

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	subscriptionCollectionName = "subscriptions"
	eventCollectionName        = "processed_events"
)

type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new subscription repository.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

func (r *mongoSubscriptionRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *mongoSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	if stripeSubscriptionID == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"stripeSubscriptionId": stripeSubscriptionID})
}

func (r *mongoSubscriptionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := r.collection.FindOne(ctx, filter).Decode(&sub); err != nil {
		return nil, mapFindError(err)
	}
	return &sub, nil
}

// Upsert writes the user's subscription record, creating it on first use.
func (r *mongoSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if sub.UserID == primitive.NilObjectID || sub.StripeSubscriptionID == "" {
		return errors.New("subscription requires userId and stripeSubscriptionId")
	}
	now := time.Now().UTC()
	sub.UpdatedAt = now

	filter := bson.M{"userId": sub.UserID}
	update := bson.M{
		"$set": bson.M{
			"planId":               sub.PlanID,
			"stripeSubscriptionId": sub.StripeSubscriptionID,
			"stripeCustomerId":     sub.StripeCustomerID,
			"status":               sub.Status,
			"currentPeriodEnd":     sub.CurrentPeriodEnd,
			"cancelAtPeriodEnd":    sub.CancelAtPeriodEnd,
			"canceledAt":           sub.CanceledAt,
			"lastEventAt":          sub.LastEventAt,
			"updatedAt":            now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(sub); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *mongoSubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, userID primitive.ObjectID, cancel bool) error {
	update := bson.M{"$set": bson.M{"cancelAtPeriodEnd": cancel, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSubscriptionIndexes creates the subscription and processed event indexes.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripeSubscriptionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripeCustomerId", Value: 1}}, Options: options.Index()},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return err
	}

	// Processed events expire after 30 days; Stripe stops retrying long before.
	events := collection.Database().Collection(eventCollectionName)
	_, err := events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "processedAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600),
	})
	return err
}

type mongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoEventRepository creates the processed webhook event store.
func NewMongoEventRepository(db *mongo.Database) repository.EventRepository {
	return &mongoEventRepository{
		collection: db.Collection(eventCollectionName),
	}
}

// MarkProcessed inserts the event keyed by its provider ID.
func (r *mongoEventRepository) MarkProcessed(ctx context.Context, event *domain.ProcessedEvent) error {
	if event.EventID == "" {
		return errors.New("event ID is required")
	}
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return mapWriteError(err)
}
