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

const planCollectionName = "subscription_plans"

type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new subscription plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	if plan.Code == "" || plan.StripePriceID == "" {
		return primitive.NilObjectID, errors.New("plan requires code and stripePriceId")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.SubscriptionPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}
	plan.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":          plan.Name,
			"stripePriceId": plan.StripePriceID,
			"interval":      plan.Interval,
			"amountCents":   plan.AmountCents,
			"currency":      plan.Currency,
			"isActive":      plan.IsActive,
			"updatedAt":     plan.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoPlanRepository) GetByCode(ctx context.Context, code string) (*domain.SubscriptionPlan, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *mongoPlanRepository) GetByStripePriceID(ctx context.Context, priceID string) (*domain.SubscriptionPlan, error) {
	return r.findOne(ctx, bson.M{"stripePriceId": priceID})
}

func (r *mongoPlanRepository) findOne(ctx context.Context, filter bson.M) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	if err := r.collection.FindOne(ctx, filter).Decode(&plan); err != nil {
		return nil, mapFindError(err)
	}
	return &plan, nil
}

// ListActive returns purchasable plans, cheapest first.
func (r *mongoPlanRepository) ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "amountCents", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.SubscriptionPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripePriceId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
