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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByStripeCustomerID retrieves the user linked to a Stripe customer.
func (r *mongoUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	if customerID == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"stripeCustomerId": customerID})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapFindError(err)
	}
	return &user, nil
}

// SetStripeCustomerID links the user to a Stripe customer.
func (r *mongoUserRepository) SetStripeCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error {
	update := bson.M{
		"$set": bson.M{
			"stripeCustomerId": customerID,
			"updatedAt":        time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, userID, update)
}

// SetPremium updates the premium flag. premiumSince is only written on the
// first activation so renewals don't reset it.
func (r *mongoUserRepository) SetPremium(ctx context.Context, userID primitive.ObjectID, premium bool, since time.Time) error {
	now := time.Now().UTC()
	if !premium {
		update := bson.M{
			"$set":   bson.M{"isPremium": false, "updatedAt": now},
			"$unset": bson.M{"premiumSince": ""},
		}
		return r.updateOne(ctx, userID, update)
	}

	// Aggregation pipeline update keeps an existing premiumSince.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isPremium":    true,
			"premiumSince": bson.M{"$ifNull": bson.A{"$premiumSince", since.UTC()}},
			"updatedAt":    now,
		}}},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Webhooks resolve users by customer when metadata is missing
			Keys:    bson.D{{Key: "stripeCustomerId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
