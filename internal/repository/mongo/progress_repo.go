package mongo

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const progressCollectionName = "session_progress"

// mongoProgressRepository implements repository.ProgressRepository
type mongoProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressRepository creates a new progress repository.
func NewMongoProgressRepository(db *mongo.Database) repository.ProgressRepository {
	return &mongoProgressRepository{
		collection: db.Collection(progressCollectionName),
	}
}

// Upsert records a completion. Completing a session again overwrites the
// previous completion of the same user.
func (r *mongoProgressRepository) Upsert(ctx context.Context, progress *domain.SessionProgress) error {
	if progress.UserID == primitive.NilObjectID || progress.SessionID == primitive.NilObjectID {
		return errors.New("progress requires userId and sessionId")
	}
	filter := bson.M{"userId": progress.UserID, "sessionId": progress.SessionID}
	update := bson.M{
		"$set": bson.M{
			"programId":       progress.ProgramID,
			"completedAt":     progress.CompletedAt,
			"perceivedEffort": progress.PerceivedEffort,
			"notes":           progress.Notes,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(progress)
}

// GetByUserAndProgram returns a user's completions for a program, most recent first.
func (r *mongoProgressRepository) GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) ([]domain.SessionProgress, error) {
	filter := bson.M{"userId": userID, "programId": programID}
	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.SessionProgress{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteBySessionIDs removes completions of deleted sessions.
func (r *mongoProgressRepository) DeleteBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}})
	return err
}

// EnsureProgressIndexes creates necessary indexes.
func EnsureProgressIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "programId", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
