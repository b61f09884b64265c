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

const sessionCollectionName = "program_sessions"

// mongoSessionRepository implements repository.ProgramSessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new ProgramSession repository.
func NewMongoSessionRepository(db *mongo.Database) repository.ProgramSessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.ProgramSession) (primitive.ObjectID, error) {
	if session.ProgramID == primitive.NilObjectID || session.WeekID == primitive.NilObjectID || session.Title == "" {
		return primitive.NilObjectID, errors.New("session requires programId, weekId, and title")
	}
	if session.Exercises == nil {
		session.Exercises = []domain.SessionExercise{}
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramSession, error) {
	var session domain.ProgramSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, mapFindError(err)
	}
	return &session, nil
}

// GetByWeekID returns the sessions of one week ordered by session number.
func (r *mongoSessionRepository) GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ProgramSession, error) {
	return r.find(ctx, bson.M{"weekId": weekID})
}

// GetByProgramID returns every session of a program ordered by week then session number.
func (r *mongoSessionRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramSession, error) {
	return r.find(ctx, bson.M{"programId": programID})
}

func (r *mongoSessionRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgramSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}, {Key: "sessionNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.ProgramSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mongoSessionRepository) CountByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"programId": programID})
}

func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.ProgramSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}
	if session.Exercises == nil {
		session.Exercises = []domain.SessionExercise{}
	}
	session.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"sessionNumber":    session.SessionNumber,
			"title":            session.Title,
			"notes":            session.Notes,
			"estimatedMinutes": session.EstimatedMinutes,
			"exercises":        session.Exercises,
			"updatedAt":        session.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) SetWeekNumber(ctx context.Context, weekID primitive.ObjectID, weekNumber int) error {
	update := bson.M{"$set": bson.M{"weekNumber": weekNumber, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, bson.M{"weekId": weekID}, update)
	return err
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"weekId": weekID})
	return err
}

func (r *mongoSessionRepository) DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// EnsureSessionIndexes enforces one session per number within a week.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekId", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("week_session_unique"),
		},
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}, {Key: "sessionNumber", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
