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

const weekCollectionName = "program_weeks"

type mongoWeekRepository struct {
	collection *mongo.Collection
}

// NewMongoWeekRepository creates a new ProgramWeek repository.
func NewMongoWeekRepository(db *mongo.Database) repository.ProgramWeekRepository {
	return &mongoWeekRepository{
		collection: db.Collection(weekCollectionName),
	}
}

func (r *mongoWeekRepository) Create(ctx context.Context, week *domain.ProgramWeek) (primitive.ObjectID, error) {
	if week.ProgramID == primitive.NilObjectID || week.WeekNumber < 1 {
		return primitive.NilObjectID, errors.New("week requires programId and a positive weekNumber")
	}
	week.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	week.CreatedAt = now
	week.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, week)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoWeekRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramWeek, error) {
	var week domain.ProgramWeek
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&week); err != nil {
		return nil, mapFindError(err)
	}
	return &week, nil
}

// GetByProgramID returns the weeks of a program ordered by week number.
func (r *mongoWeekRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramWeek, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"programId": programID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	weeks := []domain.ProgramWeek{}
	if err = cursor.All(ctx, &weeks); err != nil {
		return nil, err
	}
	return weeks, nil
}

func (r *mongoWeekRepository) Update(ctx context.Context, week *domain.ProgramWeek) error {
	if week.ID == primitive.NilObjectID {
		return errors.New("week ID is required for update")
	}
	week.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"weekNumber":  week.WeekNumber,
			"title":       week.Title,
			"description": week.Description,
			"updatedAt":   week.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": week.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWeekRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWeekRepository) DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// EnsureWeekIndexes enforces one week per number within a program.
func EnsureWeekIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("program_week_unique"),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
