// internal/repository/mongo/program_repo.go
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

const programCollectionName = "programs"

// mongoProgramRepository implements repository.ProgramRepository
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program. A slug already used in the same locale
// yields repository.ErrDuplicate.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.Slug == "" || program.Locale == "" || program.Title == "" {
		return primitive.NilObjectID, errors.New("program requires slug, locale, and title")
	}
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug retrieves a program by its slug within a locale.
func (r *mongoProgramRepository) GetBySlug(ctx context.Context, slug, locale string) (*domain.Program, error) {
	return r.findOne(ctx, bson.M{"slug": slug, "locale": locale})
}

func (r *mongoProgramRepository) findOne(ctx context.Context, filter bson.M) (*domain.Program, error) {
	var program domain.Program
	if err := r.collection.FindOne(ctx, filter).Decode(&program); err != nil {
		return nil, mapFindError(err)
	}
	return &program, nil
}

// List returns programs matching filter, newest first.
func (r *mongoProgramRepository) List(ctx context.Context, filter repository.ProgramFilter) ([]domain.Program, error) {
	query := bson.M{}
	if filter.Locale != "" {
		query["locale"] = filter.Locale
	}
	if filter.Level != "" {
		query["level"] = filter.Level
	}
	if filter.Premium != nil {
		query["isPremium"] = *filter.Premium
	}
	if filter.PublishedOnly {
		query["isPublished"] = true
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	programs := []domain.Program{}
	if err = cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// Update writes the editable fields of a program.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.Program) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}

	program.UpdatedAt = time.Now().UTC()
	updateDoc := bson.M{
		"$set": bson.M{
			"slug":          program.Slug,
			"locale":        program.Locale,
			"title":         program.Title,
			"description":   program.Description,
			"level":         program.Level,
			"goal":          program.Goal,
			"durationWeeks": program.DurationWeeks,
			"isPremium":     program.IsPremium,
			"isPublished":   program.IsPublished,
			"updatedAt":     program.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": program.ID}, updateDoc)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetCoverImage stores the object key of the program's cover image.
func (r *mongoProgramRepository) SetCoverImage(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	update := bson.M{"$set": bson.M{"coverImageKey": objectKey, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the program document only; weeks and sessions are removed by the service.
func (r *mongoProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureProgramIndexes creates necessary indexes.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "locale", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_locale_unique"),
		},
		{
			Keys:    bson.D{{Key: "locale", Value: 1}, {Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
