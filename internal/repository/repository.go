package repository

import (
	"context"
	"fitforge/server/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// take part in the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error)
	SetStripeCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error
	// SetPremium flips the premium flag. since is kept when premium stays true.
	SetPremium(ctx context.Context, userID primitive.ObjectID, premium bool, since time.Time) error
}

// ExerciseFilter narrows exercise listings. Zero values match everything.
type ExerciseFilter struct {
	MuscleGroup string
	Difficulty  string
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgramFilter narrows program listings.
type ProgramFilter struct {
	Locale        string
	Level         domain.ProgramLevel
	Premium       *bool
	PublishedOnly bool
}

// ProgramRepository stores programs. (slug, locale) is unique.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetBySlug(ctx context.Context, slug, locale string) (*domain.Program, error)
	List(ctx context.Context, filter ProgramFilter) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	SetCoverImage(ctx context.Context, id primitive.ObjectID, objectKey string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgramWeekRepository stores weeks. (programId, weekNumber) is unique.
type ProgramWeekRepository interface {
	Create(ctx context.Context, week *domain.ProgramWeek) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramWeek, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramWeek, error)
	Update(ctx context.Context, week *domain.ProgramWeek) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// ProgramSessionRepository stores sessions. (weekId, sessionNumber) is unique.
type ProgramSessionRepository interface {
	Create(ctx context.Context, session *domain.ProgramSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramSession, error)
	GetByWeekID(ctx context.Context, weekID primitive.ObjectID) ([]domain.ProgramSession, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramSession, error)
	CountByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, session *domain.ProgramSession) error
	// SetWeekNumber rewrites the denormalized week number of every session of a week.
	SetWeekNumber(ctx context.Context, weekID primitive.ObjectID, weekNumber int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByWeekID(ctx context.Context, weekID primitive.ObjectID) error
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// ProgressRepository stores session completions, one per (user, session).
type ProgressRepository interface {
	Upsert(ctx context.Context, progress *domain.SessionProgress) error
	GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) ([]domain.SessionProgress, error)
	DeleteBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error
}

// MediaRepository stores metadata of uploaded program images.
type MediaRepository interface {
	Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error)
	GetByObjectKey(ctx context.Context, objectKey string) (*domain.MediaUpload, error)
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.MediaUpload, error)
	DeleteByProgramID(ctx context.Context, programID primitive.ObjectID) error
}

// PlanRepository stores subscription plans. code and stripePriceId are unique.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error)
	Update(ctx context.Context, plan *domain.SubscriptionPlan) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error)
	GetByCode(ctx context.Context, code string) (*domain.SubscriptionPlan, error)
	GetByStripePriceID(ctx context.Context, priceID string) (*domain.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error)
}

// SubscriptionRepository stores one subscription record per user.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error)
	// Upsert inserts or replaces the record keyed by UserID.
	Upsert(ctx context.Context, sub *domain.Subscription) error
	SetCancelAtPeriodEnd(ctx context.Context, userID primitive.ObjectID, cancel bool) error
}

// EventRepository records processed webhook events.
type EventRepository interface {
	// MarkProcessed returns ErrDuplicate when the event was already recorded.
	MarkProcessed(ctx context.Context, event *domain.ProcessedEvent) error
}
