// internal/domain/program.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramLevel is the target audience of a program.
type ProgramLevel string

const (
	LevelBeginner     ProgramLevel = "beginner"
	LevelIntermediate ProgramLevel = "intermediate"
	LevelAdvanced     ProgramLevel = "advanced"
)

// Program is the top of the Program → Week → Session hierarchy.
// (Slug, Locale) is unique.
type Program struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug          string             `bson:"slug" json:"slug"`
	Locale        string             `bson:"locale" json:"locale"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Level         ProgramLevel       `bson:"level" json:"level"`
	Goal          string             `bson:"goal,omitempty" json:"goal,omitempty"` // e.g. "strength", "weight_loss"
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	IsPremium     bool               `bson:"isPremium" json:"isPremium"`
	IsPublished   bool               `bson:"isPublished" json:"isPublished"`
	CoverImageKey string             `bson:"coverImageKey,omitempty" json:"-"` // object key in S3
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgramWeek groups the sessions of one week. (ProgramID, WeekNumber) is unique.
type ProgramWeek struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	WeekNumber  int                `bson:"weekNumber" json:"weekNumber"` // 1-based
	Title       string             `bson:"title,omitempty" json:"title,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
