package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreviewWeekNumber is the week of a premium program that stays free.
const PreviewWeekNumber = 1

// ProgramSession is a single workout inside a ProgramWeek.
// (WeekID, SessionNumber) is unique.
type ProgramSession struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID        primitive.ObjectID `bson:"programId" json:"programId"` // Denormalized for cascade deletes and gating
	WeekID           primitive.ObjectID `bson:"weekId" json:"weekId"`
	WeekNumber       int                `bson:"weekNumber" json:"weekNumber"` // Denormalized from the week
	SessionNumber    int                `bson:"sessionNumber" json:"sessionNumber"`
	Title            string             `bson:"title" json:"title"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	EstimatedMinutes int                `bson:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	Exercises        []SessionExercise  `bson:"exercises" json:"exercises"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionExercise is one prescribed block of a session.
type SessionExercise struct {
	ExerciseID      primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order           int                `bson:"order" json:"order"`
	Sets            int                `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            int                `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationSeconds int                `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	RestSeconds     int                `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsPreview reports whether the session is readable without premium.
func (s *ProgramSession) IsPreview() bool {
	return s.WeekNumber == PreviewWeekNumber
}
