package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionProgress records that a user completed a program session.
// There is at most one record per (UserID, SessionID).
type SessionProgress struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID       primitive.ObjectID `bson:"programId" json:"programId"`
	SessionID       primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	CompletedAt     time.Time          `bson:"completedAt" json:"completedAt"`
	PerceivedEffort int                `bson:"perceivedEffort,omitempty" json:"perceivedEffort,omitempty"` // RPE 1-10
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// ProgramProgress summarizes a user's completions for one program.
type ProgramProgress struct {
	ProgramID         primitive.ObjectID `json:"programId"`
	CompletedSessions int                `json:"completedSessions"`
	TotalSessions     int                `json:"totalSessions"`
	Percent           float64            `json:"percent"`
	LastCompletedAt   *time.Time         `json:"lastCompletedAt,omitempty"`
}
