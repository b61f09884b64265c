package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleAdmin  Role = "admin"  // Manages the program catalog and plans
	RoleMember Role = "member" // Regular user, optionally premium
)

// User represents an account of the application.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Locale       string             `bson:"locale" json:"locale"` // e.g. "fr", "en"
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Premium ---
	IsPremium        bool       `bson:"isPremium" json:"isPremium"`
	PremiumSince     *time.Time `bson:"premiumSince,omitempty" json:"premiumSince,omitempty"`
	StripeCustomerID string     `bson:"stripeCustomerId,omitempty" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessPremium reports whether premium content is unlocked for the user.
// Admins always see everything.
func (u *User) CanAccessPremium() bool {
	return u.IsPremium || u.IsAdmin()
}
