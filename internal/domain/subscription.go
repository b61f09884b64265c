package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BillingInterval of a subscription plan.
type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// SubscriptionPlan is a purchasable premium offer backed by a Stripe price.
type SubscriptionPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"` // e.g. "premium_monthly", unique
	Name          string             `bson:"name" json:"name"`
	StripePriceID string             `bson:"stripePriceId" json:"-"` // unique
	Interval      BillingInterval    `bson:"interval" json:"interval"`
	AmountCents   int64              `bson:"amountCents" json:"amountCents"`
	Currency      string             `bson:"currency" json:"currency"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SubscriptionStatus mirrors the payment provider's subscription status.
type SubscriptionStatus string

const (
	SubStatusIncomplete        SubscriptionStatus = "incomplete"
	SubStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubStatusTrialing          SubscriptionStatus = "trialing"
	SubStatusActive            SubscriptionStatus = "active"
	SubStatusPastDue           SubscriptionStatus = "past_due"
	SubStatusUnpaid            SubscriptionStatus = "unpaid"
	SubStatusCanceled          SubscriptionStatus = "canceled"
	SubStatusPaused            SubscriptionStatus = "paused"
)

// GrantsPremium reports whether a subscription in this status unlocks premium.
// past_due keeps access while the provider retries the payment.
func (s SubscriptionStatus) GrantsPremium() bool {
	switch s {
	case SubStatusActive, SubStatusTrialing, SubStatusPastDue:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is expected.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubStatusCanceled || s == SubStatusIncompleteExpired
}

// Subscription is the local record of a user's premium subscription.
// One per user; StripeSubscriptionID is unique.
type Subscription struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID               primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID               *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	StripeSubscriptionID string              `bson:"stripeSubscriptionId" json:"-"`
	StripeCustomerID     string              `bson:"stripeCustomerId" json:"-"`
	Status               SubscriptionStatus  `bson:"status" json:"status"`
	CurrentPeriodEnd     *time.Time          `bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd    bool                `bson:"cancelAtPeriodEnd" json:"cancelAtPeriodEnd"`
	CanceledAt           *time.Time          `bson:"canceledAt,omitempty" json:"canceledAt,omitempty"`
	LastEventAt          *time.Time          `bson:"lastEventAt,omitempty" json:"-"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ProcessedEvent marks a webhook event as applied.
type ProcessedEvent struct {
	EventID     string    `bson:"_id" json:"eventId"`
	Type        string    `bson:"type" json:"type"`
	ProcessedAt time.Time `bson:"processedAt" json:"processedAt"`
}
