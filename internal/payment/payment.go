// Package payment abstracts the subscription billing provider. Services work
// with the provider-neutral Event and Provider types; stripe.go adapts them to
// the Stripe API.
package payment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrNotConfigured    = errors.New("payment provider is not configured")
)

// EventType is the provider's event name.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventSubscriptionCreated   EventType = "customer.subscription.created"
	EventSubscriptionUpdated   EventType = "customer.subscription.updated"
	EventSubscriptionDeleted   EventType = "customer.subscription.deleted"
	EventInvoicePaymentSuccess EventType = "invoice.payment_succeeded"
	EventInvoicePaymentFailed  EventType = "invoice.payment_failed"
)

// MetadataUserID is the metadata key carrying our user ID on checkout sessions
// and subscriptions.
const MetadataUserID = "user_id"

// Event is a verified webhook event reduced to the fields reconciliation needs.
// Fields the event does not carry are left empty.
type Event struct {
	ID                string
	Type              EventType
	Created           time.Time
	UserID            string // from metadata or client_reference_id
	CustomerID        string
	SubscriptionID    string
	Status            string // provider subscription status
	PaymentStatus     string // checkout sessions only
	PriceID           string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time
}

// CheckoutRequest describes a subscription checkout for one user.
type CheckoutRequest struct {
	UserID     string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Provider is the billing backend used by the premium service.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (customerID string, err error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (url string, err error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (url string, err error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}
