package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"
)

// StripeConfig is what the Stripe provider needs from configuration.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeProvider creates a Stripe-backed provider. Without a secret key the
// provider still verifies webhooks but refuses API calls.
func NewStripeProvider(cfg StripeConfig, logger *zap.Logger) *StripeProvider {
	p := &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.Named("stripe"),
	}
	if cfg.SecretKey != "" {
		p.api = client.New(cfg.SecretKey, nil)
	} else {
		p.logger.Warn("Stripe secret key not configured, billing API calls are disabled")
	}
	return p
}

// CreateCustomer creates a Stripe customer tagged with our user ID.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, userID)

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout and returns its URL.
// The user ID travels both as client_reference_id and as subscription
// metadata so later subscription events can be attributed without a lookup.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: req.UserID},
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, req.UserID)

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreateBillingPortalSession returns a customer portal URL.
func (p *StripeProvider) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// CancelSubscriptionAtPeriodEnd stops renewal; access lasts until the period ends.
func (p *StripeProvider) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	if p.api == nil {
		return ErrNotConfigured
	}
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx

	if _, err := p.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe: cancel subscription: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event.
func (p *StripeProvider) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeStripeEvent(evt)
}

func decodeStripeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{
		ID:      evt.ID,
		Type:    EventType(evt.Type),
		Created: unixTime(evt.Created),
	}
	if evt.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrInvalidPayload, evt.ID)
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrInvalidPayload, err)
		}
		out.UserID = cs.ClientReferenceID
		if v := cs.Metadata[MetadataUserID]; v != "" {
			out.UserID = v
		}
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
		out.PaymentStatus = string(cs.PaymentStatus)
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
			// Only set when Stripe expanded the subscription.
			out.Status = string(cs.Subscription.Status)
		}

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrInvalidPayload, err)
		}
		fillFromSubscription(out, &sub)

	case EventInvoicePaymentSuccess, EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", ErrInvalidPayload, err)
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Lines != nil {
			for _, line := range inv.Lines.Data {
				if line.Period != nil && line.Period.End > 0 {
					out.CurrentPeriodEnd = unixTimePtr(line.Period.End)
				}
				if line.Price != nil && out.PriceID == "" {
					out.PriceID = line.Price.ID
				}
			}
		}
	}

	return out, nil
}

func fillFromSubscription(out *Event, sub *stripe.Subscription) {
	out.SubscriptionID = sub.ID
	out.Status = string(sub.Status)
	out.UserID = sub.Metadata[MetadataUserID]
	out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	out.CurrentPeriodEnd = unixTimePtr(sub.CurrentPeriodEnd)
	out.CanceledAt = unixTimePtr(sub.CanceledAt)
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixTimePtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := unixTime(sec)
	return &t
}
