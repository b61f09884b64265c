package service

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/repository"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrAlreadyPremium       = errors.New("user already has an active premium subscription")
	ErrNoBillingAccount     = errors.New("user has no billing account")
	ErrNoActiveSubscription = errors.New("user has no active subscription")
	ErrUnknownSubscriber    = errors.New("webhook event does not match any user")
	ErrDuplicatePlan        = errors.New("a plan with this code or price already exists")

	errEventAlreadyProcessed = errors.New("event already processed")
)

// EventOutcome tells the webhook handler what happened to an event.
type EventOutcome string

const (
	OutcomeProcessed EventOutcome = "processed"
	OutcomeDuplicate EventOutcome = "duplicate"
	OutcomeIgnored   EventOutcome = "ignored"
	OutcomeStale     EventOutcome = "stale" // out of order, state left untouched
)

// BillingURLs are the pages the provider redirects the user back to.
type BillingURLs struct {
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// PremiumStatus is a user's view of their premium access.
type PremiumStatus struct {
	IsPremium    bool                 `json:"isPremium"`
	PremiumSince *time.Time           `json:"premiumSince,omitempty"`
	Subscription *domain.Subscription `json:"subscription,omitempty"`
}

// PlanInput carries the editable fields of a plan. Code identifies the plan.
type PlanInput struct {
	Code          string
	Name          string
	StripePriceID string
	Interval      domain.BillingInterval
	AmountCents   int64
	Currency      string
	IsActive      bool
}

type PremiumService interface {
	ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error)
	UpsertPlan(ctx context.Context, input PlanInput) (*domain.SubscriptionPlan, error)
	Status(ctx context.Context, userID primitive.ObjectID) (*PremiumStatus, error)
	StartCheckout(ctx context.Context, userID primitive.ObjectID, planCode string) (string, error)
	OpenBillingPortal(ctx context.Context, userID primitive.ObjectID) (string, error)
	CancelAtPeriodEnd(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error)
	HandleEvent(ctx context.Context, event *payment.Event) (EventOutcome, error)
}

type premiumService struct {
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	subRepo   repository.SubscriptionRepository
	eventRepo repository.EventRepository
	tx        repository.Transactor
	provider  payment.Provider
	urls      BillingURLs
	logger    *zap.Logger
	now       func() time.Time
}

// NewPremiumService creates the subscription service.
func NewPremiumService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	subRepo repository.SubscriptionRepository,
	eventRepo repository.EventRepository,
	tx repository.Transactor,
	provider payment.Provider,
	urls BillingURLs,
	logger *zap.Logger,
) PremiumService {
	return &premiumService{
		userRepo:  userRepo,
		planRepo:  planRepo,
		subRepo:   subRepo,
		eventRepo: eventRepo,
		tx:        tx,
		provider:  provider,
		urls:      urls,
		logger:    logger.Named("premium"),
		now:       time.Now,
	}
}

// === Plans ===

func (s *premiumService) ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.planRepo.ListActive(ctx)
}

var (
	planCodePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)
)

func validatePlanInput(input *PlanInput) error {
	input.Code = strings.ToLower(strings.TrimSpace(input.Code))
	input.Currency = strings.ToLower(strings.TrimSpace(input.Currency))
	switch {
	case !planCodePattern.MatchString(input.Code):
		return fmt.Errorf("%w: code must contain lowercase letters, digits and underscores", ErrValidationFailed)
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidationFailed)
	case input.StripePriceID == "":
		return fmt.Errorf("%w: stripePriceId is required", ErrValidationFailed)
	case input.Interval != domain.IntervalMonth && input.Interval != domain.IntervalYear:
		return fmt.Errorf("%w: interval must be month or year", ErrValidationFailed)
	case input.AmountCents <= 0:
		return fmt.Errorf("%w: amountCents must be positive", ErrValidationFailed)
	case !currencyPattern.MatchString(input.Currency):
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrValidationFailed)
	}
	return nil
}

// UpsertPlan creates the plan with input.Code or updates it when it exists.
func (s *premiumService) UpsertPlan(ctx context.Context, input PlanInput) (*domain.SubscriptionPlan, error) {
	if err := validatePlanInput(&input); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByCode(ctx, input.Code)
	isNew := errors.Is(err, repository.ErrNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		plan = &domain.SubscriptionPlan{Code: input.Code}
	}
	plan.Name = input.Name
	plan.StripePriceID = input.StripePriceID
	plan.Interval = input.Interval
	plan.AmountCents = input.AmountCents
	plan.Currency = input.Currency
	plan.IsActive = input.IsActive

	if isNew {
		var id primitive.ObjectID
		id, err = s.planRepo.Create(ctx, plan)
		plan.ID = id
	} else {
		err = s.planRepo.Update(ctx, plan)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicatePlan
		}
		return nil, err
	}
	s.logger.Info("Plan saved", zap.String("code", plan.Code), zap.Bool("created", isNew), zap.Bool("active", plan.IsActive))
	return plan, nil
}

// === User operations ===

func (s *premiumService) getUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *premiumService) Status(ctx context.Context, userID primitive.ObjectID) (*PremiumStatus, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := &PremiumStatus{IsPremium: user.IsPremium, PremiumSince: user.PremiumSince}

	sub, err := s.subRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		status.Subscription = sub
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return status, nil
}

// StartCheckout returns the provider URL where the user pays for planCode.
func (s *premiumService) StartCheckout(ctx context.Context, userID primitive.ObjectID, planCode string) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsPremium {
		return "", ErrAlreadyPremium
	}

	plan, err := s.planRepo.GetByCode(ctx, strings.ToLower(strings.TrimSpace(planCode)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPlanNotFound
		}
		return "", err
	}
	if !plan.IsActive {
		return "", ErrPlanNotFound
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	url, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		UserID:     user.ID.Hex(),
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		SuccessURL: s.urls.SuccessURL,
		CancelURL:  s.urls.CancelURL,
	})
	if err != nil {
		s.logger.Error("Checkout session failed", zap.String("user_id", user.ID.Hex()), zap.String("plan", plan.Code), zap.Error(err))
		return "", err
	}
	s.logger.Info("Checkout started", zap.String("user_id", user.ID.Hex()), zap.String("plan", plan.Code))
	return url, nil
}

// ensureCustomer returns the user's provider customer, creating it on first checkout.
func (s *premiumService) ensureCustomer(ctx context.Context, user *domain.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	customerID, err := s.provider.CreateCustomer(ctx, user.Email, user.Name, user.ID.Hex())
	if err != nil {
		return "", err
	}
	if err = s.userRepo.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", err
	}
	user.StripeCustomerID = customerID
	return customerID, nil
}

func (s *premiumService) OpenBillingPortal(ctx context.Context, userID primitive.ObjectID) (string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}
	return s.provider.CreateBillingPortalSession(ctx, user.StripeCustomerID, s.urls.PortalReturnURL)
}

// CancelAtPeriodEnd stops renewal. Premium stays until the provider reports
// the subscription deleted.
func (s *premiumService) CancelAtPeriodEnd(ctx context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := s.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	if !sub.Status.GrantsPremium() {
		return nil, ErrNoActiveSubscription
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}

	if err = s.provider.CancelSubscriptionAtPeriodEnd(ctx, sub.StripeSubscriptionID); err != nil {
		return nil, err
	}
	if err = s.subRepo.SetCancelAtPeriodEnd(ctx, userID, true); err != nil {
		return nil, err
	}
	sub.CancelAtPeriodEnd = true
	s.logger.Info("Subscription set to cancel at period end", zap.String("user_id", userID.Hex()))
	return sub, nil
}

// === Webhook reconciliation ===

// HandleEvent applies a verified provider event. Every applied event is
// recorded in the same transaction as its writes, so redeliveries are no-ops.
func (s *premiumService) HandleEvent(ctx context.Context, event *payment.Event) (EventOutcome, error) {
	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	target, handled := targetStatus(event)
	if !handled {
		log.Debug("Ignoring webhook event")
		return OutcomeIgnored, nil
	}
	if event.SubscriptionID == "" {
		log.Info("Ignoring event without subscription")
		return OutcomeIgnored, nil
	}

	user, err := s.resolveUser(ctx, event)
	if err != nil {
		if errors.Is(err, ErrUnknownSubscriber) {
			log.Warn("Webhook event does not match any user",
				zap.String("customer_id", event.CustomerID), zap.String("subscription_id", event.SubscriptionID))
		}
		return "", err
	}
	log = log.With(zap.String("user_id", user.ID.Hex()))

	outcome := OutcomeProcessed
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		outcome = OutcomeProcessed
		if err := s.eventRepo.MarkProcessed(ctx, &domain.ProcessedEvent{
			EventID:     event.ID,
			Type:        string(event.Type),
			ProcessedAt: s.now().UTC(),
		}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errEventAlreadyProcessed
			}
			return err
		}

		applied, err := s.applyEvent(ctx, user, event, target)
		if err != nil {
			return err
		}
		if !applied {
			outcome = OutcomeStale
		}
		return nil
	})
	if errors.Is(err, errEventAlreadyProcessed) {
		log.Info("Webhook event already processed")
		return OutcomeDuplicate, nil
	}
	if err != nil {
		log.Error("Failed to apply webhook event", zap.Error(err))
		return "", err
	}

	log.Info("Webhook event applied", zap.String("outcome", string(outcome)))
	return outcome, nil
}

// Checkout session payment statuses.
const (
	checkoutPaid              = "paid"
	checkoutNoPaymentRequired = "no_payment_required"
)

// targetStatus is the subscription status an event moves to. An empty status
// with handled=true means "take it from the stored subscription".
func targetStatus(event *payment.Event) (domain.SubscriptionStatus, bool) {
	switch event.Type {
	case payment.EventCheckoutCompleted:
		if event.Status != "" {
			return domain.SubscriptionStatus(event.Status), true
		}
		if event.PaymentStatus == checkoutPaid || event.PaymentStatus == checkoutNoPaymentRequired {
			return domain.SubStatusActive, true
		}
		return "", true
	case payment.EventSubscriptionCreated, payment.EventSubscriptionUpdated:
		return domain.SubscriptionStatus(event.Status), event.Status != ""
	case payment.EventSubscriptionDeleted:
		return domain.SubStatusCanceled, true
	case payment.EventInvoicePaymentSuccess:
		return domain.SubStatusActive, true
	case payment.EventInvoicePaymentFailed:
		return domain.SubStatusPastDue, true
	default:
		return "", false
	}
}

// resolveUser finds the user an event belongs to: metadata user id, then the
// stored subscription, then the provider customer.
func (s *premiumService) resolveUser(ctx context.Context, event *payment.Event) (*domain.User, error) {
	if id, err := primitive.ObjectIDFromHex(event.UserID); err == nil {
		user, err := s.userRepo.GetByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	sub, err := s.subRepo.GetByStripeSubscriptionID(ctx, event.SubscriptionID)
	switch {
	case err == nil:
		user, err := s.userRepo.GetByID(ctx, sub.UserID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user, err := s.userRepo.GetByStripeCustomerID(ctx, event.CustomerID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownSubscriber
	}
	return nil, err
}

// applyEvent writes the subscription and the premium flag. It reports false
// when the event is older than the stored state and was skipped.
func (s *premiumService) applyEvent(ctx context.Context, user *domain.User, event *payment.Event, target domain.SubscriptionStatus) (bool, error) {
	current, err := s.subRepo.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	sameSubscription := current != nil && current.StripeSubscriptionID == event.SubscriptionID
	if event.Type == payment.EventInvoicePaymentFailed &&
		(!sameSubscription || current.Status == domain.SubStatusIncomplete) {
		// The first invoice failed: the subscription never started.
		target = domain.SubStatusIncomplete
	}

	sub := &domain.Subscription{UserID: user.ID}
	var from domain.SubscriptionStatus
	if current != nil {
		if sameSubscription {
			if isOlderEvent(event, current) {
				s.logger.Info("Skipping event older than the stored subscription",
					zap.String("event_id", event.ID), zap.Time("last_event_at", *current.LastEventAt))
				return false, nil
			}
			sub = current
			from = current.Status
		} else if current.Status.GrantsPremium() && (target == "" || !target.GrantsPremium()) {
			// An event for a previous subscription must not revoke the live one.
			return false, nil
		}
	}

	if target == "" {
		// Unpaid checkout: keep what we know, otherwise wait for the first payment.
		target = from
		if target == "" {
			target = domain.SubStatusIncomplete
		}
	}
	if !domain.CanTransition(from, target) {
		s.logger.Info("Skipping out of order status change",
			zap.String("event_id", event.ID), zap.String("from", string(from)), zap.String("to", string(target)))
		return false, nil
	}

	sub.StripeSubscriptionID = event.SubscriptionID
	sub.Status = target
	if !event.Created.IsZero() {
		created := event.Created
		sub.LastEventAt = &created
	}
	if event.CustomerID != "" {
		sub.StripeCustomerID = event.CustomerID
	}
	if event.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = event.CurrentPeriodEnd
	}
	switch event.Type {
	case payment.EventSubscriptionCreated, payment.EventSubscriptionUpdated:
		sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd
		sub.CanceledAt = event.CanceledAt
	case payment.EventSubscriptionDeleted:
		sub.CancelAtPeriodEnd = false
		sub.CanceledAt = event.CanceledAt
		if sub.CanceledAt == nil {
			at := s.eventTime(event)
			sub.CanceledAt = &at
		}
	}
	if event.PriceID != "" {
		plan, err := s.planRepo.GetByStripePriceID(ctx, event.PriceID)
		switch {
		case err == nil:
			sub.PlanID = &plan.ID
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("Unknown price in webhook event", zap.String("event_id", event.ID), zap.String("price_id", event.PriceID))
		default:
			return false, err
		}
	}

	if err = s.subRepo.Upsert(ctx, sub); err != nil {
		return false, err
	}
	if err = s.userRepo.SetPremium(ctx, user.ID, target.GrantsPremium(), s.eventTime(event)); err != nil {
		return false, err
	}
	if event.CustomerID != "" && user.StripeCustomerID == "" {
		if err = s.userRepo.SetStripeCustomerID(ctx, user.ID, event.CustomerID); err != nil {
			return false, err
		}
	}
	return true, nil
}

// isOlderEvent reports whether event was created before the last event
// applied to sub.
func isOlderEvent(event *payment.Event, sub *domain.Subscription) bool {
	if event.Created.IsZero() || sub.LastEventAt == nil {
		return false
	}
	return event.Created.Before(*sub.LastEventAt)
}

func (s *premiumService) eventTime(event *payment.Event) time.Time {
	if event.Created.IsZero() {
		return s.now().UTC()
	}
	return event.Created
}
