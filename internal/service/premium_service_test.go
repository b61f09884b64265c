package service

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/payment"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type premiumFixture struct {
	svc      PremiumService
	users    *fakeUserRepo
	plans    *fakePlanRepo
	subs     *fakeSubscriptionRepo
	events   *fakeEventRepo
	tx       *fakeTransactor
	provider *fakeProvider
	user     *domain.User
	plan     *domain.SubscriptionPlan
}

func newPremiumFixture(t *testing.T) *premiumFixture {
	t.Helper()
	f := &premiumFixture{
		user:     &domain.User{ID: primitive.NewObjectID(), Name: "Léa", Email: "lea@example.com", Role: domain.RoleMember},
		plans:    &fakePlanRepo{},
		subs:     newFakeSubscriptionRepo(),
		events:   &fakeEventRepo{},
		tx:       &fakeTransactor{},
		provider: &fakeProvider{},
	}
	f.users = newFakeUserRepo(f.user)
	f.svc = NewPremiumService(f.users, f.plans, f.subs, f.events, f.tx, f.provider, BillingURLs{
		SuccessURL:      "https://app.example/premium/success",
		CancelURL:       "https://app.example/premium",
		PortalReturnURL: "https://app.example/account",
	}, zap.NewNop())

	plan, err := f.svc.UpsertPlan(context.Background(), PlanInput{
		Code: "premium_monthly", Name: "Premium", StripePriceID: "price_monthly",
		Interval: domain.IntervalMonth, AmountCents: 999, Currency: "EUR", IsActive: true,
	})
	require.NoError(t, err)
	f.plan = plan
	return f
}

func (f *premiumFixture) event(id string, typ payment.EventType, status string) *payment.Event {
	return &payment.Event{
		ID:             id,
		Type:           typ,
		Created:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UserID:         f.user.ID.Hex(),
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Status:         status,
		PriceID:        "price_monthly",
	}
}

func (f *premiumFixture) mustHandle(t *testing.T, evt *payment.Event) EventOutcome {
	t.Helper()
	outcome, err := f.svc.HandleEvent(context.Background(), evt)
	require.NoError(t, err)
	return outcome
}

func TestUpsertPlan(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	assert.Equal(t, "eur", f.plan.Currency)

	updated, err := f.svc.UpsertPlan(ctx, PlanInput{
		Code: "premium_monthly", Name: "Premium+", StripePriceID: "price_monthly",
		Interval: domain.IntervalMonth, AmountCents: 1299, Currency: "eur", IsActive: false,
	})
	require.NoError(t, err)
	assert.Equal(t, f.plan.ID, updated.ID)

	plans, err := f.svc.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans, "inactive plans are not listed")

	_, err = f.svc.UpsertPlan(ctx, PlanInput{
		Code: "premium_yearly", Name: "Yearly", StripePriceID: "price_monthly",
		Interval: domain.IntervalYear, AmountCents: 9900, Currency: "eur",
	})
	assert.ErrorIs(t, err, ErrDuplicatePlan)

	_, err = f.svc.UpsertPlan(ctx, PlanInput{Code: "x", Name: "x", StripePriceID: "p", Interval: "week", AmountCents: 1, Currency: "eur"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestStartCheckout_CreatesCustomerOnce(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	url, err := f.svc.StartCheckout(ctx, f.user.ID, "premium_monthly")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/price_monthly", url)

	_, err = f.svc.StartCheckout(ctx, f.user.ID, "premium_monthly")
	require.NoError(t, err)

	assert.Equal(t, 1, f.provider.customers)
	require.Len(t, f.provider.checkouts, 2)
	req := f.provider.checkouts[1]
	assert.Equal(t, f.user.ID.Hex(), req.UserID)
	assert.Equal(t, "cus_new", req.CustomerID)
	assert.Equal(t, "https://app.example/premium/success", req.SuccessURL)
	assert.Equal(t, "cus_new", f.users.get(f.user.ID).StripeCustomerID)
}

func TestStartCheckout_Errors(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartCheckout(ctx, f.user.ID, "gold")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = f.svc.StartCheckout(ctx, primitive.NewObjectID(), "premium_monthly")
	assert.ErrorIs(t, err, ErrUserNotFound)

	f.provider.err = payment.ErrNotConfigured
	_, err = f.svc.StartCheckout(ctx, f.user.ID, "premium_monthly")
	assert.ErrorIs(t, err, payment.ErrNotConfigured)

	f.provider.err = nil
	require.NoError(t, f.users.SetPremium(ctx, f.user.ID, true, time.Now()))
	_, err = f.svc.StartCheckout(ctx, f.user.ID, "premium_monthly")
	assert.ErrorIs(t, err, ErrAlreadyPremium)
}

func TestHandleEvent_CheckoutCompletedGrantsPremium(t *testing.T) {
	f := newPremiumFixture(t)

	evt := f.event("evt_1", payment.EventCheckoutCompleted, "")
	evt.PriceID = ""
	evt.PaymentStatus = "paid"
	assert.Equal(t, OutcomeProcessed, f.mustHandle(t, evt))

	user := f.users.get(f.user.ID)
	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumSince)
	assert.Equal(t, evt.Created, *user.PremiumSince)
	assert.Equal(t, "cus_1", user.StripeCustomerID)

	sub, err := f.subs.GetByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
}

func TestHandleEvent_Idempotent(t *testing.T) {
	f := newPremiumFixture(t)
	evt := f.event("evt_1", payment.EventSubscriptionCreated, "active")

	assert.Equal(t, OutcomeProcessed, f.mustHandle(t, evt))
	assert.Equal(t, OutcomeDuplicate, f.mustHandle(t, evt))
	assert.Equal(t, 2, f.tx.calls)
	assert.True(t, f.users.get(f.user.ID).IsPremium)
}

func TestHandleEvent_Lifecycle(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	created := f.event("evt_1", payment.EventSubscriptionCreated, "active")
	created.CurrentPeriodEnd = &periodEnd
	f.mustHandle(t, created)

	sub, err := f.subs.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, sub.PlanID)
	assert.Equal(t, f.plan.ID, *sub.PlanID)
	assert.Equal(t, periodEnd, *sub.CurrentPeriodEnd)

	// Failed renewal keeps access while the provider retries.
	f.mustHandle(t, f.event("evt_2", payment.EventInvoicePaymentFailed, ""))
	sub, _ = f.subs.GetByUserID(ctx, f.user.ID)
	assert.Equal(t, domain.SubStatusPastDue, sub.Status)
	assert.True(t, f.users.get(f.user.ID).IsPremium)

	nextEnd := periodEnd.AddDate(0, 1, 0)
	paid := f.event("evt_3", payment.EventInvoicePaymentSuccess, "")
	paid.CurrentPeriodEnd = &nextEnd
	f.mustHandle(t, paid)
	sub, _ = f.subs.GetByUserID(ctx, f.user.ID)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.Equal(t, nextEnd, *sub.CurrentPeriodEnd)

	f.mustHandle(t, f.event("evt_4", payment.EventSubscriptionDeleted, "canceled"))
	sub, _ = f.subs.GetByUserID(ctx, f.user.ID)
	assert.Equal(t, domain.SubStatusCanceled, sub.Status)
	assert.NotNil(t, sub.CanceledAt)
	user := f.users.get(f.user.ID)
	assert.False(t, user.IsPremium)
	assert.Nil(t, user.PremiumSince)
}

func TestHandleEvent_OutOfOrderIsStale(t *testing.T) {
	f := newPremiumFixture(t)

	f.mustHandle(t, f.event("evt_del", payment.EventSubscriptionDeleted, "canceled"))
	outcome := f.mustHandle(t, f.event("evt_late", payment.EventSubscriptionUpdated, "past_due"))
	assert.Equal(t, OutcomeStale, outcome)

	sub, err := f.subs.GetByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusCanceled, sub.Status)
	assert.False(t, f.users.get(f.user.ID).IsPremium)
}

func TestHandleEvent_OldSubscriptionDoesNotRevokeNewOne(t *testing.T) {
	f := newPremiumFixture(t)

	f.mustHandle(t, f.event("evt_new", payment.EventSubscriptionCreated, "active"))

	old := f.event("evt_old", payment.EventSubscriptionDeleted, "canceled")
	old.SubscriptionID = "sub_0"
	assert.Equal(t, OutcomeStale, f.mustHandle(t, old))
	assert.True(t, f.users.get(f.user.ID).IsPremium)
}

func TestHandleEvent_UnpaidCheckoutWaitsForPayment(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	evt := f.event("evt_cs", payment.EventCheckoutCompleted, "")
	evt.PaymentStatus = "unpaid"
	assert.Equal(t, OutcomeProcessed, f.mustHandle(t, evt))

	sub, err := f.subs.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusIncomplete, sub.Status)
	assert.False(t, f.users.get(f.user.ID).IsPremium)

	f.mustHandle(t, f.event("evt_paid", payment.EventInvoicePaymentSuccess, ""))
	sub, _ = f.subs.GetByUserID(ctx, f.user.ID)
	assert.Equal(t, domain.SubStatusActive, sub.Status)
	assert.True(t, f.users.get(f.user.ID).IsPremium)
}

func TestHandleEvent_FirstPaymentFailureNeverGrantsPremium(t *testing.T) {
	t.Run("subscription created first", func(t *testing.T) {
		f := newPremiumFixture(t)
		ctx := context.Background()

		f.mustHandle(t, f.event("evt_1", payment.EventSubscriptionCreated, "incomplete"))
		assert.Equal(t, OutcomeProcessed, f.mustHandle(t, f.event("evt_2", payment.EventInvoicePaymentFailed, "")))

		sub, err := f.subs.GetByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubStatusIncomplete, sub.Status)
		assert.False(t, f.users.get(f.user.ID).IsPremium)
	})

	t.Run("payment failure first", func(t *testing.T) {
		f := newPremiumFixture(t)
		ctx := context.Background()

		assert.Equal(t, OutcomeProcessed, f.mustHandle(t, f.event("evt_1", payment.EventInvoicePaymentFailed, "")))
		assert.False(t, f.users.get(f.user.ID).IsPremium)

		outcome := f.mustHandle(t, f.event("evt_2", payment.EventSubscriptionUpdated, "incomplete_expired"))
		assert.Equal(t, OutcomeProcessed, outcome)

		sub, err := f.subs.GetByUserID(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SubStatusIncompleteExpired, sub.Status)
		assert.False(t, f.users.get(f.user.ID).IsPremium)
	})
}

func TestHandleEvent_RenewalFailureOnNewSubscriptionKeepsLiveOne(t *testing.T) {
	f := newPremiumFixture(t)

	f.mustHandle(t, f.event("evt_1", payment.EventSubscriptionCreated, "active"))

	failed := f.event("evt_2", payment.EventInvoicePaymentFailed, "")
	failed.SubscriptionID = "sub_2"
	assert.Equal(t, OutcomeStale, f.mustHandle(t, failed))

	sub, err := f.subs.GetByUserID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.True(t, f.users.get(f.user.ID).IsPremium)
}

func TestHandleEvent_OlderEventIsStale(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	active := f.event("evt_1", payment.EventSubscriptionCreated, "active")
	f.mustHandle(t, active)

	failed := f.event("evt_3", payment.EventSubscriptionUpdated, "past_due")
	failed.Created = active.Created.Add(2 * time.Hour)
	f.mustHandle(t, failed)

	// Delivered late: the subscription was active an hour before it went past due.
	late := f.event("evt_2", payment.EventSubscriptionUpdated, "active")
	late.Created = active.Created.Add(time.Hour)
	assert.Equal(t, OutcomeStale, f.mustHandle(t, late))

	sub, err := f.subs.GetByUserID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubStatusPastDue, sub.Status)
	require.NotNil(t, sub.LastEventAt)
	assert.Equal(t, failed.Created, *sub.LastEventAt)
}

func TestHandleEvent_UserResolution(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	// No metadata: resolved by the stripe customer id.
	require.NoError(t, f.users.SetStripeCustomerID(ctx, f.user.ID, "cus_1"))
	evt := f.event("evt_1", payment.EventSubscriptionCreated, "trialing")
	evt.UserID = ""
	f.mustHandle(t, evt)
	assert.True(t, f.users.get(f.user.ID).IsPremium)

	// No metadata and unknown customer: resolved by the stored subscription.
	evt = f.event("evt_2", payment.EventInvoicePaymentFailed, "")
	evt.UserID = ""
	evt.CustomerID = "cus_other"
	f.mustHandle(t, evt)
	sub, _ := f.subs.GetByUserID(ctx, f.user.ID)
	assert.Equal(t, domain.SubStatusPastDue, sub.Status)

	evt = f.event("evt_3", payment.EventSubscriptionUpdated, "active")
	evt.UserID = primitive.NewObjectID().Hex()
	evt.CustomerID = "cus_unknown"
	evt.SubscriptionID = "sub_unknown"
	_, err := f.svc.HandleEvent(ctx, evt)
	assert.ErrorIs(t, err, ErrUnknownSubscriber)
}

func TestHandleEvent_IgnoresOtherEvents(t *testing.T) {
	f := newPremiumFixture(t)

	outcome := f.mustHandle(t, &payment.Event{ID: "evt_x", Type: "customer.created"})
	assert.Equal(t, OutcomeIgnored, outcome)

	evt := f.event("evt_y", payment.EventInvoicePaymentSuccess, "")
	evt.SubscriptionID = ""
	assert.Equal(t, OutcomeIgnored, f.mustHandle(t, evt))
	assert.Zero(t, f.tx.calls)
}

func TestHandleEvent_StorageErrorIsReturned(t *testing.T) {
	f := newPremiumFixture(t)
	boom := errors.New("write conflict")
	f.svc.(*premiumService).tx = txFunc(func(ctx context.Context, fn func(context.Context) error) error { return boom })

	_, err := f.svc.HandleEvent(context.Background(), f.event("evt_1", payment.EventSubscriptionCreated, "active"))
	assert.ErrorIs(t, err, boom)
}

type txFunc func(ctx context.Context, fn func(context.Context) error) error

func (f txFunc) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return f(ctx, fn)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	_, err := f.svc.CancelAtPeriodEnd(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	f.mustHandle(t, f.event("evt_1", payment.EventSubscriptionCreated, "active"))
	sub, err := f.svc.CancelAtPeriodEnd(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, []string{"sub_1"}, f.provider.canceled)

	// Already scheduled: the provider is not called again.
	_, err = f.svc.CancelAtPeriodEnd(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, f.provider.canceled, 1)
	assert.True(t, f.users.get(f.user.ID).IsPremium)
}

func TestStatusAndPortal(t *testing.T) {
	f := newPremiumFixture(t)
	ctx := context.Background()

	status, err := f.svc.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, status.IsPremium)
	assert.Nil(t, status.Subscription)

	_, err = f.svc.OpenBillingPortal(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrNoBillingAccount)

	f.mustHandle(t, f.event("evt_1", payment.EventCheckoutCompleted, "active"))

	status, err = f.svc.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, status.IsPremium)
	require.NotNil(t, status.Subscription)
	assert.Equal(t, domain.SubStatusActive, status.Subscription.Status)

	url, err := f.svc.OpenBillingPortal(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/cus_1", url)
}
