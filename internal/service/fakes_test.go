package service

import (
	"context"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/repository"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories used by the service tests. They mirror the unique
// constraints of the Mongo indexes.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c := *user
	c.ID = primitive.NewObjectID()
	r.users[c.ID] = &c
	return c.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customerID == "" {
		return nil, repository.ErrNotFound
	}
	for _, u := range r.users {
		if u.StripeCustomerID == customerID {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) SetStripeCustomerID(_ context.Context, userID primitive.ObjectID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.StripeCustomerID = customerID
	return nil
}

func (r *fakeUserRepo) SetPremium(_ context.Context, userID primitive.ObjectID, premium bool, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsPremium = premium
	switch {
	case !premium:
		u.PremiumSince = nil
	case u.PremiumSince == nil:
		s := since
		u.PremiumSince = &s
	}
	return nil
}

func (r *fakeUserRepo) get(id primitive.ObjectID) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo(names ...string) *fakeExerciseRepo {
	r := &fakeExerciseRepo{exercises: map[primitive.ObjectID]*domain.Exercise{}}
	for _, n := range names {
		id := primitive.NewObjectID()
		r.exercises[id] = &domain.Exercise{ID: id, Name: n}
	}
	return r
}

func (r *fakeExerciseRepo) ids() []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(r.exercises))
	for id := range r.exercises {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

func (r *fakeExerciseRepo) Create(_ context.Context, e *domain.Exercise) (primitive.ObjectID, error) {
	c := *e
	c.ID = primitive.NewObjectID()
	r.exercises[c.ID] = &c
	return c.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (r *fakeExerciseRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	out := []domain.Exercise{}
	for _, id := range ids {
		if e, ok := r.exercises[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) List(_ context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	out := []domain.Exercise{}
	for _, id := range r.ids() {
		e := r.exercises[id]
		if filter.MuscleGroup != "" && e.MuscleGroup != filter.MuscleGroup {
			continue
		}
		if filter.Difficulty != "" && e.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, e *domain.Exercise) error {
	if _, ok := r.exercises[e.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *e
	r.exercises[e.ID] = &c
	return nil
}

func (r *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

type fakeProgramRepo struct {
	programs map[primitive.ObjectID]*domain.Program
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{programs: map[primitive.ObjectID]*domain.Program{}}
}

func (r *fakeProgramRepo) conflict(p *domain.Program) bool {
	for _, o := range r.programs {
		if o.ID != p.ID && o.Slug == p.Slug && o.Locale == p.Locale {
			return true
		}
	}
	return false
}

func (r *fakeProgramRepo) Create(_ context.Context, p *domain.Program) (primitive.ObjectID, error) {
	if r.conflict(p) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	c := *p
	c.ID = primitive.NewObjectID()
	r.programs[c.ID] = &c
	return c.ID, nil
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProgramRepo) GetBySlug(_ context.Context, slug, locale string) (*domain.Program, error) {
	for _, p := range r.programs {
		if p.Slug == slug && p.Locale == locale {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProgramRepo) List(_ context.Context, f repository.ProgramFilter) ([]domain.Program, error) {
	out := []domain.Program{}
	for _, p := range r.programs {
		if f.Locale != "" && p.Locale != f.Locale {
			continue
		}
		if f.Level != "" && p.Level != f.Level {
			continue
		}
		if f.Premium != nil && p.IsPremium != *f.Premium {
			continue
		}
		if f.PublishedOnly && !p.IsPublished {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *fakeProgramRepo) Update(_ context.Context, p *domain.Program) error {
	if _, ok := r.programs[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.conflict(p) {
		return repository.ErrDuplicate
	}
	c := *p
	r.programs[p.ID] = &c
	return nil
}

func (r *fakeProgramRepo) SetCoverImage(_ context.Context, id primitive.ObjectID, key string) error {
	p, ok := r.programs[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CoverImageKey = key
	return nil
}

func (r *fakeProgramRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.programs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

type fakeWeekRepo struct {
	weeks map[primitive.ObjectID]*domain.ProgramWeek
}

func newFakeWeekRepo() *fakeWeekRepo {
	return &fakeWeekRepo{weeks: map[primitive.ObjectID]*domain.ProgramWeek{}}
}

func (r *fakeWeekRepo) Create(_ context.Context, w *domain.ProgramWeek) (primitive.ObjectID, error) {
	for _, o := range r.weeks {
		if o.ProgramID == w.ProgramID && o.WeekNumber == w.WeekNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c := *w
	c.ID = primitive.NewObjectID()
	r.weeks[c.ID] = &c
	return c.ID, nil
}

func (r *fakeWeekRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramWeek, error) {
	w, ok := r.weeks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (r *fakeWeekRepo) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ProgramWeek, error) {
	out := []domain.ProgramWeek{}
	for _, w := range r.weeks {
		if w.ProgramID == programID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (r *fakeWeekRepo) Update(_ context.Context, w *domain.ProgramWeek) error {
	if _, ok := r.weeks[w.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *w
	r.weeks[w.ID] = &c
	return nil
}

func (r *fakeWeekRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.weeks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.weeks, id)
	return nil
}

func (r *fakeWeekRepo) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	for id, w := range r.weeks {
		if w.ProgramID == programID {
			delete(r.weeks, id)
		}
	}
	return nil
}

type fakeSessionRepo struct {
	sessions map[primitive.ObjectID]*domain.ProgramSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[primitive.ObjectID]*domain.ProgramSession{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.ProgramSession) (primitive.ObjectID, error) {
	for _, o := range r.sessions {
		if o.WeekID == s.WeekID && o.SessionNumber == s.SessionNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c := *s
	c.ID = primitive.NewObjectID()
	r.sessions[c.ID] = &c
	return c.ID, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgramSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSessionRepo) filter(keep func(*domain.ProgramSession) bool) []domain.ProgramSession {
	out := []domain.ProgramSession{}
	for _, s := range r.sessions {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekNumber != out[j].WeekNumber {
			return out[i].WeekNumber < out[j].WeekNumber
		}
		return out[i].SessionNumber < out[j].SessionNumber
	})
	return out
}

func (r *fakeSessionRepo) GetByWeekID(_ context.Context, weekID primitive.ObjectID) ([]domain.ProgramSession, error) {
	return r.filter(func(s *domain.ProgramSession) bool { return s.WeekID == weekID }), nil
}

func (r *fakeSessionRepo) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.ProgramSession, error) {
	return r.filter(func(s *domain.ProgramSession) bool { return s.ProgramID == programID }), nil
}

func (r *fakeSessionRepo) CountByProgramID(ctx context.Context, programID primitive.ObjectID) (int64, error) {
	list, _ := r.GetByProgramID(ctx, programID)
	return int64(len(list)), nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *domain.ProgramSession) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *s
	r.sessions[s.ID] = &c
	return nil
}

func (r *fakeSessionRepo) SetWeekNumber(_ context.Context, weekID primitive.ObjectID, n int) error {
	for _, s := range r.sessions {
		if s.WeekID == weekID {
			s.WeekNumber = n
		}
	}
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByWeekID(_ context.Context, weekID primitive.ObjectID) error {
	for id, s := range r.sessions {
		if s.WeekID == weekID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	for id, s := range r.sessions {
		if s.ProgramID == programID {
			delete(r.sessions, id)
		}
	}
	return nil
}

type fakeProgressRepo struct {
	entries []domain.SessionProgress
}

func (r *fakeProgressRepo) Upsert(_ context.Context, p *domain.SessionProgress) error {
	for i := range r.entries {
		if r.entries[i].UserID == p.UserID && r.entries[i].SessionID == p.SessionID {
			p.ID = r.entries[i].ID
			r.entries[i] = *p
			return nil
		}
	}
	p.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *p)
	return nil
}

func (r *fakeProgressRepo) GetByUserAndProgram(_ context.Context, userID, programID primitive.ObjectID) ([]domain.SessionProgress, error) {
	out := []domain.SessionProgress{}
	for _, e := range r.entries {
		if e.UserID == userID && e.ProgramID == programID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) DeleteBySessionIDs(_ context.Context, ids []primitive.ObjectID) error {
	drop := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if !drop[e.SessionID] {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

type fakeMediaRepo struct {
	uploads []domain.MediaUpload
}

func (r *fakeMediaRepo) Create(_ context.Context, u *domain.MediaUpload) (primitive.ObjectID, error) {
	for _, o := range r.uploads {
		if o.ObjectKey == u.ObjectKey {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c := *u
	c.ID = primitive.NewObjectID()
	r.uploads = append(r.uploads, c)
	return c.ID, nil
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MediaUpload, error) {
	for _, o := range r.uploads {
		if o.ID == id {
			c := o
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMediaRepo) GetByObjectKey(_ context.Context, key string) (*domain.MediaUpload, error) {
	for _, o := range r.uploads {
		if o.ObjectKey == key {
			c := o
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMediaRepo) GetByProgramID(_ context.Context, programID primitive.ObjectID) ([]domain.MediaUpload, error) {
	var out []domain.MediaUpload
	for _, o := range r.uploads {
		if o.ProgramID == programID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) DeleteByProgramID(_ context.Context, programID primitive.ObjectID) error {
	kept := r.uploads[:0]
	for _, o := range r.uploads {
		if o.ProgramID != programID {
			kept = append(kept, o)
		}
	}
	r.uploads = kept
	return nil
}

type fakePlanRepo struct {
	plans []*domain.SubscriptionPlan
}

func (r *fakePlanRepo) Create(_ context.Context, p *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	for _, o := range r.plans {
		if o.Code == p.Code || o.StripePriceID == p.StripePriceID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c := *p
	c.ID = primitive.NewObjectID()
	r.plans = append(r.plans, &c)
	return c.ID, nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *domain.SubscriptionPlan) error {
	for i, o := range r.plans {
		if o.ID == p.ID {
			c := *p
			r.plans[i] = &c
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakePlanRepo) find(keep func(*domain.SubscriptionPlan) bool) (*domain.SubscriptionPlan, error) {
	for _, o := range r.plans {
		if keep(o) {
			c := *o
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	return r.find(func(p *domain.SubscriptionPlan) bool { return p.ID == id })
}

func (r *fakePlanRepo) GetByCode(_ context.Context, code string) (*domain.SubscriptionPlan, error) {
	return r.find(func(p *domain.SubscriptionPlan) bool { return p.Code == code })
}

func (r *fakePlanRepo) GetByStripePriceID(_ context.Context, priceID string) (*domain.SubscriptionPlan, error) {
	return r.find(func(p *domain.SubscriptionPlan) bool { return p.StripePriceID == priceID })
}

func (r *fakePlanRepo) ListActive(_ context.Context) ([]domain.SubscriptionPlan, error) {
	out := []domain.SubscriptionPlan{}
	for _, p := range r.plans {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeSubscriptionRepo struct {
	subs map[primitive.ObjectID]*domain.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[primitive.ObjectID]*domain.Subscription{}}
}

func (r *fakeSubscriptionRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Subscription, error) {
	s, ok := r.subs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSubscriptionRepo) GetByStripeSubscriptionID(_ context.Context, id string) (*domain.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeSubscriptionID == id {
			c := *s
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, sub *domain.Subscription) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	c := *sub
	r.subs[sub.UserID] = &c
	return nil
}

func (r *fakeSubscriptionRepo) SetCancelAtPeriodEnd(_ context.Context, userID primitive.ObjectID, cancel bool) error {
	s, ok := r.subs[userID]
	if !ok {
		return repository.ErrNotFound
	}
	s.CancelAtPeriodEnd = cancel
	return nil
}

type fakeEventRepo struct {
	seen map[string]bool
}

func (r *fakeEventRepo) MarkProcessed(_ context.Context, e *domain.ProcessedEvent) error {
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[e.EventID] {
		return repository.ErrDuplicate
	}
	r.seen[e.EventID] = true
	return nil
}

// fakeTransactor runs fn directly without rollback.
type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type fakeProvider struct {
	customers int
	checkouts []payment.CheckoutRequest
	canceled  []string
	portalFor string
	err       error
}

func (p *fakeProvider) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.customers++
	return "cus_new", nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.checkouts = append(p.checkouts, req)
	return "https://checkout.example/" + req.PriceID, nil
}

func (p *fakeProvider) CreateBillingPortalSession(_ context.Context, customerID, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.portalFor = customerID
	return "https://portal.example/" + customerID, nil
}

func (p *fakeProvider) CancelSubscriptionAtPeriodEnd(_ context.Context, subscriptionID string) error {
	if p.err != nil {
		return p.err
	}
	p.canceled = append(p.canceled, subscriptionID)
	return nil
}

func (p *fakeProvider) ParseWebhook(_ []byte, _ string) (*payment.Event, error) {
	return nil, payment.ErrNotConfigured
}

type fakeStorage struct {
	uploaded map[string]bool
	fail     error
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return "https://bucket.example/" + key + "?upload", nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key, nil
}

func (s *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	return s.uploaded[key], nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	delete(s.uploaded, key)
	return nil
}
