package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitforge/server/internal/domain"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/repository"
	"fitforge/server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// Service stubs embed the interface; calling a method the test did not set panics.

type stubAuthService struct {
	service.AuthService
	users map[string]*domain.User
}

func (s *stubAuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

type stubProgramService struct {
	service.ProgramService
	createProgram    func(input service.ProgramInput) (*domain.Program, error)
	listPrograms     func(filter repository.ProgramFilter) ([]domain.Program, error)
	getSession       func(viewer *domain.User, id primitive.ObjectID) (*service.SessionDetail, error)
	getProgramDetail func(viewer *domain.User, slug, locale string) (*service.ProgramDetail, error)
	getProgramByID   func(id primitive.ObjectID) (*domain.Program, error)
}

func (s *stubProgramService) GetProgramByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	return s.getProgramByID(id)
}

func (s *stubProgramService) CreateProgram(_ context.Context, _ primitive.ObjectID, input service.ProgramInput) (*domain.Program, error) {
	return s.createProgram(input)
}

func (s *stubProgramService) ListPrograms(_ context.Context, filter repository.ProgramFilter) ([]domain.Program, error) {
	return s.listPrograms(filter)
}

func (s *stubProgramService) GetSession(_ context.Context, viewer *domain.User, id primitive.ObjectID) (*service.SessionDetail, error) {
	return s.getSession(viewer, id)
}

func (s *stubProgramService) GetProgramDetail(_ context.Context, viewer *domain.User, slug, locale string) (*service.ProgramDetail, error) {
	return s.getProgramDetail(viewer, slug, locale)
}

type stubProgressService struct {
	service.ProgressService
	summary func(user *domain.User, programID primitive.ObjectID) (*domain.ProgramProgress, error)
}

func (s *stubProgressService) Summary(_ context.Context, user *domain.User, programID primitive.ObjectID) (*domain.ProgramProgress, error) {
	return s.summary(user, programID)
}

func (s *stubProgressService) ListCompletions(_ context.Context, user *domain.User, programID primitive.ObjectID) ([]domain.SessionProgress, error) {
	if _, err := s.summary(user, programID); err != nil {
		return nil, err
	}
	return []domain.SessionProgress{}, nil
}

type stubPremiumService struct {
	service.PremiumService
	startCheckout func(userID primitive.ObjectID, planCode string) (string, error)
	handleEvent   func(event *payment.Event) (service.EventOutcome, error)
}

func (s *stubPremiumService) StartCheckout(_ context.Context, userID primitive.ObjectID, planCode string) (string, error) {
	return s.startCheckout(userID, planCode)
}

func (s *stubPremiumService) HandleEvent(_ context.Context, event *payment.Event) (service.EventOutcome, error) {
	return s.handleEvent(event)
}

type stubParser struct {
	event *payment.Event
	err   error
	got   []byte
}

func (p *stubParser) ParseWebhook(payload []byte, _ string) (*payment.Event, error) {
	p.got = payload
	return p.event, p.err
}

// newTestRouter wires every route over the given deps, filling defaults.
func newTestRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	deps.JWTSecret = testSecret
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.AuthService == nil {
		deps.AuthService = &stubAuthService{}
	}
	if deps.WebhookParser == nil {
		deps.WebhookParser = &stubParser{}
	}
	router := gin.New()
	SetupRoutes(router, deps)
	return router
}

func tokenFor(t *testing.T, user *domain.User) string {
	t.Helper()
	claims := service.Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newUser(role domain.Role, premium bool) *domain.User {
	return &domain.User{
		ID:        primitive.NewObjectID(),
		Name:      "Camille",
		Email:     "camille@example.com",
		Role:      role,
		Locale:    "fr",
		IsPremium: premium,
	}
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doRequest(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := newJSONRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(router, req)
}
