package service

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"fitforge/server/internal/storage"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrWeekNotFound     = errors.New("program week not found")
	ErrSessionNotFound  = errors.New("program session not found")
	ErrDuplicateSlug    = errors.New("a program with this slug already exists for this locale")
	ErrDuplicateWeek    = errors.New("this program already has a week with this number")
	ErrDuplicateSession = errors.New("this week already has a session with this number")
	ErrPremiumRequired  = errors.New("premium subscription required")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a lowercase, hyphen separated slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ProgramInput carries the editable fields of a program.
type ProgramInput struct {
	Slug          string
	Locale        string
	Title         string
	Description   string
	Level         domain.ProgramLevel
	Goal          string
	DurationWeeks int
	IsPremium     bool
}

// WeekInput carries the editable fields of a week.
type WeekInput struct {
	WeekNumber  int
	Title       string
	Description string
}

// SessionInput carries the editable fields of a session.
type SessionInput struct {
	SessionNumber    int
	Title            string
	Notes            string
	EstimatedMinutes int
	Exercises        []domain.SessionExercise
}

// WeekOutline is a week with its session summaries.
type WeekOutline struct {
	domain.ProgramWeek
	Sessions []SessionSummary `json:"sessions"`
}

// SessionSummary is what anyone may see of a session without opening it.
type SessionSummary struct {
	ID               primitive.ObjectID `json:"id"`
	SessionNumber    int                `json:"sessionNumber"`
	Title            string             `json:"title"`
	EstimatedMinutes int                `json:"estimatedMinutes,omitempty"`
	ExerciseCount    int                `json:"exerciseCount"`
	Locked           bool               `json:"locked"` // premium content the viewer cannot open
}

// ProgramDetail is a program with its full outline.
type ProgramDetail struct {
	Program *domain.Program `json:"program"`
	Weeks   []WeekOutline   `json:"weeks"`
}

// SessionDetail is a session with its exercises resolved.
type SessionDetail struct {
	Session   *domain.ProgramSession `json:"session"`
	Program   *domain.Program        `json:"program"`
	Exercises []domain.Exercise      `json:"exercises"`
}

type ProgramService interface {
	// Admin
	CreateProgram(ctx context.Context, adminID primitive.ObjectID, input ProgramInput) (*domain.Program, error)
	UpdateProgram(ctx context.Context, programID primitive.ObjectID, input ProgramInput) (*domain.Program, error)
	SetPublished(ctx context.Context, programID primitive.ObjectID, published bool) (*domain.Program, error)
	DeleteProgram(ctx context.Context, programID primitive.ObjectID) error
	AddWeek(ctx context.Context, programID primitive.ObjectID, input WeekInput) (*domain.ProgramWeek, error)
	UpdateWeek(ctx context.Context, weekID primitive.ObjectID, input WeekInput) (*domain.ProgramWeek, error)
	DeleteWeek(ctx context.Context, weekID primitive.ObjectID) error
	AddSession(ctx context.Context, weekID primitive.ObjectID, input SessionInput) (*domain.ProgramSession, error)
	UpdateSession(ctx context.Context, sessionID primitive.ObjectID, input SessionInput) (*domain.ProgramSession, error)
	DeleteSession(ctx context.Context, sessionID primitive.ObjectID) error
	GetProgramByID(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error)

	// Catalog
	ListPrograms(ctx context.Context, filter repository.ProgramFilter) ([]domain.Program, error)
	GetProgramDetail(ctx context.Context, viewer *domain.User, slug, locale string) (*ProgramDetail, error)
	GetSession(ctx context.Context, viewer *domain.User, sessionID primitive.ObjectID) (*SessionDetail, error)
}

type programService struct {
	programRepo  repository.ProgramRepository
	weekRepo     repository.ProgramWeekRepository
	sessionRepo  repository.ProgramSessionRepository
	exerciseRepo repository.ExerciseRepository
	progressRepo repository.ProgressRepository
	mediaRepo    repository.MediaRepository
	storage      storage.FileStorage
	tx           repository.Transactor
	logger       *zap.Logger
}

// NewProgramService creates the catalog service.
func NewProgramService(
	programRepo repository.ProgramRepository,
	weekRepo repository.ProgramWeekRepository,
	sessionRepo repository.ProgramSessionRepository,
	exerciseRepo repository.ExerciseRepository,
	progressRepo repository.ProgressRepository,
	mediaRepo repository.MediaRepository,
	fileStorage storage.FileStorage,
	tx repository.Transactor,
	logger *zap.Logger,
) ProgramService {
	return &programService{
		programRepo:  programRepo,
		weekRepo:     weekRepo,
		sessionRepo:  sessionRepo,
		exerciseRepo: exerciseRepo,
		progressRepo: progressRepo,
		mediaRepo:    mediaRepo,
		storage:      fileStorage,
		tx:           tx,
		logger:       logger.Named("program"),
	}
}

// === Programs ===

func validateProgramInput(input *ProgramInput) error {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Locale = strings.ToLower(strings.TrimSpace(input.Locale))
	if !ValidSlug(input.Slug) {
		return fmt.Errorf("%w: slug must contain lowercase letters, digits and single hyphens", ErrValidationFailed)
	}
	if input.Locale == "" {
		return fmt.Errorf("%w: locale is required", ErrValidationFailed)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	switch input.Level {
	case domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced:
	case "":
		input.Level = domain.LevelBeginner
	default:
		return fmt.Errorf("%w: unknown level %q", ErrValidationFailed, input.Level)
	}
	if input.DurationWeeks < 0 {
		return fmt.Errorf("%w: durationWeeks cannot be negative", ErrValidationFailed)
	}
	return nil
}

// CreateProgram creates an unpublished program. The slug must be unused in the locale.
func (s *programService) CreateProgram(ctx context.Context, adminID primitive.ObjectID, input ProgramInput) (*domain.Program, error) {
	if err := validateProgramInput(&input); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, input.Slug, input.Locale, primitive.NilObjectID); err != nil {
		return nil, err
	}

	program := &domain.Program{
		Slug:          input.Slug,
		Locale:        input.Locale,
		Title:         input.Title,
		Description:   input.Description,
		Level:         input.Level,
		Goal:          input.Goal,
		DurationWeeks: input.DurationWeeks,
		IsPremium:     input.IsPremium,
		CreatedBy:     adminID,
	}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	program.ID = id
	s.logger.Info("Program created", zap.String("program_id", id.Hex()), zap.String("slug", program.Slug), zap.String("locale", program.Locale))
	return program, nil
}

// ensureSlugFree checks (slug, locale) is unused by any program other than self.
// The unique index catches the race between this check and the write.
func (s *programService) ensureSlugFree(ctx context.Context, slug, locale string, self primitive.ObjectID) error {
	existing, err := s.programRepo.GetBySlug(ctx, slug, locale)
	switch {
	case err == nil && existing.ID != self:
		return ErrDuplicateSlug
	case err == nil, errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *programService) GetProgramByID(ctx context.Context, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	return program, nil
}

func (s *programService) UpdateProgram(ctx context.Context, programID primitive.ObjectID, input ProgramInput) (*domain.Program, error) {
	if err := validateProgramInput(&input); err != nil {
		return nil, err
	}
	program, err := s.GetProgramByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err = s.ensureSlugFree(ctx, input.Slug, input.Locale, programID); err != nil {
		return nil, err
	}

	program.Slug = input.Slug
	program.Locale = input.Locale
	program.Title = input.Title
	program.Description = input.Description
	program.Level = input.Level
	program.Goal = input.Goal
	program.DurationWeeks = input.DurationWeeks
	program.IsPremium = input.IsPremium

	if err = s.programRepo.Update(ctx, program); err != nil {
		return nil, s.mapProgramWriteError(err)
	}
	return program, nil
}

func (s *programService) SetPublished(ctx context.Context, programID primitive.ObjectID, published bool) (*domain.Program, error) {
	program, err := s.GetProgramByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	program.IsPublished = published
	if err = s.programRepo.Update(ctx, program); err != nil {
		return nil, s.mapProgramWriteError(err)
	}
	s.logger.Info("Program publication changed", zap.String("program_id", programID.Hex()), zap.Bool("published", published))
	return program, nil
}

func (s *programService) mapProgramWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateSlug
	case errors.Is(err, repository.ErrNotFound):
		return ErrProgramNotFound
	default:
		return err
	}
}

// DeleteProgram removes a program with its weeks, sessions, completions and
// uploads. Stored images are removed once the records are gone.
func (s *programService) DeleteProgram(ctx context.Context, programID primitive.ObjectID) error {
	var objectKeys []string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		objectKeys = nil
		program, err := s.programRepo.GetByID(ctx, programID)
		if err != nil {
			return err
		}
		uploads, err := s.mediaRepo.GetByProgramID(ctx, programID)
		if err != nil {
			return err
		}
		objectKeys = uploadKeys(program, uploads)
		if err = s.mediaRepo.DeleteByProgramID(ctx, programID); err != nil {
			return err
		}

		sessions, err := s.sessionRepo.GetByProgramID(ctx, programID)
		if err != nil {
			return err
		}
		if err = s.progressRepo.DeleteBySessionIDs(ctx, sessionIDs(sessions)); err != nil {
			return err
		}
		if err = s.sessionRepo.DeleteByProgramID(ctx, programID); err != nil {
			return err
		}
		if err = s.weekRepo.DeleteByProgramID(ctx, programID); err != nil {
			return err
		}
		return s.programRepo.Delete(ctx, programID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return err
	}
	for _, key := range objectKeys {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("Failed to delete program image",
				zap.String("program_id", programID.Hex()), zap.String("object_key", key), zap.Error(err))
		}
	}
	s.logger.Info("Program deleted", zap.String("program_id", programID.Hex()), zap.Int("objects", len(objectKeys)))
	return nil
}

// uploadKeys lists the storage keys owned by a program, cover first.
func uploadKeys(program *domain.Program, uploads []domain.MediaUpload) []string {
	var keys []string
	seen := map[string]bool{}
	add := func(key string) {
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	add(program.CoverImageKey)
	for _, u := range uploads {
		add(u.ObjectKey)
	}
	return keys
}

// === Weeks ===

func validateWeekInput(input WeekInput) error {
	if input.WeekNumber < 1 {
		return fmt.Errorf("%w: weekNumber must be at least 1", ErrValidationFailed)
	}
	return nil
}

// AddWeek appends a week. Week numbers are unique within a program.
func (s *programService) AddWeek(ctx context.Context, programID primitive.ObjectID, input WeekInput) (*domain.ProgramWeek, error) {
	if err := validateWeekInput(input); err != nil {
		return nil, err
	}
	if _, err := s.GetProgramByID(ctx, programID); err != nil {
		return nil, err
	}
	if err := s.ensureWeekNumberFree(ctx, programID, input.WeekNumber, primitive.NilObjectID); err != nil {
		return nil, err
	}

	week := &domain.ProgramWeek{
		ProgramID:   programID,
		WeekNumber:  input.WeekNumber,
		Title:       input.Title,
		Description: input.Description,
	}
	id, err := s.weekRepo.Create(ctx, week)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateWeek
		}
		return nil, err
	}
	week.ID = id
	return week, nil
}

func (s *programService) ensureWeekNumberFree(ctx context.Context, programID primitive.ObjectID, number int, self primitive.ObjectID) error {
	weeks, err := s.weekRepo.GetByProgramID(ctx, programID)
	if err != nil {
		return err
	}
	for _, w := range weeks {
		if w.WeekNumber == number && w.ID != self {
			return ErrDuplicateWeek
		}
	}
	return nil
}

func (s *programService) getWeek(ctx context.Context, weekID primitive.ObjectID) (*domain.ProgramWeek, error) {
	week, err := s.weekRepo.GetByID(ctx, weekID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, err
	}
	return week, nil
}

// UpdateWeek edits a week. Renumbering also rewrites the week number cached on its sessions.
func (s *programService) UpdateWeek(ctx context.Context, weekID primitive.ObjectID, input WeekInput) (*domain.ProgramWeek, error) {
	if err := validateWeekInput(input); err != nil {
		return nil, err
	}
	week, err := s.getWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	renumbered := week.WeekNumber != input.WeekNumber
	if renumbered {
		if err = s.ensureWeekNumberFree(ctx, week.ProgramID, input.WeekNumber, weekID); err != nil {
			return nil, err
		}
	}

	week.WeekNumber = input.WeekNumber
	week.Title = input.Title
	week.Description = input.Description

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.weekRepo.Update(ctx, week); err != nil {
			return err
		}
		if renumbered {
			return s.sessionRepo.SetWeekNumber(ctx, weekID, week.WeekNumber)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateWeek
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWeekNotFound
		}
		return nil, err
	}
	return week, nil
}

// DeleteWeek removes a week and its sessions.
func (s *programService) DeleteWeek(ctx context.Context, weekID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		sessions, err := s.sessionRepo.GetByWeekID(ctx, weekID)
		if err != nil {
			return err
		}
		if err = s.progressRepo.DeleteBySessionIDs(ctx, sessionIDs(sessions)); err != nil {
			return err
		}
		if err = s.sessionRepo.DeleteByWeekID(ctx, weekID); err != nil {
			return err
		}
		return s.weekRepo.Delete(ctx, weekID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrWeekNotFound
	}
	return err
}

// === Sessions ===

func validateSessionInput(input *SessionInput) error {
	if input.SessionNumber < 1 {
		return fmt.Errorf("%w: sessionNumber must be at least 1", ErrValidationFailed)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if input.EstimatedMinutes < 0 {
		return fmt.Errorf("%w: estimatedMinutes cannot be negative", ErrValidationFailed)
	}
	for i := range input.Exercises {
		ex := &input.Exercises[i]
		if ex.ExerciseID == primitive.NilObjectID {
			return fmt.Errorf("%w: exercise %d has no exerciseId", ErrValidationFailed, i+1)
		}
		if ex.Sets < 0 || ex.Reps < 0 || ex.DurationSeconds < 0 || ex.RestSeconds < 0 {
			return fmt.Errorf("%w: exercise %d has negative values", ErrValidationFailed, i+1)
		}
		if ex.Order == 0 {
			ex.Order = i + 1
		}
	}
	return nil
}

// checkExercisesExist fails when a session references an unknown exercise.
func (s *programService) checkExercisesExist(ctx context.Context, items []domain.SessionExercise) error {
	if len(items) == 0 {
		return nil
	}
	wanted := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		if _, ok := wanted[it.ExerciseID]; !ok {
			wanted[it.ExerciseID] = struct{}{}
			ids = append(ids, it.ExerciseID)
		}
	}
	found, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return fmt.Errorf("%w: %w", ErrValidationFailed, ErrExerciseNotFound)
	}
	return nil
}

func (s *programService) ensureSessionNumberFree(ctx context.Context, weekID primitive.ObjectID, number int, self primitive.ObjectID) error {
	sessions, err := s.sessionRepo.GetByWeekID(ctx, weekID)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if sess.SessionNumber == number && sess.ID != self {
			return ErrDuplicateSession
		}
	}
	return nil
}

// AddSession adds a session to a week. Session numbers are unique within a week.
func (s *programService) AddSession(ctx context.Context, weekID primitive.ObjectID, input SessionInput) (*domain.ProgramSession, error) {
	if err := validateSessionInput(&input); err != nil {
		return nil, err
	}
	week, err := s.getWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if err = s.ensureSessionNumberFree(ctx, weekID, input.SessionNumber, primitive.NilObjectID); err != nil {
		return nil, err
	}
	if err = s.checkExercisesExist(ctx, input.Exercises); err != nil {
		return nil, err
	}

	session := &domain.ProgramSession{
		ProgramID:        week.ProgramID,
		WeekID:           week.ID,
		WeekNumber:       week.WeekNumber,
		SessionNumber:    input.SessionNumber,
		Title:            input.Title,
		Notes:            input.Notes,
		EstimatedMinutes: input.EstimatedMinutes,
		Exercises:        input.Exercises,
	}
	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSession
		}
		return nil, err
	}
	session.ID = id
	return session, nil
}

func (s *programService) getSession(ctx context.Context, sessionID primitive.ObjectID) (*domain.ProgramSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *programService) UpdateSession(ctx context.Context, sessionID primitive.ObjectID, input SessionInput) (*domain.ProgramSession, error) {
	if err := validateSessionInput(&input); err != nil {
		return nil, err
	}
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.SessionNumber != input.SessionNumber {
		if err = s.ensureSessionNumberFree(ctx, session.WeekID, input.SessionNumber, sessionID); err != nil {
			return nil, err
		}
	}
	if err = s.checkExercisesExist(ctx, input.Exercises); err != nil {
		return nil, err
	}

	session.SessionNumber = input.SessionNumber
	session.Title = input.Title
	session.Notes = input.Notes
	session.EstimatedMinutes = input.EstimatedMinutes
	session.Exercises = input.Exercises

	if err = s.sessionRepo.Update(ctx, session); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateSession
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *programService) DeleteSession(ctx context.Context, sessionID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.progressRepo.DeleteBySessionIDs(ctx, []primitive.ObjectID{sessionID}); err != nil {
			return err
		}
		return s.sessionRepo.Delete(ctx, sessionID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// === Catalog ===

func (s *programService) ListPrograms(ctx context.Context, filter repository.ProgramFilter) ([]domain.Program, error) {
	filter.Locale = strings.ToLower(strings.TrimSpace(filter.Locale))
	return s.programRepo.List(ctx, filter)
}

// canSee reports whether viewer may read an unpublished program.
func canSee(viewer *domain.User, program *domain.Program) bool {
	return program.IsPublished || (viewer != nil && viewer.IsAdmin())
}

// canOpen reports whether viewer may open the full content of a session.
func canOpen(viewer *domain.User, program *domain.Program, session *domain.ProgramSession) bool {
	if !program.IsPremium || session.IsPreview() {
		return true
	}
	return viewer != nil && viewer.CanAccessPremium()
}

// GetProgramDetail returns the outline of a published program. viewer may be
// nil for anonymous visitors.
func (s *programService) GetProgramDetail(ctx context.Context, viewer *domain.User, slug, locale string) (*ProgramDetail, error) {
	program, err := s.programRepo.GetBySlug(ctx, strings.ToLower(slug), strings.ToLower(locale))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if !canSee(viewer, program) {
		return nil, ErrProgramNotFound
	}

	weeks, err := s.weekRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessionRepo.GetByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}

	byWeek := make(map[primitive.ObjectID][]SessionSummary, len(weeks))
	for i := range sessions {
		sess := &sessions[i]
		byWeek[sess.WeekID] = append(byWeek[sess.WeekID], SessionSummary{
			ID:               sess.ID,
			SessionNumber:    sess.SessionNumber,
			Title:            sess.Title,
			EstimatedMinutes: sess.EstimatedMinutes,
			ExerciseCount:    len(sess.Exercises),
			Locked:           !canOpen(viewer, program, sess),
		})
	}

	detail := &ProgramDetail{Program: program, Weeks: make([]WeekOutline, 0, len(weeks))}
	for _, w := range weeks {
		summaries := byWeek[w.ID]
		if summaries == nil {
			summaries = []SessionSummary{}
		}
		detail.Weeks = append(detail.Weeks, WeekOutline{ProgramWeek: w, Sessions: summaries})
	}
	return detail, nil
}

// GetSession returns a session with its exercises, enforcing premium gating.
func (s *programService) GetSession(ctx context.Context, viewer *domain.User, sessionID primitive.ObjectID) (*SessionDetail, error) {
	session, program, err := s.openSession(ctx, viewer, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(session.Exercises))
	for _, it := range session.Exercises {
		ids = append(ids, it.ExerciseID)
	}
	exercises, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: session, Program: program, Exercises: exercises}, nil
}

// openSession loads a session and its program and checks viewer may open it.
func (s *programService) openSession(ctx context.Context, viewer *domain.User, sessionID primitive.ObjectID) (*domain.ProgramSession, *domain.Program, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	program, err := s.GetProgramByID(ctx, session.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	if !canSee(viewer, program) {
		return nil, nil, ErrSessionNotFound
	}
	if !canOpen(viewer, program, session) {
		return nil, nil, ErrPremiumRequired
	}
	return session, program, nil
}

func sessionIDs(sessions []domain.ProgramSession) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
