package service

import (
	"context"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CompletionInput is what a user reports when finishing a session.
type CompletionInput struct {
	PerceivedEffort int // 0 when not reported, otherwise 1-10
	Notes           string
}

type ProgressService interface {
	CompleteSession(ctx context.Context, user *domain.User, sessionID primitive.ObjectID, input CompletionInput) (*domain.SessionProgress, error)
	ListCompletions(ctx context.Context, user *domain.User, programID primitive.ObjectID) ([]domain.SessionProgress, error)
	Summary(ctx context.Context, user *domain.User, programID primitive.ObjectID) (*domain.ProgramProgress, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	sessionRepo  repository.ProgramSessionRepository
	programs     ProgramService
	logger       *zap.Logger
	now          func() time.Time
}

// NewProgressService creates the progress service. Session access goes
// through programs so completions follow the same premium gating as reads.
func NewProgressService(progressRepo repository.ProgressRepository, sessionRepo repository.ProgramSessionRepository, programs ProgramService, logger *zap.Logger) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		sessionRepo:  sessionRepo,
		programs:     programs,
		logger:       logger.Named("progress"),
		now:          time.Now,
	}
}

// CompleteSession records (or refreshes) the user's completion of a session.
func (s *progressService) CompleteSession(ctx context.Context, user *domain.User, sessionID primitive.ObjectID, input CompletionInput) (*domain.SessionProgress, error) {
	if input.PerceivedEffort < 0 || input.PerceivedEffort > 10 {
		return nil, fmt.Errorf("%w: perceivedEffort must be between 1 and 10", ErrValidationFailed)
	}
	detail, err := s.programs.GetSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	progress := &domain.SessionProgress{
		UserID:          user.ID,
		ProgramID:       detail.Session.ProgramID,
		SessionID:       detail.Session.ID,
		CompletedAt:     s.now().UTC(),
		PerceivedEffort: input.PerceivedEffort,
		Notes:           input.Notes,
	}
	if err = s.progressRepo.Upsert(ctx, progress); err != nil {
		return nil, err
	}
	s.logger.Debug("Session completed", zap.String("user_id", user.ID.Hex()), zap.String("session_id", sessionID.Hex()))
	return progress, nil
}

// visibleProgram checks that the user may see the program. Drafts read as
// missing to members, like the catalog does.
func (s *progressService) visibleProgram(ctx context.Context, user *domain.User, programID primitive.ObjectID) error {
	program, err := s.programs.GetProgramByID(ctx, programID)
	if err != nil {
		return err
	}
	if !canSee(user, program) {
		return ErrProgramNotFound
	}
	return nil
}

func (s *progressService) ListCompletions(ctx context.Context, user *domain.User, programID primitive.ObjectID) ([]domain.SessionProgress, error) {
	if err := s.visibleProgram(ctx, user, programID); err != nil {
		return nil, err
	}
	return s.progressRepo.GetByUserAndProgram(ctx, user.ID, programID)
}

// Summary counts completed sessions against the program's current sessions.
// Completions of sessions deleted since are not counted.
func (s *progressService) Summary(ctx context.Context, user *domain.User, programID primitive.ObjectID) (*domain.ProgramProgress, error) {
	if err := s.visibleProgram(ctx, user, programID); err != nil {
		return nil, err
	}
	total, err := s.sessionRepo.CountByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	entries, err := s.progressRepo.GetByUserAndProgram(ctx, user.ID, programID)
	if err != nil {
		return nil, err
	}

	summary := &domain.ProgramProgress{
		ProgramID:         programID,
		CompletedSessions: len(entries),
		TotalSessions:     int(total),
	}
	if summary.CompletedSessions > summary.TotalSessions {
		summary.CompletedSessions = summary.TotalSessions
	}
	if summary.TotalSessions > 0 {
		pct := float64(summary.CompletedSessions) / float64(summary.TotalSessions) * 100
		summary.Percent = math.Round(pct*10) / 10
	}
	for i := range entries {
		if summary.LastCompletedAt == nil || entries[i].CompletedAt.After(*summary.LastCompletedAt) {
			t := entries[i].CompletedAt
			summary.LastCompletedAt = &t
		}
	}
	return summary, nil
}
