package api

import (
	"context"
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"fitforge/server/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler serves the program catalog and member progress.
type CatalogHandler struct {
	authService     service.AuthService
	programService  service.ProgramService
	progressService service.ProgressService
	mediaService    service.MediaService
	logger          *zap.Logger
}

func NewCatalogHandler(
	authService service.AuthService,
	programService service.ProgramService,
	progressService service.ProgressService,
	mediaService service.MediaService,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		authService:     authService,
		programService:  programService,
		progressService: progressService,
		mediaService:    mediaService,
		logger:          logger,
	}
}

// --- DTOs ---

type ProgramResponse struct {
	ID            string              `json:"id"`
	Slug          string              `json:"slug"`
	Locale        string              `json:"locale"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Level         domain.ProgramLevel `json:"level"`
	Goal          string              `json:"goal,omitempty"`
	DurationWeeks int                 `json:"durationWeeks"`
	IsPremium     bool                `json:"isPremium"`
	IsPublished   bool                `json:"isPublished"`
	CoverURL      string              `json:"coverUrl,omitempty"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type ProgramDetailResponse struct {
	ProgramResponse
	Weeks []service.WeekOutline `json:"weeks"`
}

type SessionResponse struct {
	ID               string                   `json:"id"`
	ProgramID        string                   `json:"programId"`
	ProgramSlug      string                   `json:"programSlug"`
	WeekNumber       int                      `json:"weekNumber"`
	SessionNumber    int                      `json:"sessionNumber"`
	Title            string                   `json:"title"`
	Notes            string                   `json:"notes,omitempty"`
	EstimatedMinutes int                      `json:"estimatedMinutes,omitempty"`
	Exercises        []domain.SessionExercise `json:"exercises"`
	Library          []ExerciseResponse       `json:"library"` // exercises referenced above
}

type CompleteSessionRequest struct {
	PerceivedEffort int    `json:"perceivedEffort" binding:"omitempty,min=1,max=10"`
	Notes           string `json:"notes" binding:"max=500"`
}

type ProgressResponse struct {
	Summary     *domain.ProgramProgress  `json:"summary"`
	Completions []domain.SessionProgress `json:"completions"`
}

// mapProgram converts a program, attaching a presigned cover URL when it has one.
func mapProgram(ctx context.Context, media service.MediaService, p *domain.Program) ProgramResponse {
	resp := ProgramResponse{
		ID:            p.ID.Hex(),
		Slug:          p.Slug,
		Locale:        p.Locale,
		Title:         p.Title,
		Description:   p.Description,
		Level:         p.Level,
		Goal:          p.Goal,
		DurationWeeks: p.DurationWeeks,
		IsPremium:     p.IsPremium,
		IsPublished:   p.IsPublished,
		UpdatedAt:     p.UpdatedAt,
	}
	if media != nil && p.CoverImageKey != "" {
		if url, err := media.CoverURL(ctx, p); err == nil {
			resp.CoverURL = url
		}
	}
	return resp
}

// --- Handlers ---

// ListPrograms godoc
// @Summary List published programs
// @Tags Programs
// @Produce json
// @Param locale query string false "Locale, defaults to the caller's or fr"
// @Param level query string false "beginner, intermediate or advanced"
// @Param premium query bool false "Only premium (true) or only free (false) programs"
// @Success 200 {array} ProgramResponse
// @Router /programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	viewer, ok := loadOptionalUser(c, h.authService)
	if !ok {
		return
	}

	filter := repository.ProgramFilter{
		Locale:        c.Query("locale"),
		Level:         domain.ProgramLevel(c.Query("level")),
		PublishedOnly: true,
	}
	if filter.Locale == "" {
		filter.Locale = service.DefaultLocale
		if viewer != nil && viewer.Locale != "" {
			filter.Locale = viewer.Locale
		}
	}
	if raw := c.Query("premium"); raw != "" {
		premium, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "premium must be true or false")
			return
		}
		filter.Premium = &premium
	}

	programs, err := h.programService.ListPrograms(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list programs", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve programs.")
		return
	}
	resp := make([]ProgramResponse, len(programs))
	for i := range programs {
		resp[i] = mapProgram(c.Request.Context(), h.mediaService, &programs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgram godoc
// @Summary Get a program outline
// @Description Weeks and session summaries. Sessions the caller cannot open are flagged locked.
// @Tags Programs
// @Produce json
// @Param locale path string true "Locale"
// @Param slug path string true "Program slug"
// @Success 200 {object} ProgramDetailResponse
// @Failure 404 {object} gin.H "Program not found"
// @Router /programs/{locale}/{slug} [get]
func (h *CatalogHandler) GetProgram(c *gin.Context) {
	viewer, ok := loadOptionalUser(c, h.authService)
	if !ok {
		return
	}
	detail, err := h.programService.GetProgramDetail(c.Request.Context(), viewer, c.Param("slug"), c.Param("locale"))
	if err != nil {
		h.handleError(c, err, "Failed to retrieve program.")
		return
	}
	c.JSON(http.StatusOK, ProgramDetailResponse{
		ProgramResponse: mapProgram(c.Request.Context(), h.mediaService, detail.Program),
		Weeks:           detail.Weeks,
	})
}

// GetSession godoc
// @Summary Open a program session
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 402 {object} gin.H "Premium subscription required"
// @Failure 404 {object} gin.H "Session not found"
// @Router /sessions/{sessionId} [get]
func (h *CatalogHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}
	user, ok := loadCurrentUser(c, h.authService)
	if !ok {
		return
	}

	detail, err := h.programService.GetSession(c.Request.Context(), user, sessionID)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve session.")
		return
	}
	s := detail.Session
	c.JSON(http.StatusOK, SessionResponse{
		ID:               s.ID.Hex(),
		ProgramID:        s.ProgramID.Hex(),
		ProgramSlug:      detail.Program.Slug,
		WeekNumber:       s.WeekNumber,
		SessionNumber:    s.SessionNumber,
		Title:            s.Title,
		Notes:            s.Notes,
		EstimatedMinutes: s.EstimatedMinutes,
		Exercises:        s.Exercises,
		Library:          MapExercisesToResponse(detail.Exercises),
	})
}

// CompleteSession marks a session as done for the caller.
// @Router /sessions/{sessionId}/complete [post]
func (h *CatalogHandler) CompleteSession(c *gin.Context) {
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}
	var req CompleteSessionRequest
	// Empty body is allowed.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	user, ok := loadCurrentUser(c, h.authService)
	if !ok {
		return
	}

	entry, err := h.progressService.CompleteSession(c.Request.Context(), user, sessionID, service.CompletionInput{
		PerceivedEffort: req.PerceivedEffort,
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(c, err, "Failed to record completion.")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetProgress returns the caller's completions and summary for a program.
// @Router /me/progress/{programId} [get]
func (h *CatalogHandler) GetProgress(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	user, ok := loadCurrentUser(c, h.authService)
	if !ok {
		return
	}

	summary, err := h.progressService.Summary(c.Request.Context(), user, programID)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve progress.")
		return
	}
	completions, err := h.progressService.ListCompletions(c.Request.Context(), user, programID)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve progress.")
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{Summary: summary, Completions: completions})
}

func (h *CatalogHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPremiumRequired):
		abortWithError(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrProgramNotFound), errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
