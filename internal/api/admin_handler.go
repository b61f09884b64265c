// internal/api/admin_handler.go
package api

import (
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/repository"
	"fitforge/server/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminHandler manages the program catalog and subscription plans.
type AdminHandler struct {
	programService service.ProgramService
	mediaService   service.MediaService
	premiumService service.PremiumService
	logger         *zap.Logger
}

func NewAdminHandler(
	programService service.ProgramService,
	mediaService service.MediaService,
	premiumService service.PremiumService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		programService: programService,
		mediaService:   mediaService,
		premiumService: premiumService,
		logger:         logger,
	}
}

// --- DTOs for Catalog Management ---

type ProgramRequest struct {
	Slug          string              `json:"slug" binding:"required,slug,max=80"`
	Locale        string              `json:"locale" binding:"required,oneof=fr en"`
	Title         string              `json:"title" binding:"required,max=120"`
	Description   string              `json:"description"`
	Level         domain.ProgramLevel `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Goal          string              `json:"goal"`
	DurationWeeks int                 `json:"durationWeeks" binding:"min=0,max=52"`
	IsPremium     bool                `json:"isPremium"`
}

type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

type WeekRequest struct {
	WeekNumber  int    `json:"weekNumber" binding:"required,min=1"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SessionExerciseRequest struct {
	ExerciseID      string `json:"exerciseId" binding:"required"`
	Order           int    `json:"order" binding:"min=0"`
	Sets            int    `json:"sets" binding:"min=0"`
	Reps            int    `json:"reps" binding:"min=0"`
	DurationSeconds int    `json:"durationSeconds" binding:"min=0"`
	RestSeconds     int    `json:"restSeconds" binding:"min=0"`
	Notes           string `json:"notes"`
}

type SessionRequest struct {
	SessionNumber    int                      `json:"sessionNumber" binding:"required,min=1"`
	Title            string                   `json:"title" binding:"required,max=120"`
	Notes            string                   `json:"notes"`
	EstimatedMinutes int                      `json:"estimatedMinutes" binding:"min=0"`
	Exercises        []SessionExerciseRequest `json:"exercises" binding:"dive"`
}

type CoverUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type CoverConfirmRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"min=0"`
}

type PlanRequest struct {
	Code          string                 `json:"code" binding:"required"`
	Name          string                 `json:"name" binding:"required"`
	StripePriceID string                 `json:"stripePriceId" binding:"required"`
	Interval      domain.BillingInterval `json:"interval" binding:"required,oneof=month year"`
	AmountCents   int64                  `json:"amountCents" binding:"required,gt=0"`
	Currency      string                 `json:"currency" binding:"required,len=3"`
	IsActive      bool                   `json:"isActive"`
}

type PlanResponse struct {
	domain.SubscriptionPlan
	StripePriceID string `json:"stripePriceId"` // hidden on the public plan list
}

func (r ProgramRequest) toInput() service.ProgramInput {
	return service.ProgramInput{
		Slug:          r.Slug,
		Locale:        r.Locale,
		Title:         r.Title,
		Description:   r.Description,
		Level:         r.Level,
		Goal:          r.Goal,
		DurationWeeks: r.DurationWeeks,
		IsPremium:     r.IsPremium,
	}
}

func (r SessionRequest) toInput() (service.SessionInput, error) {
	in := service.SessionInput{
		SessionNumber:    r.SessionNumber,
		Title:            r.Title,
		Notes:            r.Notes,
		EstimatedMinutes: r.EstimatedMinutes,
		Exercises:        make([]domain.SessionExercise, 0, len(r.Exercises)),
	}
	for _, ex := range r.Exercises {
		id, err := primitive.ObjectIDFromHex(ex.ExerciseID)
		if err != nil {
			return in, errors.New("invalid exerciseId format: " + ex.ExerciseID)
		}
		in.Exercises = append(in.Exercises, domain.SessionExercise{
			ExerciseID:      id,
			Order:           ex.Order,
			Sets:            ex.Sets,
			Reps:            ex.Reps,
			DurationSeconds: ex.DurationSeconds,
			RestSeconds:     ex.RestSeconds,
			Notes:           ex.Notes,
		})
	}
	return in, nil
}

// --- Programs ---

// CreateProgram godoc
// @Summary Create a program
// @Description Programs start unpublished. Slugs are unique per locale.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program details"
// @Success 201 {object} ProgramResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Slug already used in this locale"
// @Router /admin/programs [post]
func (h *AdminHandler) CreateProgram(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	adminID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), adminID, req.toInput())
	if err != nil {
		h.handleError(c, err, "Failed to create program.")
		return
	}
	c.JSON(http.StatusCreated, mapProgram(c.Request.Context(), h.mediaService, program))
}

// ListPrograms lists every program of a locale, drafts included.
func (h *AdminHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programService.ListPrograms(c.Request.Context(), repository.ProgramFilter{
		Locale: c.Query("locale"),
		Level:  domain.ProgramLevel(c.Query("level")),
	})
	if err != nil {
		h.handleError(c, err, "Failed to retrieve programs.")
		return
	}
	resp := make([]ProgramResponse, len(programs))
	for i := range programs {
		resp[i] = mapProgram(c.Request.Context(), h.mediaService, &programs[i])
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgram returns one program whatever its publication state.
func (h *AdminHandler) GetProgram(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	program, err := h.programService.GetProgramByID(c.Request.Context(), programID)
	if err != nil {
		h.handleError(c, err, "Failed to get program.")
		return
	}
	c.JSON(http.StatusOK, mapProgram(c.Request.Context(), h.mediaService, program))
}

func (h *AdminHandler) UpdateProgram(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), programID, req.toInput())
	if err != nil {
		h.handleError(c, err, "Failed to update program.")
		return
	}
	c.JSON(http.StatusOK, mapProgram(c.Request.Context(), h.mediaService, program))
}

func (h *AdminHandler) PublishProgram(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.SetPublished(c.Request.Context(), programID, *req.Published)
	if err != nil {
		h.handleError(c, err, "Failed to publish program.")
		return
	}
	c.JSON(http.StatusOK, mapProgram(c.Request.Context(), h.mediaService, program))
}

// DeleteProgram removes the program with its weeks, sessions and member progress.
func (h *AdminHandler) DeleteProgram(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	if err := h.programService.DeleteProgram(c.Request.Context(), programID); err != nil {
		h.handleError(c, err, "Failed to delete program.")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Weeks ---

func (h *AdminHandler) AddWeek(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	week, err := h.programService.AddWeek(c.Request.Context(), programID, service.WeekInput(req))
	if err != nil {
		h.handleError(c, err, "Failed to add week.")
		return
	}
	c.JSON(http.StatusCreated, week)
}

func (h *AdminHandler) UpdateWeek(c *gin.Context) {
	weekID, ok := parseObjectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req WeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	week, err := h.programService.UpdateWeek(c.Request.Context(), weekID, service.WeekInput(req))
	if err != nil {
		h.handleError(c, err, "Failed to update week.")
		return
	}
	c.JSON(http.StatusOK, week)
}

func (h *AdminHandler) DeleteWeek(c *gin.Context) {
	weekID, ok := parseObjectIDParam(c, "weekId")
	if !ok {
		return
	}
	if err := h.programService.DeleteWeek(c.Request.Context(), weekID); err != nil {
		h.handleError(c, err, "Failed to delete week.")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Sessions ---

// AddSession godoc
// @Summary Add a session to a week
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weekId path string true "Week ID"
// @Param session body SessionRequest true "Session details"
// @Success 201 {object} domain.ProgramSession
// @Failure 400 {object} gin.H "Invalid input or unknown exercise"
// @Failure 409 {object} gin.H "Session number already used in this week"
// @Router /admin/weeks/{weekId}/sessions [post]
func (h *AdminHandler) AddSession(c *gin.Context) {
	weekID, ok := parseObjectIDParam(c, "weekId")
	if !ok {
		return
	}
	input, ok := bindSession(c)
	if !ok {
		return
	}

	session, err := h.programService.AddSession(c.Request.Context(), weekID, input)
	if err != nil {
		h.handleError(c, err, "Failed to add session.")
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *AdminHandler) UpdateSession(c *gin.Context) {
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}
	input, ok := bindSession(c)
	if !ok {
		return
	}

	session, err := h.programService.UpdateSession(c.Request.Context(), sessionID, input)
	if err != nil {
		h.handleError(c, err, "Failed to update session.")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AdminHandler) DeleteSession(c *gin.Context) {
	sessionID, ok := parseObjectIDParam(c, "sessionId")
	if !ok {
		return
	}
	if err := h.programService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		h.handleError(c, err, "Failed to delete session.")
		return
	}
	c.Status(http.StatusNoContent)
}

func bindSession(c *gin.Context) (service.SessionInput, bool) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return service.SessionInput{}, false
	}
	input, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return service.SessionInput{}, false
	}
	return input, true
}

// --- Cover images ---

// RequestCoverUpload godoc
// @Summary Get a presigned URL to upload a program cover
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Param body body CoverUploadRequest true "File details"
// @Success 200 {object} service.UploadTicket
// @Failure 415 {object} gin.H "Unsupported image type"
// @Router /admin/programs/{programId}/cover/upload-url [post]
func (h *AdminHandler) RequestCoverUpload(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	var req CoverUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ticket, err := h.mediaService.RequestCoverUpload(c.Request.Context(), programID, req.FileName, req.ContentType)
	if err != nil {
		h.handleError(c, err, "Failed to prepare upload.")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ConfirmCoverUpload records the uploaded object as the program cover.
func (h *AdminHandler) ConfirmCoverUpload(c *gin.Context) {
	programID, ok := parseObjectIDParam(c, "programId")
	if !ok {
		return
	}
	var req CoverConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	adminID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	upload, err := h.mediaService.ConfirmCoverUpload(c.Request.Context(), adminID, programID,
		req.ObjectKey, req.FileName, req.ContentType, req.Size)
	if err != nil {
		h.handleError(c, err, "Failed to confirm upload.")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// --- Plans ---

// UpsertPlan creates or updates a subscription plan identified by its code.
func (h *AdminHandler) UpsertPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.premiumService.UpsertPlan(c.Request.Context(), service.PlanInput(req))
	if err != nil {
		h.handleError(c, err, "Failed to save plan.")
		return
	}
	c.JSON(http.StatusOK, PlanResponse{SubscriptionPlan: *plan, StripePriceID: plan.StripePriceID})
}

func (h *AdminHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedMediaType):
		abortWithError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrMediaNotUploaded), errors.Is(err, service.ErrMediaKeyMismatch):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrWeekNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateSlug),
		errors.Is(err, service.ErrDuplicateWeek),
		errors.Is(err, service.ErrDuplicateSession),
		errors.Is(err, service.ErrDuplicatePlan):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
