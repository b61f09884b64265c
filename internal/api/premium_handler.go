package api

import (
	"errors"
	"fitforge/server/internal/domain"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PremiumHandler serves plans and the member's subscription management.
type PremiumHandler struct {
	premiumService service.PremiumService
	logger         *zap.Logger
}

func NewPremiumHandler(premiumService service.PremiumService, logger *zap.Logger) *PremiumHandler {
	return &PremiumHandler{premiumService: premiumService, logger: logger}
}

type CheckoutRequest struct {
	PlanCode string `json:"planCode" binding:"required"`
}

// RedirectResponse carries a hosted page the client should open.
type RedirectResponse struct {
	URL string `json:"url"`
}

// ListPlans godoc
// @Summary List purchasable premium plans
// @Tags Premium
// @Produce json
// @Success 200 {array} domain.SubscriptionPlan
// @Router /premium/plans [get]
func (h *PremiumHandler) ListPlans(c *gin.Context) {
	plans, err := h.premiumService.ListPlans(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to retrieve plans.")
		return
	}
	if plans == nil {
		plans = []domain.SubscriptionPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// Status returns the caller's premium flag and latest subscription.
// @Router /premium/status [get]
func (h *PremiumHandler) Status(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	status, err := h.premiumService.Status(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "Failed to retrieve premium status.")
		return
	}
	c.JSON(http.StatusOK, status)
}

// StartCheckout godoc
// @Summary Start a premium checkout
// @Description Returns the hosted checkout URL. Premium is granted when the payment provider confirms the subscription.
// @Tags Premium
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckoutRequest true "Plan to subscribe to"
// @Success 200 {object} RedirectResponse
// @Failure 404 {object} gin.H "Unknown or inactive plan"
// @Failure 409 {object} gin.H "Already premium"
// @Failure 503 {object} gin.H "Billing not configured"
// @Router /premium/checkout [post]
func (h *PremiumHandler) StartCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}

	url, err := h.premiumService.StartCheckout(c.Request.Context(), userID, req.PlanCode)
	if err != nil {
		h.handleError(c, err, "Failed to start checkout.")
		return
	}
	c.JSON(http.StatusOK, RedirectResponse{URL: url})
}

func (h *PremiumHandler) OpenBillingPortal(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	url, err := h.premiumService.OpenBillingPortal(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "Failed to open billing portal.")
		return
	}
	c.JSON(http.StatusOK, RedirectResponse{URL: url})
}

// Cancel stops renewal. Access lasts until the end of the paid period.
func (h *PremiumHandler) Cancel(c *gin.Context) {
	userID, ok := getUserObjectID(c)
	if !ok {
		return
	}
	sub, err := h.premiumService.CancelAtPeriodEnd(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err, "Failed to cancel subscription.")
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *PremiumHandler) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyPremium):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoBillingAccount), errors.Is(err, service.ErrNoActiveSubscription):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusUnauthorized, "Account no longer exists.")
	case errors.Is(err, payment.ErrNotConfigured):
		abortWithError(c, http.StatusServiceUnavailable, "Billing is not available.")
	default:
		h.logger.Error(fallback, zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
