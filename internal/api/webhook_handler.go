package api

import (
	"errors"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/service"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBodyBytes bounds the payload read before signature verification.
const maxWebhookBodyBytes = 64 << 10

// StripeSignatureHeader is the header carrying the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

// WebhookHandler receives billing events from the payment provider.
type WebhookHandler struct {
	parser         WebhookParser
	premiumService service.PremiumService
	logger         *zap.Logger
}

// WebhookParser verifies and decodes a raw webhook. payment.Provider satisfies it.
type WebhookParser interface {
	ParseWebhook(payload []byte, signatureHeader string) (*payment.Event, error)
}

func NewWebhookHandler(parser WebhookParser, premiumService service.PremiumService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, premiumService: premiumService, logger: logger.Named("webhook")}
}

// Stripe godoc
// @Summary Stripe webhook endpoint
// @Description Verifies the signature and reconciles the subscription. Replayed events are acknowledged without effect.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} gin.H "Event acknowledged"
// @Failure 400 {object} gin.H "Bad signature or payload"
// @Failure 500 {object} gin.H "Processing failed, the provider will retry"
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read request body.")
		return
	}
	if len(payload) > maxWebhookBodyBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "Payload too large.")
		return
	}

	event, err := h.parser.ParseWebhook(payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotConfigured):
			h.logger.Error("Webhook received but no webhook secret is configured")
			abortWithError(c, http.StatusServiceUnavailable, "Webhooks are not configured.")
		case errors.Is(err, payment.ErrInvalidSignature):
			h.logger.Warn("Rejected webhook with invalid signature", zap.Error(err))
			abortWithError(c, http.StatusBadRequest, "Invalid signature.")
		default:
			h.logger.Warn("Rejected malformed webhook", zap.Error(err))
			abortWithError(c, http.StatusBadRequest, "Invalid payload.")
		}
		return
	}

	outcome, err := h.premiumService.HandleEvent(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSubscriber) {
			// Retrying will not help; acknowledge so the provider stops.
			h.logger.Warn("Webhook event matches no user",
				zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
			c.JSON(http.StatusOK, gin.H{"received": true, "outcome": service.OutcomeIgnored})
			return
		}
		h.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to process event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
