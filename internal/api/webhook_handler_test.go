package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"fitforge/server/internal/payment"
	"fitforge/server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeWebhook(t *testing.T) {
	event := &payment.Event{ID: "evt_1", Type: payment.EventSubscriptionUpdated, SubscriptionID: "sub_1"}

	tests := []struct {
		name        string
		parseErr    error
		outcome     service.EventOutcome
		handleErr   error
		wantStatus  int
		wantOutcome string
	}{
		{name: "processed", outcome: service.OutcomeProcessed, wantStatus: http.StatusOK, wantOutcome: "processed"},
		{name: "replayed", outcome: service.OutcomeDuplicate, wantStatus: http.StatusOK, wantOutcome: "duplicate"},
		{name: "bad signature", parseErr: fmt.Errorf("%w: mismatch", payment.ErrInvalidSignature), wantStatus: http.StatusBadRequest},
		{name: "bad payload", parseErr: payment.ErrInvalidPayload, wantStatus: http.StatusBadRequest},
		{name: "no secret", parseErr: payment.ErrNotConfigured, wantStatus: http.StatusServiceUnavailable},
		{name: "unknown subscriber", handleErr: service.ErrUnknownSubscriber, wantStatus: http.StatusOK, wantOutcome: "ignored"},
		{name: "storage failure", handleErr: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &stubParser{event: event, err: tt.parseErr}
			handled := 0
			premium := &stubPremiumService{
				handleEvent: func(got *payment.Event) (service.EventOutcome, error) {
					handled++
					assert.Equal(t, event, got)
					return tt.outcome, tt.handleErr
				},
			}
			router := newTestRouter(Dependencies{WebhookParser: parser, PremiumService: premium})

			req := newJSONRequest(http.MethodPost, "/api/v1/webhooks/stripe", `{"id":"evt_1"}`)
			req.Header.Set(StripeSignatureHeader, "t=1,v1=abc")
			w := serve(router, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, `{"id":"evt_1"}`, string(parser.got))
			if tt.parseErr != nil {
				assert.Zero(t, handled)
			}
			if tt.wantOutcome != "" {
				assert.JSONEq(t, `{"received":true,"outcome":"`+tt.wantOutcome+`"}`, w.Body.String())
			}
		})
	}
}

func TestStripeWebhookRejectsOversizedBody(t *testing.T) {
	parser := &stubParser{}
	router := newTestRouter(Dependencies{WebhookParser: parser})

	body := `{"pad":"` + strings.Repeat("x", maxWebhookBodyBytes) + `"}`
	w := serve(router, newJSONRequest(http.MethodPost, "/api/v1/webhooks/stripe", body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, parser.got)
}
