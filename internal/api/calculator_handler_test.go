package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"fitforge/server/internal/calculator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBMIEndpoint(t *testing.T) {
	router := newTestRouter(Dependencies{})

	w := doRequest(router, http.MethodPost, "/api/v1/calculators/bmi", `{"weight":70,"height":175}`, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BMIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 22.9, resp.BMI, 0.001)
	assert.Equal(t, calculator.Normal, resp.Category)
	assert.InDelta(t, 56.7, resp.HealthyWeightMin, 0.001)
	assert.InDelta(t, 76.3, resp.HealthyWeightMax, 0.001)
}

func TestBMIEndpointRejectsBadInput(t *testing.T) {
	router := newTestRouter(Dependencies{})

	for name, body := range map[string]string{
		"missing height":      `{"weight":70}`,
		"unknown units":       `{"units":"stone","weight":70,"height":175}`,
		"height out of range": `{"weight":70,"height":400}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/v1/calculators/bmi", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestCaloriesEndpoint(t *testing.T) {
	router := newTestRouter(Dependencies{})
	body := `{"sex":"male","age":30,"weight":80,"height":180,"activity":"moderate","goal":"maintain"}`

	w := doRequest(router, http.MethodPost, "/api/v1/calculators/calories", body, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp)
}

func TestCaloriesEndpointUnknownActivity(t *testing.T) {
	router := newTestRouter(Dependencies{})
	body := `{"sex":"female","age":30,"weight":60,"height":165,"activity":"couch"}`

	w := doRequest(router, http.MethodPost, "/api/v1/calculators/calories", body, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
