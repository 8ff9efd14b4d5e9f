package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/services"
	"cxfeedback/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService("v1.0.0-test", "2025-03-08T00:00:00Z", nil, logger)
	svc.Register("source", services.SourceCheck("csv", "testdata/feedback.csv"))
	handler := NewHealthHandler(svc, logger)

	tests := []struct {
		name          string
		handlerFunc   http.HandlerFunc
		checkResponse func(t *testing.T, body map[string]interface{})
	}{
		{
			name:        "health",
			handlerFunc: handler.HealthCheck,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, "v1.0.0-test", body["version"])
			},
		},
		{
			name:        "readiness",
			handlerFunc: handler.ReadinessCheck,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ready", body["status"])
				assert.Contains(t, body["services"], "source")
				assert.Contains(t, body["services"], "websocket")
			},
		},
		{
			name:        "liveness",
			handlerFunc: handler.LivenessCheck,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "alive", body["status"])
				assert.Contains(t, body, "runtime")
			},
		},
		{
			name:        "version",
			handlerFunc: handler.Version,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "v1.0.0-test", body["version"])
				assert.Equal(t, "2025-03-08T00:00:00Z", body["build_time"])
			},
		},
		{
			name:        "stats",
			handlerFunc: handler.Stats,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Contains(t, body, "readiness")
				assert.Contains(t, body, "stats")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handlerFunc(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			tt.checkResponse(t, body)
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService("v1.0.0-test", "", nil, logger)
	svc.Register("source", func(context.Context) services.ServiceHealth {
		return services.ServiceHealth{Status: "not_ready", Message: "no feedback source configured"}
	})
	handler := NewHealthHandler(svc, logger)

	rec := httptest.NewRecorder()
	handler.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body["status"])
}
