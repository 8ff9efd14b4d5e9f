package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/shared/testutil"
)

func TestClientLogHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedLevel  slog.Level
		expectedMsg    string
	}{
		{
			name:           "clipboard fallback warning",
			body:           `{"level":"warn","message":"clipboard unavailable, showing text box","source":"index","data":{"reason":"NotAllowedError"}}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelWarn,
			expectedMsg:    "clipboard unavailable, showing text box",
		},
		{
			name:           "error level",
			body:           `{"level":"error","message":"export request failed","source":"index"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelError,
			expectedMsg:    "export request failed",
		},
		{
			name:           "unknown level logs at info",
			body:           `{"level":"fatal","message":"page loaded"}`,
			expectedStatus: http.StatusOK,
			expectedLevel:  slog.LevelInfo,
			expectedMsg:    "page loaded",
		},
		{
			name:           "invalid JSON",
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "empty body",
			body:           "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewClientLogHandler(logger)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.Handle(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, false, response["success"])
				return
			}
			assert.Equal(t, true, response["success"])
			testutil.AssertLogContains(t, logs, tt.expectedLevel, tt.expectedMsg)
		})
	}
}
