package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxfeedback/internal/config"
	"cxfeedback/internal/shared/testutil"
	"cxfeedback/pkg/contracts/events"
)

// newTestApp builds an Application over a CSV copy of the feedback fixture.
func newTestApp(t *testing.T, overrides ...config.Override) (*Application, *config.Config) {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(testutil.FeedbackValues()))

	cfg := config.Default()
	cfg.Sheets.Mode = config.ModeCSV
	cfg.Sheets.LocalPath = testutil.WriteTempFile(t, "feedback.csv", buf.Bytes())
	cfg.Export.OutputDir = t.TempDir()
	cfg.Export.Centers = []string{"TEP", "Buwelo", "WNS"}
	cfg.Telemetry.Enabled = false
	for _, o := range overrides {
		o(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
	return app, cfg
}

func TestNew_Wiring(t *testing.T) {
	app, _ := newTestApp(t)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.ExportService)
	assert.NotNil(t, app.HealthService)
	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, 15*time.Second, app.Server.ReadTimeout)
	assert.Equal(t, 1<<20, app.Server.MaxHeaderBytes)
	assert.Nil(t, app.OTelProviders.PrometheusHTTP)
}

func TestNew_UnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Sheets.Mode = "carrier-pigeon"
	cfg.Telemetry.Enabled = false
	var overrides []config.Override
	for _, o := range overrides {
		o(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	_, err := New(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		contentType string
		contains    string
	}{
		{"health", "/api/health", http.StatusOK, "application/json", `"status"`},
		{"liveness", "/api/health/live", http.StatusOK, "application/json", `"alive"`},
		{"readiness", "/api/health/ready", http.StatusOK, "application/json", `"ready"`},
		{"stats", "/api/health/stats", http.StatusOK, "application/json", `"websocket"`},
		{"version", "/api/version", http.StatusOK, "application/json", `"version"`},
		{"centers", "/api/centers", http.StatusOK, "application/json", `"Buwelo"`},
		{"recent", "/api/feedback/recent?days=1", http.StatusOK, "application/json", `"days":1`},
		{"index page", "/", http.StatusOK, "text/html", "Call Center Feedback Export"},
		{"recent page", "/recent", http.StatusOK, "text/html", "Recent Feedback"},
		{"unknown api route", "/api/nope", http.StatusNotFound, "application/json", `"status":404`},
		{"metrics disabled", "/metrics", http.StatusNotFound, "application/json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			app.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func postExport(t *testing.T, app *Application, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/exports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestExport_ArchivesFiles(t *testing.T) {
	archive := t.TempDir()
	app, _ := newTestApp(t, func(c *config.Config) { c.Export.ArchiveDir = archive })

	rec := postExport(t, app, `{"start_date":"2025-03-01","end_date":"2025-03-08","center":"tep"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		State     string   `json:"state"`
		Count     int      `json:"count"`
		Center    string   `json:"center"`
		Delivered []string `json:"delivered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.State)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "TEP", resp.Center)

	entries, err := os.ReadDir(archive)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Ext(e.Name()))
	}
	assert.ElementsMatch(t, []string{".csv", ".xlsx"}, names)
}

func TestExport_NotStoredWithoutArchive(t *testing.T) {
	app, cfg := newTestApp(t)
	require.Empty(t, cfg.Export.ArchiveDir)

	rec := postExport(t, app, `{"start_date":"2025-03-01","end_date":"2025-03-08","center":"TEP"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		State     string `json:"state"`
		Artifacts []struct {
			Format        string `json:"format"`
			ContentBase64 string `json:"content_base64"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.State)
	var formats []string
	for _, a := range resp.Artifacts {
		formats = append(formats, a.Format)
	}
	assert.Contains(t, formats, "xlsx")

	dl := httptest.NewRecorder()
	app.Router.ServeHTTP(dl, httptest.NewRequest(http.MethodGet,
		"/api/exports/xlsx?start_date=2025-03-01&end_date=2025-03-08&center=TEP", nil))
	require.Equal(t, http.StatusOK, dl.Code, dl.Body.String())

	entries, err := os.ReadDir(cfg.Export.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "web exports are not written to disk")
}

func TestExport_Download(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/exports/csv?start_date=2025-03-01&end_date=2025-03-08&center=Buwelo", nil)
	rec := httptest.NewRecorder()

	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "1", rec.Header().Get("X-Feedback-Rows"))
	assert.Contains(t, rec.Body.String(), "Long hold")
}

func TestExport_CORSExposesDownloadHeaders(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/exports", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Feedback-Rows")
}

func TestWebSocket_StatusFeed(t *testing.T) {
	app, _ := newTestApp(t)

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, events.MessageTypeConnect, msg.Type)

	// A submission publishes loading and then its outcome.
	body := `{"start_date":"2025-03-01","end_date":"2025-03-08","center":"WNS"}`
	res, err := http.Post(srv.URL+"/api/exports", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var statuses []string
	for len(statuses) < 2 {
		var m struct {
			Type events.MessageType      `json:"type"`
			Data events.SubmissionStatus `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == events.MessageTypeSubmission {
			statuses = append(statuses, m.Data.Status)
		}
	}
	assert.Equal(t, []string{events.StatusLoading, "empty"}, statuses)
}
