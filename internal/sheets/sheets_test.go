package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cxfeedback/internal/config"
	"cxfeedback/internal/grid"
	"cxfeedback/internal/shared/testutil"
)

const sheetID = "1kjUS4purNu0_r0dSYO3knyMb8DqVPkFRpue8VcaoxeA"

func valuesServer(t *testing.T, status int, body string, seen func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const valuesBody = `{
  "range": "'2026'!A1:L4",
  "majorDimension": "ROWS",
  "values": [
    ["Timestamp", "Agent", "Call Center", "Comment"],
    ["3/1/2025 09:15:00", "Mwila", "TEP", "Resolved, quickly"],
    ["3/2/2025 10:00:00", "Chanda", "Buwelo"],
    ["45672", "Phiri", "TEP", "serial date"]
  ]
}`

func TestRESTSource_FetchGrid(t *testing.T) {
	var gotPath, gotKey string
	srv := valuesServer(t, http.StatusOK, valuesBody, func(r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
	})

	src := NewRESTSource(srv.Client(), srv.URL, "secret-key")
	g, err := src.FetchGrid(context.Background(), sheetID, "2026!A:L")
	require.NoError(t, err)

	assert.Equal(t, "/v4/spreadsheets/"+sheetID+"/values/2026!A:L", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, grid.Row{"Timestamp", "Agent", "Call Center", "Comment"}, g.Header)
	require.Len(t, g.Rows, 3)
	assert.Equal(t, "Resolved, quickly", g.Rows[0].Cell(3))
	assert.Equal(t, "", g.Rows[1].Cell(3))
	assert.Equal(t, "45672", g.Rows[2].Cell(0))
}

func TestRESTSource_URL(t *testing.T) {
	src := NewRESTSource(nil, "", "k y")
	assert.Equal(t,
		"https://sheets.googleapis.com/v4/spreadsheets/abc/values/2026%21A:L?key=k+y",
		src.URL("abc", "2026!A:L"))
}

func TestRESTSource_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
		wantDecode bool
	}{
		{
			name:       "permission denied",
			status:     http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`,
			wantStatus: http.StatusForbidden,
			wantMsg:    "The caller does not have permission",
		},
		{
			name:       "plain error page",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bad Gateway",
		},
		{
			name:       "malformed values",
			status:     http.StatusOK,
			body:       `{"values": "nope"}`,
			wantStatus: http.StatusOK,
			wantMsg:    "decode values",
			wantDecode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := valuesServer(t, tt.status, tt.body, nil)

			_, err := NewRESTSource(srv.Client(), srv.URL, "").FetchGrid(context.Background(), sheetID, "2026!A:L")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFetch)
			var fe *FetchError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantStatus, fe.StatusCode)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantDecode, errors.Is(err, ErrDecode))
		})
	}
}

func TestRESTSource_MissingValuesIsEmpty(t *testing.T) {
	srv := valuesServer(t, http.StatusOK, `{"range":"2026!A1:L1","majorDimension":"ROWS"}`, nil)

	g, err := NewRESTSource(srv.Client(), srv.URL, "").FetchGrid(context.Background(), sheetID, "2026!A:L")

	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
}

func TestRESTSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRESTSource(nil, url, "").FetchGrid(context.Background(), sheetID, "2026!A:L")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestAPISource_FetchGrid(t *testing.T) {
	var gotPath, gotKey string
	srv := valuesServer(t, http.StatusOK, valuesBody, func(r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
	})

	src, err := NewAPISource(context.Background(), APIOptions{APIKey: "api-key", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	g, err := src.FetchGrid(context.Background(), sheetID, "2026!A:L")
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/v4/spreadsheets/"+sheetID+"/values/")
	assert.Equal(t, "api-key", gotKey)
	assert.Equal(t, "Call Center", g.Header.Cell(2))
	assert.Len(t, g.Rows, 3)
}

func TestAPISource_Error(t *testing.T) {
	srv := valuesServer(t, http.StatusNotFound,
		`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`, nil)

	src, err := NewAPISource(context.Background(), APIOptions{Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	_, err = src.FetchGrid(context.Background(), sheetID, "2026!A:L")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}
	path := filepath.Join(t.TempDir(), "feedback.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSource(t *testing.T) {
	path := writeWorkbook(t, "2026", testutil.FeedbackValues())

	t.Run("sheet from range", func(t *testing.T) {
		g, err := XLSXSource{Path: path}.FetchGrid(context.Background(), "", "2026!A:L")
		require.NoError(t, err)
		assert.Equal(t, grid.Row(testutil.FeedbackHeader), g.Header)
		assert.Len(t, g.Rows, len(testutil.FeedbackValues())-1)
		assert.Equal(t, " tep ", g.Rows[2].Cell(2))
	})

	t.Run("first sheet when range is empty", func(t *testing.T) {
		g, err := XLSXSource{}.FetchGrid(context.Background(), path, "")
		require.NoError(t, err)
		assert.Equal(t, "Timestamp", g.Header.Cell(0))
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := XLSXSource{Path: path}.FetchGrid(context.Background(), "", "2025!A:L")
		assert.ErrorIs(t, err, ErrFetch)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := XLSXSource{Path: filepath.Join(t.TempDir(), "nope.xlsx")}.FetchGrid(context.Background(), "", "")
		assert.ErrorIs(t, err, ErrFetch)
	})
}

func TestCSVSource(t *testing.T) {
	data := "\ufeffTimestamp,Call Center,Comment\n" +
		"2025-01-01,TEP,\"said \"\"hi\"\", left\"\n" +
		"2025-01-02,Buwelo\n"
	path := testutil.WriteTempFile(t, "feedback.csv", []byte(data))

	g, err := CSVSource{Path: path}.FetchGrid(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, grid.Row{"Timestamp", "Call Center", "Comment"}, g.Header)
	require.Len(t, g.Rows, 2)
	assert.Equal(t, `said "hi", left`, g.Rows[0].Cell(2))
	assert.Equal(t, "", g.Rows[1].Cell(2))

	_, err = CSVSource{Path: filepath.Join(t.TempDir(), "none.csv")}.FetchGrid(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrFetch)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestXLSXSource_NotAWorkbook(t *testing.T) {
	path := testutil.WriteTempFile(t, "feedback.xlsx", []byte("Timestamp,Call Center\n"))

	_, err := XLSXSource{Path: path}.FetchGrid(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = XLSXSource{Path: filepath.Join(t.TempDir(), "none.xlsx")}.FetchGrid(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrFetch)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"2026!A:L":        "2026",
		"'Q1 2026'!A1:C9": "Q1 2026",
		"'It''s'!A:B":     "It's",
		"Feedback":        "Feedback",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SheetName(in), in)
	}
}

type stubSource struct {
	g     grid.Grid
	err   error
	block bool
}

func (s stubSource) FetchGrid(ctx context.Context, _, _ string) (grid.Grid, error) {
	if s.block {
		<-ctx.Done()
		return grid.Grid{}, fetchError("stub", 0, ctx.Err())
	}
	return s.g, s.err
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []error
}

func (o *recordingObserver) ObserveFetch(_ context.Context, _ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, err)
}

func TestInstrumented(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		obs := &recordingObserver{}
		want := grid.FromStrings(testutil.FeedbackValues())

		g, err := Instrument(stubSource{g: want}, "stub", 0, obs, logger).
			FetchGrid(context.Background(), sheetID, "2026!A:L")

		require.NoError(t, err)
		assert.Equal(t, want, g)
		require.Len(t, obs.calls, 1)
		assert.NoError(t, obs.calls[0])
		assert.True(t, logs.ContainsMessage("feedback fetched"))
	})

	t.Run("failure is logged with cause", func(t *testing.T) {
		logger, logs := testutil.NewTestLogger(t)
		obs := &recordingObserver{}
		cause := fetchError("stub", 500, errors.New("backend exploded"))

		_, err := Instrument(stubSource{err: cause}, "stub", 0, obs, logger).
			FetchGrid(context.Background(), sheetID, "2026!A:L")

		assert.ErrorIs(t, err, ErrFetch)
		require.Len(t, obs.calls, 1)
		assert.Error(t, obs.calls[0])
		records := logs.GetRecordsByMessage("feedback fetch failed")
		require.Len(t, records, 1)
		assert.Contains(t, records[0].Attrs["error"], "backend exploded")
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := Instrument(stubSource{block: true}, "stub", 10*time.Millisecond, nil, nil).
			FetchGrid(context.Background(), sheetID, "2026!A:L")

		assert.ErrorIs(t, err, ErrFetch)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewSource(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	cfg := config.Default().Sheets
	cfg.Mode = config.ModeCSV
	cfg.LocalPath = testutil.WriteTempFile(t, "f.csv", []byte("Date,Center\n2025-01-01,TEP\n"))

	src, err := NewSource(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	g, err := src.FetchGrid(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, g.Rows, 1)

	cfg.Mode = config.ModeREST
	src, err = NewSource(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &RESTSource{}, src.(*Instrumented).Source)

	cfg.Mode = "ftp"
	_, err = NewSource(context.Background(), cfg, nil, logger)
	assert.Error(t, err)
}
