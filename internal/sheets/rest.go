package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"

	"cxfeedback/internal/grid"
)

// DefaultBaseURL is the public Sheets endpoint.
const DefaultBaseURL = "https://sheets.googleapis.com"

// RESTSource reads values with a plain GET on
// {base}/v4/spreadsheets/{id}/values/{range}?key={key}.
type RESTSource struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewRESTSource creates a REST source. A nil client means http.DefaultClient
// and an empty baseURL means DefaultBaseURL.
func NewRESTSource(client *http.Client, baseURL, apiKey string) *RESTSource {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type valuesResponse struct {
	Values [][]interface{} `json:"values"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// URL returns the values URL for resourceID and rangeSpec.
func (s *RESTSource) URL(resourceID, rangeSpec string) string {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.baseURL, url.PathEscape(resourceID), url.PathEscape(rangeSpec))
	if s.apiKey != "" {
		u += "?key=" + url.QueryEscape(s.apiKey)
	}
	return u
}

// FetchGrid implements Source. A response without "values" yields an empty
// grid.
func (s *RESTSource) FetchGrid(ctx context.Context, resourceID, rangeSpec string) (grid.Grid, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(resourceID, rangeSpec), nil)
	if err != nil {
		return grid.Grid{}, fetchError("sheets rest", 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return grid.Grid{}, fetchError("sheets rest", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return grid.Grid{}, fetchError("sheets rest", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return grid.Grid{}, fetchError("sheets rest", resp.StatusCode, errors.New(msg))
	}

	var values valuesResponse
	if err := json.Unmarshal(body, &values); err != nil {
		return grid.Grid{}, fetchError("sheets rest", resp.StatusCode, fmt.Errorf("decode values: %w: %w", ErrDecode, err))
	}
	return grid.FromValues(values.Values), nil
}

// statusOf extracts the HTTP status of a googleapi error, or 0.
func statusOf(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}
