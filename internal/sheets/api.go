package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"cxfeedback/internal/grid"
)

// APIOptions configures the Sheets v4 client. With neither APIKey nor
// CredentialsFile the client sends unauthenticated requests, which only
// public sheets accept.
type APIOptions struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string
}

// APISource reads values through the official Sheets v4 client.
type APISource struct {
	svc *sheetsapi.Service
}

// NewAPISource creates the Sheets service from opts.
func NewAPISource(ctx context.Context, opts APIOptions) (*APISource, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(opts.CredentialsFile),
			option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope),
		)
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	default:
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &APISource{svc: svc}, nil
}

// FetchGrid implements Source. A range with no values yields an empty grid.
func (s *APISource) FetchGrid(ctx context.Context, resourceID, rangeSpec string) (grid.Grid, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(resourceID, rangeSpec).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return grid.Grid{}, fetchError("sheets api", statusOf(err), err)
	}
	return grid.FromValues(resp.Values), nil
}
