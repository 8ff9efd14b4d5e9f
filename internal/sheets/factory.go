package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"cxfeedback/internal/config"
)

// NewSource builds the Source selected by cfg.Mode, wrapped with
// instrumentation. observer may be nil.
func NewSource(ctx context.Context, cfg config.SheetsConfig, observer FetchObserver, logger *slog.Logger) (Source, error) {
	var (
		src Source
		err error
	)

	switch cfg.Mode {
	case config.ModeAPI:
		src, err = NewAPISource(ctx, APIOptions{
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
	case config.ModeREST:
		src = NewRESTSource(&http.Client{Timeout: cfg.Timeout}, cfg.Endpoint, cfg.APIKey)
	case config.ModeXLSX:
		src = XLSXSource{Path: cfg.LocalPath}
	case config.ModeCSV:
		src = CSVSource{Path: cfg.LocalPath}
	default:
		return nil, fmt.Errorf("unknown sheets mode %q", cfg.Mode)
	}

	return Instrument(src, cfg.Mode, cfg.Timeout, observer, logger), nil
}
