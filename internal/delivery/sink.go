package delivery

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClipboardUnavailable means a sink has no clipboard to write to.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")

	// ErrRichUnsupported means a sink can take plain text but not the
	// combined HTML and text payload.
	ErrRichUnsupported = errors.New("rich clipboard payload unsupported")

	// ErrEmptyPayload means there was no plain text to put on a clipboard.
	ErrEmptyPayload = errors.New("empty clipboard payload")

	// ErrInvalidFileName rejects names that would escape the sink directory.
	ErrInvalidFileName = errors.New("invalid file name")
)

// ClipboardSink writes the table to a clipboard.
type ClipboardSink interface {
	Name() string
	WriteRich(ctx context.Context, html, text string) error
	WriteText(ctx context.Context, text string) error
}

// FileSink stores a file artifact.
type FileSink interface {
	Name() string
	Save(ctx context.Context, data []byte, filename, mimeType string) error
}

// ClipboardMode is how a clipboard write succeeded.
type ClipboardMode string

const (
	// ModeRich is one payload holding both HTML and plain text.
	ModeRich ClipboardMode = "rich"
	// ModeHTML is the HTML table alone.
	ModeHTML ClipboardMode = "html"
	// ModeText is the plain-text table alone.
	ModeText ClipboardMode = "text"
)

// richModer is implemented by sinks whose rich write stores something other
// than the combined payload.
type richModer interface {
	RichMode() ClipboardMode
}

func richMode(s ClipboardSink) ClipboardMode {
	if m, ok := s.(richModer); ok {
		return m.RichMode()
	}
	return ModeRich
}

// ClipboardResult reports which sink took the payload and in which form.
type ClipboardResult struct {
	Sink string
	Mode ClipboardMode
}

func (r ClipboardResult) String() string {
	return fmt.Sprintf("clipboard (%s, %s)", r.Sink, r.Mode)
}

// DeliverClipboard tries each sink in turn: rich first, then text only. It
// stops at the first sink that accepts either. The rich write is skipped when
// html is empty, and an empty text is rejected with ErrEmptyPayload. When no
// sink accepts the returned error wraps ErrClipboardUnavailable and every
// sink's failure.
func DeliverClipboard(ctx context.Context, html, text string, sinks ...ClipboardSink) (ClipboardResult, error) {
	if text == "" {
		return ClipboardResult{}, ErrEmptyPayload
	}
	errs := []error{ErrClipboardUnavailable}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ClipboardResult{}, err
		}

		if html != "" {
			if err := s.WriteRich(ctx, html, text); err == nil {
				return ClipboardResult{Sink: s.Name(), Mode: richMode(s)}, nil
			}
		}
		textErr := s.WriteText(ctx, text)
		if textErr == nil {
			return ClipboardResult{Sink: s.Name(), Mode: ModeText}, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), textErr))
	}
	return ClipboardResult{}, errors.Join(errs...)
}
