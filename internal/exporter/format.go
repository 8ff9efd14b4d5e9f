package exporter

import (
	"fmt"
	"strings"
)

// Format identifies one artifact kind.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// AllFormats lists every format in rendering order.
var AllFormats = []Format{FormatHTML, FormatText, FormatCSV, FormatXLSX}

// MIMEType returns the content type used when the artifact is delivered.
func (f Format) MIMEType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// IsFile reports whether the format is delivered as a downloadable file
// rather than through the clipboard.
func (f Format) IsFile() bool {
	return f == FormatCSV || f == FormatXLSX
}

// ParseFormats parses a comma separated list such as "csv,xlsx". An empty
// string yields AllFormats.
func ParseFormats(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		return AllFormats, nil
	}
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case FormatHTML, FormatText, FormatCSV, FormatXLSX:
		case "":
			continue
		default:
			return nil, fmt.Errorf("unknown export format %q", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Options tunes the file artifacts.
type Options struct {
	SheetName   string
	ColumnWidth float64
	CSVBOM      bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{SheetName: "Feedback", ColumnWidth: 22}
}

func (o Options) sheetName() string {
	if o.SheetName == "" {
		return "Feedback"
	}
	return o.SheetName
}

func (o Options) columnWidth() float64 {
	if o.ColumnWidth <= 0 {
		return 22
	}
	return o.ColumnWidth
}
