package exporter

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"cxfeedback/internal/grid"
)

// TracerName is the instrumentation scope for render spans.
const TracerName = "cxfeedback.exporter"

// Artifact is one rendered output.
type Artifact struct {
	Format Format
	Data   []byte
}

// MIMEType is shorthand for Format.MIMEType.
func (a Artifact) MIMEType() string { return a.Format.MIMEType() }

// String returns the artifact as text. Only meaningful for text formats.
func (a Artifact) String() string { return string(a.Data) }

// Bundle collects the artifacts of one submission. Artifacts that failed
// to render are absent from Artifacts and present in Errors.
type Bundle struct {
	Rows      int
	Artifacts map[Format]Artifact
	Errors    map[Format]error
}

// Get returns the artifact for f if it rendered.
func (b *Bundle) Get(f Format) (Artifact, bool) {
	a, ok := b.Artifacts[f]
	return a, ok
}

// Text returns the rendered artifact as a string, or "" if missing.
func (b *Bundle) Text(f Format) string {
	return b.Artifacts[f].String()
}

// Rendered lists the formats that rendered, in AllFormats order.
func (b *Bundle) Rendered() []Format {
	var out []Format
	for _, f := range AllFormats {
		if _, ok := b.Artifacts[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Err returns the first render error in AllFormats order, or nil.
func (b *Bundle) Err() error {
	for _, f := range AllFormats {
		if err := b.Errors[f]; err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}
	}
	return nil
}

// Render produces a single artifact.
func Render(f Format, header grid.Row, rows []grid.Row, opts Options) (Artifact, error) {
	switch f {
	case FormatHTML:
		return Artifact{Format: f, Data: []byte(HTML(header, rows))}, nil
	case FormatText:
		return Artifact{Format: f, Data: []byte(PlainText(header, rows))}, nil
	case FormatCSV:
		doc := CSV(header, rows)
		if opts.CSVBOM {
			doc = UTF8BOM + doc
		}
		return Artifact{Format: f, Data: []byte(doc)}, nil
	case FormatXLSX:
		data, err := XLSX(header, rows, opts)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Format: f, Data: data}, nil
	default:
		return Artifact{}, fmt.Errorf("unknown export format %q", f)
	}
}

// RenderAll renders each requested format concurrently; no formats means
// AllFormats. Each renderer reads header and rows without modifying them.
func RenderAll(ctx context.Context, header grid.Row, rows []grid.Row, opts Options, formats ...Format) *Bundle {
	if len(formats) == 0 {
		formats = AllFormats
	}

	bundle := &Bundle{
		Rows:      len(rows),
		Artifacts: make(map[Format]Artifact, len(formats)),
		Errors:    make(map[Format]error),
	}

	tracer := otel.Tracer(TracerName)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, f := range formats {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, span := tracer.Start(ctx, "export.render."+string(f))
			defer span.End()
			span.SetAttributes(
				attribute.String("export.format", string(f)),
				attribute.Int("export.rows", len(rows)),
			)

			art, err := Render(f, header, rows, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				bundle.Errors[f] = err
				return
			}
			span.SetAttributes(attribute.Int("export.bytes", len(art.Data)))
			bundle.Artifacts[f] = art
		}()
	}
	wg.Wait()

	return bundle
}
