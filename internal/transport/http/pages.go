package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves the operator pages
type PageHandler struct {
	templates  map[string]*template.Template
	centers    []string
	recentDays int
	version    string
	logger     *slog.Logger
}

// PageData is the view model of every page
type PageData struct {
	Title      string
	Centers    []string
	RecentDays int
	Version    string
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(centers []string, recentDays int, version string, logger *slog.Logger) (*PageHandler, error) {
	h := &PageHandler{
		templates:  make(map[string]*template.Template),
		centers:    centers,
		recentDays: recentDays,
		version:    version,
		logger:     logger.With(slog.String("handler", "pages")),
	}
	for _, page := range []string{"index.html", "recent.html"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		h.templates[page] = tmpl
	}
	return h, nil
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", "Call Center Feedback Export")
}

// Recent handles GET /recent
func (h *PageHandler) Recent(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "recent.html", "Recent Feedback")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page, title string) {
	var buf bytes.Buffer
	err := h.templates[page].ExecuteTemplate(&buf, page, PageData{
		Title:      title,
		Centers:    h.centers,
		RecentDays: h.recentDays,
		Version:    h.version,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error rendering page",
			slog.String("page", page),
			slog.String("error", err.Error()))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
