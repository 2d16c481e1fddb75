package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/go-newsletter-signup/internal/application/subscription"
	"github.com/go-newsletter-signup/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const validationErrorMessage = "An error occurred during validation. Please try again."

type indexData struct {
	Title       string
	Subtitle    string
	Description template.HTML
	Categories  []string
}

type validationData struct {
	Title   string
	Success bool
	Message string
}

// PageHandler serves the HTML signup page and the validation result page.
type PageHandler struct {
	svc        subscription.Service
	site       *config.Site
	index      *template.Template
	validation *template.Template
	desc       template.HTML
}

// NewPageHandler parses the embedded templates and renders the site
// description from markdown once.
func NewPageHandler(svc subscription.Service, site *config.Site) (*PageHandler, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	validation, err := template.ParseFS(templateFS, "templates/validation_result.html")
	if err != nil {
		return nil, fmt.Errorf("parse validation template: %w", err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(site.Description), &buf); err != nil {
		return nil, fmt.Errorf("render site description: %w", err)
	}
	return &PageHandler{
		svc:        svc,
		site:       site,
		index:      index,
		validation: validation,
		desc:       template.HTML(buf.String()),
	}, nil
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.index, indexData{
		Title:       h.site.Title,
		Subtitle:    h.site.Subtitle,
		Description: h.desc,
		Categories:  h.site.Categories,
	})
}

// Validate confirms the token in the path. The page is always served with
// 200; success or failure is in the rendered message.
func (h *PageHandler) Validate(w http.ResponseWriter, r *http.Request) {
	data := validationData{Title: h.site.Title}
	res, err := h.svc.ConfirmValidation(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		logError(r, "validate email", err)
		data.Message = validationErrorMessage
	} else {
		data.Success = res.Success()
		data.Message = res.Message
	}
	h.render(w, r, h.validation, data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, t *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		slog.ErrorContext(r.Context(), "render page", "template", t.Name(), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
