package handler

import (
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-newsletter-signup/internal/application/subscription"
	"github.com/go-newsletter-signup/internal/domain"
)

// maxFormBytes bounds the signup and survey form bodies.
const maxFormBytes = 64 << 10

// SubscriptionHandler serves the signup and preference forms.
type SubscriptionHandler struct {
	svc subscription.Service
}

func NewSubscriptionHandler(svc subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// SubmitEmail starts or resumes a signup for the posted email field.
func (h *SubscriptionHandler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	res, err := h.svc.Signup(r.Context(), r.PostFormValue("email"))
	if err != nil {
		logError(r, "submit email", err)
		writeError(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}
	writeResult(w, signupStatus(res.Outcome), res)
}

// SubmitSurvey replaces the content preferences of the posted email.
func (h *SubscriptionHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	res, err := h.svc.UpdatePreferences(r.Context(), r.PostFormValue("email"), r.PostForm["preferences"])
	if err != nil {
		logError(r, "submit survey", err)
		writeError(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}
	writeResult(w, surveyStatus(res.Outcome), res)
}

// parseForm fills r.PostForm from either form encoding.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return false
	}
	return true
}

func signupStatus(o domain.Outcome) int {
	switch o {
	case domain.OutcomeCreatedOk, domain.OutcomeResentOk:
		return http.StatusOK
	case domain.OutcomeMissingEmail, domain.OutcomeInvalidEmail, domain.OutcomeAlreadySubscribed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func surveyStatus(o domain.Outcome) int {
	switch o {
	case domain.OutcomeUpdated:
		return http.StatusOK
	case domain.OutcomeMissingEmail:
		return http.StatusBadRequest
	case domain.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func logError(r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), op+" failed",
		"request_id", chimiddleware.GetReqID(r.Context()),
		"err", err,
	)
}
