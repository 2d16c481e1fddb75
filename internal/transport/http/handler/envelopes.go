package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-newsletter-signup/internal/domain"
)

// genericErrorMessage is shown for any failure the caller cannot act on.
const genericErrorMessage = "An error occurred. Please try again."

// ResultEnvelope is the JSON body of the form endpoints.
type ResultEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthEnvelope is the JSON body of the health endpoint.
type HealthEnvelope struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, status int, res domain.Result) {
	writeJSON(w, status, ResultEnvelope{Success: res.Success(), Message: res.Message})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ResultEnvelope{Success: false, Message: msg})
}
