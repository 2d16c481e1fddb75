package handler

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 5 * time.Second

// Pinger reports whether the subscriber store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports store connectivity.
type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler { return &HealthHandler{store: store} }

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusInternalServerError, HealthEnvelope{Status: "unhealthy", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthEnvelope{Status: "healthy", Database: "connected"})
}
