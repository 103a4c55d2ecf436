package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/bankroll/internal/domain/model"
)

// SignalDependencies defines the signal sheet read.
type SignalDependencies interface {
	Signals(ctx context.Context, freeOnly bool) model.SignalSheet
}

// SignalsHandler handles signals requests.
type SignalsHandler struct {
	deps SignalDependencies
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(deps SignalDependencies) *SignalsHandler {
	return &SignalsHandler{deps: deps}
}

// HandleSignals handles GET /signals?free_only= requests.
func (h *SignalsHandler) HandleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	freeOnly := false
	if raw := r.URL.Query().Get("free_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		freeOnly = v
	}
	writeJSON(w, http.StatusOK, h.deps.Signals(r.Context(), freeOnly))
}
