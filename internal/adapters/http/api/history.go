package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/bankroll/internal/app"
)

// HistoryDependencies defines the historical replay operations.
type HistoryDependencies interface {
	History(ctx context.Context, year int, mode service.HistoryMode) (service.HistoryView, error)
	Years(ctx context.Context) []int
}

// historyQuery mirrors the GET /history query string.
type historyQuery struct {
	Year int    `validate:"gte=0"`
	Mode string `default:"compound" validate:"oneof=compound flat score"`
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleHistory handles GET /history?year=&mode= requests.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := historyQuery{Mode: r.URL.Query().Get("mode")}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("year must be an integer"))
			return
		}
		q.Year = year
	}
	if err := defaultAndValidate(r.Context(), &q); err != nil {
		writeRequestError(w, err)
		return
	}

	v, err := h.deps.History(r.Context(), q.Year, service.HistoryMode(q.Mode))
	if err != nil {
		if errors.Is(err, service.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleYears handles GET /history/years requests.
func (h *HistoryHandler) HandleYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"years": h.deps.Years(r.Context())})
}
