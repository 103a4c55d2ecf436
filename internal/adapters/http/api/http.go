// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LedgerDependencies
	HistoryDependencies
	SignalDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	historyHandler *HistoryHandler
	signalsHandler *SignalsHandler
	ledgerHandler  *LedgerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		historyHandler: NewHistoryHandler(deps),
		signalsHandler: NewSignalsHandler(deps),
		ledgerHandler:  NewLedgerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleHistory, "history"))
	mux.HandleFunc("/history/years", MetricsMiddleware(s.historyHandler.HandleYears, "history_years"))
	mux.HandleFunc("/signals", MetricsMiddleware(s.signalsHandler.HandleSignals, "signals"))

	lh := s.ledgerHandler
	mux.HandleFunc("GET /ledgers/{user}", MetricsMiddleware(lh.HandleGet, "ledger"))
	mux.HandleFunc("POST /ledgers/{user}/quote", MetricsMiddleware(lh.HandleQuote, "ledger_quote"))
	mux.HandleFunc("POST /ledgers/{user}/propose", MetricsMiddleware(lh.HandlePropose, "ledger_propose"))
	mux.HandleFunc("POST /ledgers/{user}/resolve", MetricsMiddleware(lh.HandleResolve, "ledger_resolve"))
	mux.HandleFunc("POST /ledgers/{user}/reset", MetricsMiddleware(lh.HandleReset, "ledger_reset"))
	mux.HandleFunc("PUT /ledgers/{user}/bankroll", MetricsMiddleware(lh.HandleSetBankroll, "ledger_bankroll"))
	mux.HandleFunc("GET /ledgers/{user}/export", MetricsMiddleware(lh.HandleExport, "ledger_export"))
	mux.HandleFunc("POST /ledgers/{user}/import", MetricsMiddleware(lh.HandleImport, "ledger_import"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
