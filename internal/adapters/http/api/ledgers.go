package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/bankroll/internal/app"
	"github.com/okian/bankroll/internal/domain/ledger"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// LedgerDependencies defines the per-user ledger operations.
type LedgerDependencies interface {
	Ledger(ctx context.Context, userID string) (service.LedgerView, error)
	Quote(ctx context.Context, userID string, odd float64) (staking.Decision, error)
	Propose(ctx context.Context, userID string, odd float64) (model.PendingBet, error)
	Resolve(ctx context.Context, userID string, win bool) (service.ResolveResult, error)
	Reset(ctx context.Context, userID string, confirm bool) (service.LedgerView, error)
	SetBankroll(ctx context.Context, userID string, amount decimal.Decimal) (service.LedgerView, error)
	Export(ctx context.Context, userID string) ([]byte, error)
	Import(ctx context.Context, userID string, data []byte) (service.LedgerView, error)
}

// oddRequest only requires the field; the staking policy judges its value.
type oddRequest struct {
	Odd *float64 `json:"odd" validate:"required"`
}

type resolveRequest struct {
	Win *bool `json:"win" validate:"required"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

type bankrollRequest struct {
	Bankroll *decimal.Decimal `json:"bankroll" validate:"required"`
}

// ledgerResponse carries a ledger plus the persistence error of a committed
// change, if any.
type ledgerResponse struct {
	service.LedgerView
	PersistError string `json:"persist_error,omitempty"`
}

type resolveResponse struct {
	service.ResolveResult
	PersistError string `json:"persist_error,omitempty"`
}

type refusalResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Reason  staking.Refusal `json:"reason"`
	Label   string          `json:"label"`
	Odd     float64         `json:"odd"`
}

// LedgerHandler handles /ledgers/{user} requests.
type LedgerHandler struct {
	deps LedgerDependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps LedgerDependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleGet handles GET /ledgers/{user}.
func (h *LedgerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Ledger(r.Context(), r.PathValue("user"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleQuote handles POST /ledgers/{user}/quote.
func (h *LedgerHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req oddRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	d, err := h.deps.Quote(r.Context(), r.PathValue("user"), *req.Odd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandlePropose handles POST /ledgers/{user}/propose.
func (h *LedgerHandler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	var req oddRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	bet, err := h.deps.Propose(r.Context(), r.PathValue("user"), *req.Odd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

// HandleResolve handles POST /ledgers/{user}/resolve.
func (h *LedgerHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	res, err := h.deps.Resolve(r.Context(), r.PathValue("user"), *req.Win)
	if err != nil && !errors.Is(err, service.ErrPersistFailed) {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{ResolveResult: res, PersistError: persistError(err)})
}

// HandleReset handles POST /ledgers/{user}/reset.
func (h *LedgerHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	h.writeCommitted(w, func() (service.LedgerView, error) {
		return h.deps.Reset(r.Context(), r.PathValue("user"), req.Confirm)
	})
}

// HandleSetBankroll handles PUT /ledgers/{user}/bankroll.
func (h *LedgerHandler) HandleSetBankroll(w http.ResponseWriter, r *http.Request) {
	var req bankrollRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	h.writeCommitted(w, func() (service.LedgerView, error) {
		return h.deps.SetBankroll(r.Context(), r.PathValue("user"), *req.Bankroll)
	})
}

// HandleExport handles GET /ledgers/{user}/export.
func (h *LedgerHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	data, err := h.deps.Export(r.Context(), user)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bankroll-%s.json"`, sanitizeFilename(user)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport handles POST /ledgers/{user}/import. The body is an exported
// ledger document.
func (h *LedgerHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	h.writeCommitted(w, func() (service.LedgerView, error) {
		return h.deps.Import(r.Context(), r.PathValue("user"), data)
	})
}

func (h *LedgerHandler) writeCommitted(w http.ResponseWriter, op func() (service.LedgerView, error)) {
	v, err := op()
	if err != nil && !errors.Is(err, service.ErrPersistFailed) {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse{LedgerView: v, PersistError: persistError(err)})
}

func persistError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// writeLedgerError maps service and ledger errors to HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	var refusal *ledger.RefusalError
	var importErr *ledger.ImportError
	switch {
	case errors.As(err, &refusal):
		writeJSON(w, http.StatusUnprocessableEntity, refusalResponse{
			Code:    "refused",
			Message: err.Error(),
			Reason:  refusal.Decision.Reason,
			Label:   refusal.Decision.Label,
			Odd:     refusal.Odd,
		})
	case errors.Is(err, ledger.ErrBetPending), errors.Is(err, ledger.ErrNoPendingBet):
		writeError(w, http.StatusConflict, "state_conflict", err)
	case errors.As(err, &importErr):
		writeError(w, http.StatusBadRequest, "invalid_snapshot", err)
	case errors.Is(err, ledger.ErrConfirmationRequired):
		writeError(w, http.StatusBadRequest, "confirmation_required", err)
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, service.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrLedgerUnavailable):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "ledger_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
