package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/brokerd/ledger"
	"github.com/rustyeddy/brokerd/market"
	"github.com/rustyeddy/brokerd/money"
	"github.com/rustyeddy/brokerd/portfolio"
	"github.com/rustyeddy/brokerd/trade"
)

// Handlers wires the ledger, calculator, executor and oracle into the HTTP
// API. Account identity is an explicit path parameter on every route; there is
// no session state.
type Handlers struct {
	store       ledger.Store
	calc        *portfolio.Calculator
	exec        *trade.Executor
	oracle      market.Oracle
	initialCash money.Money
	log         zerolog.Logger
}

func NewHandlers(store ledger.Store, calc *portfolio.Calculator, exec *trade.Executor,
	oracle market.Oracle, initialCash money.Money, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:       store,
		calc:        calc,
		exec:        exec,
		oracle:      oracle,
		initialCash: initialCash,
		log:         log.With().Str("component", "handlers").Logger(),
	}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/accounts", h.HandleCreateAccount)
	r.Get("/accounts/{accountID}/holdings", h.HandleHoldings)
	r.Get("/accounts/{accountID}/history", h.HandleHistory)
	r.Post("/accounts/{accountID}/buy", h.HandleBuy)
	r.Post("/accounts/{accountID}/sell", h.HandleSell)
	r.Get("/quote/{symbol}", h.HandleQuote)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps the trade/ledger/market error taxonomy onto HTTP status
// codes. Storage failures are the only 500-class trade outcome; the caller is
// expected to retry those from scratch.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, trade.ErrInvalidInput),
		errors.Is(err, ledger.ErrNegativeCash):
		status = http.StatusBadRequest
	case errors.Is(err, market.ErrSymbolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, market.ErrQuoteUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrStorage):
		h.log.Error().Err(err).Msg("storage failure")
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func accountIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "accountID")
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, trade.ErrInvalidInput
	}
	return accountID, nil
}

type createAccountRequest struct {
	Cash *money.Money `json:"cash,omitempty"`
}

// HandleCreateAccount opens an account, seeded with the configured initial
// cash unless the request names an amount.
func (h *Handlers) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, trade.ErrInvalidInput)
			return
		}
	}

	cash := h.initialCash
	if req.Cash != nil {
		cash = *req.Cash
	}
	if cash.IsNegative() {
		h.respondError(w, trade.ErrInvalidInput)
		return
	}

	accountID, err := h.store.CreateAccount(r.Context(), cash)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"id": accountID, "cash": cash})
}

func (h *Handlers) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	summary, err := h.calc.Summary(r.Context(), accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

type historyRow struct {
	Symbol        string      `json:"symbol"`
	Shares        int64       `json:"shares"`
	PricePerShare money.Money `json:"price_per_share"`
	Time          string      `json:"time"`
}

func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDParam(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	// History is only meaningful for an account that exists.
	if _, err := h.store.Cash(r.Context(), accountID); err != nil {
		h.respondError(w, err)
		return
	}

	rows := []historyRow{}
	for tx, err := range h.store.History(r.Context(), accountID) {
		if err != nil {
			h.respondError(w, err)
			return
		}
		rows = append(rows, historyRow{
			Symbol:        tx.Symbol,
			Shares:        tx.Shares,
			PricePerShare: tx.PricePerShare,
			Time:          tx.Time.UTC().Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"transactions": rows})
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

func (h *Handlers) HandleBuy(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.exec.Buy)
}

func (h *Handlers) HandleSell(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.exec.Sell)
}

func (h *Handlers) handleTrade(w http.ResponseWriter, r *http.Request,
	execute func(ctx context.Context, accountID int64, symbol string, shares int64) (trade.Receipt, error)) {

	accountID, err := accountIDParam(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, trade.ErrInvalidInput)
		return
	}

	receipt, err := execute(r.Context(), accountID, req.Symbol, req.Shares)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, receipt)
}

func (h *Handlers) HandleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.oracle.Lookup(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"symbol": q.Symbol,
		"name":   q.Name,
		"price":  q.Price,
	})
}
