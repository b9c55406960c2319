package handler

import (
	"context"
	"maps"
	"net/http"
	"slices"

	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
	"github.com/shopspring/decimal"
)

type quoteService interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
	Quotes(ctx context.Context) (map[string]decimal.Decimal, error)
}

type PriceHandler struct {
	quotes quoteService
}

func NewPriceHandler(quotes quoteService) *PriceHandler {
	return &PriceHandler{quotes: quotes}
}

type quoteDTO struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quotes.Quotes(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("price listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]quoteDTO, 0, len(quotes))
	for _, symbol := range slices.Sorted(maps.Keys(quotes)) {
		out = append(out, quoteDTO{Symbol: symbol, Price: quotes[symbol]})
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *PriceHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(r.PathValue("symbol"))

	price, err := h.quotes.Quote(r.Context(), symbol)
	if err != nil {
		logging.FromContext(r.Context()).Warn("price lookup failed", "symbol", symbol, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, quoteDTO{Symbol: symbol, Price: price})
}
