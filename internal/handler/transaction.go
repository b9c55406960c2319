package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/ledger"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
)

type listTransactionsQuery struct {
	Start  string `query:"start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End    string `query:"end" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Type   string `query:"type" validate:"omitempty,oneof=deposit withdraw buy sell"`
	Symbol string `query:"symbol" validate:"omitempty,max=12"`
}

func (q listTransactionsQuery) filter() ledger.TransactionFilter {
	var f ledger.TransactionFilter
	if q.Start != "" {
		start, _ := time.Parse(time.RFC3339, q.Start)
		f.Start = &start
	}
	if q.End != "" {
		end, _ := time.Parse(time.RFC3339, q.End)
		f.End = &end
	}
	if q.Type != "" {
		typ := domain.TransactionType(q.Type)
		f.Type = &typ
	}
	if q.Symbol != "" {
		symbol := normalizeSymbol(q.Symbol)
		f.Symbol = &symbol
	}
	return f
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := listTransactionsQuery{
		Start:  values.Get("start"),
		End:    values.Get("end"),
		Type:   values.Get("type"),
		Symbol: values.Get("symbol"),
	}
	if fields := validateInput(q); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), q.filter())
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionDTO(tx))
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *AccountHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a UUID"}})
		return
	}

	tx, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "transaction_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(tx))
}
