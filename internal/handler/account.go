package handler

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/josh-kwaku/brokerage-ledger/internal/domain"
	"github.com/josh-kwaku/brokerage-ledger/internal/ledger"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
	"github.com/josh-kwaku/brokerage-ledger/internal/report"
	"github.com/shopspring/decimal"
)

type ledgerService interface {
	OpenAccount(ctx context.Context, owner string, initialDeposit decimal.Decimal) (*ledger.Account, error)
	Statement(ctx context.Context) (ledger.Statement, error)
	Holdings(ctx context.Context) (map[string]int64, error)
	Deposit(ctx context.Context, amount decimal.Decimal, note string) (domain.Transaction, error)
	Withdraw(ctx context.Context, amount decimal.Decimal, note string) (domain.Transaction, error)
	Buy(ctx context.Context, req ledger.TradeRequest) (domain.Transaction, error)
	Sell(ctx context.Context, req ledger.TradeRequest) (domain.Transaction, error)
	ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type AccountHandler struct {
	ledger   ledgerService
	renderer *report.Renderer
}

func NewAccountHandler(svc ledgerService, renderer *report.Renderer) *AccountHandler {
	return &AccountHandler{ledger: svc, renderer: renderer}
}

type openAccountRequest struct {
	Owner          string      `json:"owner" validate:"max=120"`
	InitialDeposit json.Number `json:"initial_deposit" validate:"omitempty,numeric"`
}

type cashRequest struct {
	Amount json.Number `json:"amount" validate:"required,numeric"`
	Note   string      `json:"note" validate:"max=256"`
}

type tradeRequest struct {
	Symbol   string       `json:"symbol" validate:"required,max=12"`
	Quantity int64        `json:"quantity"`
	Price    *json.Number `json:"price" validate:"omitempty,numeric"`
	Note     string       `json:"note" validate:"max=256"`
}

func (r tradeRequest) toLedger() (ledger.TradeRequest, error) {
	req := ledger.TradeRequest{
		Symbol:   normalizeSymbol(r.Symbol),
		Quantity: r.Quantity,
		Note:     r.Note,
	}
	if r.Price != nil {
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			return ledger.TradeRequest{}, err
		}
		req.Price = &price
	}
	return req, nil
}

type accountDTO struct {
	ID               string          `json:"id"`
	Owner            string          `json:"owner"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	InitialDeposit   decimal.Decimal `json:"initial_deposit"`
	TransactionCount int             `json:"transaction_count"`
}

type statementDTO struct {
	AccountID        string           `json:"account_id"`
	Owner            string           `json:"owner"`
	CashBalance      decimal.Decimal  `json:"cash_balance"`
	Holdings         map[string]int64 `json:"holdings"`
	PortfolioValue   decimal.Decimal  `json:"portfolio_value"`
	TotalBalance     decimal.Decimal  `json:"total_balance"`
	InitialDeposit   decimal.Decimal  `json:"initial_deposit"`
	ProfitLoss       decimal.Decimal  `json:"profit_loss"`
	TransactionCount int              `json:"transaction_count"`
}

func toStatementDTO(st ledger.Statement) statementDTO {
	return statementDTO{
		AccountID:        st.AccountID,
		Owner:            st.Owner,
		CashBalance:      st.CashBalance,
		Holdings:         st.Holdings,
		PortfolioValue:   st.PortfolioValue,
		TotalBalance:     st.TotalBalance,
		InitialDeposit:   st.InitialDeposit,
		ProfitLoss:       st.ProfitLoss,
		TransactionCount: st.TransactionCount,
	}
}

type positionDTO struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	MarketValue decimal.Decimal `json:"market_value"`
}

type transactionDTO struct {
	ID            uuid.UUID        `json:"id"`
	Timestamp     time.Time        `json:"timestamp"`
	Type          string           `json:"type"`
	Symbol        *string          `json:"symbol,omitempty"`
	Quantity      *int64           `json:"quantity,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	CashDelta     decimal.Decimal  `json:"cash_delta"`
	HoldingsDelta map[string]int64 `json:"holdings_delta"`
	Note          string           `json:"note"`
}

func toTransactionDTO(tx domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            tx.ID,
		Timestamp:     tx.Timestamp,
		Type:          string(tx.Type),
		Symbol:        tx.Symbol,
		Quantity:      tx.Quantity,
		Price:         tx.Price,
		CashDelta:     tx.CashDelta,
		HoldingsDelta: tx.HoldingsDelta,
		Note:          tx.Note,
	}
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req openAccountRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateInput(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	initial := decimal.Zero
	if req.InitialDeposit != "" {
		amount, err := decimal.NewFromString(req.InitialDeposit.String())
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "initial_deposit", Message: "must be a number"}})
			return
		}
		initial = amount
	}

	acct, err := h.ledger.OpenAccount(r.Context(), strings.TrimSpace(req.Owner), initial)
	if err != nil {
		log.Warn("account open failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/account")
	RespondSuccess(w, http.StatusCreated, accountDTO{
		ID:               acct.ID(),
		Owner:            acct.Owner(),
		CashBalance:      acct.CashBalance(),
		InitialDeposit:   acct.InitialDeposit(),
		TransactionCount: acct.TransactionCount(),
	})
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.ledger.Statement(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("statement failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toStatementDTO(st))
}

// Statement renders the plain-text report: summary followed by the most
// recent transactions.
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	st, err := h.ledger.Statement(r.Context())
	if err != nil {
		log.Warn("statement failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	txs, err := h.ledger.ListTransactions(r.Context(), ledger.TransactionFilter{})
	if err != nil {
		log.Warn("transaction listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	var b strings.Builder
	if err := h.renderer.Full(&b, st, txs); err != nil {
		log.Error("statement render failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondText(w, http.StatusOK, b.String())
}

func (h *AccountHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.ledger.Holdings(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("holdings lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	positions := make([]positionDTO, 0, len(holdings))
	for _, symbol := range slices.Sorted(maps.Keys(holdings)) {
		qty := holdings[symbol]
		price, err := h.ledger.Quote(r.Context(), symbol)
		if err != nil {
			logging.FromContext(r.Context()).Warn("holding valuation failed", "symbol", symbol, "error", err)
			RespondDomainError(w, err)
			return
		}
		positions = append(positions, positionDTO{
			Symbol:      symbol,
			Quantity:    qty,
			Price:       price,
			MarketValue: price.Mul(decimal.NewFromInt(qty)),
		})
	}
	RespondSuccess(w, http.StatusOK, positions)
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.ledger.Deposit)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.ledger.Withdraw)
}

func (h *AccountHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.ledger.Buy)
}

func (h *AccountHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.ledger.Sell)
}

func (h *AccountHandler) cash(w http.ResponseWriter, r *http.Request, apply func(context.Context, decimal.Decimal, string) (domain.Transaction, error)) {
	var req cashRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateInput(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "must be a number"}})
		return
	}

	tx, err := apply(r.Context(), amount, req.Note)
	h.respondTransaction(w, r, tx, err)
}

func (h *AccountHandler) trade(w http.ResponseWriter, r *http.Request, apply func(context.Context, ledger.TradeRequest) (domain.Transaction, error)) {
	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := validateInput(req); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	treq, err := req.toLedger()
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "price", Message: "must be a number"}})
		return
	}

	tx, err := apply(r.Context(), treq)
	h.respondTransaction(w, r, tx, err)
}

func (h *AccountHandler) respondTransaction(w http.ResponseWriter, r *http.Request, tx domain.Transaction, err error) {
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction rejected", "path", r.URL.Path, "error", err)
		RespondDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/account/transactions/"+tx.ID.String())
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(tx))
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
