package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

const maxTransactionsLimit = 500

type TransactionHandler struct {
	transactionService *service.TransactionService
	profileService     *service.ProfileService
}

func NewTransactionHandler(transactionService *service.TransactionService, profileService *service.ProfileService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		profileService:     profileService,
	}
}

// transactionRequest takes the date as YYYY-MM-DD or RFC 3339.
type transactionRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

func (h *TransactionHandler) input(w http.ResponseWriter, r *http.Request) (service.TransactionInput, bool) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return service.TransactionInput{}, false
	}

	input := service.TransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
	}

	if strings.TrimSpace(req.Date) != "" {
		date, err := parseDay(req.Date, h.profileService.Location(ctxkeys.Profile(r.Context())))
		if err != nil {
			badRequest(w, "date must be YYYY-MM-DD or RFC 3339")
			return service.TransactionInput{}, false
		}
		input.Date = date
	}
	return input, true
}

// List supports from/to (to is exclusive), category, type and limit.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))
	q := r.URL.Query()

	from, err := optionalDay(q.Get("from"), loc)
	if err != nil {
		badRequest(w, "from must be YYYY-MM-DD or RFC 3339")
		return
	}
	to, err := optionalDay(q.Get("to"), loc)
	if err != nil {
		badRequest(w, "to must be YYYY-MM-DD or RFC 3339")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if limit > maxTransactionsLimit {
		limit = maxTransactionsLimit
	}

	txs, err := h.transactionService.Transactions(user.ID, repository.TransactionFilter{
		From:     from,
		To:       to,
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		Type:     strings.ToLower(strings.TrimSpace(q.Get("type"))),
		Limit:    limit,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.transactionService.Categories(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, categories)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.input(w, r)
	if !ok {
		return
	}

	tx, err := h.transactionService.Create(ctxkeys.UserID(r.Context()), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.input(w, r)
	if !ok {
		return
	}

	tx, err := h.transactionService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.transactionService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
