// Package handlers provides HTTP handlers for account operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradekeeper/tradekeeper/internal/domain"
	"github.com/tradekeeper/tradekeeper/internal/modules/account"
)

// Handler handles account HTTP requests
type Handler struct {
	service  *account.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(service *account.Service, validate *validator.Validate, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		log:      log.With().Str("handler", "account").Logger(),
	}
}

type createAccountRequest struct {
	Name    string   `json:"name" validate:"required,min=3,max=50,namechars"`
	Balance *float64 `json:"balance" validate:"omitempty,gte=0,lte=9999999.99"`
}

type updateAccountRequest struct {
	Name    *string  `json:"name" validate:"omitempty,min=3,max=50,namechars"`
	Balance *float64 `json:"balance" validate:"omitempty,gte=0,lte=9999999.99"`
	Active  *bool    `json:"active"`
}

type accountResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Active  bool    `json:"active"`
}

func toAccountResponse(acct *domain.Account) accountResponse {
	return accountResponse{
		ID:      acct.ID,
		Name:    acct.Name,
		Balance: acct.Balance.InexactFloat64(),
		Active:  acct.Active,
	}
}

// HandleList handles GET /api/accounts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	response := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		response = append(response, toAccountResponse(&accounts[i]))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreate handles POST /api/accounts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	input := domain.CreateAccountInput{Name: req.Name}
	if req.Balance != nil {
		balance := decimal.NewFromFloat(*req.Balance)
		input.Balance = &balance
	}

	acct, err := h.service.Create(input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create account")
		return
	}

	h.writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

// HandleGet handles GET /api/accounts/{accountID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	acct, err := h.service.GetByID(id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get account")
		return
	}

	h.writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

// HandleUpdate handles PATCH /api/accounts/{accountID}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	patch := domain.AccountPatch{
		Name:   req.Name,
		Active: req.Active,
	}
	if req.Balance != nil {
		balance := decimal.NewFromFloat(*req.Balance)
		patch.Balance = &balance
	}

	acct, err := h.service.Update(id, patch)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update account")
		return
	}

	h.writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

// HandleDelete handles DELETE /api/accounts/{accountID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	if err := h.service.Delete(id); err != nil {
		h.writeServiceError(w, err, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type linkedTradeResponse struct {
	ID         string   `json:"id"`
	Symbol     string   `json:"symbol"`
	Type       string   `json:"type"`
	Strategy   string   `json:"strategy"`
	Session    string   `json:"session"`
	Feelings   []string `json:"feelings"`
	Result     string   `json:"result"`
	Comment    string   `json:"comment"`
	Screenshot string   `json:"screenshot"`
	State      string   `json:"state"`
	TP1        bool     `json:"tp1"`
	TP2        bool     `json:"tp2"`
	TP3        bool     `json:"tp3"`
	Date       string   `json:"date"`
}

// HandleListTrades handles GET /api/accounts/{accountID}/trades.
// An account with no linked trades answers 204 with an empty body.
func (h *Handler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountID")

	trades, err := h.service.ListTrades(id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list account trades")
		return
	}

	if len(trades) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	response := make([]linkedTradeResponse, 0, len(trades))
	for _, t := range trades {
		feelings := t.Feelings
		if feelings == nil {
			feelings = []string{}
		}
		response = append(response, linkedTradeResponse{
			ID:         t.ID,
			Symbol:     t.Symbol,
			Type:       t.Type,
			Strategy:   t.Strategy,
			Session:    t.Session,
			Feelings:   feelings,
			Result:     t.Result,
			Comment:    t.Comment,
			Screenshot: t.Screenshot,
			State:      t.State,
			TP1:        t.TP1,
			TP2:        t.TP2,
			TP3:        t.TP3,
			Date:       t.Date.Format("2006-01-02"),
		})
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeServiceError maps business errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case domain.IsDuplicateName(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case domain.IsInvalidBalance(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrNoFieldsChanged):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg(logMsg)
		http.Error(w, logMsg, http.StatusInternalServerError)
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return "Invalid field: " + first.Field()
	}
	return "Invalid request"
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
