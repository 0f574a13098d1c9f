// Package handlers provides HTTP handlers for trade operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/domain"
	"github.com/tradekeeper/tradekeeper/internal/modules/trade"
)

const dateFormat = "2006-01-02"

// Handler handles trade HTTP requests
type Handler struct {
	service  *trade.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new trade handler
func NewHandler(service *trade.Service, validate *validator.Validate, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		log:      log.With().Str("handler", "trade").Logger(),
	}
}

type createTradeRequest struct {
	Symbol     string   `json:"symbol" validate:"required,min=3,max=7"`
	Type       string   `json:"type" validate:"required,tradetype"`
	Strategy   string   `json:"strategy" validate:"required,min=3,max=30"`
	Session    string   `json:"session" validate:"required,tradesession"`
	Feelings   []string `json:"feelings" validate:"omitempty,dive,min=1,max=30"`
	Result     string   `json:"result" validate:"required,traderesult"`
	Comment    string   `json:"comment" validate:"max=250"`
	Screenshot string   `json:"screenshot" validate:"omitempty,url"`
	State      string   `json:"state" validate:"required,min=3,max=25"`
	TP1        bool     `json:"tp1"`
	TP2        bool     `json:"tp2"`
	TP3        bool     `json:"tp3"`
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	AccountIDs []string `json:"accountIds" validate:"required,min=1,dive,uuid4"`
}

type updateTradeRequest struct {
	Symbol     *string   `json:"symbol" validate:"omitempty,min=3,max=7"`
	Type       *string   `json:"type" validate:"omitempty,tradetype"`
	Strategy   *string   `json:"strategy" validate:"omitempty,min=3,max=30"`
	Session    *string   `json:"session" validate:"omitempty,tradesession"`
	Feelings   *[]string `json:"feelings" validate:"omitempty,dive,min=1,max=30"`
	Result     *string   `json:"result" validate:"omitempty,traderesult"`
	Comment    *string   `json:"comment" validate:"omitempty,max=250"`
	Screenshot *string   `json:"screenshot" validate:"omitempty,url"`
	State      *string   `json:"state" validate:"omitempty,min=3,max=25"`
	TP1        *bool     `json:"tp1"`
	TP2        *bool     `json:"tp2"`
	TP3        *bool     `json:"tp3"`
	Date       *string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	AccountIDs *[]string `json:"accountIds" validate:"omitempty,min=1,dive,uuid4"`
}

type accountSummary struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Active  bool    `json:"active"`
}

type tradeResponse struct {
	ID         string           `json:"id"`
	Symbol     string           `json:"symbol"`
	Type       string           `json:"type"`
	Strategy   string           `json:"strategy"`
	Session    string           `json:"session"`
	Feelings   []string         `json:"feelings"`
	Result     string           `json:"result"`
	Comment    string           `json:"comment"`
	Screenshot string           `json:"screenshot"`
	State      string           `json:"state"`
	TP1        bool             `json:"tp1"`
	TP2        bool             `json:"tp2"`
	TP3        bool             `json:"tp3"`
	Date       string           `json:"date"`
	Accounts   []accountSummary `json:"accounts"`
}

func toTradeResponse(t *domain.Trade) tradeResponse {
	feelings := t.Feelings
	if feelings == nil {
		feelings = []string{}
	}

	accounts := make([]accountSummary, 0, len(t.Accounts))
	for _, a := range t.Accounts {
		accounts = append(accounts, accountSummary{
			ID:      a.ID,
			Name:    a.Name,
			Balance: a.Balance.InexactFloat64(),
			Active:  a.Active,
		})
	}

	return tradeResponse{
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
		Date:       t.Date.Format(dateFormat),
		Accounts:   accounts,
	}
}

// HandleList handles GET /api/trades
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	trades, err := h.service.ListAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}

	response := make([]tradeResponse, 0, len(trades))
	for i := range trades {
		response = append(response, toTradeResponse(&trades[i]))
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreate handles POST /api/trades
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Symbol = strings.TrimSpace(req.Symbol)
	req.Strategy = strings.TrimSpace(req.Strategy)
	req.Comment = strings.TrimSpace(req.Comment)
	req.State = strings.TrimSpace(req.State)

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	date, err := parseTradeDate(req.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input := domain.CreateTradeInput{
		Symbol:     req.Symbol,
		Type:       req.Type,
		Strategy:   req.Strategy,
		Session:    req.Session,
		Feelings:   req.Feelings,
		Result:     req.Result,
		Comment:    req.Comment,
		Screenshot: req.Screenshot,
		State:      req.State,
		TP1:        req.TP1,
		TP2:        req.TP2,
		TP3:        req.TP3,
		Date:       date,
		AccountIDs: req.AccountIDs,
	}

	created, err := h.service.Create(input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create trade")
		return
	}

	h.writeJSON(w, http.StatusCreated, toTradeResponse(created))
}

// HandleGet handles GET /api/trades/{tradeID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")

	t, err := h.service.GetByID(id)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get trade")
		return
	}

	h.writeJSON(w, http.StatusOK, toTradeResponse(t))
}

// HandleUpdate handles PATCH /api/trades/{tradeID}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")

	var req updateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trimPtr(&req.Symbol)
	trimPtr(&req.Strategy)
	trimPtr(&req.Comment)
	trimPtr(&req.State)

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	patch := domain.TradePatch{
		Symbol:     req.Symbol,
		Type:       req.Type,
		Strategy:   req.Strategy,
		Session:    req.Session,
		Feelings:   req.Feelings,
		Result:     req.Result,
		Comment:    req.Comment,
		Screenshot: req.Screenshot,
		State:      req.State,
		TP1:        req.TP1,
		TP2:        req.TP2,
		TP3:        req.TP3,
		AccountIDs: req.AccountIDs,
	}

	if req.Date != nil {
		date, err := parseTradeDate(*req.Date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		patch.Date = &date
	}

	updated, err := h.service.Update(id, patch)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update trade")
		return
	}

	h.writeJSON(w, http.StatusOK, toTradeResponse(updated))
}

// HandleDelete handles DELETE /api/trades/{tradeID}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tradeID")

	if err := h.service.Delete(id); err != nil {
		h.writeServiceError(w, err, "Failed to delete trade")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseTradeDate parses a journal date and rejects future dates.
func parseTradeDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(dateFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("Invalid date")
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return time.Time{}, errors.New("Date cannot be in the future")
	}

	return date, nil
}

func trimPtr(s **string) {
	if *s != nil {
		trimmed := strings.TrimSpace(**s)
		*s = &trimmed
	}
}

// writeServiceError maps business errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, trade.ErrNoAccounts):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg(logMsg)
		http.Error(w, logMsg, http.StatusInternalServerError)
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "Invalid field: " + verrs[0].Field()
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
