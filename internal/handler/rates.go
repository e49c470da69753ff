package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/middleware"
	"proxydesk/internal/rates"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

// RatesHandler manages the exchange rate endpoints. The configured-rate
// routes and the live-quote route are deliberately separate paths.
type RatesHandler struct {
	service   *rates.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewRatesHandler(service *rates.Service, val *validator.Validator, log logger.Logger) *RatesHandler {
	return &RatesHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

func currencyFromPath(r *http.Request) (domain.Currency, bool) {
	raw := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["currency"]))
	switch domain.Currency(raw) {
	case domain.NGN, domain.GHS:
		return domain.Currency(raw), true
	}
	return "", false
}

// ListRates returns every configured rate.
func (h *RatesHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	configured, err := h.service.ListRates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list rates", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"rates": configured})
}

// GetRate returns the configured rate for {currency}.
func (h *RatesHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	currency, ok := currencyFromPath(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "currency must be NGN or GHS")
		return
	}

	rate, err := h.service.GetRate(r.Context(), currency)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rate)
}

type setRateRequest struct {
	Rate decimal.Decimal `json:"rate" validate:"required,gt=0"`
}

// SetRate replaces the configured rate for {currency}. The acting admin is
// taken from the authenticated context, not the payload.
func (h *RatesHandler) SetRate(w http.ResponseWriter, r *http.Request) {
	currency, ok := currencyFromPath(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "currency must be NGN or GHS")
		return
	}

	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req setRateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if valErrs := h.validator.ValidateStructured(&req); valErrs != nil {
		respondValidationErrors(w, valErrs)
		return
	}

	if err := h.service.SetRate(r.Context(), currency, req.Rate, adminID); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"currency": currency,
		"rate":     req.Rate,
	})
}

type convertRequest struct {
	AmountUSD decimal.Decimal `json:"amount_usd" validate:"required,gt=0"`
	Currency  domain.Currency `json:"currency" validate:"required,oneof=NGN GHS"`
}

// Convert projects a USD amount into the configured local currency.
func (h *RatesHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if valErrs := h.validator.ValidateStructured(&req); valErrs != nil {
		respondValidationErrors(w, valErrs)
		return
	}

	amountLocal, err := h.service.Convert(r.Context(), req.AmountUSD, req.Currency)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"amount_usd":   req.AmountUSD,
		"currency":     req.Currency,
		"amount_local": amountLocal,
	})
}

// LiveQuote returns a best-effort market rate for {currency}. A provider
// outage yields 503 without touching the configured rates.
func (h *RatesHandler) LiveQuote(w http.ResponseWriter, r *http.Request) {
	currency, ok := currencyFromPath(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "currency must be NGN or GHS")
		return
	}

	quote, err := h.service.LiveQuote(r.Context(), currency)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}
