package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"proxydesk/internal/pricing"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

// PricingHandler manages the quantity-tier price table endpoints.
type PricingHandler struct {
	service   *pricing.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewPricingHandler(service *pricing.Service, val *validator.Validator, log logger.Logger) *PricingHandler {
	return &PricingHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// ListTiers returns the full pricing table.
func (h *PricingHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.ListTiers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list pricing tiers", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tiers": tiers})
}

// ResolvePrice returns the unit price for a quantity (?quantity=N).
func (h *PricingHandler) ResolvePrice(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity query parameter must be a positive integer")
		return
	}

	price, err := h.service.ResolvePrice(r.Context(), quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quantity":  quantity,
		"price_usd": price,
	})
}

type updateTierPriceRequest struct {
	PriceUSD decimal.Decimal `json:"price_usd" validate:"required,gt=0"`
}

// UpdateTierPrice replaces the price of the tier covering {quantity}.
func (h *PricingHandler) UpdateTierPrice(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(mux.Vars(r)["quantity"])
	if err != nil || quantity < 1 {
		respondError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	var req updateTierPriceRequest
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

	if err := h.service.UpdateTierPrice(r.Context(), quantity, req.PriceUSD); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quantity":  quantity,
		"price_usd": req.PriceUSD,
	})
}
