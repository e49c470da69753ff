package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"proxydesk/internal/domain"
	"proxydesk/internal/orders"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

// OrdersHandler manages the order settlement endpoints.
type OrdersHandler struct {
	service   *orders.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewOrdersHandler(service *orders.Service, val *validator.Validator, log logger.Logger) *OrdersHandler {
	return &OrdersHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// Place settles a purchase: price, allocate, record.
func (h *OrdersHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceRequest
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

	order, err := h.service.Place(r.Context(), &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// Get returns a single order.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// List returns a filtered page of orders (?user_id=&status=&limit=&offset=).
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter orders.Filter
	q := r.URL.Query()

	if v := q.Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user_id filter value")
			return
		}
		filter.UserID = &userID
	}
	if v := q.Get("status"); v != "" {
		status := domain.OrderStatus(v)
		if status != domain.OrderStatusActive && status != domain.OrderStatusReleased {
			respondError(w, http.StatusBadRequest, "Invalid status filter value")
			return
		}
		filter.Status = &status
	}
	filter.Limit = intQuery(q.Get("limit"), 100)
	filter.Offset = intQuery(q.Get("offset"), 0)

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list orders", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": list,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Release returns an order's credentials to the pool.
func (h *OrdersHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.service.ReleaseOrder(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Totals returns the order dashboard aggregates.
func (h *OrdersHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Totals(r.Context())
	if err != nil {
		h.logger.Error("Failed to aggregate order totals", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, totals)
}
