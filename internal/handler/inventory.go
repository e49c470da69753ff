package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"proxydesk/internal/inventory"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

// InventoryHandler manages the proxy credential pool endpoints.
type InventoryHandler struct {
	service   *inventory.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewInventoryHandler(service *inventory.Service, val *validator.Validator, log logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

type bulkInsertRequest struct {
	Credentials []inventory.BulkEntry `json:"credentials" validate:"required,min=1,dive"`
}

// BulkInsert imports a batch of credentials into the pool.
func (h *InventoryHandler) BulkInsert(w http.ResponseWriter, r *http.Request) {
	var req bulkInsertRequest
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
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

	inserted, err := h.service.BulkInsert(r.Context(), req.Credentials)
	if err != nil {
		h.logger.Error("Bulk credential import failed", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"inserted": inserted,
		"received": len(req.Credentials),
	})
}

// List returns a filtered page of the pool
// (?tier=N&assigned=true|false&limit=N&offset=N).
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter inventory.ListFilter
	q := r.URL.Query()

	if v := q.Get("tier"); v != "" {
		tier, err := strconv.Atoi(v)
		if err != nil || tier < 1 {
			respondError(w, http.StatusBadRequest, "tier must be a positive integer")
			return
		}
		filter.TierCapacity = &tier
	}
	if v := q.Get("assigned"); v != "" {
		assigned, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "assigned must be true or false")
			return
		}
		filter.Assigned = &assigned
	}
	filter.Limit = intQuery(q.Get("limit"), 100)
	filter.Offset = intQuery(q.Get("offset"), 0)

	creds, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list credentials", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"credentials": creds,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})
}

// Get returns a single credential.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid credential ID")
		return
	}

	cred, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cred)
}

type allocateRequest struct {
	TierCapacity int       `json:"tier_capacity" validate:"required,gte=1"`
	Count        int       `json:"count" validate:"required,gte=1"`
	AssigneeID   uuid.UUID `json:"assignee_id" validate:"required"`
}

// Allocate assigns count credentials of a tier to a consumer, all or nothing.
func (h *InventoryHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
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

	creds, err := h.service.Allocate(r.Context(), req.TierCapacity, req.Count, req.AssigneeID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"credentials": creds})
}

// Release returns a credential to the pool.
func (h *InventoryHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid credential ID")
		return
	}

	if err := h.service.Release(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// Delete hard-removes a credential from the pool.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid credential ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Stats returns the per-tier pool aggregates.
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StatsByTier(r.Context())
	if err != nil {
		h.logger.Error("Failed to aggregate tier stats", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tiers": stats})
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return n
	}
	return fallback
}
