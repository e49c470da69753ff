package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/ledger"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

// LedgerHandler manages the payment transaction endpoints.
type LedgerHandler struct {
	service   *ledger.Service
	validator *validator.Validator
	logger    logger.Logger
}

func NewLedgerHandler(service *ledger.Service, val *validator.Validator, log logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: val,
		logger:    log,
	}
}

// Record books an intake payment as a pending transaction.
func (h *LedgerHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req ledger.RecordRequest
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

	tx, err := h.service.Record(r.Context(), &req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

// Get returns a single transaction.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

// List returns transactions matching every provided query filter
// (?status=&user_id=&channel=&min_amount=&max_amount=&from=&to=&limit=&offset=).
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLedgerFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list transactions", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// Approve labels a transaction approved. Safe to call on a transaction that
// was disapproved earlier.
func (h *LedgerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.TransactionStatusApproved)
}

// Disapprove labels a transaction disapproved.
func (h *LedgerHandler) Disapprove(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, domain.TransactionStatusDisapproved)
}

func (h *LedgerHandler) setStatus(w http.ResponseWriter, r *http.Request, status domain.TransactionStatus) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	var opErr error
	if status == domain.TransactionStatusApproved {
		opErr = h.service.Approve(r.Context(), id)
	} else {
		opErr = h.service.Disapprove(r.Context(), id)
	}
	if opErr != nil {
		respondDomainError(w, opErr)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": status,
	})
}

type correctAmountRequest struct {
	AmountLocal decimal.Decimal `json:"amount_local" validate:"required,gt=0"`
	Currency    domain.Currency `json:"currency" validate:"required,oneof=NGN GHS"`
}

// CorrectAmount replaces a transaction's canonical amount from a figure
// entered in local currency.
func (h *LedgerHandler) CorrectAmount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	var req correctAmountRequest
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

	tx, err := h.service.CorrectAmount(r.Context(), id, req.AmountLocal, req.Currency)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tx)
}

// Delete hard-removes a transaction.
func (h *LedgerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Totals returns the ledger dashboard aggregates.
func (h *LedgerHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Totals(r.Context())
	if err != nil {
		h.logger.Error("Failed to aggregate ledger totals", map[string]interface{}{"error": err.Error()})
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, totals)
}

func parseLedgerFilter(r *http.Request) (ledger.Filter, error) {
	var filter ledger.Filter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := domain.TransactionStatus(v)
		if !status.Valid() {
			return filter, errInvalidFilter("status")
		}
		filter.Status = &status
	}
	if v := q.Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			return filter, errInvalidFilter("user_id")
		}
		filter.UserID = &userID
	}
	if v := q.Get("channel"); v != "" {
		channel := domain.Channel(v)
		if !channel.Valid() {
			return filter, errInvalidFilter("channel")
		}
		filter.Channel = &channel
	}
	if v := q.Get("min_amount"); v != "" {
		min, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errInvalidFilter("min_amount")
		}
		filter.MinAmountUSD = &min
	}
	if v := q.Get("max_amount"); v != "" {
		max, err := decimal.NewFromString(v)
		if err != nil {
			return filter, errInvalidFilter("max_amount")
		}
		filter.MaxAmountUSD = &max
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidFilter("from")
		}
		filter.DateFrom = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidFilter("to")
		}
		filter.DateTo = &to
	}

	filter.Limit = intQuery(q.Get("limit"), 100)
	filter.Offset = intQuery(q.Get("offset"), 0)
	return filter, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string {
	return "invalid " + string(e) + " filter value"
}
