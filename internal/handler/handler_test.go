package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxydesk/internal/domain"
	"proxydesk/internal/handler"
	"proxydesk/internal/inventory"
	"proxydesk/internal/pricing"
	"proxydesk/internal/rates"
	"proxydesk/internal/repository/memory"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

type env struct {
	router    *mux.Router
	pricing   *pricing.Service
	rates     *rates.Service
	inventory *inventory.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.NewNop()
	val := validator.New()

	pricingService := pricing.NewService(memory.NewPricingRepository(), log)
	ratesService := rates.NewService(memory.NewRatesRepository(), nil, nil, time.Second, time.Minute, log)
	inventoryService := inventory.NewService(memory.NewInventoryRepository(), log)

	pricingHandler := handler.NewPricingHandler(pricingService, val, log)
	ratesHandler := handler.NewRatesHandler(ratesService, val, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, val, log)

	r := mux.NewRouter()
	r.HandleFunc("/pricing/tiers", pricingHandler.ListTiers).Methods("GET")
	r.HandleFunc("/pricing/tiers/{quantity}", pricingHandler.UpdateTierPrice).Methods("PUT")
	r.HandleFunc("/pricing/resolve", pricingHandler.ResolvePrice).Methods("GET")
	r.HandleFunc("/rates/{currency}", ratesHandler.GetRate).Methods("GET")
	r.HandleFunc("/credentials/bulk", inventoryHandler.BulkInsert).Methods("POST")
	r.HandleFunc("/credentials/allocate", inventoryHandler.Allocate).Methods("POST")
	r.HandleFunc("/credentials/stats", inventoryHandler.Stats).Methods("GET")

	return &env{
		router:    r,
		pricing:   pricingService,
		rates:     ratesService,
		inventory: inventoryService,
	}
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestResolvePrice_UnknownQuantityReturnsCode(t *testing.T) {
	e := newEnv(t)

	w := e.do("GET", "/pricing/resolve?quantity=7", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	payload := decode(t, w)
	assert.Equal(t, "no_tier_for_quantity", payload["code"])
}

func TestUpdateTierPrice_Flow(t *testing.T) {
	e := newEnv(t)
	_, err := e.pricing.SeedDefaults(context.Background(), []*domain.PricingTier{{
		ID:          uuid.New(),
		MinQuantity: 5,
		MaxQuantity: 5,
		PriceUSD:    decimal.RequireFromString("0.81"),
		UpdatedAt:   time.Now().UTC(),
	}})
	require.NoError(t, err)

	w := e.do("PUT", "/pricing/tiers/5", `{"price_usd":"0.95"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do("GET", "/pricing/resolve?quantity=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	payload := decode(t, w)
	assert.Equal(t, "0.95", payload["price_usd"])
}

func TestUpdateTierPrice_RejectsUnknownFields(t *testing.T) {
	e := newEnv(t)

	w := e.do("PUT", "/pricing/tiers/5", `{"price_usd":"0.95","surprise":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTierPrice_ValidationErrors(t *testing.T) {
	e := newEnv(t)

	w := e.do("PUT", "/pricing/tiers/5", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	payload := decode(t, w)
	assert.Equal(t, "Validation failed", payload["error"])
}

func TestGetRate_NotConfiguredReturnsCode(t *testing.T) {
	e := newEnv(t)

	w := e.do("GET", "/rates/NGN", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	payload := decode(t, w)
	assert.Equal(t, "rate_not_configured", payload["code"])
}

func TestGetRate_RejectsUnknownCurrency(t *testing.T) {
	e := newEnv(t)

	w := e.do("GET", "/rates/EUR", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAllocate_ShortPoolReturnsConflict(t *testing.T) {
	e := newEnv(t)

	w := e.do("POST", "/credentials/bulk", `{"credentials":[
		{"username":"u1","password":"p1","tier_capacity":10}
	]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := `{"tier_capacity":10,"count":2,"assignee_id":"` + uuid.NewString() + `"}`
	w = e.do("POST", "/credentials/allocate", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	payload := decode(t, w)
	assert.Equal(t, "insufficient_inventory", payload["code"])

	// Nothing leaked from the failed allocation
	w = e.do("GET", "/credentials/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	tiers := stats["tiers"].([]interface{})
	require.Len(t, tiers, 1)
	tier := tiers[0].(map[string]interface{})
	assert.Equal(t, float64(1), tier["total_available"])
	assert.Equal(t, float64(0), tier["total_assigned"])
}
