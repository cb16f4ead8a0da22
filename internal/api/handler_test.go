package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-service/internal/catalog"
	"pos-service/internal/checkout"
	"pos-service/internal/navigator"
	"pos-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, checks map[string]ReadinessCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := service.LoadSeed()
	require.NoError(t, err)
	index, err := catalog.LoadEmbedded()
	require.NoError(t, err)

	users := service.NewUserService(seed.Users)
	inventory := service.NewInventoryService(seed.Inventory, 5)
	history := service.NewMemorySaleHistory(seed.Sales)
	svc := Services{
		Auth: service.NewAuthService(users, service.NewMemoryIdentityStore(), service.NewSessionRegistry(), service.SessionConfig{
			Catalog:   index,
			Invoices:  checkout.NewInvoiceSequence(nil),
			Keymap:    navigator.DefaultKeymap(),
			HeldBills: seed.HeldBillsFor,
		}),
		Terminal:  service.NewTerminalService(index, history, nil),
		Inventory: inventory,
		Users:     users,
		Requests:  service.NewRequestService(seed.Requests, nil),
		Reports:   service.NewReportService(history, inventory, users, decimal.RequireFromString("0.30")),
	}

	router := gin.New()
	NewHandler(svc, checks).SetupRoutes(router)
	return router
}

func do(router *gin.Engine, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/v1/sessions", "", gin.H{"email": email, "password": "x"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SessionID
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	w := do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/sessions", "", gin.H{"email": "sarah@pos.com"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/sessions", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/cart", "unknown-session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sid := login(t, router, "john@pos.com")
	w = do(router, http.MethodGet, "/api/v1/session", sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "John Cashier")

	w = do(router, http.MethodDelete, "/api/v1/session", sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodGet, "/api/v1/session", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillingFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	sid := login(t, router, "john@pos.com")

	w := do(router, http.MethodPost, "/api/v1/checkout", sid, gin.H{"payment_method": "cash"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodPost, "/api/v1/cart/items", sid, gin.H{"item_id": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/v1/cart/items", sid, gin.H{"item_id": "oreo-classic", "quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/cart/items", sid, gin.H{"item_id": "oreo-classic", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item Added")

	w = do(router, http.MethodPost, "/api/v1/cart/custom-items", sid, gin.H{"name": "Bag", "price": "0.10"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/checkout", sid, gin.H{"payment_method": "bitcoin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/v1/checkout", sid, gin.H{
		"payment_method": "card",
		"customer":       gin.H{"name": "Jane"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Receipt struct {
			InvoiceID string `json:"invoice_id"`
			Total     string `json:"total"`
		} `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "5.10", decimal.RequireFromString(resp.Receipt.Total).StringFixed(2))

	w = do(router, http.MethodGet, "/api/v1/bills/"+resp.Receipt.InvoiceID+"/receipt", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt-"+resp.Receipt.InvoiceID+".txt")
	assert.Contains(t, w.Body.String(), "Customer: Jane")

	w = do(router, http.MethodGet, "/api/v1/bills?mine=true", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":3`)
}

func TestPauseAndResume(t *testing.T) {
	router := newTestRouter(t, nil)
	sid := login(t, router, "john@pos.com")

	w := do(router, http.MethodPost, "/api/v1/held-bills/1/resume", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Green Tea Box")

	w = do(router, http.MethodPost, "/api/v1/cart/pause", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paused":true`)

	w = do(router, http.MethodPost, "/api/v1/held-bills/1/resume", sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNavigatorKeys(t *testing.T) {
	router := newTestRouter(t, nil)
	sid := login(t, router, "john@pos.com")

	for _, key := range []string{"Enter", "Enter", "Enter"} {
		w := do(router, http.MethodPost, "/api/v1/navigator/keys", sid, gin.H{"key": key})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(router, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "oreo-classic")

	w = do(router, http.MethodPost, "/api/v1/navigator/actions", sid, gin.H{"action": "enter_brand", "id": "br-arla"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoleGates(t *testing.T) {
	router := newTestRouter(t, nil)
	cashier := login(t, router, "john@pos.com")
	admin := login(t, router, "admin@pos.com")

	w := do(router, http.MethodGet, "/api/v1/users", cashier, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodPost, "/api/v1/users", admin, gin.H{
		"name": "Copy", "email": "john@pos.com", "role": "cashier",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already exists")

	w = do(router, http.MethodPost, "/api/v1/requests/2/process", admin, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodGet, "/api/v1/reports/monthly", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/reports/hourly", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/inventory/low-stock", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ballpoint Pen Set")
}

func TestSetQuantityRequiresQuantity(t *testing.T) {
	router := newTestRouter(t, nil)
	sid := login(t, router, "john@pos.com")

	w := do(router, http.MethodPost, "/api/v1/cart/items", sid, gin.H{"item_id": "oreo-classic", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPut, "/api/v1/cart/items/oreo-classic", sid, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/cart", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "oreo-classic")

	w = do(router, http.MethodPut, "/api/v1/cart/items/oreo-classic", sid, gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "oreo-classic")
}
