package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PitherGabriel/PuntodeVentaTB/clients"
	"github.com/PitherGabriel/PuntodeVentaTB/config"
	"github.com/PitherGabriel/PuntodeVentaTB/controllers"
	"github.com/PitherGabriel/PuntodeVentaTB/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePOSAPI serves a two-product catalog and accepts every sale.
func fakePOSAPI(t *testing.T, sales *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			_, _ = io.WriteString(w, `{"success":true,"user":{"username":"ana","nombre":"Ana Torres"}}`)
		case "/api/auth/logout":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
			_, _ = io.WriteString(w, `{"success":true}`)
		case "/api/auth/check":
			if _, err := r.Cookie("session"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"authenticated":false}`)
				return
			}
			_, _ = io.WriteString(w, `{"authenticated":true,"user":{"username":"ana","nombre":"Ana Torres"}}`)
		case "/api/inventory":
			_, _ = io.WriteString(w, `{"success":true,"data":[
				{"ID":1,"Nombre":"Camisa","Cantidad":15,"Precio":25,"Costo":15,"MinStock":10,"Codigo":"CAM001"},
				{"ID":2,"Nombre":"Gorra","Cantidad":0,"Precio":12.5,"Costo":7,"MinStock":2,"Codigo":"GOR001"}
			]}`)
		case "/api/sale":
			sales.Add(1)
			_, _ = io.WriteString(w, `{"success":true,"sale_id":"VTA-100","total":50,"items":1,"alerts":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"message":"not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, features config.Features, sales *atomic.Int32) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := fakePOSAPI(t, sales)
	gateway := clients.NewPOSGatewayClient(srv.URL+"/api", 2*time.Second)
	log := zap.NewNop()

	terminal := services.NewTerminal(features, "Sistema")
	catalog := services.NewCatalogService(terminal, gateway, nil, log)
	checkout := services.NewCheckoutService(terminal, gateway, nil, nil, "", nil, log)
	salesSvc := services.NewSalesService(gateway, 50, features.ProfitReport, log)
	session := services.NewSessionService(terminal, gateway, catalog, log)

	r := gin.New()
	RegisterTerminalRoutes(r, Handlers{
		Terminal: controllers.NewTerminalController(terminal),
		Checkout: controllers.NewCheckoutController(checkout, terminal),
		Catalog:  controllers.NewCatalogController(catalog),
		Sales:    controllers.NewSalesController(salesSvc),
		Session:  controllers.NewSessionController(session),
	}, terminal, features)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTerminalFlow_SignInSellSignOut(t *testing.T) {
	var sales atomic.Int32
	r := newTestRouter(t, config.Features{Auth: true, Invoicing: true, ProfitReport: true}, &sales)

	// signed out: terminal routes are closed
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/terminal/state", "").Code)

	w := do(r, http.MethodPost, "/api/terminal/session/login", `{"username":"ana","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// login loaded the catalog
	w = do(r, http.MethodGet, "/api/terminal/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state services.TerminalView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "Ana Torres", state.Seller)
	assert.Len(t, state.Catalog, 2)
	assert.Len(t, state.LowStock, 1)

	w = do(r, http.MethodPost, "/api/terminal/cart/items", `{"product_id":"2"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "out of stock")

	w = do(r, http.MethodPost, "/api/terminal/cart/items", `{"product_id":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPatch, "/api/terminal/cart/items/1", `{"delta":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/terminal/cart/change?received=60", "")
	assert.JSONEq(t, `{"received":"60","valid":true,"change":"10.00"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/terminal/checkout/sale", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int32(1), sales.Load())

	var sold struct {
		State services.TerminalView `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sold))
	assert.Empty(t, sold.State.Cart)
	assert.Equal(t, 13, sold.State.Catalog[0].Quantity)

	w = do(r, http.MethodPost, "/api/terminal/session/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/terminal/state", "").Code)
}

func TestFeatureFlags(t *testing.T) {
	var sales atomic.Int32
	r := newTestRouter(t, config.Features{}, &sales)

	// without auth every terminal route is open and the seller is the default
	w := do(r, http.MethodGet, "/api/terminal/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state services.TerminalView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "Sistema", state.Seller)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/terminal/session"},
		{http.MethodPost, "/api/terminal/session/login"},
		{http.MethodPut, "/api/terminal/client"},
		{http.MethodPost, "/api/terminal/checkout/invoice"},
		{http.MethodGet, "/api/terminal/sales/profit"},
	} {
		w := do(r, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), "feature_disabled", tc.path)
	}

	w = do(r, http.MethodPost, "/api/terminal/catalog/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/terminal/checkout/sale", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_cart")
	assert.Zero(t, sales.Load())
}

func TestHealth(t *testing.T) {
	var sales atomic.Int32
	r := newTestRouter(t, config.Features{Invoicing: true}, &sales)

	w := do(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"invoicing":true`)
}
