package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prodman/internal/domain"
	"prodman/internal/service"
	"prodman/internal/store/memory"
)

func newTestAPI(t *testing.T) (http.Handler, string, string) {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", "test-admin-password")
	t.Setenv("SEED_CLERK_PASSWORD", "test-clerk-password")

	repo := memory.NewSeeded()
	svc := service.New(repo, nil)
	auth := NewAuthManager("test-secret-test-secret-test-secret", time.Hour, repo)
	api := New(svc, auth, "http://127.0.0.1:3000")
	handler := api.Handler()

	adminToken := loginFor(t, handler, "admin", "test-admin-password")
	clerkToken := loginFor(t, handler, "clerk", "test-clerk-password")
	return handler, adminToken, clerkToken
}

func loginFor(t *testing.T, handler http.Handler, username string, password string) string {
	t.Helper()
	body, _ := json.Marshal(domain.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = fmt.Sprintf("10.0.0.%d:1234", len(username))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := newTestAPI(t)
	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
}

func TestEndpointsRequireToken(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestCreateCategoryRoleMapping(t *testing.T) {
	handler, adminToken, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/categories", clerkToken, domain.CategoryCreateRequest{Name: "Toys"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk create, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/categories", adminToken, domain.CategoryCreateRequest{Name: "Toys"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/categories", adminToken, domain.CategoryCreateRequest{Name: "Toys"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate category, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/categories", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected clerk to list categories, got %d", rec.Code)
	}
}

func TestGetUnknownProductIs404(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products/prod-missing", clerkToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestShipOrderStatusMapping(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/orders/so-missing/ship", clerkToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/orders/so-seed-1/ship", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for seed shipment, got %d body %s", rec.Code, rec.Body.String())
	}

	var shipped struct {
		Shipment domain.ShipmentResult `json:"shipment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &shipped); err != nil {
		t.Fatalf("decode shipment: %v", err)
	}
	if shipped.Shipment.Order.TotalProfitCents != 56000 {
		t.Fatalf("profit = %d, want 56000", shipped.Shipment.Order.TotalProfitCents)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/orders/so-seed-1/ship", clerkToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reshipping, got %d", rec.Code)
	}
}

func TestOversizedOfferOrderConflicts(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/orders/offer", clerkToken, domain.OfferOrderRequest{
		OfferID:  "offer-launch-bundle",
		Quantity: 21,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 creating oversized order, got %d body %s", rec.Code, rec.Body.String())
	}

	// Two orders that each fit the current stock, but not both.
	var orders [2]domain.SalesOrder
	for i := range orders {
		rec = doJSON(t, handler, http.MethodPost, "/api/v1/orders/offer", clerkToken, domain.OfferOrderRequest{
			OfferID:  "offer-launch-bundle",
			Quantity: 15,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 creating order, got %d body %s", rec.Code, rec.Body.String())
		}
		var created struct {
			Order domain.SalesOrder `json:"order"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode order: %v", err)
		}
		orders[i] = created.Order
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/orders/"+orders[0].ID+"/ship", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 shipping first order, got %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/orders/"+orders[1].ID+"/ship", clerkToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for insufficient stock, got %d body %s", rec.Code, rec.Body.String())
	}
}

func TestOfferQuoteEndpoint(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/offers/offer-launch-bundle/quote?quantity=2", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Quote domain.OfferQuote `json:"quote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if resp.Quote.ProfitCents != 56000 {
		t.Fatalf("quote profit = %d, want 56000", resp.Quote.ProfitCents)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/offers/offer-launch-bundle/quote?quantity=zero", clerkToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad quantity, got %d", rec.Code)
	}
}

func TestListOffersByPriceRange(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/offers?min_price_cents=100000&max_price_cents=200000", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Offers []domain.Offer `json:"offers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode offers: %v", err)
	}
	if len(resp.Offers) != 1 || resp.Offers[0].ID != "offer-launch-bundle" {
		t.Fatalf("unexpected offers %+v", resp.Offers)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/offers?min_price_cents=200000&max_price_cents=300000", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp.Offers = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode offers: %v", err)
	}
	if len(resp.Offers) != 0 {
		t.Fatalf("expected no offers above the bundle price, got %+v", resp.Offers)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/offers?min_price_cents=abc", clerkToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed bound, got %d", rec.Code)
	}
}

func TestOfferStockSummaryEndpoint(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/offers/stock-summary", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Summary domain.OfferStockSummary `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if resp.Summary.Stocked != 1 {
		t.Fatalf("stocked = %d, want 1", resp.Summary.Stocked)
	}
}

func TestProfitReportEndpoint(t *testing.T) {
	handler, _, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/orders/so-seed-1/ship", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ship: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/profits", clerkToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: status %d", rec.Code)
	}

	var resp struct {
		Report domain.ProfitReport `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if resp.Report.Orders != 1 || resp.Report.TotalProfitCents != 56000 {
		t.Fatalf("unexpected report %+v", resp.Report)
	}
}

func TestAuditLogsAdminOnly(t *testing.T) {
	handler, adminToken, clerkToken := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", clerkToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for clerk, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/audit-logs", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	body, _ := json.Marshal(domain.LoginRequest{Username: "admin", Password: "wrong"})
	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}
