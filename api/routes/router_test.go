package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

// memoryRedis satisfies redisStore with a map.
type memoryRedis struct {
	mu      sync.Mutex
	values  map[string]string
	pingErr error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}}
}

func (m *memoryRedis) Ping(context.Context) error { return m.pingErr }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	}
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubUsers struct {
	users.Service
	status enums.StatusCode
}

func (s stubUsers) Get(_ context.Context, id uuid.UUID, _ bool) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id, Status: s.status}, nil
}

type stubCart struct {
	cart.Service
}

func (stubCart) Identify(_ context.Context, token string) (cart.Identity, error) {
	if token == "" {
		token = "minted-token"
	}
	return cart.Anonymous(token, "session-1"), nil
}

func (stubCart) Recognize(_ context.Context, token string) (cart.Identity, error) {
	if token == "" {
		return cart.PendingSession(), nil
	}
	return cart.Anonymous(token, "session-1"), nil
}

func (stubCart) Resolve(context.Context, cart.Identity) (*cart.CartView, error) {
	return &cart.CartView{}, nil
}

func (stubCart) AddLine(_ context.Context, _ cart.Identity, productID uuid.UUID, qty int) (*cart.LineView, error) {
	return &cart.LineView{ProductID: productID, Quantity: qty}, nil
}

type stubProducts struct {
	product.Service
	deleted []uuid.UUID
}

func (s *stubProducts) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubCheckout struct {
	mu    sync.Mutex
	calls int
}

func (s *stubCheckout) PurchaseCart(context.Context, uuid.UUID, *uuid.UUID) (*checkoutsvc.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &checkoutsvc.Result{}, nil
}

func (s *stubCheckout) PurchaseProduct(context.Context, uuid.UUID, checkoutsvc.ProductInput) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"https://shop.example.com"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 15},
	}
}

type routerFixture struct {
	handler  http.Handler
	redis    *memoryRedis
	checkout *stubCheckout
	registry *prometheus.Registry
}

func newFixture(t *testing.T, userStatus enums.StatusCode) *routerFixture {
	t.Helper()
	registry := prometheus.NewRegistry()
	commerce := metrics.NewCommerceMetrics(registry)
	commerce.ObserveCheckout("cart", 2, time.Millisecond)

	f := &routerFixture{
		redis:    newMemoryRedis(),
		checkout: &stubCheckout{},
		registry: registry,
	}
	f.handler = NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		f.redis,
		stubSessions{},
		nil,
		registry,
		Services{
			Cart:     stubCart{},
			Users:    stubUsers{status: userStatus},
			Checkout: f.checkout,
		},
	)
	return f
}

func bearer(t *testing.T, userID uuid.UUID, superAdmin bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:       userID,
		Email:        "shopper@example.com",
		IsSuperAdmin: superAdmin,
		JTI:          "jti-router",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	rec := serve(f.handler, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestHealthReadyReportsRedisOutage(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	f.redis.pingErr = errors.New("dial tcp: refused")

	rec := serve(f.handler, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestMetricsEndpointExposesCommerceCounters(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	rec := serve(f.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "checkout_purchases_total") {
		t.Fatalf("expected checkout metrics in body: %s", rec.Body.String())
	}
}

func TestAuthenticatedGroupRejectsMissingJWT(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	for _, path := range []string{"/api/v1/purchases", "/api/v1/addresses", "/api/admin/v1/users"} {
		rec := serve(f.handler, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestAdminGroupRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/users", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), false))

	rec := serve(f.handler, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestBlockedUserCannotCheckout(t *testing.T) {
	f := newFixture(t, enums.StatusBlocked)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), false))
	req.Header.Set(middleware.IdempotencyHeader, "k1")

	rec := serve(f.handler, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if f.checkout.calls != 0 {
		t.Fatalf("checkout must not run for blocked users")
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), false))

	rec := serve(f.handler, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCheckoutReplayDoesNotPurchaseTwice(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	auth := bearer(t, uuid.New(), false)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil)
		req.Header.Set("Authorization", auth)
		req.Header.Set(middleware.IdempotencyHeader, "checkout-1")
		rec := serve(f.handler, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	if f.checkout.calls != 1 {
		t.Fatalf("expected one checkout, got %d", f.checkout.calls)
	}
}

func TestAnonymousCartMintsSessionHeaderOnFirstAdd(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	rec := serve(f.handler, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(middleware.CartSessionHeader); got != "" {
		t.Fatalf("reading an empty cart must not mint a session, got %q", got)
	}

	body := `{"product_id":"` + uuid.NewString() + `","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(f.handler, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(middleware.CartSessionHeader); got != "minted-token" {
		t.Fatalf("expected minted cart session header, got %q", got)
	}
}

func TestCORSPreflightAllowsCartHeader(t *testing.T) {
	f := newFixture(t, enums.StatusActive)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.CartSessionHeader)

	rec := serve(f.handler, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
}

func TestRouterBuildsWithoutCatalogOrPurchaseServices(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("building the router with unset services panicked: %v", r)
		}
	}()
	NewRouter(testConfig(), nil, stubPinger{}, newMemoryRedis(), stubSessions{}, nil, nil, Services{})
}

func TestAdminProductDeleteReachesService(t *testing.T) {
	products := &stubProducts{}
	handler := NewRouter(testConfig(), nil, stubPinger{}, newMemoryRedis(), stubSessions{}, nil, nil, Services{
		Users:    stubUsers{status: enums.StatusActive},
		Products: products,
	})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/products/"+id.String(), nil)
	req.Header.Set("Authorization", bearer(t, uuid.New(), true))

	rec := serve(handler, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(products.deleted) != 1 || products.deleted[0] != id {
		t.Fatalf("expected product %s deleted, got %v", id, products.deleted)
	}
}
