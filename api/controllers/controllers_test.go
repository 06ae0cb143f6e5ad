package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/purchases"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	t.Run("all dependencies up", func(t *testing.T) {
		deps := map[string]Pinger{
			"db":    pingerFunc(func(context.Context) error { return nil }),
			"redis": pingerFunc(func(context.Context) error { return nil }),
		}
		rec := httptest.NewRecorder()
		HealthReady(cfg, nil, deps)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test", rec.Header().Get(envHeader))
		assert.Contains(t, rec.Body.String(), `"redis":"ok"`)
	})

	t.Run("redis down", func(t *testing.T) {
		deps := map[string]Pinger{
			"redis": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
		}
		rec := httptest.NewRecorder()
		HealthReady(cfg, nil, deps)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, string(pkgerrors.CodeDependency), body.Error.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

type stubAuthService struct {
	cartToken string
	loginErr  error
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Email: req.Email}, nil
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest, cartSessionToken string) (*auth.LoginResponse, error) {
	s.cartToken = cartSessionToken
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &auth.LoginResponse{
		TokenPair:   auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		User:        &users.UserDTO{Email: req.Email},
		MergedLines: 2,
	}, nil
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func TestAuthLoginForwardsCartSession(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"shopper@example.com","password":"hunter22"}`))
	req.Header.Set(middleware.CartSessionHeader, "  anon-token ")
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anon-token", svc.cartToken)
	assert.Contains(t, rec.Body.String(), `"merged_cart_lines":2`)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"shopper@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeError(t, rec).Error.Message)
}

func TestAuthRegisterRejectsUnknownCurrency(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(
		`{"email":"a@b.com","password":"longenough","first_name":"A","last_name":"B","currency":"euro"}`))
	rec := httptest.NewRecorder()

	AuthRegister(&stubAuthService{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Error.Code)
}

func TestAuthLogoutRequiresSession(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogout(&stubAuthService{}, nil)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubCheckoutService struct {
	userID    uuid.UUID
	addressID *uuid.UUID
	product   checkoutsvc.ProductInput
	err       error
}

func (s *stubCheckoutService) PurchaseCart(_ context.Context, userID uuid.UUID, addressID *uuid.UUID) (*checkoutsvc.Result, error) {
	s.userID, s.addressID = userID, addressID
	if s.err != nil {
		return nil, s.err
	}
	return &checkoutsvc.Result{Total: decimal.RequireFromString("42.50")}, nil
}

func (s *stubCheckoutService) PurchaseProduct(_ context.Context, userID uuid.UUID, input checkoutsvc.ProductInput) (*checkoutsvc.Result, error) {
	s.userID, s.product = userID, input
	if s.err != nil {
		return nil, s.err
	}
	return &checkoutsvc.Result{Total: decimal.NewFromInt(10)}, nil
}

func TestCheckoutCartWithoutBody(t *testing.T) {
	svc := &stubCheckoutService{}
	userID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil), userID)
	rec := httptest.NewRecorder()

	CheckoutCart(svc, nil)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, userID, svc.userID)
	assert.Nil(t, svc.addressID)
	assert.Contains(t, rec.Body.String(), `"total":"42.5"`)
}

func TestCheckoutCartWithAddress(t *testing.T) {
	svc := &stubCheckoutService{}
	addressID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart",
		strings.NewReader(`{"address_id":"`+addressID.String()+`"}`)), uuid.New())
	rec := httptest.NewRecorder()

	CheckoutCart(svc, nil)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.addressID)
	assert.Equal(t, addressID, *svc.addressID)
}

func TestCheckoutCartEmptyCartIsStateConflict(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")}
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil), uuid.New())
	rec := httptest.NewRecorder()

	CheckoutCart(svc, nil)(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "cart is empty", decodeError(t, rec).Error.Message)
}

func TestCheckoutRequiresUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CheckoutCart(&stubCheckoutService{}, nil)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/cart", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutProduct(t *testing.T) {
	productID := uuid.New()

	t.Run("zero quantity rejected", func(t *testing.T) {
		svc := &stubCheckoutService{}
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/product",
			strings.NewReader(`{"product_id":"`+productID.String()+`","quantity":0}`)), uuid.New())
		rec := httptest.NewRecorder()

		CheckoutProduct(svc, nil)(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, uuid.Nil, svc.userID)
	})

	t.Run("passes input through", func(t *testing.T) {
		svc := &stubCheckoutService{}
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/product",
			strings.NewReader(`{"product_id":"`+productID.String()+`","quantity":3}`)), uuid.New())
		rec := httptest.NewRecorder()

		CheckoutProduct(svc, nil)(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, productID, svc.product.ProductID)
		assert.Equal(t, 3, svc.product.Quantity)
	})
}

type stubAddressService struct {
	created address.Input
	deleted uuid.UUID
	getErr  error
}

func (s *stubAddressService) Create(_ context.Context, _ uuid.UUID, input address.Input) (*address.AddressDTO, error) {
	s.created = input
	return &address.AddressDTO{ID: uuid.New(), FullName: input.FullName, Status: enums.StatusActive}, nil
}

func (s *stubAddressService) List(context.Context, uuid.UUID, bool) ([]address.AddressDTO, error) {
	return []address.AddressDTO{}, nil
}

func (s *stubAddressService) Get(context.Context, uuid.UUID, uuid.UUID, bool) (*address.AddressDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &address.AddressDTO{}, nil
}

func (s *stubAddressService) Update(_ context.Context, _ uuid.UUID, id uuid.UUID, input address.Input) (*address.AddressDTO, error) {
	return &address.AddressDTO{ID: id, FullName: input.FullName}, nil
}

func (s *stubAddressService) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func TestAddressCreate(t *testing.T) {
	svc := &stubAddressService{}
	body := `{"full_name":"Ada Lovelace","line1":"1 Main St","city":"London","state":"LDN","postal_code":"N1","country":"UK"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/addresses", strings.NewReader(body)), uuid.New())
	rec := httptest.NewRecorder()

	AddressCreate(svc, nil)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ada Lovelace", svc.created.FullName)
	assert.Equal(t, "UK", svc.created.Country)
}

func TestAddressCreateMissingFields(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/addresses", strings.NewReader(`{"full_name":"Ada"}`)), uuid.New())
	rec := httptest.NewRecorder()

	AddressCreate(&stubAddressService{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "line1")
}

func TestAddressGetOtherUsersAddressIsNotFound(t *testing.T) {
	svc := &stubAddressService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "address not found")}
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/addresses/x", nil), uuid.New())
	req = withURLParam(req, "addressId", uuid.NewString())
	rec := httptest.NewRecorder()

	AddressGet(svc, nil)(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddressDeleteBadID(t *testing.T) {
	svc := &stubAddressService{}
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/addresses/nope", nil), uuid.New())
	req = withURLParam(req, "addressId", "nope")
	rec := httptest.NewRecorder()

	AddressDelete(svc, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.deleted)
}

type stubPurchaseService struct {
	next enums.OrderStatus
	err  error
}

func (s *stubPurchaseService) List(context.Context, uuid.UUID, purchases.ListInput) (*purchases.ListResult, error) {
	return &purchases.ListResult{}, nil
}

func (s *stubPurchaseService) Get(context.Context, uuid.UUID, uuid.UUID) (*purchases.PurchaseDTO, error) {
	return &purchases.PurchaseDTO{}, nil
}

func (s *stubPurchaseService) GetAny(context.Context, uuid.UUID, bool) (*purchases.PurchaseDTO, error) {
	return &purchases.PurchaseDTO{}, nil
}

func (s *stubPurchaseService) UpdateStatus(_ context.Context, id uuid.UUID, next enums.OrderStatus) (*purchases.PurchaseDTO, error) {
	s.next = next
	if s.err != nil {
		return nil, s.err
	}
	return &purchases.PurchaseDTO{ID: id}, nil
}

func (s *stubPurchaseService) ConfirmPayment(context.Context, uuid.UUID) (*purchases.PurchaseDTO, error) {
	return &purchases.PurchaseDTO{}, nil
}

func (s *stubPurchaseService) Delete(context.Context, uuid.UUID) error { return nil }

func TestAdminPurchaseStatus(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantNext   enums.OrderStatus
	}{
		{name: "shipped", body: `{"status":"SHIPPED"}`, wantStatus: http.StatusOK, wantNext: enums.OrderStatusShipped},
		{name: "lowercase rejected", body: `{"status":"shipped"}`, wantStatus: http.StatusBadRequest},
		{name: "missing status", body: `{}`, wantStatus: http.StatusBadRequest},
		{
			name:       "terminal purchase",
			body:       `{"status":"CANCELLED"}`,
			svcErr:     pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition"),
			wantStatus: http.StatusUnprocessableEntity,
			wantNext:   enums.OrderStatusCancelled,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPurchaseService{err: tc.svcErr}
			req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/purchases/x/status", strings.NewReader(tc.body))
			req = withURLParam(req, "purchaseId", uuid.NewString())
			rec := httptest.NewRecorder()

			AdminPurchaseStatus(svc, nil)(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantNext, svc.next)
		})
	}
}

func TestPurchaseDetailRequiresValidID(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/purchases/bad", nil), uuid.New())
	req = withURLParam(req, "purchaseId", "bad")
	rec := httptest.NewRecorder()

	PurchaseDetail(&stubPurchaseService{}, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
