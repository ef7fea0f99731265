package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nino-0813/honma-ec-sub000/internal/address"
	"github.com/nino-0813/honma-ec-sub000/internal/cart"
	checkoutsvc "github.com/nino-0813/honma-ec-sub000/internal/checkout"
	ordersrepo "github.com/nino-0813/honma-ec-sub000/internal/orders"
	productsrepo "github.com/nino-0813/honma-ec-sub000/internal/products"
	shippingrepo "github.com/nino-0813/honma-ec-sub000/internal/shipping"
	"github.com/nino-0813/honma-ec-sub000/pkg/config"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	"github.com/nino-0813/honma-ec-sub000/pkg/logger"
	"github.com/nino-0813/honma-ec-sub000/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProductsRepo struct{}

func (stubProductsRepo) WithTx(tx *gorm.DB) productsrepo.Repository {
	return stubProductsRepo{}
}

func (stubProductsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id, Title: "コシヒカリ 5kg", PriceYen: 4500, IsActive: true}, nil
}

func (stubProductsRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (stubProductsRepo) ListActive(ctx context.Context) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubProductsRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	return product, nil
}

func (stubProductsRepo) Update(ctx context.Context, product *models.Product) error {
	return nil
}

func (stubProductsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubProductsRepo) DecrementStock(ctx context.Context, id uuid.UUID, selected map[string]string, qty int) error {
	return nil
}

type stubShippingRepo struct{}

func (stubShippingRepo) WithTx(tx *gorm.DB) shippingrepo.Repository {
	return stubShippingRepo{}
}

func (stubShippingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	return &models.ShippingMethod{ID: id}, nil
}

func (stubShippingRepo) List(ctx context.Context) ([]models.ShippingMethod, error) {
	return []models.ShippingMethod{}, nil
}

func (stubShippingRepo) Create(ctx context.Context, method *models.ShippingMethod) (*models.ShippingMethod, error) {
	return method, nil
}

func (stubShippingRepo) Update(ctx context.Context, method *models.ShippingMethod) error {
	return nil
}

func (stubShippingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubShippingRepo) MethodsForProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]models.ShippingMethod, error) {
	return map[uuid.UUID][]models.ShippingMethod{}, nil
}

func (stubShippingRepo) LinkProducts(ctx context.Context, methodID uuid.UUID, productIDs []uuid.UUID) error {
	return nil
}

type stubOrdersRepo struct{}

func (stubOrdersRepo) WithTx(tx *gorm.DB) ordersrepo.Repository {
	return stubOrdersRepo{}
}

func (stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (stubOrdersRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersRepo) List(ctx context.Context, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersRepo) UpsertDraft(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (stubOrdersRepo) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string, paidAt time.Time) error {
	return nil
}

func (stubOrdersRepo) MarkFailed(ctx context.Context, paymentIntentID string) error {
	return nil
}

func (stubOrdersRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) Prepare(ctx context.Context, input checkoutsvc.PrepareInput) (*checkoutsvc.PrepareResult, error) {
	return &checkoutsvc.PrepareResult{}, nil
}

func (stubCheckoutService) ValidateStock(ctx context.Context, c *cart.Cart) error {
	return nil
}

func (stubCheckoutService) QuoteCart(ctx context.Context, c *cart.Cart, prefecture string, express bool, couponCode string) (*checkoutsvc.Quote, error) {
	return &checkoutsvc.Quote{}, nil
}

type stubAddressService struct{}

func (stubAddressService) Resolve(ctx context.Context, postalCode string) (*address.Resolved, error) {
	return &address.Resolved{PostalCode: postalCode}, nil
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, redis.ErrNotFound)
	}
	return raw, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeKV) CartKey(token string) string {
	return "hec:cart:" + token
}

func (f *fakeKV) IntentKey(token string) string {
	return "hec:intent:" + token
}

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Port: "0"},
		Auth:   config.AuthConfig{JWTSecret: "secret", Issuer: "issuer"},
		Stripe: config.StripeConfig{Currency: "jpy"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	store, err := cart.NewStore(newFakeKV(), time.Hour)
	if err != nil {
		t.Fatalf("cart store setup: %v", err)
	}
	return NewRouter(RouterParams{
		Config:    cfg,
		Logger:    logg,
		DB:        stubPinger{},
		Cache:     stubPinger{},
		Products:  stubProductsRepo{},
		Shipping:  stubShippingRepo{},
		Orders:    stubOrdersRepo{},
		CartStore: store,
		Checkout:  stubCheckoutService{},
		Address:   stubAddressService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": "admin@honma-nouen.com",
		"role":  role,
		"iss":   cfg.Auth.Issuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for /healthz got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for /readyz got %d", resp.Code)
	}
}

func TestStorefrontAllowsAnonymousRequests(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous product list got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Cart-Token", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest cart got %d", resp.Code)
	}
}

func TestCartRequiresSessionToken(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without cart token got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "customer"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "admin"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminOrderListValidatesPagination(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=500", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range limit got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=25&offset=0", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid pagination got %d", resp.Code)
	}
}

func TestAddressLookupIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/address?postal_code=1000001", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for address lookup got %d", resp.Code)
	}
}
