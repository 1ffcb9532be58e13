package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline-io/threadline-backend/internal/auth"
	cartsvc "github.com/threadline-io/threadline-backend/internal/cart"
	checkoutsvc "github.com/threadline-io/threadline-backend/internal/checkout"
	ordersvc "github.com/threadline-io/threadline-backend/internal/orders"
	productsvc "github.com/threadline-io/threadline-backend/internal/products"
	pkgauth "github.com/threadline-io/threadline-backend/pkg/auth"
	"github.com/threadline-io/threadline-backend/pkg/config"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

type stubStore struct{}

func (stubStore) HasSession(context.Context, string) (bool, error) { return true, nil }

func (stubStore) IncrWithTTL(context.Context, string, time.Duration) (int64, error) { return 1, nil }

func (stubStore) Ping(context.Context) error { return nil }

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubUserLoader struct{}

func (stubUserLoader) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{Name: "Jamie"}, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubRegisterService struct{}

func (stubRegisterService) Start(context.Context, auth.RegisterStartRequest) error { return nil }

func (stubRegisterService) Verify(context.Context, auth.RegisterVerifyRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

type stubResetService struct{}

func (stubResetService) Start(context.Context, auth.PasswordResetStartRequest) error { return nil }

func (stubResetService) Confirm(context.Context, auth.PasswordResetConfirmRequest) error { return nil }

type stubProductService struct{}

func (stubProductService) List(context.Context, pagination.Params, productsvc.ListFilters) (*productsvc.ProductListResult, error) {
	return &productsvc.ProductListResult{}, nil
}

func (stubProductService) Get(context.Context, uuid.UUID) (*productsvc.ProductDetail, error) {
	return &productsvc.ProductDetail{}, nil
}

func (stubProductService) Create(context.Context, productsvc.CreateProductRequest) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Update(context.Context, uuid.UUID, productsvc.UpdateProductRequest) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{}, nil
}

func (stubProductService) Delete(context.Context, uuid.UUID) error { return nil }

func (stubProductService) AddReview(context.Context, uuid.UUID, uuid.UUID, string, productsvc.CreateReviewRequest) (*productsvc.ReviewDTO, error) {
	return &productsvc.ReviewDTO{}, nil
}

func (stubProductService) ListReviews(context.Context, uuid.UUID, pagination.Params) (*productsvc.ReviewListResult, error) {
	return &productsvc.ReviewListResult{}, nil
}

type stubCartService struct{}

func (stubCartService) Get(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) AddItem(context.Context, uuid.UUID, cartsvc.AddItemRequest) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) UpdateQuantity(context.Context, uuid.UUID, cartsvc.UpdateQuantityRequest) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveItem(context.Context, uuid.UUID, cartsvc.RemoveItemRequest) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(context.Context, uuid.UUID) error { return nil }

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(context.Context, uuid.UUID, checkoutsvc.CheckoutRequest) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

type stubOrderService struct{}

func (stubOrderService) List(context.Context, uuid.UUID, pagination.Params) (*ordersvc.OrderListResult, error) {
	return &ordersvc.OrderListResult{}, nil
}

func (stubOrderService) ListAll(context.Context, pagination.Params) (*ordersvc.OrderListResult, error) {
	return &ordersvc.OrderListResult{}, nil
}

func (stubOrderService) Get(context.Context, uuid.UUID, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) AdminGet(context.Context, uuid.UUID) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) UpdateStatus(context.Context, uuid.UUID, uuid.UUID, ordersvc.UpdateStatusRequest) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) CreateReturn(context.Context, uuid.UUID, uuid.UUID, ordersvc.CreateReturnRequest) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) UpdateReturnStatus(context.Context, uuid.UUID, ordersvc.UpdateReturnStatusRequest) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{}, nil
}

func (stubOrderService) Delete(context.Context, uuid.UUID) error { return nil }

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "threadline-test", ExpirationMinutes: 15},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	return NewRouter(Deps{
		Config:   cfg,
		DB:       stubPinger{},
		Redis:    stubStore{},
		Metrics:  prometheus.NewRegistry(),
		Users:    stubUserLoader{},
		Auth:     stubAuthService{},
		Register: stubRegisterService{},
		Reset:    stubResetService{},
		Products: stubProductService{},
		Cart:     stubCartService{},
		Checkout: stubCheckoutService{},
		Orders:   stubOrderService{},
	})
}

func mintRouterToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "jamie@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterPublicRoutes(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	for _, target := range []string{"/health/live", "/health/ready", "/metrics", "/api/v1/products"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", target, resp.Code)
		}
	}
}

func TestRouterAuthGuards(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous cart access: expected 401 got %d", resp.Code)
	}

	token := mintRouterToken(t, cfg, enums.UserRoleCustomer)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("authenticated cart access: expected 200 got %d", resp.Code)
	}
}

func TestRouterAdminGuards(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(cfg)

	customer := mintRouterToken(t, cfg, enums.UserRoleCustomer)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403 got %d", resp.Code)
	}

	admin := mintRouterToken(t, cfg, enums.UserRoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin on admin route: expected 200 got %d", resp.Code)
	}
}
