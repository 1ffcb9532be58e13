package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threadline-io/threadline-backend/api/controllers"
	"github.com/threadline-io/threadline-backend/api/middleware"
	"github.com/threadline-io/threadline-backend/internal/auth"
	cartsvc "github.com/threadline-io/threadline-backend/internal/cart"
	checkoutsvc "github.com/threadline-io/threadline-backend/internal/checkout"
	ordersvc "github.com/threadline-io/threadline-backend/internal/orders"
	productsvc "github.com/threadline-io/threadline-backend/internal/products"
	"github.com/threadline-io/threadline-backend/pkg/config"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// sessionStore is the slice of the Redis client the router hands to auth and
// throttling middleware.
type sessionStore interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       pinger
	Redis    sessionStore
	Metrics  prometheus.Gatherer
	Users    userLoader
	Auth     auth.Service
	Register auth.RegisterService
	Reset    auth.PasswordResetService
	Products productsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
}

// NewRouter assembles the HTTP surface: public catalog reads, throttled auth
// flows, the authenticated storefront, and the admin back office.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegisterStart(deps.Register, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register/verify", controllers.AuthRegisterVerify(deps.Register, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/password-reset", controllers.AuthPasswordResetStart(deps.Reset, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/password-reset/confirm", controllers.AuthPasswordResetConfirm(deps.Reset, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	// Catalog reads are public.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Products, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/{productId}/reviews", controllers.ReviewList(deps.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Redis, logg))

		r.Post("/products/{productId}/reviews", controllers.ReviewCreate(deps.Products, deps.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items", controllers.CartUpdateQuantity(deps.Cart, logg))
			r.Delete("/items", controllers.CartRemoveItem(deps.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/returns", controllers.OrderReturnCreate(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Redis, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
			r.Patch("/{orderId}/returns", controllers.AdminReturnUpdateStatus(deps.Orders, logg))
			r.Delete("/{orderId}", controllers.AdminOrderDelete(deps.Orders, logg))
		})
	})

	return r
}
