package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/purchases"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/errtrack"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth      auth.Service
	Cart      cart.Service
	Products  product.Service
	Users     users.Service
	Addresses address.Service
	Purchases purchases.Service
	Checkout  checkoutsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	sessionManager session.AccessSessionChecker,
	reporter *errtrack.Reporter,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		reporter.Middleware(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
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
	authenticate := middleware.Auth(cfg.JWT, sessionManager, logg)
	idempotent := middleware.Idempotency(redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(authenticate).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/brands", controllers.CatalogBrands(svc.Products, logg))
		r.Get("/categories", controllers.CatalogCategories(svc.Products, logg))
		r.Get("/products", controllers.CatalogProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.CatalogProduct(svc.Products, logg))
	})

	// Cart routes serve both anonymous sessions and logged-in users.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartIdentity(cfg.JWT, sessionManager, svc.Cart, logg))
		r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
		r.Post("/items", cartcontrollers.CartAddLine(svc.Cart, logg))
		r.Put("/items/{productId}", cartcontrollers.CartUpdateLine(svc.Cart, logg))
		r.Delete("/items/{productId}", cartcontrollers.CartRemoveLine(svc.Cart, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireActiveUser(svc.Users, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.With(idempotent).Post("/cart", controllers.CheckoutCart(svc.Checkout, logg))
			r.With(idempotent).Post("/product", controllers.CheckoutProduct(svc.Checkout, logg))
		})
		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svc.Addresses, logg))
			r.With(idempotent).Post("/", controllers.AddressCreate(svc.Addresses, logg))
			r.Get("/{addressId}", controllers.AddressGet(svc.Addresses, logg))
			r.Put("/{addressId}", controllers.AddressUpdate(svc.Addresses, logg))
			r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
		})
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchaseList(svc.Purchases, logg))
			r.Get("/{purchaseId}", controllers.PurchaseDetail(svc.Purchases, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireSuperAdmin(logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(svc.Users, logg))
			r.Get("/{userId}", controllers.AdminUserGet(svc.Users, logg))
			r.Patch("/{userId}", controllers.AdminUserUpdate(svc.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(svc.Users, logg))
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(svc.Products, logg))
			r.Post("/", controllers.AdminProductCreate(svc.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(svc.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(svc.Products, logg))
		})
		r.Route("/brands", func(r chi.Router) {
			r.Post("/", controllers.AdminBrandCreate(svc.Products, logg))
			r.Patch("/{brandId}", controllers.AdminBrandUpdate(svc.Products, logg))
			r.Delete("/{brandId}", controllers.AdminBrandDelete(svc.Products, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(svc.Products, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(svc.Products, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(svc.Products, logg))
		})
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/{purchaseId}", controllers.AdminPurchaseGet(svc.Purchases, logg))
			r.With(idempotent).Post("/{purchaseId}/status", controllers.AdminPurchaseStatus(svc.Purchases, logg))
			r.Post("/{purchaseId}/confirm-payment", controllers.AdminPurchaseConfirmPayment(svc.Purchases, logg))
			r.Delete("/{purchaseId}", controllers.AdminPurchaseDelete(svc.Purchases, logg))
		})
	})

	return r
}
