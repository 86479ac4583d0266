package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chiecouture/storefront-backend/api/controllers"
	"github.com/chiecouture/storefront-backend/api/middleware"
	"github.com/chiecouture/storefront-backend/internal/auth"
	"github.com/chiecouture/storefront-backend/internal/cart"
	checkoutsvc "github.com/chiecouture/storefront-backend/internal/checkout"
	"github.com/chiecouture/storefront-backend/internal/orders"
	"github.com/chiecouture/storefront-backend/internal/products"
	"github.com/chiecouture/storefront-backend/internal/reviews"
	"github.com/chiecouture/storefront-backend/internal/stores"
	"github.com/chiecouture/storefront-backend/pkg/config"
	"github.com/chiecouture/storefront-backend/pkg/enums"
	"github.com/chiecouture/storefront-backend/pkg/logger"
	"github.com/chiecouture/storefront-backend/pkg/metrics"
	"github.com/chiecouture/storefront-backend/pkg/redis"
)

// Services bundles the wired application services handed to the router.
type Services struct {
	Auth     auth.Service
	Stores   stores.Service
	Products products.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Reviews  reviews.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/password-reset", controllers.AuthPasswordReset(svcs.Auth, logg))
		r.Post("/password-reset/confirm", controllers.AuthPasswordResetConfirm(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stores", controllers.StoreList(svcs.Stores, logg))
		r.Get("/stores/{storeId}", controllers.StoreDetail(svcs.Stores, svcs.Products, logg))
		r.Get("/stores/{storeId}/products", controllers.StoreProducts(svcs.Products, logg))
		r.Get("/vendors/{vendorId}/stores", controllers.VendorStores(svcs.Stores, logg))
		r.Get("/products", controllers.ProductList(svcs.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(svcs.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ReviewList(svcs.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/vendor", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleVendor), logg))
				r.Post("/stores", controllers.StoreCreate(svcs.Stores, logg))
				r.Put("/stores/{storeId}", controllers.StoreUpdate(svcs.Stores, logg))
				r.Delete("/stores/{storeId}", controllers.StoreDelete(svcs.Stores, logg))
				r.Post("/products", controllers.ProductCreate(svcs.Products, logg))
				r.Put("/products/{productId}", controllers.ProductUpdate(svcs.Products, logg))
				r.Delete("/products/{productId}", controllers.ProductDelete(svcs.Products, logg))
				r.Get("/dashboard", controllers.VendorDashboard(svcs.Stores, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleBuyer), logg))
				r.Get("/cart", controllers.CartView(svcs.Cart, logg))
				r.Post("/cart/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Put("/cart", controllers.CartUpdate(svcs.Cart, logg))
				r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
				r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
				r.Get("/orders", controllers.OrderList(svcs.Orders, logg))
				r.Get("/orders/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/products/{productId}/reviews", controllers.ReviewSubmit(svcs.Reviews, logg))
			})
		})
	})

	return r
}
