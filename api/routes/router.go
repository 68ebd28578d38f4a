package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/ratings"
	"github.com/angelmondragon/storefront-backend/internal/searchlogs"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Store is the Redis surface used by rate limiting and idempotency.
type Store interface {
	redis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Store    Store

	// Readiness maps a dependency name to its health check. Nil entries are skipped.
	Readiness map[string]controllers.Pinger
	Gatherer  prometheus.Gatherer
	HTTP      *metrics.HTTPMetrics

	Auth          auth.Service
	Users         users.Service
	Products      product.Service
	Categories    categories.Service
	Cart          cart.Service
	Orders        orders.Service
	Ratings       ratings.Service
	Addresses     address.Service
	Notifications notifications.Service
	SearchLogs    searchlogs.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)
	requireAdmin := middleware.RequireRole(enums.RoleAdmin, logg)
	idempotent := middleware.Idempotency(deps.Store, cfg.FeatureFlags.IdempotencyTTL, logg)
	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).Post("/login", controllers.AuthLogin(deps.Auth, cfg.JWT, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
			// refresh accepts an expired access token; the service verifies its signature.
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
			if !cfg.App.IsProd() {
				r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg)).Post("/admin/register", controllers.AuthAdminRegister(deps.Auth, logg))
			}
		})

		r.Route("/products", func(r chi.Router) {
			r.With(optionalAuth).Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{id}", controllers.GetProduct(deps.Products, logg))
			r.Get("/{id}/reviews", controllers.ListReviews(deps.Ratings, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{id}/ratings", controllers.RateProduct(deps.Ratings, logg))
				r.Post("/{id}/reviews", controllers.CreateReview(deps.Ratings, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", controllers.CreateProduct(deps.Products, maxUpload, logg))
				r.Patch("/{id}", controllers.UpdateProduct(deps.Products, maxUpload, logg))
				r.Delete("/{id}", controllers.DeleteProduct(deps.Products, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.Categories, logg))
			r.Get("/{id}", controllers.GetCategory(deps.Categories, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", controllers.CreateCategory(deps.Categories, logg))
				r.Patch("/{id}", controllers.UpdateCategory(deps.Categories, logg))
				r.Delete("/{id}", controllers.DeleteCategory(deps.Categories, logg))
			})
		})

		r.Route("/subcategories", func(r chi.Router) {
			r.Get("/", controllers.ListSubcategories(deps.Categories, logg))
			r.Get("/{id}", controllers.GetSubcategory(deps.Categories, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", controllers.CreateSubcategory(deps.Categories, logg))
				r.Patch("/{id}", controllers.UpdateSubcategory(deps.Categories, logg))
				r.Delete("/{id}", controllers.DeleteSubcategory(deps.Categories, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.With(requireAdmin).Get("/", controllers.ListUsers(deps.Users, logg))
				r.Get("/me", controllers.GetMe(deps.Users, logg))
				r.Patch("/me", controllers.UpdateMe(deps.Users, logg))
				r.Delete("/me", controllers.DeleteMe(deps.Users, cfg.JWT, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Patch("/items/{productId}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.RemoveCartItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/", controllers.CreateOrder(deps.Orders, logg))
				r.Get("/my-orders", controllers.ListMyOrders(deps.Orders, logg))
				r.With(requireAdmin).Get("/", controllers.ListOrders(deps.Orders, logg))
				r.Get("/{id}", controllers.GetOrder(deps.Orders, logg))
				r.With(requireAdmin).Patch("/{id}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
				r.With(idempotent).Patch("/{id}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Delete("/reviews/{reviewId}", controllers.DeleteReview(deps.Ratings, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
				r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
				r.Get("/{id}", controllers.GetAddress(deps.Addresses, logg))
				r.Patch("/{id}", controllers.UpdateAddress(deps.Addresses, logg))
				r.Delete("/{id}", controllers.DeleteAddress(deps.Addresses, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.With(requireAdmin).Get("/admin/search-logs", controllers.ListSearchLogs(deps.SearchLogs, logg))
		})
	})

	return r
}
