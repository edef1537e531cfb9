package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floraweave/floraweave-backend/api/controllers"
	"github.com/floraweave/floraweave-backend/api/middleware"
	"github.com/floraweave/floraweave-backend/internal/audit"
	authsvc "github.com/floraweave/floraweave-backend/internal/auth"
	"github.com/floraweave/floraweave-backend/internal/cart"
	"github.com/floraweave/floraweave-backend/internal/categories"
	"github.com/floraweave/floraweave-backend/internal/designs"
	"github.com/floraweave/floraweave-backend/internal/media"
	"github.com/floraweave/floraweave-backend/internal/notify"
	"github.com/floraweave/floraweave-backend/internal/orders"
	products "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/internal/users"
	"github.com/floraweave/floraweave-backend/pkg/auth/session"
	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/metrics"
	"github.com/floraweave/floraweave-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    *session.Manager
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	Auth       authsvc.Service
	Users      users.Service
	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Orders     orders.Service
	Designs    designs.Service
	Media      media.Service
	Notify     notify.Service
	Audit      *audit.Recorder
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Public storefront surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
				middleware.Idempotency(d.Redis, logg),
			).Post("/register", controllers.AuthRegister(d.Users, d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(d.Products, logg))
			r.Get("/products/{slug}", controllers.CatalogProductDetail(d.Products, logg))
			r.Get("/categories", controllers.CategoryTree(d.Categories, logg))
		})

		r.With(middleware.Idempotency(d.Redis, logg)).Post("/design-requests", controllers.DesignSubmit(d.Designs, logg))

		// Authenticated storefront surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
			r.Use(middleware.Idempotency(d.Redis, logg))

			r.Get("/me", controllers.AuthMe(d.Users, logg))
			r.Post("/auth/change-password", controllers.AuthChangePassword(d.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(d.Orders, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.MyOrders(d.Orders, logg))
				r.Get("/{orderId}", controllers.MyOrderDetail(d.Orders, logg))
			})
			r.Get("/downloads/{productId}", controllers.DownloadDigitalFile(d.Orders, d.Media, logg))
		})
	})

	// Back office surface.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProducts(d.Products, logg))
			r.Post("/", controllers.ProductCreate(d.Products, logg))
			r.Post("/validate-field", controllers.ProductValidateField(logg))
			r.Get("/{productId}", controllers.ProductDetail(d.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(d.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(d.Products, logg))
			r.Post("/{productId}/variants/move", controllers.ProductMoveVariant(d.Products, logg))
			r.Post("/{productId}/slabs/move", controllers.ProductMoveSlab(d.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryTree(d.Categories, logg))
			r.Post("/", controllers.CategoryCreate(d.Categories, logg))
			r.Put("/{categoryId}", controllers.CategoryUpdate(d.Categories, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(d.Categories, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrders(d.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(d.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(d.Orders, logg))
			r.Post("/{orderId}/payment-status", controllers.AdminOrderPaymentStatus(d.Orders, logg))
		})

		r.Route("/design-requests", func(r chi.Router) {
			r.Get("/", controllers.AdminDesignRequests(d.Designs, logg))
			r.Get("/{requestId}", controllers.AdminDesignRequestDetail(d.Designs, logg))
			r.Patch("/{requestId}", controllers.AdminDesignRequestUpdate(d.Designs, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/", controllers.MediaUpload(d.Media, logg))
			r.Get("/{mediaId}", controllers.MediaDetail(d.Media, logg))
			r.Delete("/{mediaId}", controllers.MediaDelete(d.Media, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUsers(d.Users, logg))
			r.Post("/", controllers.AdminUserCreate(d.Users, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(d.Users, logg))
			r.Patch("/{userId}", controllers.AdminUserUpdate(d.Users, logg))
		})

		r.Get("/audit", controllers.AdminAuditLog(d.Audit, logg))

		r.Route("/notification-rules", func(r chi.Router) {
			r.Get("/", controllers.AdminNotificationRules(d.Notify, logg))
			r.Put("/", controllers.AdminNotificationRuleSave(d.Notify, logg))
			r.Delete("/{ruleId}", controllers.AdminNotificationRuleDelete(d.Notify, logg))
		})
	})

	// Stored gallery and reference files; digital design files are excluded.
	r.Get("/media/*", controllers.MediaServe(d.Media, logg))

	return r
}
