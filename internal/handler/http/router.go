package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Epi-Shop/epi-shop/internal/auth"
	"github.com/Epi-Shop/epi-shop/internal/domain"
	"github.com/Epi-Shop/epi-shop/internal/service"
	"github.com/Epi-Shop/epi-shop/pkg/health"
	"github.com/Epi-Shop/epi-shop/pkg/middleware"
)

// loginPath is where unauthenticated browser clients are sent.
const loginPath = "/api/v1/auth/login"

// NewRouter creates a chi router with all application routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	cartService *service.CartService,
	identityService *service.IdentityService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("epi-shop"))
	r.Use(middleware.Tracing("epi-shop"))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to the internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(identityService, logger)
	catalogHandler := NewCatalogHandler(catalogService, logger)
	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", authHandler.Me)
			r.Post("/password", authHandler.ChangePassword)
		})
	})

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Browsing the catalog is public.
		r.Get("/", catalogHandler.ListItems)
		r.Get("/{id}", catalogHandler.GetItem)

		// Catalog writes are restricted to admins.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/", catalogHandler.CreateItem)
			r.Put("/{id}", catalogHandler.UpdateItem)
			r.Delete("/{id}", catalogHandler.DeleteItem)
		})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.AuthWithLoginRedirect(tokenValidator, loginPath))

		r.Get("/", cartHandler.GetCart)
		r.Post("/items/{itemID}", cartHandler.AddItem)
		r.Put("/items/{lineID}", cartHandler.UpdateLine)
		r.Delete("/items/{lineID}", cartHandler.RemoveLine)
	})

	return r
}
