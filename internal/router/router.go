package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/auth"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/config"
	"github.com/homebake/api/internal/handler"
	"github.com/homebake/api/internal/intake"
	mw "github.com/homebake/api/internal/middleware"
	"github.com/homebake/api/internal/ws"
)

// Deps are the long-lived components the routes are served from.
type Deps struct {
	Store        *catalog.Store
	Desk         *intake.Desk
	Gate         *auth.Gate
	Hub          *ws.Hub
	Links        handler.LinkBuilder
	OrderLimiter *mw.RateLimiter
	LoginLimiter *mw.RateLimiter
	Log          logrus.FieldLogger
}

// New creates a Chi router with all application routes wired up.
// Owner routes require an authenticated OWNER session; order submission and
// login are rate limited per client.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	storefront := handler.NewStorefrontHandler(d.Store, d.Links, cfg.OrderDestination, d.Log)
	storefront.RegisterRoutes(r)

	categoryHandler := handler.NewCategoryHandler(d.Store, d.Log)
	categoryHandler.RegisterRoutes(r)

	// Order intake (rate limited per client)
	orderHandler := handler.NewOrderHandler(d.Store, d.Desk, d.Log)
	orderHandler.RegisterRoutes(r, d.OrderLimiter.Limit)

	// Auth routes (public, rate limited)
	authHandler := handler.NewAuthHandler(d.Gate, cfg.JWTSecret, d.Log)
	r.Group(func(r chi.Router) {
		r.Use(d.LoginLimiter.Limit)
		authHandler.RegisterRoutes(r)
	})

	// WebSocket route: catalog change events
	r.Get("/ws/catalog", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, ws.TopicCatalog, w, r)
	})

	// Owner-only routes
	r.Route("/owner", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireOwner)

		menuHandler := handler.NewMenuHandler(d.Store, d.Log)
		r.Route("/menu", menuHandler.RegisterRoutes)

		categoryHandler.RegisterOwnerRoutes(r)
	})

	d.Log.Info("router initialized with all handlers")
	return r
}
