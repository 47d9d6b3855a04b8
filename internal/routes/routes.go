package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apollotyres/console/internal/auth"
	"github.com/apollotyres/console/internal/handlers"
	"github.com/apollotyres/console/internal/middleware"
	"github.com/apollotyres/console/internal/views"
)

// RegisterRoutes registers all console routes
func RegisterRoutes(
	router chi.Router,
	console *handlers.ConsoleHandler,
	health handlers.HealthCheck,
	loginLimit middleware.RateLimitConfig,
	logger *slog.Logger,
) {
	// Operational endpoints
	router.Get("/health", handlers.Health(health))
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/static/*", http.StripPrefix("/static/", views.Static()))

	// Pages
	router.Get("/", console.Index)
	router.Get(auth.LoginPage, console.Login)
	router.Get(auth.ManagerDashboardPage, console.ManagerDashboard)
	router.Get(auth.UserDashboardPage, console.UserDashboard)

	// UI events, all form posts carrying the csrf token
	router.Route("/ui", func(r chi.Router) {
		r.Use(middleware.CSRFProtection(logger))

		r.With(middleware.RateLimitByIP(loginLimit)).Post("/login", console.SubmitLogin)
		r.Post("/action", console.Action)
		r.Post("/key", console.Key)
		r.Post("/backdrop", console.Backdrop)
		r.Post("/change", console.Change)
		r.Post("/add-engineer", console.AddEngineer)
		r.Post("/logout", console.Logout)
	})
}
