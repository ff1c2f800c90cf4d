package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/rosterline/rosterauth/internal/auth"
	"github.com/rosterline/rosterauth/internal/handlers"
	"github.com/rosterline/rosterauth/internal/middleware"
	"github.com/rosterline/rosterauth/internal/models"
)

// Dependencies are the handlers and guards the router is assembled from.
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	AccountHandler *handlers.AccountHandler
	HealthHandler  *handlers.HealthHandler
	TokenManager   *auth.TokenManager
	Revocations    auth.TokenRevocationChecker
	Revocation     auth.RevocationConfig
	Accounts       auth.AccountFetcher
	LoginRateLimit middleware.RateLimitConfig
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", deps.HealthHandler.Health)

	// Public routes
	router.With(middleware.RateLimitByIP(deps.LoginRateLimit)).Post("/login", deps.AuthHandler.Login)
	router.Get("/logout", deps.AuthHandler.Logout)

	// Authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(deps.TokenManager, deps.Revocations, deps.Revocation, deps.Logger))

		r.Get("/protected", deps.AuthHandler.Protected)

		r.Route("/accounts", func(r chi.Router) {
			r.Use(auth.RequireRole(deps.Accounts, models.RoleAdmin, models.RoleMaintainer))

			r.Get("/", deps.AccountHandler.ListAccounts)
			r.Get("/{id}", deps.AccountHandler.GetAccount)
			r.Get("/{id}/auth-logs", deps.AccountHandler.ListAuthLogs)
			r.Post("/{id}/unlock", deps.AccountHandler.UnlockAccount)
		})
	})
}
