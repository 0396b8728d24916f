package main

import (
	"log"
	"net/http"

	"ledgerlink/internal/shared/config"
	"ledgerlink/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", deps.HealthHandler.HandleHealth)

	// Public auth routes
	mux.HandleFunc("/api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(deps.UserHandler.HandleMe)))
	mux.Handle("/api/plaid/create-link-token", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleCreateLinkToken)))
	mux.Handle("/api/plaid/exchange-public-token", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleExchangePublicToken)))
	mux.Handle("/api/plaid/accounts", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleAccounts)))
	mux.Handle("/api/plaid/accounts/{id}", authMiddleware(http.HandlerFunc(deps.PlaidHandler.HandleAccountByID)))
	mux.Handle("/api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleListTransactions)))
	mux.Handle("/api/insights", authMiddleware(http.HandlerFunc(deps.InsightHandler.HandleListInsights)))
	mux.Handle("/api/notifications/register-device", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleRegisterDevice)))

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
