package routes

import (
	"net/http"

	"github.com/templui/finboard/internal/app"
	"github.com/templui/finboard/internal/handler"
	"github.com/templui/finboard/internal/middleware"
	"github.com/templui/finboard/internal/ui"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.ProfileService, app.CalendarTokenService, app.Cfg)
	account := handler.NewAccountHandler(app.UserService, app.FileService)
	profile := handler.NewProfileHandler(app.ProfileService)
	admin := handler.NewAdminHandler(app.AdminService)
	transaction := handler.NewTransactionHandler(app.TransactionService, app.ProfileService)
	goal := handler.NewGoalHandler(app.GoalService, app.ProfileService)
	dashboard := handler.NewDashboardHandler(app.DashboardService, app.TransactionService, app.ProfileService)
	event := handler.NewEventHandler(app.EventService, app.ProfileService)
	integration := handler.NewIntegrationHandler(app.CalendarTokenService, app.Cfg.AppURL)
	realtime := handler.NewRealtimeHandler(app.Hub)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))

	// The calendar consent round trip is bound to the user by its signed state
	mux.HandleFunc("GET /api/integrations/google/callback", rateLimiter(integration.Callback))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Account & profile
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(account.Me))
	mux.HandleFunc("PATCH /api/profile", middleware.RequireAuth(profile.Update))
	mux.HandleFunc("POST /api/account/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("POST /api/account/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("DELETE /api/account/avatar", middleware.RequireAuth(account.DeleteAvatar))

	// Transactions
	mux.HandleFunc("GET /api/transactions", middleware.RequireAuth(transaction.List))
	mux.HandleFunc("GET /api/transactions/categories", middleware.RequireAuth(transaction.Categories))
	mux.HandleFunc("POST /api/transactions", middleware.RequireAuth(transaction.Create))
	mux.HandleFunc("PUT /api/transactions/{id}", middleware.RequireAuth(transaction.Update))
	mux.HandleFunc("DELETE /api/transactions/{id}", middleware.RequireAuth(transaction.Delete))

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("PUT /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))

	// Reports
	mux.HandleFunc("GET /api/dashboard", middleware.RequireAuth(dashboard.Dashboard))
	mux.HandleFunc("GET /api/summary", middleware.RequireAuth(dashboard.Summary))
	mux.HandleFunc("GET /api/summary/monthly", middleware.RequireAuth(dashboard.MonthlySeries))
	mux.HandleFunc("GET /api/summary/categories", middleware.RequireAuth(dashboard.ExpensesByCategory))

	// Events
	mux.HandleFunc("GET /api/events", middleware.RequireAuth(event.Agenda))
	mux.HandleFunc("GET /api/events/today", middleware.RequireAuth(event.Today))
	mux.HandleFunc("POST /api/events", middleware.RequireAuth(event.Create))
	mux.HandleFunc("PUT /api/events/{id}", middleware.RequireAuth(event.Update))
	mux.HandleFunc("DELETE /api/events/{id}", middleware.RequireAuth(event.Delete))

	// Google Calendar
	mux.HandleFunc("GET /api/integrations/google", middleware.RequireAuth(integration.Status))
	mux.HandleFunc("GET /api/integrations/google/connect", middleware.RequireAuth(integration.Connect))
	mux.HandleFunc("POST /api/integrations/google", middleware.RequireAuth(integration.Action))
	mux.HandleFunc("DELETE /api/integrations/google", middleware.RequireAuth(integration.Disconnect))

	// Realtime
	mux.HandleFunc("GET /api/realtime", middleware.RequireAuth(realtime.Stream))

	// Admin
	mux.HandleFunc("POST /api/admin/users", middleware.RateLimitAdmin()(middleware.RequireAdmin(admin.CreateUser)))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", func(w http.ResponseWriter, r *http.Request) {
		ui.Error(w, http.StatusNotFound, "not found", "not_found")
	})

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for S3 endpoint)
		middleware.NonceMiddleware, // must be before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.CORS(app.Cfg.CORSAllowedOrigin),
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.Auth(app.AuthService, app.UserService, app.ProfileService),
	)

	return handler
}
