package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/calendar"
	"github.com/templui/finboard/internal/config"
	"github.com/templui/finboard/internal/db"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	Hub                *realtime.Hub
	AuthService        *service.AuthService
	AdminService       *service.AdminService
	UserService        *service.UserService
	ProfileService     *service.ProfileService
	EmailService       *service.EmailService
	FileService        *service.FileService
	TransactionService *service.TransactionService
	GoalService        *service.GoalService
	EventService       *service.EventService
	DashboardService   *service.DashboardService
	// nil when Google credentials are not configured
	CalendarTokenService *service.CalendarTokenService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	defaultLocation, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	fileRepository := repository.NewFileRepository(database)
	transactionRepository := repository.NewTransactionRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	eventRepository := repository.NewEventRepository(database)
	integrationRepository := repository.NewIntegrationRepository(database)

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	hub := realtime.NewHub()

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.EmailLogOnly,
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		profileRepository,
		hub,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.DefaultTimezone,
	)
	adminService := service.NewAdminService(userRepository, profileRepository, authService, emailService, cfg.DefaultTimezone)
	userService := service.NewUserService(userRepository, profileRepository, fileService, emailService, hub)
	profileService := service.NewProfileService(profileRepository, hub, defaultLocation)
	transactionService := service.NewTransactionService(transactionRepository, hub)
	goalService := service.NewGoalService(goalRepository, hub)

	calendarTokenService, err := service.NewCalendarTokenService(service.CalendarTokenConfig{
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		RedirectURL:   cfg.GoogleRedirectURL,
		StateSecret:   cfg.JWTSecret,
		StateExpiry:   cfg.OAuthStateExpiry,
		RefreshBuffer: cfg.CalendarTokenBuffer,
		AppURL:        cfg.AppURL,
	}, integrationRepository, hub)
	if err != nil {
		if !errors.Is(err, service.ErrCalendarNotConfigured) || cfg.CalendarConfigured() {
			return nil, fmt.Errorf("failed to initialize google calendar: %w", err)
		}
		slog.Info("google calendar integration disabled", "reason", err)
		calendarTokenService = nil
	}

	// a typed nil would not compare equal to nil inside EventService
	var tokens service.AccessTokenSource
	if calendarTokenService != nil {
		tokens = calendarTokenService
	}
	eventService := service.NewEventService(
		eventRepository,
		hub,
		calendar.NewClient(cfg.GoogleAPIBaseURL, cfg.GoogleCalendarID),
		tokens,
		cfg.CalendarLookahead,
	)
	dashboardService := service.NewDashboardService(transactionService, goalService, eventService)

	return &App{
		Cfg:                  cfg,
		DB:                   database,
		Hub:                  hub,
		AuthService:          authService,
		AdminService:         adminService,
		UserService:          userService,
		ProfileService:       profileService,
		EmailService:         emailService,
		FileService:          fileService,
		TransactionService:   transactionService,
		GoalService:          goalService,
		EventService:         eventService,
		DashboardService:     dashboardService,
		CalendarTokenService: calendarTokenService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
