package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskshare-api/internal/config"
	"github.com/phrazzld/taskshare-api/internal/notify"
	"github.com/phrazzld/taskshare-api/internal/platform/mail"
	"github.com/phrazzld/taskshare-api/internal/platform/postgres"
	"github.com/phrazzld/taskshare-api/internal/service"
	"github.com/phrazzld/taskshare-api/internal/service/auth"
	"github.com/phrazzld/taskshare-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService

	// Reminder dispatch
	mailer    mail.Mailer
	scheduler *notify.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Initialize task service
	app.taskService = service.NewTaskService(
		app.taskStore,
		app.userStore,
		store.NewTxRunner(db),
		logger,
	)

	// Initialize the mailer. Without an SMTP host, reminders go to the log,
	// which keeps local development free of mail infrastructure.
	app.mailer, err = setupMailer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	// Initialize the due-soon reminder scheduler
	notifier := notify.NewDueSoonNotifier(app.taskStore, app.userStore, app.mailer, logger)
	interval := time.Duration(cfg.Notify.IntervalMinutes) * time.Minute
	app.scheduler = notify.NewScheduler(notifier, interval, logger)

	logger.Info("application initialized")
	return app, nil
}

// setupMailer chooses the reminder delivery mechanism from configuration.
func setupMailer(cfg *config.Config, logger *slog.Logger) (mail.Mailer, error) {
	if cfg.SMTP.Host == "" {
		logger.Info("no SMTP host configured, logging reminders instead of sending")
		return mail.NewLogMailer(logger), nil
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("SMTP mailer initialized", "host", cfg.SMTP.Host)
	return mailer, nil
}

// Run starts the reminder scheduler and the HTTP server, handling lifecycle
// and cleanup. It blocks until the server shuts down.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start(ctx)

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the reminder scheduler before closing the database it reads from
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
