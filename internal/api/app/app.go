package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	httpapi "github.com/aussiebroadwan/staffroom/internal/api/http"
	"github.com/aussiebroadwan/staffroom/internal/api/service"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
	"github.com/aussiebroadwan/staffroom/internal/api/store/drivers/memory"
	"github.com/aussiebroadwan/staffroom/internal/api/store/drivers/sqlite"
	"github.com/aussiebroadwan/staffroom/pkg/cryptox"
	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/aussiebroadwan/staffroom/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	sessionService  *service.SessionService
	userService     *service.UserService
	employeeService *service.EmployeeService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "staffroom-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Sessions do not survive a restart anyway (the refresh store is
	// in-memory), so a missing secret degrades to an ephemeral one.
	if app.cfg.Secret == "" {
		app.cfg.Secret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("JWT_SECRET not set, generated an ephemeral signing secret; " +
			"all sessions invalidate on restart")
	}

	codec, err := jwtx.NewCodec([]byte(app.cfg.Secret), app.cfg.Issuer, app.cfg.Audience)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.seedUsers(); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("staffroom api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down staffroom api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("staffroom api stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.employeeService = &service.EmployeeService{Store: app.db}
	app.sessionService = &service.SessionService{
		Codec:      app.codec,
		Tokens:     memory.NewRefreshTokenStore(),
		Roles:      app.userService,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
}

// seedUsers creates the first-run accounts when the users table is empty.
func (app *Application) seedUsers() error {
	return app.userService.EnsureSeedUsers(context.Background(), app.logger, []service.SeedUser{
		{Email: app.cfg.SeedAdminEmail, Password: app.cfg.SeedAdminPassword, Role: domain.RoleAdmin},
		{Email: app.cfg.SeedUserEmail, Password: app.cfg.SeedUserPassword, Role: domain.RoleUser},
	})
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.codec, BuildVersion, app.db, app.logger)

	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.EmployeeService = app.employeeService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
