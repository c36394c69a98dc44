// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/database"
	"codeberg.org/oliverandrich/inkwell/internal/handlers"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/metrics"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/services/accounts"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"codeberg.org/oliverandrich/inkwell/internal/services/email"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Repo     *repository.Repository
	Sessions *session.Manager
	Mailer   email.Sender
	Metrics  *metrics.Metrics
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"session_store", cfg.Session.Store,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	store, closeStore, err := newSessionStore(ctx, cfg, repo)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := session.NewManager(&cfg.Session, cfg.Secure(), store)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	mailer, err := email.NewSender(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to create mail sender: %w", err)
	}

	e := New(cfg, Deps{
		Repo:     repo,
		Sessions: sessions,
		Mailer:   mailer,
		Metrics:  metrics.New(),
	})

	return startWithGracefulShutdown(ctx, e, cfg)
}

// newSessionStore returns the configured session backend and a func
// releasing its resources.
func newSessionStore(ctx context.Context, cfg *config.Config, repo *repository.Repository) (session.Store, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return session.NewSQLStore(repo), func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.Session.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	return session.NewRedisStore(client), closeFn, nil
}

// New builds the echo instance with middleware and routes.
func New(cfg *config.Config, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	setupMiddleware(e, cfg, deps)
	setupRoutes(e, cfg, deps)

	return e
}

func setupRoutes(e *echo.Echo, cfg *config.Config, deps Deps) {
	h := handlers.New(deps.Repo, blog.NewService(deps.Repo))
	ah := handlers.NewAuth(accounts.NewService(deps.Repo), deps.Sessions, deps.Mailer, deps.Metrics)

	// Featured images
	e.Static("/media", cfg.Server.MediaDir)

	e.GET("/health", h.Health)
	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	e.GET("/", h.PostList)
	e.GET("/post/:id", h.PostDetail)

	e.GET("/register", ah.RegisterPage)
	e.POST("/register", ah.Register)
	e.GET("/verify-email", ah.VerifyEmailPage)
	e.POST("/verify-email", ah.VerifyEmail)
	e.GET("/login", ah.LoginPage)
	e.POST("/login", ah.Login)
	e.POST("/logout", ah.Logout)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		var err error
		if cfg.Server.TLSCertFile != "" {
			err = e.StartTLS(addr, cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
