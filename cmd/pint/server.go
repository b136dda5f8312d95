package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/routing"
	"github.com/pintim/pint/internal/shell/api"
	"github.com/pintim/pint/internal/shell/content"
	"github.com/pintim/pint/internal/shell/edge"
	"github.com/pintim/pint/internal/shell/session"
	"github.com/pintim/pint/internal/shell/store"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 4
)

// operationalRoutes are reachable without a session on the main host.
var operationalRoutes = []string{"/health", "/ready", "/api/openapi.json"}

// =============================================================================
// Server
// =============================================================================

// Server represents the Pint application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	release    func()
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	handler, release, err := newHandler(cfg, s, logger)
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		release:    release,
		logger:     logger,
	}, nil
}

// newHandler wires the services over s and wraps the application in the
// edge middleware. The returned release func frees the in-memory caches.
func newHandler(cfg *Config, s store.Store, logger *slog.Logger) (http.Handler, func(), error) {
	directory, err := tenancy.NewDirectory(s, tenancy.DirectoryConfig{
		RootDomain:      cfg.Tenant.RootDomain,
		CacheTTL:        cfg.Tenant.CacheTTL,
		CacheMaxEntries: cfg.Tenant.CacheMaxEntries,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	checker := tenancy.NewChecker(directory)

	identity, err := newIdentity(cfg.Auth, logger)
	if err != nil {
		directory.Close()
		return nil, nil, err
	}

	var webhooks *auth.WebhookVerifier
	if cfg.Auth.WebhookSecret != "" {
		webhooks, err = auth.NewWebhookVerifier(cfg.Auth.WebhookSecret)
		if err != nil {
			directory.Close()
			return nil, nil, err
		}
	} else {
		logger.Warn("auth.webhook_secret is not set, account webhooks will be rejected")
	}

	h, err := api.NewHandler(api.Config{
		Store:          s,
		Directory:      directory,
		Checker:        checker,
		Onboarder:      tenancy.NewOnboarder(s, checker, logger),
		Accounts:       tenancy.NewAccounts(s, directory, logger),
		Content:        content.NewService(s, logger),
		Settings:       tenancy.NewSettings(s, directory, logger),
		Widgets:        content.NewWidgets(s, logger),
		Identity:       identity,
		Webhooks:       webhooks,
		Logger:         logger,
		AllowedOrigins: cfg.API.AllowedOrigins,
		CheckRate:      cfg.API.CheckRate,
		CheckBurst:     cfg.API.CheckBurst,
		CheckMaxKeys:   cfg.API.CheckMaxKeys,
	})
	if err != nil {
		directory.Close()
		return nil, nil, err
	}
	release := func() {
		h.Close()
		directory.Close()
	}

	if cfg.Tenant.DevOverride {
		logger.Warn("tenant dev override enabled; ?subdomain= selects a tenant")
	}

	mw := edge.New(edge.Config{
		RootDomain:   cfg.Tenant.RootDomain,
		DevOverride:  cfg.Tenant.DevOverride,
		SignInPath:   cfg.Auth.SignInPath,
		PublicRoutes: append(append([]string{}, routing.DefaultPublicRoutes...), operationalRoutes...),
		Identity:     identity,
	}, directory, logger)

	return mw.Handler(h.SetupAPI()), release, nil
}

// newIdentity builds the session extractor. Signing keys are fetched for the
// life of the process.
func newIdentity(cfg AuthConfig, logger *slog.Logger) (auth.Extractor, error) {
	identity := auth.Extractor{TrustProxyHeaders: cfg.TrustProxyHeaders}
	if cfg.TrustProxyHeaders {
		logger.Warn("auth.trust_proxy_headers enabled; X-User-ID is accepted as the caller's identity")
	}

	if cfg.Issuer == "" {
		logger.Warn("auth.issuer is not set, session tokens will be rejected")
		return identity, nil
	}

	verifier, err := session.NewVerifier(context.Background(), session.Config{
		Issuer:   cfg.Issuer,
		JWKSURL:  cfg.JWKSURL,
		Audience: cfg.Audience,
	})
	if err != nil {
		return auth.Extractor{}, err
	}
	identity.Verifier = verifier
	return identity, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address(),
			"root_domain", s.config.Tenant.RootDomain)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.store.Close()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.release()

	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
