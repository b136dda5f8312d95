// Package api provides HTTP handlers for the Pint API and the public blog
// routes behind the edge rewrite.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pintim/pint/internal/core/auth"
	apimw "github.com/pintim/pint/internal/shell/api/middleware"
	"github.com/pintim/pint/internal/shell/api/openapi"
	"github.com/pintim/pint/internal/shell/content"
	"github.com/pintim/pint/internal/shell/store"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// =============================================================================
// Handler
// =============================================================================

// Config holds the services behind the API.
type Config struct {
	Store     store.Store
	Directory *tenancy.Directory
	Checker   *tenancy.Checker
	Onboarder *tenancy.Onboarder
	Accounts  *tenancy.Accounts
	Settings  *tenancy.Settings
	Content   *content.Service
	Widgets   *content.Widgets

	// Identity reads and verifies the caller's session.
	Identity auth.Extractor

	// Webhooks verifies account webhooks. If nil, the webhook endpoint
	// rejects every delivery.
	Webhooks *auth.WebhookVerifier

	Logger *slog.Logger

	// AllowedOrigins enables CORS for the dashboard. Empty disables CORS.
	AllowedOrigins []string

	// CheckRate and CheckBurst limit subdomain checks per user.
	CheckRate  float64
	CheckBurst int

	// CheckMaxKeys bounds the number of users tracked by the limiter.
	CheckMaxKeys int64
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store     store.Store
	directory *tenancy.Directory
	checker   *tenancy.Checker
	onboarder *tenancy.Onboarder
	accounts  *tenancy.Accounts
	settings  *tenancy.Settings
	content   *content.Service
	widgets   *content.Widgets
	identity  auth.Extractor
	webhooks  *auth.WebhookVerifier
	logger    *slog.Logger

	origins      []string
	validator    *Validator
	checkLimiter *keyedLimiter
	openapi      *openapi.Generator
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	limiter, err := newKeyedLimiter(cfg.CheckRate, cfg.CheckBurst, cfg.CheckMaxKeys)
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:        cfg.Store,
		directory:    cfg.Directory,
		checker:      cfg.Checker,
		onboarder:    cfg.Onboarder,
		accounts:     cfg.Accounts,
		settings:     cfg.Settings,
		content:      cfg.Content,
		widgets:      cfg.Widgets,
		identity:     cfg.Identity,
		webhooks:     cfg.Webhooks,
		logger:       cfg.Logger,
		origins:      cfg.AllowedOrigins,
		validator:    NewValidator(),
		checkLimiter: limiter,
		openapi:      newOpenAPI(),
	}, nil
}

// Close releases the handler's caches.
func (h *Handler) Close() {
	h.checkLimiter.Close()
}

// Routes returns the router with all API routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestIDHeader)
	if len(h.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.origins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(h.jsonContentType)

	var resolver apimw.IdentityResolver
	if h.accounts != nil {
		resolver = h.accounts
	}
	r.Use(apimw.NewAuthMiddleware(apimw.AuthConfig{
		Identity: h.identity,
		Resolver: resolver,
		Logger:   h.logger,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, CodeValidation, "Method not allowed")
	})

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", h.openapi.Handler())
		r.Post("/webhooks/account", h.handleAccountWebhook)
		r.Get("/auth/onboarding-status", h.handleOnboardingStatus)

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAuth(h.logger))

			r.Route("/onboarding", func(r chi.Router) {
				r.Get("/check-subdomain", h.handleCheckSubdomain)
				r.Get("/reserved", h.handleReservedNames)
				r.Post("/complete", h.handleCompleteOnboarding)
			})

			r.Get("/settings", h.handleGetSettings)
			r.Patch("/settings", h.handleUpdateSettings)

			r.Route("/widgets", func(r chi.Router) {
				r.Get("/", h.handleListWidgets)
				r.Patch("/", h.handleReorderWidgets)
				r.Patch("/{id}", h.handleUpdateWidget)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.handleListPosts)
				r.Post("/", h.handleCreatePost)
				r.Get("/{id}", h.handleGetPost)
				r.Patch("/{id}", h.handleUpdatePost)
				r.Delete("/{id}", h.handleDeletePost)
				r.Post("/{id}/publish", h.handlePublishPost)
			})

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", h.handleListPages)
				r.Post("/", h.handleCreatePage)
				r.Get("/{id}", h.handleGetPage)
				r.Patch("/{id}", h.handleUpdatePage)
				r.Delete("/{id}", h.handleDeletePage)
				r.Post("/{id}/publish", h.handlePublishPage)
			})
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// pinger is implemented by stores that can check their connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}

	if p, ok := h.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.logger.Error("database ping failed", "error", err)
			checks["database"] = "failed"
			h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not_ready", Checks: checks})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Checks: checks})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

// decodeJSON decodes the request body into v and validates it.
func (h *Handler) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ValidationError{Fields: []FieldError{{Path: "body", Message: "must be valid JSON"}}}
	}
	return h.validator.Validate(v)
}

func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}
