// Package middleware provides HTTP middleware for the Pint API.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pintim/pint/internal/core/auth"
)

// =============================================================================
// Identity Resolver Interface
// =============================================================================

// IdentityResolver fills in the local user and tenant for an identity
// provider user ID. tenancy.Accounts implements this interface.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, externalID string) (auth.Context, error)
}

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Identity reads and verifies the caller's session.
	Identity auth.Extractor

	// Resolver resolves the caller's local user and tenant.
	// If nil, only ExternalID is set on the auth context.
	Resolver IdentityResolver

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts the caller's identity and stores it in the request
// context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function. Unauthenticated requests
// pass through with an empty context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.config.Identity.FromRequest(r)
		if err != nil {
			m.config.Logger.Debug("session rejected",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"error", err,
			)
		}

		if ctx.Authenticated && m.config.Resolver != nil {
			resolved, err := m.config.Resolver.ResolveIdentity(r.Context(), ctx.ExternalID)
			if err != nil {
				m.config.Logger.Error("failed to resolve identity",
					"external_id", ctx.ExternalID,
					"error", err,
				)
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}
			ctx = resolved
		}

		r = r.WithContext(auth.WithContext(r.Context(), ctx))

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Require Auth Middleware
// =============================================================================

// RequireAuth rejects requests without a session.
// Must be used AFTER AuthMiddleware.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !ctx.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

// ErrorBody is the body of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the error envelope shared by every API endpoint.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// writeJSONError writes an error envelope.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorBody{Code: code, Message: message},
	})
}
