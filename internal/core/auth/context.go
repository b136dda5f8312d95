// Package auth provides the request identity context, tenant-scoped
// authorization and account webhook verification.
//
// Sessions are issued by an external identity provider. A request carries
// its session JWT in the Authorization header or the session cookie; the
// token is trusted only after a TokenVerifier has checked it.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pintim/pint/internal/core/tenant"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the identity of the caller for a request.
type Context struct {
	// ExternalID is the identity provider's user ID (e.g. "user_2abc").
	ExternalID string

	// UserID is the local users.id, resolved by middleware.
	UserID string

	// TenantID is the tenant owned by the user. Empty until onboarding
	// completes.
	TenantID string

	// Tier is the owning tenant's subscription tier.
	Tier tenant.Tier

	// Authenticated indicates whether the request carries a verified session.
	Authenticated bool
}

// Onboarded reports whether the caller owns a tenant.
func (c Context) Onboarded() bool {
	return c.Authenticated && c.TenantID != ""
}

// =============================================================================
// Header Constants
// =============================================================================

const (
	// HeaderUserID carries the provider user ID when a trusted proxy injects it.
	HeaderUserID = "X-User-ID"

	// HeaderAuthorization carries "Bearer {jwt}".
	HeaderAuthorization = "Authorization"

	// SessionCookie is the cookie the identity provider stores its session JWT in.
	SessionCookie = "__session"
)

// =============================================================================
// Context Extraction
// =============================================================================

// TokenVerifier checks a session token's signature and claims and returns
// the subject it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (subject string, err error)
}

// Extractor reads the caller's identity from a request.
type Extractor struct {
	// Verifier checks session tokens. If nil, tokens are never accepted.
	Verifier TokenVerifier

	// TrustProxyHeaders honours X-User-ID. Only enable it behind a proxy
	// that authenticates the caller and overwrites the header.
	TrustProxyHeaders bool
}

// FromRequest returns the caller's identity. Only ExternalID is set; the
// local user and tenant are resolved by middleware.
//
// Sources (checked in order):
//  1. X-User-ID header, when TrustProxyHeaders is set
//  2. Authorization: Bearer {jwt}
//  3. the session cookie
//
// A token that fails verification leaves the request unauthenticated and is
// reported through the error.
func (e Extractor) FromRequest(r *http.Request) (Context, error) {
	if e.TrustProxyHeaders {
		if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
			return Context{ExternalID: id, Authenticated: true}, nil
		}
	}

	token := sessionToken(r)
	if token == "" || e.Verifier == nil {
		return Context{Authenticated: false}, nil
	}

	sub, err := e.Verifier.VerifyToken(r.Context(), token)
	if err != nil {
		return Context{Authenticated: false}, err
	}
	return Context{ExternalID: sub, Authenticated: true}, nil
}

func sessionToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get(HeaderAuthorization), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Context{Authenticated: false}
}
