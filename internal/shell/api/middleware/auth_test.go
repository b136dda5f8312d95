package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/session"
	"github.com/pintim/pint/internal/shell/session/sessiontest"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler is a simple handler that returns the auth context from request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"external_id":   ctx.ExternalID,
			"user_id":       ctx.UserID,
			"tenant_id":     ctx.TenantID,
			"tier":          string(ctx.Tier),
		})
	})
}

type stubResolver struct {
	identities map[string]auth.Context
	err        error
	calls      int
}

func (s *stubResolver) ResolveIdentity(ctx context.Context, externalID string) (auth.Context, error) {
	s.calls++
	if s.err != nil {
		return auth.Context{}, s.err
	}
	if id, ok := s.identities[externalID]; ok {
		return id, nil
	}
	return auth.Context{ExternalID: externalID, Authenticated: true}, nil
}

func unsignedToken(sub string) string {
	enc := base64.RawURLEncoding
	payload, _ := json.Marshal(map[string]string{"sub": sub})
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString(payload) + ".forged"
}

// newIdentity returns an extractor that verifies tokens from a test issuer.
func newIdentity(t *testing.T) (auth.Extractor, *sessiontest.Issuer) {
	t.Helper()
	iss := sessiontest.NewIssuer(t)
	verifier, err := session.NewVerifier(context.Background(), session.Config{Issuer: iss.URL})
	require.NoError(t, err)
	return auth.Extractor{Verifier: verifier}, iss
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_NoSession(t *testing.T) {
	resolver := &stubResolver{}
	middleware := NewAuthMiddleware(AuthConfig{Resolver: resolver})

	rec := httptest.NewRecorder()
	middleware.Handler(testHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/api/posts", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["authenticated"])
	assert.Zero(t, resolver.calls)
}

func TestAuthMiddleware_ResolvesIdentity(t *testing.T) {
	resolver := &stubResolver{identities: map[string]auth.Context{
		"user_123": {
			ExternalID:    "user_123",
			UserID:        "usr_1",
			TenantID:      "tnt_1",
			Tier:          tenant.TierPro,
			Authenticated: true,
		},
	}}
	identity, iss := newIdentity(t)
	identity.TrustProxyHeaders = true
	middleware := NewAuthMiddleware(AuthConfig{Identity: identity, Resolver: resolver})
	token := iss.Token(t, "user_123")

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"trusted proxy header", func(r *http.Request) { r.Header.Set(auth.HeaderUserID, "user_123") }},
		{"bearer token", func(r *http.Request) { r.Header.Set(auth.HeaderAuthorization, "Bearer "+token) }},
		{"session cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/posts", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			middleware.Handler(testHandler()).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, true, resp["authenticated"])
			assert.Equal(t, "user_123", resp["external_id"])
			assert.Equal(t, "usr_1", resp["user_id"])
			assert.Equal(t, "tnt_1", resp["tenant_id"])
			assert.Equal(t, "pro", resp["tier"])
		})
	}
}

func TestAuthMiddleware_RejectsUnverifiedIdentity(t *testing.T) {
	resolver := &stubResolver{}
	identity, _ := newIdentity(t)
	other := sessiontest.NewIssuer(t)
	middleware := NewAuthMiddleware(AuthConfig{Identity: identity, Resolver: resolver})

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"untrusted proxy header", func(r *http.Request) { r.Header.Set(auth.HeaderUserID, "user_victim") }},
		{"unsigned bearer", func(r *http.Request) { r.Header.Set(auth.HeaderAuthorization, "Bearer "+unsignedToken("user_victim")) }},
		{"unsigned cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: unsignedToken("user_victim")})
		}},
		{"foreign issuer", func(r *http.Request) {
			r.Header.Set(auth.HeaderAuthorization, "Bearer "+other.Token(t, "user_victim"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/posts", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			middleware.Handler(RequireAuth(nil)(testHandler())).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotContains(t, rec.Body.String(), "user_victim")
		})
	}
	assert.Zero(t, resolver.calls)
}

func TestAuthMiddleware_WithoutResolver(t *testing.T) {
	middleware := NewAuthMiddleware(AuthConfig{Identity: auth.Extractor{TrustProxyHeaders: true}})

	req := httptest.NewRequest("GET", "/api/posts", nil)
	req.Header.Set(auth.HeaderUserID, "user_456")
	rec := httptest.NewRecorder()

	middleware.Handler(testHandler()).ServeHTTP(rec, req)

	resp := decode(t, rec)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "user_456", resp["external_id"])
	assert.Equal(t, "", resp["user_id"])
}

func TestAuthMiddleware_ResolverError(t *testing.T) {
	middleware := NewAuthMiddleware(AuthConfig{
		Identity: auth.Extractor{TrustProxyHeaders: true},
		Resolver: &stubResolver{err: errors.New("database is locked")},
	})

	req := httptest.NewRequest("GET", "/api/posts", nil)
	req.Header.Set(auth.HeaderUserID, "user_123")
	rec := httptest.NewRecorder()

	middleware.Handler(testHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

// =============================================================================
// RequireAuth Middleware Tests
// =============================================================================

func TestRequireAuth_Authenticated(t *testing.T) {
	authMW := NewAuthMiddleware(AuthConfig{Identity: auth.Extractor{TrustProxyHeaders: true}})
	requireMW := RequireAuth(nil)

	handler := authMW.Handler(requireMW(testHandler()))
	req := httptest.NewRequest("GET", "/api/posts", nil)
	req.Header.Set(auth.HeaderUserID, "user_123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	authMW := NewAuthMiddleware(AuthConfig{})
	requireMW := RequireAuth(nil)

	handler := authMW.Handler(requireMW(testHandler()))
	req := httptest.NewRequest("GET", "/api/posts", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "Authentication required")
	assert.Contains(t, string(body), "UNAUTHORIZED")
}

// =============================================================================
// JSON Error Response Tests
// =============================================================================

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSONError(rec, http.StatusNotFound, "NOT_FOUND", "Resource not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.NotContains(t, rec.Body.String(), "details")
}
