package edge

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/routing"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/session"
	"github.com/pintim/pint/internal/shell/session/sessiontest"
	"github.com/pintim/pint/internal/shell/store"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// =============================================================================
// Test Helpers
// =============================================================================

// seen records what the downstream handler received.
type seen struct {
	called bool
	path   string
	query  string
	header string
}

func downstream(s *seen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.path = r.URL.Path
		s.query = r.URL.RawQuery
		s.header = r.Header.Get(routing.HeaderTenantSubdomain)
		w.WriteHeader(http.StatusOK)
	})
}

// stubReader serves custom domains from a map and counts store lookups.
type stubReader struct {
	domains map[string]string
	err     error
	calls   int
}

func (s *stubReader) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	s.calls++
	return nil, store.ErrNotFound
}

func (s *stubReader) GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	s.calls++
	return nil, store.ErrNotFound
}

func (s *stubReader) GetTenantByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	sub, ok := s.domains[domain]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &tenant.Tenant{ID: "tnt_" + sub, Subdomain: sub}, nil
}

func newDirectory(t *testing.T, reader store.TenantReader) *tenancy.Directory {
	t.Helper()
	d, err := tenancy.NewDirectory(reader, tenancy.DirectoryConfig{RootDomain: "pint.im"}, nil)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func unsignedToken(sub string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(`{"sub":"`+sub+`"}`)) + ".forged"
}

func serve(t *testing.T, m *Middleware, req *http.Request) (*httptest.ResponseRecorder, *seen) {
	t.Helper()
	s := &seen{}
	rec := httptest.NewRecorder()
	m.Handler(downstream(s)).ServeHTTP(rec, req)
	return rec, s
}

// =============================================================================
// Tests
// =============================================================================

func TestMiddleware_RewritesTenantSubdomain(t *testing.T) {
	m := New(Config{RootDomain: "pint.im"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "http://myblog.pint.im/my-post?page=2", nil)
	rec, s := serve(t, m, req)

	require.True(t, s.called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/myblog/my-post", s.path)
	assert.Equal(t, "page=2", s.query)
	assert.Equal(t, "myblog", s.header)
	assert.Equal(t, "myblog", rec.Header().Get(routing.HeaderTenantSubdomain))
}

func TestMiddleware_TenantRoot(t *testing.T) {
	m := New(Config{RootDomain: "pint.im"}, nil, nil)

	_, s := serve(t, m, httptest.NewRequest(http.MethodGet, "http://MyBlog.pint.im:8080/", nil))

	assert.Equal(t, "/myblog", s.path)
	assert.Equal(t, "myblog", s.header)
}

func TestMiddleware_APINeverRewritten(t *testing.T) {
	m := New(Config{RootDomain: "pint.im"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "http://myblog.pint.im/api/likes", nil)
	_, s := serve(t, m, req)

	require.True(t, s.called)
	assert.Equal(t, "/api/likes", s.path)
	assert.Empty(t, s.header)
}

func TestMiddleware_DropsInboundTenantHeader(t *testing.T) {
	m := New(Config{RootDomain: "pint.im"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "http://pint.im/", nil)
	req.Header.Set(routing.HeaderTenantSubdomain, "alice")
	_, s := serve(t, m, req)

	require.True(t, s.called)
	assert.Empty(t, s.header)
}

func TestMiddleware_MainAppGate(t *testing.T) {
	iss := sessiontest.NewIssuer(t)
	verifier, err := session.NewVerifier(context.Background(), session.Config{Issuer: iss.URL})
	require.NoError(t, err)
	m := New(Config{RootDomain: "pint.im", Identity: auth.Extractor{Verifier: verifier}}, nil, nil)

	tests := []struct {
		name         string
		path         string
		token        string
		wantCode     int
		wantLocation string
	}{
		{"public home", "/", "", http.StatusOK, ""},
		{"sign in", "/sign-in/factor-one", "", http.StatusOK, ""},
		{"onboarding api", "/api/onboarding/check-subdomain", "", http.StatusOK, ""},
		{"protected", "/dashboard", "", http.StatusTemporaryRedirect, "/sign-in?redirect_url=%2Fdashboard"},
		{"protected api", "/api/posts", "", http.StatusTemporaryRedirect, "/sign-in?redirect_url=%2Fapi%2Fposts"},
		{"signed in", "/dashboard", iss.Token(t, "user_1"), http.StatusOK, ""},
		{"unsigned token", "/dashboard", unsignedToken("user_1"), http.StatusTemporaryRedirect, "/sign-in?redirect_url=%2Fdashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://pint.im"+tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tt.token})
			}
			rec, s := serve(t, m, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLocation != "" {
				assert.False(t, s.called)
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			} else {
				assert.True(t, s.called)
				assert.Equal(t, tt.path, s.path)
			}
		})
	}
}

func TestMiddleware_CustomSignInPath(t *testing.T) {
	m := New(Config{RootDomain: "pint.im", SignInPath: "/login"}, nil, nil)

	rec, _ := serve(t, m, httptest.NewRequest(http.MethodGet, "http://pint.im/settings", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirect_url=%2Fsettings", rec.Header().Get("Location"))
}

func TestMiddleware_DevOverride(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		m := New(Config{RootDomain: "localhost:3000", DevOverride: true}, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "http://localhost:3000/hello?subdomain=MyBlog&ref=x", nil)
		_, s := serve(t, m, req)

		assert.Equal(t, "/myblog/hello", s.path)
		assert.Equal(t, "ref=x", s.query)
		assert.Equal(t, "myblog", s.header)
	})

	t.Run("disabled", func(t *testing.T) {
		m := New(Config{RootDomain: "localhost:3000"}, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "http://localhost:3000/?subdomain=myblog", nil)
		_, s := serve(t, m, req)

		assert.Equal(t, "/", s.path)
		assert.Empty(t, s.header)
	})
}

func TestMiddleware_ProxyHeaderIgnoredByDefault(t *testing.T) {
	m := New(Config{RootDomain: "pint.im"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "http://pint.im/dashboard", nil)
	req.Header.Set(auth.HeaderUserID, "user_1")
	rec, s := serve(t, m, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.False(t, s.called)

	m = New(Config{RootDomain: "pint.im", Identity: auth.Extractor{TrustProxyHeaders: true}}, nil, nil)
	rec, s = serve(t, m, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.called)
}

func TestMiddleware_CustomDomain(t *testing.T) {
	reader := &stubReader{domains: map[string]string{"blog.example.com": "alice"}}
	m := New(Config{RootDomain: "pint.im"}, newDirectory(t, reader), nil)

	t.Run("known domain rewrites", func(t *testing.T) {
		_, s := serve(t, m, httptest.NewRequest(http.MethodGet, "http://Blog.Example.com:443/post", nil))
		assert.Equal(t, "/alice/post", s.path)
		assert.Equal(t, "alice", s.header)
	})

	t.Run("unknown domain passes", func(t *testing.T) {
		_, s := serve(t, m, httptest.NewRequest(http.MethodGet, "http://other.example.org/", nil))
		assert.Equal(t, "/", s.path)
		assert.Empty(t, s.header)
	})

	t.Run("non-candidate hosts skip lookup", func(t *testing.T) {
		before := reader.calls
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://bob.pint.im/", nil))
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://pint.im/", nil))
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://www.pint.im/", nil))
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://10.0.0.5:8080/health", nil))
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://localhost:3000/", nil))
		serve(t, m, httptest.NewRequest(http.MethodGet, "http://blog.example.com/api/likes", nil))
		assert.Equal(t, before, reader.calls)
	})
}

func TestMiddleware_CustomDomainLookupError(t *testing.T) {
	reader := &stubReader{err: errors.New("database is locked")}
	m := New(Config{RootDomain: "pint.im"}, newDirectory(t, reader), nil)

	rec, s := serve(t, m, httptest.NewRequest(http.MethodGet, "http://blog.example.com/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", s.path)
	assert.Empty(t, s.header)
}

func TestMiddleware_Router(t *testing.T) {
	m := New(Config{RootDomain: "pint.im", PublicRoutes: []string{"/"}}, nil, nil)

	r := m.Router()
	assert.Equal(t, "pint.im", r.Parser.RootDomain)
	assert.True(t, r.IsPublic("/"))
	assert.False(t, r.IsPublic("/sign-in"))
}
