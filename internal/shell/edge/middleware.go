// Package edge is the HTTP adapter for routing.Router: it classifies every
// inbound request and rewrites tenant traffic before the application sees it.
package edge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/routing"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/tenancy"
)

// Config holds edge configuration.
type Config struct {
	RootDomain   string   // e.g. "pint.im" or "localhost:3000"
	DevOverride  bool     // honour ?subdomain= outside production
	SignInPath   string   // defaults to routing.DefaultSignInPath
	PublicRoutes []string // defaults to routing.DefaultPublicRoutes

	// Identity decides whether a request is signed in.
	Identity auth.Extractor
}

// TenantResolver maps a Host header to the tenant serving it.
// tenancy.Directory implements this interface.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, host string) (*tenant.Tenant, error)
}

// Middleware applies routing decisions to requests.
type Middleware struct {
	router   routing.Router
	identity auth.Extractor
	resolver TenantResolver
	logger   *slog.Logger
}

// New creates the edge middleware. A nil resolver disables custom domains.
func New(cfg Config, resolver TenantResolver, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	router := routing.NewRouter(cfg.RootDomain, cfg.DevOverride)
	if cfg.SignInPath != "" {
		router.SignInPath = cfg.SignInPath
	}
	if cfg.PublicRoutes != nil {
		router.PublicRoutes = cfg.PublicRoutes
	}
	return &Middleware{
		router:   router,
		identity: cfg.Identity,
		resolver: resolver,
		logger:   logger,
	}
}

// Router returns the routing configuration in use.
func (m *Middleware) Router() routing.Router {
	return m.router
}

// Handler wraps next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only a rewrite may name the tenant to downstream handlers.
		r.Header.Del(routing.HeaderTenantSubdomain)

		req := m.routingRequest(r)
		decision := m.router.Route(req)

		m.logger.Debug("edge request",
			"host", r.Host,
			"path", r.URL.Path,
			"method", r.Method,
			"action", decision.Action.String(),
			"tenant", decision.TenantID,
		)

		switch decision.Action {
		case routing.ActionRedirect:
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
			return

		case routing.ActionRewrite:
			r.URL.Path = decision.Path
			r.URL.RawPath = ""
			r.URL.RawQuery = decision.Query.Encode()
			for k, v := range decision.Headers {
				r.Header.Set(k, v)
				w.Header().Set(k, v)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) routingRequest(r *http.Request) routing.Request {
	caller, err := m.identity.FromRequest(r)
	if err != nil {
		m.logger.Debug("session rejected", "host", r.Host, "path", r.URL.Path, "error", err)
	}
	req := routing.Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Host:          r.Host,
		Query:         r.URL.Query(),
		Authenticated: caller.Authenticated,
	}
	req.CustomDomainTenant = m.customDomainTenant(r.Context(), req)
	return req
}

// customDomainTenant resolves hosts the router cannot identify on its own.
// Subdomain hosts never reach the resolver.
func (m *Middleware) customDomainTenant(ctx context.Context, req routing.Request) string {
	if m.resolver == nil || routing.IsAPIPath(req.Path) {
		return ""
	}
	if _, ok := m.router.Parser.ExtractTenantID(req.Host); ok {
		return ""
	}

	t, err := m.resolver.ResolveTenant(ctx, req.Host)
	if err != nil {
		if !errors.Is(err, tenancy.ErrTenantNotFound) {
			m.logger.Error("custom domain lookup failed", "host", req.Host, "error", err)
		}
		return ""
	}
	return t.Subdomain
}
