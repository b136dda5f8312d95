// Package routing decides, per inbound request, whether it targets a tenant
// blog or the main application. Route is a pure function; the HTTP adapter
// lives in shell/edge.
package routing

import (
	"net/url"
	"strings"

	"github.com/pintim/pint/internal/core/tenant"
)

// HeaderTenantSubdomain carries the resolved tenant identifier to downstream
// handlers on rewritten requests.
const HeaderTenantSubdomain = "x-tenant-subdomain"

// DevOverrideParam selects a tenant by query string when DevOverride is on.
// It never survives into a rewritten URL.
const DevOverrideParam = "subdomain"

// APIPrefix is the namespace that is never rewritten.
const APIPrefix = "/api/"

// DefaultSignInPath is where unauthenticated main-app requests are sent.
const DefaultSignInPath = "/sign-in"

// DefaultPublicRoutes are the main-app paths reachable without a session.
// A trailing "*" matches any suffix; otherwise the match is exact.
var DefaultPublicRoutes = []string{
	"/",
	"/sign-in*",
	"/sign-up*",
	"/api/webhooks*",
	"/api/likes*",
	"/api/subscribe*",
	"/api/onboarding*",
	"/api/auth*",
	"/health",
}

// Action is what the edge does with a request.
type Action int

const (
	// ActionPass forwards the request unchanged.
	ActionPass Action = iota
	// ActionRewrite forwards the request under a tenant-scoped path.
	ActionRewrite
	// ActionRedirect sends the caller to the sign-in page.
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionPass:
		return "pass"
	case ActionRewrite:
		return "rewrite"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Request is the platform-independent view of an inbound request.
type Request struct {
	Method        string
	Path          string
	Host          string
	Query         url.Values
	Authenticated bool

	// CustomDomainTenant is the identifier the caller resolved from a
	// custom-domain host, if any. It is used only when the host itself
	// carries no tenant subdomain.
	CustomDomainTenant string
}

// Decision is the outcome of Route.
type Decision struct {
	Action Action

	// Path and Query are the URL to forward (ActionPass, ActionRewrite).
	Path  string
	Query url.Values

	// Headers are set on the forwarded request (ActionRewrite).
	Headers map[string]string

	// Location is the redirect target (ActionRedirect).
	Location string

	// TenantID is the candidate identifier (ActionRewrite). Its existence
	// is not checked here.
	TenantID string
}

// Router holds the routing configuration. The zero value of PublicRoutes and
// SignInPath fall back to the defaults.
type Router struct {
	Parser       tenant.HostnameParser
	PublicRoutes []string
	SignInPath   string
	DevOverride  bool
}

// NewRouter creates a router for rootDomain with the default public routes.
func NewRouter(rootDomain string, devOverride bool) Router {
	return Router{
		Parser:       tenant.HostnameParser{RootDomain: rootDomain},
		PublicRoutes: DefaultPublicRoutes,
		SignInPath:   DefaultSignInPath,
		DevOverride:  devOverride,
	}
}

// Route classifies req and returns what to do with it.
//
// API paths are never rewritten. Any other request whose host, dev override
// parameter or resolved custom domain yields a tenant candidate is rewritten to
// /{candidate}{path}. Remaining requests belong to the main app and are
// redirected to sign-in when the path is protected and the caller has no
// session.
func (r Router) Route(req Request) Decision {
	path := req.Path
	if path == "" {
		path = "/"
	}

	if !IsAPIPath(path) {
		if id, ok := r.tenantCandidate(req); ok {
			return Decision{
				Action:   ActionRewrite,
				Path:     TenantPath(id, path),
				Query:    withoutParam(req.Query, DevOverrideParam),
				Headers:  map[string]string{HeaderTenantSubdomain: id},
				TenantID: id,
			}
		}
	}

	if !req.Authenticated && !r.IsPublic(path) {
		return Decision{
			Action:   ActionRedirect,
			Location: r.signInURL(path, req.Query),
		}
	}

	return Decision{Action: ActionPass, Path: path, Query: req.Query}
}

// IsPublic reports whether path is on the public allow-list.
func (r Router) IsPublic(path string) bool {
	routes := r.PublicRoutes
	if routes == nil {
		routes = DefaultPublicRoutes
	}
	for _, route := range routes {
		if prefix, ok := strings.CutSuffix(route, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == route {
			return true
		}
	}
	return false
}

// TenantPath prefixes path with the tenant identifier. "/" becomes "/{id}".
func TenantPath(id, path string) string {
	if path == "" || path == "/" {
		return "/" + id
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + id + path
}

func (r Router) tenantCandidate(req Request) (string, bool) {
	if r.DevOverride {
		if id, ok := devCandidate(req.Query.Get(DevOverrideParam)); ok {
			return id, true
		}
	}
	if id, ok := r.Parser.ExtractTenantID(req.Host); ok {
		return id, true
	}
	if req.CustomDomainTenant != "" {
		return strings.ToLower(req.CustomDomainTenant), true
	}
	return "", false
}

// devCandidate holds the override to the same shape the host parser
// produces: lowercase, single label, never reserved.
func devCandidate(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" || strings.Contains(id, ".") || tenant.IsReserved(id) {
		return "", false
	}
	return id, true
}

func (r Router) signInURL(path string, query url.Values) string {
	signIn := r.SignInPath
	if signIn == "" {
		signIn = DefaultSignInPath
	}
	target := path
	if q := withoutParam(query, DevOverrideParam); len(q) > 0 {
		target += "?" + q.Encode()
	}
	return signIn + "?" + url.Values{"redirect_url": {target}}.Encode()
}

// IsAPIPath reports whether path is in the API namespace.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, APIPrefix)
}

// withoutParam returns a copy of q without key. The input is not modified.
func withoutParam(q url.Values, key string) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		if k == key {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}
