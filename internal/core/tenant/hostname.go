package tenant

import (
	"regexp"
	"strings"
)

// LoopbackHost is never a tenant host, with or without a port.
const LoopbackHost = "localhost"

var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// HostnameParser extracts tenant identifiers from Host headers.
// Pure function - no I/O.
type HostnameParser struct {
	RootDomain string // e.g., "pint.im" or "localhost:3000"
}

// StripPort removes a trailing ":port" from host.
// "myblog.pint.im:3000" → "myblog.pint.im"
// A colon not followed solely by digits is left alone.
func StripPort(host string) string {
	idx := strings.LastIndex(host, ":")
	if idx == -1 {
		return host
	}
	port := host[idx+1:]
	if port == "" {
		return host
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return host
		}
	}
	return host[:idx]
}

// root returns the configured root domain, lowercased and without a port.
func (p HostnameParser) root() string {
	return strings.ToLower(StripPort(p.RootDomain))
}

// ExtractTenantID extracts the tenant identifier from a Host header.
// "myblog.pint.im" → "myblog"
// "MyBlog.pint.im:8080" → "myblog"
// Returns empty string and false for loopback and IPv4 hosts, the root domain
// itself, reserved names, multi-level subdomains and foreign domains.
func (p HostnameParser) ExtractTenantID(hostHeader string) (string, bool) {
	host := BareHost(hostHeader)
	if host == "" || host == LoopbackHost || ipv4Pattern.MatchString(host) {
		return "", false
	}

	root := p.root()
	if root == "" {
		return "", false
	}

	suffix := "." + root
	if !strings.HasSuffix(host, suffix) {
		return "", false
	}

	candidate := strings.TrimSuffix(host, suffix)
	if candidate == "" || IsReserved(candidate) {
		return "", false
	}
	if strings.Contains(candidate, ".") {
		return "", false
	}

	return candidate, true
}

// IsCustomDomainCandidate reports whether host should be looked up as a
// tenant's custom domain. Loopback, IPv4 literals, the root domain and its
// subdomains are excluded.
func (p HostnameParser) IsCustomDomainCandidate(hostHeader string) bool {
	host := BareHost(hostHeader)
	if host == "" || host == LoopbackHost || ipv4Pattern.MatchString(host) {
		return false
	}
	root := p.root()
	return root == "" || (host != root && !strings.HasSuffix(host, "."+root))
}

// BareHost lowercases host and strips its port.
func BareHost(hostHeader string) string {
	return strings.ToLower(StripPort(strings.TrimSpace(hostHeader)))
}
