// Package tenancy resolves hosts to tenants, answers subdomain availability
// and runs the onboarding transaction.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/store"
)

// ErrTenantNotFound is returned when no tenant matches a lookup. It wraps
// store.ErrNotFound when the miss came from the store.
var ErrTenantNotFound = errors.New("tenant not found")

// DirectoryConfig configures the directory's read-through cache.
type DirectoryConfig struct {
	RootDomain string

	// CacheTTL is how long a found tenant is served from memory. Zero
	// disables the cache.
	CacheTTL time.Duration

	// CacheMaxEntries bounds the number of cached lookups.
	CacheMaxEntries int64
}

// Directory looks tenants up by identifier, custom domain, internal ID or host.
// Only hits are cached; a miss always reaches the store.
type Directory struct {
	store  store.TenantReader
	parser tenant.HostnameParser
	cache  *ristretto.Cache[string, *tenant.Tenant]
	ttl    time.Duration
	logger *slog.Logger
}

// NewDirectory creates a directory over reader.
func NewDirectory(reader store.TenantReader, cfg DirectoryConfig, logger *slog.Logger) (*Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Directory{
		store:  reader,
		parser: tenant.HostnameParser{RootDomain: cfg.RootDomain},
		ttl:    cfg.CacheTTL,
		logger: logger,
	}

	if cfg.CacheTTL > 0 {
		maxEntries := cfg.CacheMaxEntries
		if maxEntries <= 0 {
			maxEntries = 10_000
		}
		cache, err := ristretto.NewCache(&ristretto.Config[string, *tenant.Tenant]{
			NumCounters: maxEntries * 10, // ~10x expected items
			MaxCost:     maxEntries,
			BufferItems: 64,
			// Cost counts entries, not bytes.
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create tenant cache: %w", err)
		}
		d.cache = cache
	}

	return d, nil
}

// Parser returns the hostname parser bound to the directory's root domain.
func (d *Directory) Parser() tenant.HostnameParser {
	return d.parser
}

// FindByIdentifier looks up a tenant by its subdomain identifier.
func (d *Directory) FindByIdentifier(ctx context.Context, id string) (*tenant.Tenant, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, ErrTenantNotFound
	}
	return d.lookup(ctx, "sub:"+id, func() (*tenant.Tenant, error) {
		return d.store.GetTenantBySubdomain(ctx, id)
	})
}

// FindByCustomDomain looks up a tenant by custom domain. Ports are ignored.
func (d *Directory) FindByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	domain = tenant.BareHost(domain)
	if domain == "" {
		return nil, ErrTenantNotFound
	}
	return d.lookup(ctx, "dom:"+domain, func() (*tenant.Tenant, error) {
		return d.store.GetTenantByCustomDomain(ctx, domain)
	})
}

// FindByID looks up a tenant by internal ID.
func (d *Directory) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	if id == "" {
		return nil, ErrTenantNotFound
	}
	return d.lookup(ctx, "id:"+id, func() (*tenant.Tenant, error) {
		return d.store.GetTenant(ctx, id)
	})
}

// ResolveTenant maps a Host header to a tenant: a subdomain of the root
// domain is looked up by identifier, any other non-loopback host by custom
// domain. Reserved, multi-level and root hosts resolve to ErrTenantNotFound.
func (d *Directory) ResolveTenant(ctx context.Context, host string) (*tenant.Tenant, error) {
	if id, ok := d.parser.ExtractTenantID(host); ok {
		return d.FindByIdentifier(ctx, id)
	}
	if d.parser.IsCustomDomainCandidate(host) {
		return d.FindByCustomDomain(ctx, host)
	}
	return nil, ErrTenantNotFound
}

// Invalidate drops every cached entry for t.
func (d *Directory) Invalidate(t *tenant.Tenant) {
	if d.cache == nil || t == nil {
		return
	}
	d.cache.Del("id:" + t.ID)
	d.cache.Del("sub:" + strings.ToLower(t.Subdomain))
	if t.CustomDomain != nil {
		d.cache.Del("dom:" + strings.ToLower(*t.CustomDomain))
	}
}

// Close releases the cache.
func (d *Directory) Close() {
	if d.cache != nil {
		d.cache.Close()
	}
}

func (d *Directory) lookup(ctx context.Context, key string, load func() (*tenant.Tenant, error)) (*tenant.Tenant, error) {
	if d.cache != nil {
		if t, ok := d.cache.Get(key); ok {
			return copyTenant(t), nil
		}
	}

	t, err := load()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrTenantNotFound, err)
		}
		d.logger.ErrorContext(ctx, "tenant lookup failed", "key", key, "error", err)
		return nil, err
	}

	if d.cache != nil {
		d.cache.SetWithTTL(key, copyTenant(t), 1, d.ttl)
		d.cache.Wait()
	}
	return t, nil
}

func copyTenant(t *tenant.Tenant) *tenant.Tenant {
	cp := *t
	if t.CustomDomain != nil {
		d := *t.CustomDomain
		cp.CustomDomain = &d
	}
	return &cp
}
