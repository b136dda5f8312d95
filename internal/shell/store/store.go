package store

import (
	"context"

	"github.com/pintim/pint/internal/core/content"
	"github.com/pintim/pint/internal/core/tenant"
)

// =============================================================================
// Store Interface
// =============================================================================

// TenantReader is the read side used by tenant resolution.
type TenantReader interface {
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error)
	GetTenantByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error)
}

// Store defines the persistence interface.
type Store interface {
	TenantReader

	// Tenant operations. Deleting a tenant cascades to its posts, pages and
	// widgets and unlinks its owner.
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	DeleteTenant(ctx context.Context, id string) error

	// User operations
	CreateUser(ctx context.Context, u *tenant.User) error
	GetUser(ctx context.Context, id string) (*tenant.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*tenant.User, error)
	LinkUserTenant(ctx context.Context, userID, tenantID string) error
	DeleteUser(ctx context.Context, id string) error

	// Widget operations
	CreateWidget(ctx context.Context, w *tenant.Widget) error
	GetWidget(ctx context.Context, id string) (*tenant.Widget, error)
	ListWidgets(ctx context.Context, tenantID string) ([]tenant.Widget, error)
	UpdateWidget(ctx context.Context, w *tenant.Widget) error

	// Post operations
	CreatePost(ctx context.Context, p *content.Post) error
	GetPost(ctx context.Context, id string) (*content.Post, error)
	GetPostBySlug(ctx context.Context, tenantID, slug string) (*content.Post, error)
	UpdatePost(ctx context.Context, p *content.Post) error
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, tenantID string, filter ContentFilter) ([]content.Post, error)
	CountPosts(ctx context.Context, tenantID string) (int, error)

	// Page operations
	CreatePage(ctx context.Context, p *content.Page) error
	GetPage(ctx context.Context, id string) (*content.Page, error)
	GetPageBySlug(ctx context.Context, tenantID, slug string) (*content.Page, error)
	UpdatePage(ctx context.Context, p *content.Page) error
	DeletePage(ctx context.Context, id string) error
	ListPages(ctx context.Context, tenantID string, filter ContentFilter) ([]content.Page, error)

	// Slug probing for the allocator
	SlugExists(ctx context.Context, kind content.Kind, tenantID, slug, excludeID string) (bool, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// ContentFilter narrows post and page listings.
type ContentFilter struct {
	ListOptions

	// Status restricts results to one publication state when non-empty.
	// Published listings are ordered newest-published first.
	Status content.Status

	// NavOnly restricts pages to those shown in navigation, in nav order.
	NavOnly bool
}
