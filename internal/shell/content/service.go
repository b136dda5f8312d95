// Package content runs post and page writes for a tenant: slug allocation,
// write-time conflict retries, tier limits and publication state.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/content"
	"github.com/pintim/pint/internal/shell/store"
)

// MaxWriteAttempts is how many times a write that lost a slug race is
// re-allocated before ErrSlugConflict is returned.
const MaxWriteAttempts = 3

// bcrypt ignores input past this length.
const maxPasswordBytes = 72

var (
	ErrUnauthorized     = errors.New("authentication required")
	ErrNoTenant         = errors.New("onboarding not completed")
	ErrPostNotFound     = errors.New("post not found")
	ErrPageNotFound     = errors.New("page not found")
	ErrPostLimit        = errors.New("post limit reached")
	ErrSlugConflict     = errors.New("slug was just taken, please try again")
	ErrPasswordRequired = errors.New("this post is password protected")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 bytes")
	ErrWidgetNotFound   = errors.New("widget not found")
	ErrWidgetOrder      = errors.New("widget order must list each widget once with a non-negative position")
	ErrWidgetConfig     = errors.New("widget config must be a JSON object")
	ErrInvalidSlug      = content.ErrInvalidSlug
	ErrInvalidStatus    = content.ErrInvalidStatus
)

// =============================================================================
// Inputs
// =============================================================================

// PostInput creates a post. An empty Slug is derived from Title.
type PostInput struct {
	Title         string
	Slug          string
	Content       json.RawMessage
	Excerpt       string
	FeaturedImage string
	Status        content.Status
	Password      string
}

// PostPatch updates a post. Nil fields are left unchanged; an empty Slug is
// ignored and an empty Password removes protection.
type PostPatch struct {
	Title         *string
	Slug          *string
	Content       json.RawMessage
	Excerpt       *string
	FeaturedImage *string
	Status        *content.Status
	Password      *string
}

// PageInput creates a page. ShowInNav defaults to true.
type PageInput struct {
	Title     string
	Slug      string
	Content   json.RawMessage
	ShowInNav *bool
	NavOrder  *int
	Status    content.Status
}

// PagePatch updates a page. Nil fields are left unchanged.
type PagePatch struct {
	Title     *string
	Slug      *string
	Content   json.RawMessage
	ShowInNav *bool
	NavOrder  *int
	Status    *content.Status
}

// =============================================================================
// Service
// =============================================================================

// Service implements tenant-scoped content operations.
type Service struct {
	store      store.Store
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// NewService creates a content service.
func NewService(s store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      s,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		bcryptCost: bcrypt.DefaultCost,
	}
}

// -----------------------------------------------------------------------------
// Posts
// -----------------------------------------------------------------------------

// CreatePost allocates a slug and stores a new post for the caller's tenant.
func (s *Service) CreatePost(ctx context.Context, actor auth.Context, in PostInput) (*content.Post, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}

	count, err := s.store.CountPosts(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	if ok, reason := auth.CanCreatePost(actor, count); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostLimit, reason)
	}

	base, err := baseSlug(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = content.StatusDraft
	}
	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var post *content.Post
	err = s.withSlugRetry(ctx, "CreatePost", func() error {
		slug, err := content.EnsureUniqueSlug(ctx, s.store, base, actor.TenantID, content.KindPost, "")
		if err != nil {
			return err
		}
		p, err := content.NewPost(actor.TenantID, slug, in.Title, in.Content)
		if err != nil {
			return err
		}
		p.Excerpt = in.Excerpt
		p.FeaturedImage = in.FeaturedImage
		p.PasswordHash = passwordHash
		if err := p.SetStatus(status, s.now()); err != nil {
			return err
		}
		if err := s.store.CreatePost(ctx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "post created", "tenant_id", actor.TenantID, "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

// UpdatePost applies patch. The slug is re-allocated only when it changes,
// excluding the post itself from the collision check.
func (s *Service) UpdatePost(ctx context.Context, actor auth.Context, id string, patch PostPatch) (*content.Post, error) {
	p, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, content.ErrTitleRequired
		}
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = patch.Content
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.FeaturedImage != nil {
		p.FeaturedImage = *patch.FeaturedImage
	}
	if patch.Password != nil {
		if p.PasswordHash, err = s.hashPassword(*patch.Password); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if err := p.SetStatus(*patch.Status, now); err != nil {
			return nil, err
		}
	}
	p.UpdatedAt = now

	newSlug := ""
	if patch.Slug != nil && *patch.Slug != "" && *patch.Slug != p.Slug {
		if !content.IsValidSlug(*patch.Slug) {
			return nil, ErrInvalidSlug
		}
		newSlug = *patch.Slug
	}

	err = s.withSlugRetry(ctx, "UpdatePost", func() error {
		if newSlug != "" {
			slug, err := content.EnsureUniqueSlug(ctx, s.store, newSlug, p.TenantID, content.KindPost, p.ID)
			if err != nil {
				return err
			}
			p.Slug = slug
		}
		return s.store.UpdatePost(ctx, p)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	return p, nil
}

// SetPostPublished publishes or unpublishes a post. The first publish time
// is kept across unpublish and republish.
func (s *Service) SetPostPublished(ctx context.Context, actor auth.Context, id string, published bool) (*content.Post, error) {
	status := content.StatusDraft
	if published {
		status = content.StatusPublished
	}
	return s.UpdatePost(ctx, actor, id, PostPatch{Status: &status})
}

// GetPost returns a post owned by the caller's tenant. Posts of other
// tenants are reported as not found.
func (s *Service) GetPost(ctx context.Context, actor auth.Context, id string) (*content.Post, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	if !auth.CanManagePost(actor, *p) {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// DeletePost deletes a post owned by the caller's tenant.
func (s *Service) DeletePost(ctx context.Context, actor auth.Context, id string) error {
	if _, err := s.GetPost(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return notFoundAs(err, ErrPostNotFound)
	}
	s.logger.InfoContext(ctx, "post deleted", "tenant_id", actor.TenantID, "post_id", id)
	return nil
}

// ListPosts lists the caller's posts, optionally filtered by status.
func (s *Service) ListPosts(ctx context.Context, actor auth.Context, status content.Status, opts store.ListOptions) ([]content.Post, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.store.ListPosts(ctx, actor.TenantID, store.ContentFilter{ListOptions: opts, Status: status})
}

// ListPublishedPosts lists a tenant's published posts, newest first.
func (s *Service) ListPublishedPosts(ctx context.Context, tenantID string, opts store.ListOptions) ([]content.Post, error) {
	return s.store.ListPosts(ctx, tenantID, store.ContentFilter{ListOptions: opts, Status: content.StatusPublished})
}

// PublishedPostBySlug returns a published post for public rendering.
func (s *Service) PublishedPostBySlug(ctx context.Context, tenantID, slug string) (*content.Post, error) {
	p, err := s.store.GetPostBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, notFoundAs(err, ErrPostNotFound)
	}
	if !p.IsPublished() {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// UnlockPost checks a reader's password against a protected post.
// Unprotected posts unlock with any password.
func (s *Service) UnlockPost(p *content.Post, password string) error {
	if !p.IsProtected() {
		return nil
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return ErrPasswordRequired
	}
	return nil
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

// CreatePage allocates a slug and stores a new page for the caller's tenant.
func (s *Service) CreatePage(ctx context.Context, actor auth.Context, in PageInput) (*content.Page, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}

	base, err := baseSlug(in.Slug, in.Title)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = content.StatusDraft
	}

	var page *content.Page
	err = s.withSlugRetry(ctx, "CreatePage", func() error {
		slug, err := content.EnsureUniqueSlug(ctx, s.store, base, actor.TenantID, content.KindPage, "")
		if err != nil {
			return err
		}
		p, err := content.NewPage(actor.TenantID, slug, in.Title, in.Content)
		if err != nil {
			return err
		}
		if in.ShowInNav != nil {
			p.ShowInNav = *in.ShowInNav
		}
		p.NavOrder = in.NavOrder
		if err := p.SetStatus(status, s.now()); err != nil {
			return err
		}
		if err := s.store.CreatePage(ctx, p); err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "page created", "tenant_id", actor.TenantID, "page_id", page.ID, "slug", page.Slug)
	return page, nil
}

// UpdatePage applies patch with the same slug rules as UpdatePost.
func (s *Service) UpdatePage(ctx context.Context, actor auth.Context, id string, patch PagePatch) (*content.Page, error) {
	p, err := s.GetPage(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, content.ErrTitleRequired
		}
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = patch.Content
	}
	if patch.ShowInNav != nil {
		p.ShowInNav = *patch.ShowInNav
	}
	if patch.NavOrder != nil {
		p.NavOrder = patch.NavOrder
	}
	if patch.Status != nil {
		if err := p.SetStatus(*patch.Status, now); err != nil {
			return nil, err
		}
	}
	p.UpdatedAt = now

	newSlug := ""
	if patch.Slug != nil && *patch.Slug != "" && *patch.Slug != p.Slug {
		if !content.IsValidSlug(*patch.Slug) {
			return nil, ErrInvalidSlug
		}
		newSlug = *patch.Slug
	}

	err = s.withSlugRetry(ctx, "UpdatePage", func() error {
		if newSlug != "" {
			slug, err := content.EnsureUniqueSlug(ctx, s.store, newSlug, p.TenantID, content.KindPage, p.ID)
			if err != nil {
				return err
			}
			p.Slug = slug
		}
		return s.store.UpdatePage(ctx, p)
	})
	if err != nil {
		return nil, notFoundAs(err, ErrPageNotFound)
	}
	return p, nil
}

// SetPagePublished publishes or unpublishes a page.
func (s *Service) SetPagePublished(ctx context.Context, actor auth.Context, id string, published bool) (*content.Page, error) {
	status := content.StatusDraft
	if published {
		status = content.StatusPublished
	}
	return s.UpdatePage(ctx, actor, id, PagePatch{Status: &status})
}

// GetPage returns a page owned by the caller's tenant.
func (s *Service) GetPage(ctx context.Context, actor auth.Context, id string) (*content.Page, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrPageNotFound)
	}
	if !auth.CanManagePage(actor, *p) {
		return nil, ErrPageNotFound
	}
	return p, nil
}

// DeletePage deletes a page owned by the caller's tenant.
func (s *Service) DeletePage(ctx context.Context, actor auth.Context, id string) error {
	if _, err := s.GetPage(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeletePage(ctx, id); err != nil {
		return notFoundAs(err, ErrPageNotFound)
	}
	s.logger.InfoContext(ctx, "page deleted", "tenant_id", actor.TenantID, "page_id", id)
	return nil
}

// ListPages lists the caller's pages, optionally filtered by status.
func (s *Service) ListPages(ctx context.Context, actor auth.Context, status content.Status, opts store.ListOptions) ([]content.Page, error) {
	if err := requireTenant(actor); err != nil {
		return nil, err
	}
	if status != "" && !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.store.ListPages(ctx, actor.TenantID, store.ContentFilter{ListOptions: opts, Status: status})
}

// ListNavPages lists a tenant's published navigation pages in nav order.
func (s *Service) ListNavPages(ctx context.Context, tenantID string) ([]content.Page, error) {
	return s.store.ListPages(ctx, tenantID, store.ContentFilter{Status: content.StatusPublished, NavOnly: true})
}

// PublishedPageBySlug returns a published page for public rendering.
func (s *Service) PublishedPageBySlug(ctx context.Context, tenantID, slug string) (*content.Page, error) {
	p, err := s.store.GetPageBySlug(ctx, tenantID, slug)
	if err != nil {
		return nil, notFoundAs(err, ErrPageNotFound)
	}
	if !p.IsPublished() {
		return nil, ErrPageNotFound
	}
	return p, nil
}

// =============================================================================
// Helpers
// =============================================================================

// withSlugRetry runs write until it stops failing on a duplicate slug. The
// allocator's probe is not isolated from concurrent writers, so the store's
// unique index has the final say.
func (s *Service) withSlugRetry(ctx context.Context, op string, write func() error) error {
	for attempt := 1; attempt <= MaxWriteAttempts; attempt++ {
		err := write()
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateSlug) {
			return err
		}
		s.logger.WarnContext(ctx, "slug claimed concurrently", "op", op, "attempt", attempt)
	}
	return ErrSlugConflict
}

// hashPassword returns the stored form of a post password. An empty
// password stores no hash.
func (s *Service) hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash post password: %w", err)
	}
	return string(hash), nil
}

func requireTenant(actor auth.Context) error {
	if !actor.Authenticated {
		return ErrUnauthorized
	}
	if actor.TenantID == "" {
		return ErrNoTenant
	}
	return nil
}

// baseSlug validates a caller slug or derives one from title.
func baseSlug(requested, title string) (string, error) {
	if requested != "" {
		if !content.IsValidSlug(requested) {
			return "", ErrInvalidSlug
		}
		return requested, nil
	}
	return content.SlugOrFallback(title), nil
}

func notFoundAs(err, target error) error {
	if errors.Is(err, store.ErrNotFound) {
		return target
	}
	return err
}
