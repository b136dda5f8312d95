// Package content contains the pure post and page rules: the slug
// normalizer, the per-tenant slug allocator and publication state.
// This is part of the Functional Core - the allocator's only I/O goes
// through the SlugProber it is handed.
package content

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidSlug   = errors.New("slug may only contain lowercase letters, numbers and hyphens")
	ErrInvalidStatus = errors.New("status must be draft or published")
)

// =============================================================================
// Kind and Status
// =============================================================================

// Kind is a content resource kind. Slugs are unique per (tenant, kind).
type Kind string

const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	return k == KindPost || k == KindPage
}

// Status is a publication state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// =============================================================================
// Post
// =============================================================================

// Post is a dated blog entry.
type Post struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	Excerpt       string          `json:"excerpt,omitempty"`
	FeaturedImage string          `json:"featured_image,omitempty"`
	Status        Status          `json:"status"`
	PasswordHash  string          `json:"-"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewPost creates a draft post. The slug must already be allocated.
func NewPost(tenantID, slug, title string, body json.RawMessage) (*Post, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !isStorableSlug(slug) {
		return nil, ErrInvalidSlug
	}
	now := time.Now().UTC()
	return &Post{
		ID:        "post_" + uuid.New().String(),
		TenantID:  tenantID,
		Slug:      slug,
		Title:     title,
		Content:   normalizeBody(body),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Publish marks the post published. PublishedAt is set on the first publish
// only.
func (p *Post) Publish(now time.Time) {
	p.Status = StatusPublished
	if p.PublishedAt == nil {
		t := now.UTC()
		p.PublishedAt = &t
	}
	p.UpdatedAt = now.UTC()
}

// Unpublish returns the post to draft. PublishedAt is kept.
func (p *Post) Unpublish(now time.Time) {
	p.Status = StatusDraft
	p.UpdatedAt = now.UTC()
}

// SetStatus applies status through Publish/Unpublish.
func (p *Post) SetStatus(status Status, now time.Time) error {
	switch status {
	case StatusPublished:
		p.Publish(now)
	case StatusDraft:
		p.Unpublish(now)
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// IsProtected reports whether readers need a password to see the post.
func (p *Post) IsProtected() bool {
	return p.PasswordHash != ""
}

// =============================================================================
// Page
// =============================================================================

// Page is an undated standalone page, optionally listed in navigation.
type Page struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	ShowInNav bool            `json:"show_in_nav"`
	NavOrder  *int            `json:"nav_order,omitempty"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPage creates a draft page shown in navigation. The slug must already be
// allocated.
func NewPage(tenantID, slug, title string, body json.RawMessage) (*Page, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !isStorableSlug(slug) {
		return nil, ErrInvalidSlug
	}
	now := time.Now().UTC()
	return &Page{
		ID:        "page_" + uuid.New().String(),
		TenantID:  tenantID,
		Slug:      slug,
		Title:     title,
		Content:   normalizeBody(body),
		ShowInNav: true,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Publish makes the page publicly visible.
func (p *Page) Publish(now time.Time) {
	p.Status = StatusPublished
	p.UpdatedAt = now.UTC()
}

// Unpublish returns the page to draft.
func (p *Page) Unpublish(now time.Time) {
	p.Status = StatusDraft
	p.UpdatedAt = now.UTC()
}

// SetStatus changes the page's publication state.
func (p *Page) SetStatus(status Status, now time.Time) error {
	switch status {
	case StatusPublished:
		p.Publish(now)
	case StatusDraft:
		p.Unpublish(now)
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsPublished reports whether the page is publicly visible.
func (p *Page) IsPublished() bool {
	return p.Status == StatusPublished
}

// normalizeBody stores an absent editor document as JSON null.
func normalizeBody(body json.RawMessage) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage(`null`)
	}
	return body
}
