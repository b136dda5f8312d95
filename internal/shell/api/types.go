package api

import (
	"encoding/json"
	"time"

	"github.com/pintim/pint/internal/shell/api/middleware"
)

// =============================================================================
// Request Types
// =============================================================================

// CompleteOnboardingRequest is the request body for claiming a subdomain.
type CompleteOnboardingRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=49"`
	Subdomain   string `json:"subdomain" validate:"required"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title         string          `json:"title" validate:"required,min=1,max=200"`
	Slug          string          `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	Content       json.RawMessage `json:"content,omitempty"`
	Excerpt       string          `json:"excerpt,omitempty" validate:"max=500"`
	FeaturedImage string          `json:"featured_image,omitempty" validate:"omitempty,url"`
	Status        string          `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
	Password      string          `json:"password,omitempty" validate:"max=72"`
}

// UpdatePostRequest is the request body for updating a post. Absent fields
// are left unchanged.
type UpdatePostRequest struct {
	Title         *string         `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Slug          *string         `json:"slug,omitempty" validate:"omitnil,max=255,slug"`
	Content       json.RawMessage `json:"content,omitempty"`
	Excerpt       *string         `json:"excerpt,omitempty" validate:"omitnil,max=500"`
	FeaturedImage *string         `json:"featured_image,omitempty" validate:"omitnil,omitempty,url"`
	Status        *string         `json:"status,omitempty" validate:"omitnil,oneof=draft published"`
	Password      *string         `json:"password,omitempty" validate:"omitnil,max=72"`
}

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest struct {
	Title     string          `json:"title" validate:"required,min=1,max=200"`
	Slug      string          `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	Content   json.RawMessage `json:"content,omitempty"`
	ShowInNav *bool           `json:"show_in_nav,omitempty"`
	NavOrder  *int            `json:"nav_order,omitempty" validate:"omitnil,gte=0"`
	Status    string          `json:"status,omitempty" validate:"omitempty,oneof=draft published"`
}

// UpdatePageRequest is the request body for updating a page.
type UpdatePageRequest struct {
	Title     *string         `json:"title,omitempty" validate:"omitnil,min=1,max=200"`
	Slug      *string         `json:"slug,omitempty" validate:"omitnil,max=255,slug"`
	Content   json.RawMessage `json:"content,omitempty"`
	ShowInNav *bool           `json:"show_in_nav,omitempty"`
	NavOrder  *int            `json:"nav_order,omitempty" validate:"omitnil,gte=0"`
	Status    *string         `json:"status,omitempty" validate:"omitnil,oneof=draft published"`
}

// UpdateSettingsRequest is the request body for editing blog settings.
// Absent fields are left unchanged.
type UpdateSettingsRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitnil,max=500"`
	Theme       *string `json:"theme,omitempty" validate:"omitnil,min=1,max=50"`
	AccentColor *string `json:"accent_color,omitempty" validate:"omitnil,hexcolor"`
	FontFamily  *string `json:"font_family,omitempty" validate:"omitnil,max=100"`

	SEOEnabled              *bool   `json:"seo_enabled,omitempty"`
	RobotsIndexing          *bool   `json:"robots_indexing,omitempty"`
	CustomMetaTitle         *string `json:"custom_meta_title,omitempty" validate:"omitnil,max=70"`
	CustomMetaDescription   *string `json:"custom_meta_description,omitempty" validate:"omitnil,max=160"`
	ExternalAnalyticsScript *string `json:"external_analytics_script,omitempty" validate:"omitnil,max=10000"`
}

// WidgetOrderRequest places one widget.
type WidgetOrderRequest struct {
	ID           string `json:"id" validate:"required"`
	DisplayOrder *int   `json:"display_order" validate:"required,gte=0"`
}

// ReorderWidgetsRequest is the request body for reordering widgets.
type ReorderWidgetsRequest struct {
	Widgets []WidgetOrderRequest `json:"widgets" validate:"required,min=1,dive"`
}

// UpdateWidgetRequest is the request body for editing one widget.
type UpdateWidgetRequest struct {
	Enabled      *bool           `json:"enabled,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
	DisplayOrder *int            `json:"display_order,omitempty" validate:"omitnil,gte=0"`
}

// PublishRequest is the request body for publishing or unpublishing.
// An empty body publishes.
type PublishRequest struct {
	Published *bool `json:"published,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse is the error envelope shared with the middleware package.
type ErrorResponse = middleware.ErrorResponse

// HealthResponse is the response for health checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// AvailabilityResponse is the response for a subdomain check.
type AvailabilityResponse struct {
	Subdomain string `json:"subdomain"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// TenantSummary identifies a tenant.
type TenantSummary struct {
	ID        string `json:"id"`
	Subdomain string `json:"subdomain"`
}

// OnboardingResponse is the response for a completed onboarding.
type OnboardingResponse struct {
	Success bool          `json:"success"`
	Tenant  TenantSummary `json:"tenant"`
}

// SuccessResponse acknowledges an operation with no other result.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// PostResponse is the response for post operations.
type PostResponse struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	Excerpt       string          `json:"excerpt"`
	FeaturedImage string          `json:"featured_image"`
	Status        string          `json:"status"`
	Protected     bool            `json:"password_protected"`
	PublishedAt   *time.Time      `json:"published_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PageResponse is the response for page operations.
type PageResponse struct {
	ID        string          `json:"id"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	ShowInNav bool            `json:"show_in_nav"`
	NavOrder  *int            `json:"nav_order"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SettingsResponse is the caller's blog settings document and tier.
type SettingsResponse struct {
	Settings json.RawMessage `json:"settings"`
	Tier     string          `json:"tier"`
}

// ManagedWidgetResponse is a widget as its owner sees it.
type ManagedWidgetResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Enabled      bool            `json:"enabled"`
	DisplayOrder int             `json:"display_order"`
	Config       json.RawMessage `json:"config"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ListWidgetsResponse is the response for listing or reordering widgets.
type ListWidgetsResponse struct {
	Widgets []ManagedWidgetResponse `json:"widgets"`
}

// ReservedNamesResponse lists the identifiers no tenant may claim.
type ReservedNamesResponse struct {
	Names []string `json:"names"`
}

// ListPostsResponse is the response for listing posts.
type ListPostsResponse struct {
	Posts  []PostResponse `json:"posts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListPagesResponse is the response for listing pages.
type ListPagesResponse struct {
	Pages  []PageResponse `json:"pages"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// BlogResponse is the public view of a tenant.
type BlogResponse struct {
	Tenant  BlogTenant       `json:"tenant"`
	Widgets []WidgetResponse `json:"widgets"`
	Posts   []PostResponse   `json:"posts"`
	Pages   []PageResponse   `json:"pages"`
}

// BlogTenant is the public part of a tenant record.
type BlogTenant struct {
	Subdomain    string          `json:"subdomain"`
	CustomDomain *string         `json:"custom_domain"`
	Settings     json.RawMessage `json:"settings"`
}

// WidgetResponse is a sidebar widget of a blog.
type WidgetResponse struct {
	Type    string          `json:"type"`
	Enabled bool            `json:"enabled"`
	Order   int             `json:"order"`
	Config  json.RawMessage `json:"config"`
}

// BlogEntryResponse is a single published post or page of a blog.
type BlogEntryResponse struct {
	Tenant BlogTenant    `json:"tenant"`
	Post   *PostResponse `json:"post,omitempty"`
	Page   *PageResponse `json:"page,omitempty"`
}
