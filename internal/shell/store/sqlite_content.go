package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pintim/pint/internal/core/content"
)

// =============================================================================
// Post Operations
// =============================================================================

// postRow represents a post row in the database.
type postRow struct {
	ID            string  `db:"id"`
	TenantID      string  `db:"tenant_id"`
	Slug          string  `db:"slug"`
	Title         string  `db:"title"`
	Content       string  `db:"content"`
	Excerpt       string  `db:"excerpt"`
	FeaturedImage string  `db:"featured_image"`
	Status        string  `db:"status"`
	PublishedAt   *string `db:"published_at"`
	CreatedAt     string  `db:"created_at"`
	UpdatedAt     string  `db:"updated_at"`
	PasswordHash  string  `db:"password_hash"`
}

func (c conn) CreatePost(ctx context.Context, p *content.Post) error {
	query := `
		INSERT INTO posts (
			id, tenant_id, slug, title, content, excerpt, featured_image,
			status, published_at, password_hash, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :slug, :title, :content, :excerpt, :featured_image,
			:status, :published_at, :password_hash, :created_at, :updated_at
		)`

	_, err := c.exec.NamedExecContext(ctx, query, postParams(p))
	if err != nil {
		return contentWriteError("CreatePost", "post", p.ID, err)
	}
	return nil
}

func (c conn) GetPost(ctx context.Context, id string) (*content.Post, error) {
	return c.getPostWhere(ctx, "GetPost", id, `id = ?`, id)
}

func (c conn) GetPostBySlug(ctx context.Context, tenantID, slug string) (*content.Post, error) {
	return c.getPostWhere(ctx, "GetPostBySlug", slug, `tenant_id = ? AND slug = ?`, tenantID, slug)
}

func (c conn) getPostWhere(ctx context.Context, op, key, where string, args ...any) (*content.Post, error) {
	var row postRow
	err := c.exec.GetContext(ctx, &row, `SELECT * FROM posts WHERE `+where, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError(op, "post", key, "post not found", ErrNotFound)
		}
		return nil, NewStoreError(op, "post", key, err.Error(), err)
	}
	return rowToPost(op, &row)
}

func (c conn) UpdatePost(ctx context.Context, p *content.Post) error {
	query := `
		UPDATE posts SET
			slug = :slug,
			title = :title,
			content = :content,
			excerpt = :excerpt,
			featured_image = :featured_image,
			status = :status,
			published_at = :published_at,
			password_hash = :password_hash,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := c.exec.NamedExecContext(ctx, query, postParams(p))
	if err != nil {
		return contentWriteError("UpdatePost", "post", p.ID, err)
	}
	return requireAffected(result, "UpdatePost", "post", p.ID)
}

func (c conn) DeletePost(ctx context.Context, id string) error {
	result, err := c.exec.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeletePost", "post", id, err.Error(), err)
	}
	return requireAffected(result, "DeletePost", "post", id)
}

func (c conn) ListPosts(ctx context.Context, tenantID string, filter ContentFilter) ([]content.Post, error) {
	opts := filter.ListOptions.Normalize()
	query := `SELECT * FROM posts WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Status == content.StatusPublished {
		query += ` ORDER BY published_at DESC, created_at DESC`
	} else {
		query += ` ORDER BY created_at DESC`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []postRow
	if err := c.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListPosts", "post", "", err.Error(), err)
	}

	posts := make([]content.Post, 0, len(rows))
	for i := range rows {
		p, err := rowToPost("ListPosts", &rows[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

func (c conn) CountPosts(ctx context.Context, tenantID string) (int, error) {
	var count int
	if err := c.exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE tenant_id = ?`, tenantID); err != nil {
		return 0, NewStoreError("CountPosts", "post", "", err.Error(), err)
	}
	return count, nil
}

func postParams(p *content.Post) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"tenant_id":      p.TenantID,
		"slug":           p.Slug,
		"title":          p.Title,
		"content":        bodyText(p.Content),
		"excerpt":        p.Excerpt,
		"featured_image": p.FeaturedImage,
		"status":         string(p.Status),
		"published_at":   formatTimePtr(p.PublishedAt),
		"password_hash":  p.PasswordHash,
		"created_at":     formatTime(p.CreatedAt),
		"updated_at":     formatTime(p.UpdatedAt),
	}
}

func rowToPost(op string, row *postRow) (*content.Post, error) {
	var tf timeFields
	p := &content.Post{
		ID:            row.ID,
		TenantID:      row.TenantID,
		Slug:          row.Slug,
		Title:         row.Title,
		Content:       json.RawMessage(row.Content),
		Excerpt:       row.Excerpt,
		FeaturedImage: row.FeaturedImage,
		Status:        content.Status(row.Status),
		PasswordHash:  row.PasswordHash,
		PublishedAt:   tf.parsePtr("published_at", row.PublishedAt),
		CreatedAt:     tf.parse("created_at", row.CreatedAt),
		UpdatedAt:     tf.parse("updated_at", row.UpdatedAt),
	}
	if err := tf.check(op, "post", row.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// =============================================================================
// Page Operations
// =============================================================================

// pageRow represents a page row in the database.
type pageRow struct {
	ID        string `db:"id"`
	TenantID  string `db:"tenant_id"`
	Slug      string `db:"slug"`
	Title     string `db:"title"`
	Content   string `db:"content"`
	ShowInNav bool   `db:"show_in_nav"`
	NavOrder  *int   `db:"nav_order"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (c conn) CreatePage(ctx context.Context, p *content.Page) error {
	query := `
		INSERT INTO pages (
			id, tenant_id, slug, title, content, show_in_nav, nav_order,
			status, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :slug, :title, :content, :show_in_nav, :nav_order,
			:status, :created_at, :updated_at
		)`

	_, err := c.exec.NamedExecContext(ctx, query, pageParams(p))
	if err != nil {
		return contentWriteError("CreatePage", "page", p.ID, err)
	}
	return nil
}

func (c conn) GetPage(ctx context.Context, id string) (*content.Page, error) {
	return c.getPageWhere(ctx, "GetPage", id, `id = ?`, id)
}

func (c conn) GetPageBySlug(ctx context.Context, tenantID, slug string) (*content.Page, error) {
	return c.getPageWhere(ctx, "GetPageBySlug", slug, `tenant_id = ? AND slug = ?`, tenantID, slug)
}

func (c conn) getPageWhere(ctx context.Context, op, key, where string, args ...any) (*content.Page, error) {
	var row pageRow
	err := c.exec.GetContext(ctx, &row, `SELECT * FROM pages WHERE `+where, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError(op, "page", key, "page not found", ErrNotFound)
		}
		return nil, NewStoreError(op, "page", key, err.Error(), err)
	}
	return rowToPage(op, &row)
}

func (c conn) UpdatePage(ctx context.Context, p *content.Page) error {
	query := `
		UPDATE pages SET
			slug = :slug,
			title = :title,
			content = :content,
			show_in_nav = :show_in_nav,
			nav_order = :nav_order,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := c.exec.NamedExecContext(ctx, query, pageParams(p))
	if err != nil {
		return contentWriteError("UpdatePage", "page", p.ID, err)
	}
	return requireAffected(result, "UpdatePage", "page", p.ID)
}

func (c conn) DeletePage(ctx context.Context, id string) error {
	result, err := c.exec.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeletePage", "page", id, err.Error(), err)
	}
	return requireAffected(result, "DeletePage", "page", id)
}

func (c conn) ListPages(ctx context.Context, tenantID string, filter ContentFilter) ([]content.Page, error) {
	opts := filter.ListOptions.Normalize()
	query := `SELECT * FROM pages WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.NavOnly {
		query += ` AND show_in_nav = 1 ORDER BY COALESCE(nav_order, 2147483647), created_at`
	} else {
		query += ` ORDER BY created_at DESC`
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []pageRow
	if err := c.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListPages", "page", "", err.Error(), err)
	}

	pages := make([]content.Page, 0, len(rows))
	for i := range rows {
		p, err := rowToPage("ListPages", &rows[i])
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, nil
}

func pageParams(p *content.Page) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"tenant_id":   p.TenantID,
		"slug":        p.Slug,
		"title":       p.Title,
		"content":     bodyText(p.Content),
		"show_in_nav": p.ShowInNav,
		"nav_order":   p.NavOrder,
		"status":      string(p.Status),
		"created_at":  formatTime(p.CreatedAt),
		"updated_at":  formatTime(p.UpdatedAt),
	}
}

func rowToPage(op string, row *pageRow) (*content.Page, error) {
	var tf timeFields
	p := &content.Page{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Slug:      row.Slug,
		Title:     row.Title,
		Content:   json.RawMessage(row.Content),
		ShowInNav: row.ShowInNav,
		NavOrder:  row.NavOrder,
		Status:    content.Status(row.Status),
		CreatedAt: tf.parse("created_at", row.CreatedAt),
		UpdatedAt: tf.parse("updated_at", row.UpdatedAt),
	}
	if err := tf.check(op, "page", row.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// =============================================================================
// Slug Probing
// =============================================================================

// SlugExists reports whether another resource of kind uses slug in the tenant.
func (c conn) SlugExists(ctx context.Context, kind content.Kind, tenantID, slug, excludeID string) (bool, error) {
	table, err := contentTable(kind)
	if err != nil {
		return false, NewStoreError("SlugExists", string(kind), slug, err.Error(), ErrInvalidData)
	}

	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE tenant_id = ? AND slug = ? AND id != ?)`

	var exists bool
	if err := c.exec.GetContext(ctx, &exists, query, tenantID, slug, excludeID); err != nil {
		return false, NewStoreError("SlugExists", string(kind), slug, err.Error(), err)
	}
	return exists, nil
}

func contentTable(kind content.Kind) (string, error) {
	switch kind {
	case content.KindPost:
		return "posts", nil
	case content.KindPage:
		return "pages", nil
	}
	return "", fmt.Errorf("unknown content kind %q", kind)
}

func contentWriteError(op, entity, id string, err error) error {
	table := entity + "s"
	switch {
	case isUniqueViolation(err, table+".id"):
		return NewStoreError(op, entity, id, entity+" with this ID already exists", ErrDuplicateID)
	case isUniqueViolation(err, table+".tenant_id, "+table+".slug"):
		return NewStoreError(op, entity, id, "slug already exists in this tenant", ErrDuplicateSlug)
	case isForeignKeyViolation(err):
		return NewStoreError(op, entity, id, "tenant does not exist", ErrForeignKey)
	}
	return NewStoreError(op, entity, id, err.Error(), err)
}

func bodyText(body json.RawMessage) string {
	if len(body) == 0 {
		return "null"
	}
	return string(body)
}
