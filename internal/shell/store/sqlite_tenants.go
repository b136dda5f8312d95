package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pintim/pint/internal/core/tenant"
)

// =============================================================================
// Tenant Operations
// =============================================================================

// tenantRow represents a tenant row in the database.
type tenantRow struct {
	ID           string  `db:"id"`
	Subdomain    string  `db:"subdomain"`
	CustomDomain *string `db:"custom_domain"`
	Settings     string  `db:"settings"`
	Tier         string  `db:"tier"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

func (c conn) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	query := `
		INSERT INTO tenants (id, subdomain, custom_domain, settings, tier, created_at, updated_at)
		VALUES (:id, :subdomain, :custom_domain, :settings, :tier, :created_at, :updated_at)`

	_, err := c.exec.NamedExecContext(ctx, query, tenantParams(t))
	if err != nil {
		return tenantWriteError("CreateTenant", t.ID, err)
	}
	return nil
}

func (c conn) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	return c.getTenantWhere(ctx, "GetTenant", "id = ?", id)
}

func (c conn) GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	return c.getTenantWhere(ctx, "GetTenantBySubdomain", "subdomain = ?", strings.ToLower(subdomain))
}

func (c conn) GetTenantByCustomDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return c.getTenantWhere(ctx, "GetTenantByCustomDomain", "custom_domain = ?", strings.ToLower(domain))
}

func (c conn) getTenantWhere(ctx context.Context, op, where, arg string) (*tenant.Tenant, error) {
	query := `SELECT * FROM tenants WHERE ` + where

	var row tenantRow
	err := c.exec.GetContext(ctx, &row, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError(op, "tenant", arg, "tenant not found", ErrNotFound)
		}
		return nil, NewStoreError(op, "tenant", arg, err.Error(), err)
	}

	return rowToTenant(op, &row)
}

func (c conn) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	query := `
		UPDATE tenants SET
			custom_domain = :custom_domain,
			settings = :settings,
			tier = :tier,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := c.exec.NamedExecContext(ctx, query, tenantParams(t))
	if err != nil {
		return tenantWriteError("UpdateTenant", t.ID, err)
	}
	return requireAffected(result, "UpdateTenant", "tenant", t.ID)
}

func (c conn) DeleteTenant(ctx context.Context, id string) error {
	result, err := c.exec.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteTenant", "tenant", id, err.Error(), err)
	}
	return requireAffected(result, "DeleteTenant", "tenant", id)
}

func tenantParams(t *tenant.Tenant) map[string]any {
	var customDomain *string
	if t.CustomDomain != nil && *t.CustomDomain != "" {
		d := strings.ToLower(*t.CustomDomain)
		customDomain = &d
	}
	settings := string(t.Settings)
	if settings == "" {
		settings = "{}"
	}
	return map[string]any{
		"id":            t.ID,
		"subdomain":     strings.ToLower(t.Subdomain),
		"custom_domain": customDomain,
		"settings":      settings,
		"tier":          string(t.Tier),
		"created_at":    formatTime(t.CreatedAt),
		"updated_at":    formatTime(t.UpdatedAt),
	}
}

func tenantWriteError(op, id string, err error) error {
	switch {
	case isUniqueViolation(err, "tenants.id"):
		return NewStoreError(op, "tenant", id, "tenant with this ID already exists", ErrDuplicateID)
	case isUniqueViolation(err, "tenants.subdomain"):
		return NewStoreError(op, "tenant", id, "subdomain already claimed", ErrDuplicateSubdomain)
	case isUniqueViolation(err, "tenants.custom_domain"):
		return NewStoreError(op, "tenant", id, "custom domain already in use", ErrDuplicateCustomDomain)
	}
	return NewStoreError(op, "tenant", id, err.Error(), err)
}

func rowToTenant(op string, row *tenantRow) (*tenant.Tenant, error) {
	var tf timeFields
	t := &tenant.Tenant{
		ID:           row.ID,
		Subdomain:    row.Subdomain,
		CustomDomain: row.CustomDomain,
		Settings:     json.RawMessage(row.Settings),
		Tier:         tenant.Tier(row.Tier),
		CreatedAt:    tf.parse("created_at", row.CreatedAt),
		UpdatedAt:    tf.parse("updated_at", row.UpdatedAt),
	}
	if err := tf.check(op, "tenant", row.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// =============================================================================
// User Operations
// =============================================================================

// userRow represents a user row in the database.
type userRow struct {
	ID                 string  `db:"id"`
	ExternalID         string  `db:"external_id"`
	Email              string  `db:"email"`
	TenantID           *string `db:"tenant_id"`
	OnboardingComplete bool    `db:"onboarding_complete"`
	CreatedAt          string  `db:"created_at"`
	UpdatedAt          string  `db:"updated_at"`
}

func (c conn) CreateUser(ctx context.Context, u *tenant.User) error {
	query := `
		INSERT INTO users (id, external_id, email, tenant_id, onboarding_complete, created_at, updated_at)
		VALUES (:id, :external_id, :email, :tenant_id, :onboarding_complete, :created_at, :updated_at)`

	row := map[string]any{
		"id":                  u.ID,
		"external_id":         u.ExternalID,
		"email":               u.Email,
		"tenant_id":           u.TenantID,
		"onboarding_complete": u.OnboardingComplete,
		"created_at":          formatTime(u.CreatedAt),
		"updated_at":          formatTime(u.UpdatedAt),
	}

	_, err := c.exec.NamedExecContext(ctx, query, row)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.id"):
			return NewStoreError("CreateUser", "user", u.ID, "user with this ID already exists", ErrDuplicateID)
		case isUniqueViolation(err, "users.external_id"):
			return NewStoreError("CreateUser", "user", u.ID, "account already recorded", ErrDuplicateUser)
		case isForeignKeyViolation(err):
			return NewStoreError("CreateUser", "user", u.ID, "tenant does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateUser", "user", u.ID, err.Error(), err)
	}
	return nil
}

func (c conn) GetUser(ctx context.Context, id string) (*tenant.User, error) {
	return c.getUserWhere(ctx, "GetUser", "id = ?", id)
}

func (c conn) GetUserByExternalID(ctx context.Context, externalID string) (*tenant.User, error) {
	return c.getUserWhere(ctx, "GetUserByExternalID", "external_id = ?", externalID)
}

func (c conn) getUserWhere(ctx context.Context, op, where, arg string) (*tenant.User, error) {
	var row userRow
	err := c.exec.GetContext(ctx, &row, `SELECT * FROM users WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError(op, "user", arg, "user not found", ErrNotFound)
		}
		return nil, NewStoreError(op, "user", arg, err.Error(), err)
	}

	var tf timeFields
	u := &tenant.User{
		ID:                 row.ID,
		ExternalID:         row.ExternalID,
		Email:              row.Email,
		TenantID:           row.TenantID,
		OnboardingComplete: row.OnboardingComplete,
		CreatedAt:          tf.parse("created_at", row.CreatedAt),
		UpdatedAt:          tf.parse("updated_at", row.UpdatedAt),
	}
	if err := tf.check(op, "user", row.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// LinkUserTenant records the user as the tenant's owner and marks onboarding
// complete. A user already linked to a tenant is left unchanged and
// ErrDuplicateUser is returned.
func (c conn) LinkUserTenant(ctx context.Context, userID, tenantID string) error {
	query := `
		UPDATE users SET tenant_id = ?, onboarding_complete = 1, updated_at = ?
		WHERE id = ? AND tenant_id IS NULL`

	result, err := c.exec.ExecContext(ctx, query, tenantID, formatTime(nowUTC()), userID)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users.tenant_id"):
			return NewStoreError("LinkUserTenant", "user", userID, "tenant already has an owner", ErrDuplicateUser)
		case isForeignKeyViolation(err):
			return NewStoreError("LinkUserTenant", "user", userID, "tenant does not exist", ErrForeignKey)
		}
		return NewStoreError("LinkUserTenant", "user", userID, err.Error(), err)
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected > 0 {
		return nil
	}
	if _, err := c.GetUser(ctx, userID); err != nil {
		return err
	}
	return NewStoreError("LinkUserTenant", "user", userID, "user already linked to a tenant", ErrDuplicateUser)
}

func (c conn) DeleteUser(ctx context.Context, id string) error {
	result, err := c.exec.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteUser", "user", id, err.Error(), err)
	}
	return requireAffected(result, "DeleteUser", "user", id)
}

// =============================================================================
// Widget Operations
// =============================================================================

// widgetRow represents a widget row in the database.
type widgetRow struct {
	ID           string `db:"id"`
	TenantID     string `db:"tenant_id"`
	Type         string `db:"type"`
	Enabled      bool   `db:"enabled"`
	DisplayOrder int    `db:"display_order"`
	Config       string `db:"config"`
	CreatedAt    string `db:"created_at"`
}

func (c conn) CreateWidget(ctx context.Context, w *tenant.Widget) error {
	query := `
		INSERT INTO widgets (id, tenant_id, type, enabled, display_order, config, created_at)
		VALUES (:id, :tenant_id, :type, :enabled, :display_order, :config, :created_at)`

	_, err := c.exec.NamedExecContext(ctx, query, widgetParams(w))
	if err != nil {
		switch {
		case isUniqueViolation(err, "widgets.id"):
			return NewStoreError("CreateWidget", "widget", w.ID, "widget with this ID already exists", ErrDuplicateID)
		case isUniqueViolation(err, "widgets.tenant_id, widgets.type"):
			return NewStoreError("CreateWidget", "widget", w.ID, "widget type already provisioned", ErrDuplicateWidget)
		case isForeignKeyViolation(err):
			return NewStoreError("CreateWidget", "widget", w.ID, "tenant does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateWidget", "widget", w.ID, err.Error(), err)
	}
	return nil
}

func (c conn) GetWidget(ctx context.Context, id string) (*tenant.Widget, error) {
	var row widgetRow
	err := c.exec.GetContext(ctx, &row, `SELECT * FROM widgets WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetWidget", "widget", id, "widget not found", ErrNotFound)
		}
		return nil, NewStoreError("GetWidget", "widget", id, err.Error(), err)
	}
	return rowToWidget("GetWidget", &row)
}

func (c conn) ListWidgets(ctx context.Context, tenantID string) ([]tenant.Widget, error) {
	query := `SELECT * FROM widgets WHERE tenant_id = ? ORDER BY display_order, type`

	var rows []widgetRow
	if err := c.exec.SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, NewStoreError("ListWidgets", "widget", "", err.Error(), err)
	}

	widgets := make([]tenant.Widget, 0, len(rows))
	for i := range rows {
		w, err := rowToWidget("ListWidgets", &rows[i])
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, *w)
	}
	return widgets, nil
}

// UpdateWidget writes the widget's enabled flag, display order and config.
// The type and tenant never change.
func (c conn) UpdateWidget(ctx context.Context, w *tenant.Widget) error {
	query := `
		UPDATE widgets SET
			enabled = :enabled,
			display_order = :display_order,
			config = :config
		WHERE id = :id`

	result, err := c.exec.NamedExecContext(ctx, query, widgetParams(w))
	if err != nil {
		return NewStoreError("UpdateWidget", "widget", w.ID, err.Error(), err)
	}
	return requireAffected(result, "UpdateWidget", "widget", w.ID)
}

func widgetParams(w *tenant.Widget) map[string]any {
	config := string(w.Config)
	if config == "" {
		config = "{}"
	}
	return map[string]any{
		"id":            w.ID,
		"tenant_id":     w.TenantID,
		"type":          string(w.Type),
		"enabled":       w.Enabled,
		"display_order": w.DisplayOrder,
		"config":        config,
		"created_at":    formatTime(w.CreatedAt),
	}
}

func rowToWidget(op string, row *widgetRow) (*tenant.Widget, error) {
	var tf timeFields
	w := &tenant.Widget{
		ID:           row.ID,
		TenantID:     row.TenantID,
		Type:         tenant.WidgetType(row.Type),
		Enabled:      row.Enabled,
		DisplayOrder: row.DisplayOrder,
		Config:       json.RawMessage(row.Config),
		CreatedAt:    tf.parse("created_at", row.CreatedAt),
	}
	if err := tf.check(op, "widget", row.ID); err != nil {
		return nil, err
	}
	return w, nil
}
