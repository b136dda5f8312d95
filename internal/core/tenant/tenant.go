package tenant

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrDisplayNameTooShort = errors.New("display name must be at least 2 characters")
	ErrDisplayNameTooLong  = errors.New("display name must be less than 50 characters")
	ErrIdentifierReserved  = errors.New("identifier is reserved")
	ErrIdentifierInvalid   = errors.New("identifier must be 3-30 lowercase letters, numbers or single hyphens, starting and ending with a letter or number")
)

const (
	displayNameMin = 2
	displayNameMax = 50
)

// =============================================================================
// Tenant
// =============================================================================

// Tenant is a blog owned by one account, reachable at {Subdomain}.{root} and,
// optionally, at its custom domain.
type Tenant struct {
	ID           string          `json:"id"`
	Subdomain    string          `json:"subdomain"`
	CustomDomain *string         `json:"custom_domain,omitempty"`
	Settings     json.RawMessage `json:"settings"`
	Tier         Tier            `json:"tier"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Settings is the default settings document written at onboarding. Later
// edits are stored as opaque JSON.
type Settings struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

// ValidateDisplayName checks the human-facing blog name given at onboarding.
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < displayNameMin {
		return ErrDisplayNameTooShort
	}
	if n > displayNameMax {
		return ErrDisplayNameTooLong
	}
	return nil
}

// NewTenant builds a free-tier tenant with default settings.
// subdomain must pass ValidateIdentifier; availability is not checked here.
func NewTenant(subdomain, displayName string) (*Tenant, error) {
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	normalized, reason := ValidateIdentifier(subdomain)
	switch reason {
	case ReasonReserved:
		return nil, ErrIdentifierReserved
	case ReasonInvalidFormat:
		return nil, ErrIdentifierInvalid
	}

	settings, err := json.Marshal(Settings{
		Title: strings.TrimSpace(displayName),
		Theme: "default",
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Tenant{
		ID:        "tnt_" + uuid.New().String(),
		Subdomain: normalized,
		Settings:  settings,
		Tier:      TierFree,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Title returns the blog title from the settings document, falling back to
// the subdomain when unset or unreadable.
func (t *Tenant) Title() string {
	var s Settings
	if len(t.Settings) > 0 && json.Unmarshal(t.Settings, &s) == nil && s.Title != "" {
		return s.Title
	}
	return t.Subdomain
}

// =============================================================================
// Widgets
// =============================================================================

// WidgetType names a per-tenant add-on.
type WidgetType string

const (
	WidgetThemeSwitcher  WidgetType = "theme_switcher"
	WidgetFontCustomizer WidgetType = "font_customizer"
	WidgetMusicPlayer    WidgetType = "music_player"
)

// Widget is a per-tenant add-on with an opaque configuration document.
type Widget struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	Type         WidgetType      `json:"type"`
	Enabled      bool            `json:"enabled"`
	DisplayOrder int             `json:"display_order"`
	Config       json.RawMessage `json:"config"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DefaultWidgets returns the add-ons provisioned for a new tenant.
func DefaultWidgets(tenantID string, now time.Time) []Widget {
	defaults := []struct {
		typ     WidgetType
		enabled bool
	}{
		{WidgetThemeSwitcher, true},
		{WidgetFontCustomizer, true},
		{WidgetMusicPlayer, false},
	}

	widgets := make([]Widget, 0, len(defaults))
	for i, d := range defaults {
		widgets = append(widgets, Widget{
			ID:           "wdg_" + uuid.New().String(),
			TenantID:     tenantID,
			Type:         d.typ,
			Enabled:      d.enabled,
			DisplayOrder: i + 1,
			Config:       json.RawMessage(`{}`),
			CreatedAt:    now,
		})
	}
	return widgets
}
