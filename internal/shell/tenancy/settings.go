package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
	"github.com/pintim/pint/internal/shell/store"
)

// ErrNotOnboarded is returned for settings calls from accounts without a
// tenant.
var ErrNotOnboarded = errors.New("onboarding not completed")

// TierLimitError reports a setting the caller's tier does not include.
type TierLimitError struct {
	Feature  string
	Required tenant.Tier
}

func (e *TierLimitError) Error() string {
	return fmt.Sprintf("%s requires %s tier or higher", e.Feature, tierName(e.Required))
}

// Settings reads and edits a tenant's settings document.
type Settings struct {
	store     store.Store
	directory *Directory
	logger    *slog.Logger
	now       func() time.Time
}

// NewSettings creates the settings service. Updates evict the tenant from
// directory.
func NewSettings(s store.Store, directory *Directory, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{
		store:     s,
		directory: directory,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the caller's tenant.
func (s *Settings) Get(ctx context.Context, actor auth.Context) (*tenant.Tenant, error) {
	if !actor.Onboarded() {
		return nil, ErrNotOnboarded
	}
	t, err := s.store.GetTenant(ctx, actor.TenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update merges patch into the caller's settings. Pro keys on a lower tier
// return *TierLimitError and nothing is written.
func (s *Settings) Update(ctx context.Context, actor auth.Context, patch tenant.SettingsPatch) (*tenant.Tenant, error) {
	if !actor.Onboarded() {
		return nil, ErrNotOnboarded
	}
	if features := patch.ProFeatures(); len(features) > 0 && !auth.CanUseTier(actor, tenant.TierPro) {
		return nil, &TierLimitError{Feature: features[0], Required: tenant.TierPro}
	}

	var updated *tenant.Tenant
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		t, err := tx.GetTenant(ctx, actor.TenantID)
		if err != nil {
			return err
		}
		doc, err := patch.Apply(t.Settings)
		if err != nil {
			return err
		}
		t.Settings = doc
		t.UpdatedAt = s.now()
		if err := tx.UpdateTenant(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	if s.directory != nil {
		s.directory.Invalidate(updated)
	}
	s.logger.InfoContext(ctx, "settings updated", "tenant_id", updated.ID)
	return updated, nil
}

func tierName(t tenant.Tier) string {
	switch t {
	case tenant.TierPro:
		return "Pro"
	case tenant.TierMax:
		return "Max"
	case tenant.TierLifetime:
		return "Lifetime"
	}
	return string(t)
}
