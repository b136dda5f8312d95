package tenancy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pintim/pint/internal/core/auth"
	"github.com/pintim/pint/internal/core/tenant"
)

func ptr[T any](v T) *T { return &v }

func ownerOf(tn *tenant.Tenant, tier tenant.Tier) auth.Context {
	return auth.Context{
		ExternalID:    "user_" + tn.Subdomain,
		TenantID:      tn.ID,
		Tier:          tier,
		Authenticated: true,
	}
}

func TestSettings_Update(t *testing.T) {
	s := setupStore(t)
	svc := NewSettings(s, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, s, "alice", "")

	got, err := svc.Update(ctx, ownerOf(tn, tenant.TierFree), tenant.SettingsPatch{
		Description: ptr("Notes on things"),
		Theme:       ptr("dark"),
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(got.Settings, &doc))
	assert.Equal(t, "Seeded Blog", doc["title"])
	assert.Equal(t, "Notes on things", doc["description"])
	assert.Equal(t, "dark", doc["theme"])

	stored, err := s.GetTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(got.Settings), string(stored.Settings))
	assert.True(t, stored.UpdatedAt.After(tn.UpdatedAt) || stored.UpdatedAt.Equal(tn.UpdatedAt))
}

func TestSettings_ProKeys(t *testing.T) {
	s := setupStore(t)
	svc := NewSettings(s, nil, nil)
	ctx := context.Background()
	tn := seedTenant(t, s, "alice", "")

	patch := tenant.SettingsPatch{
		Title:           ptr("Renamed"),
		CustomMetaTitle: ptr("Alice's Blog"),
	}

	t.Run("free tier is refused", func(t *testing.T) {
		_, err := svc.Update(ctx, ownerOf(tn, tenant.TierFree), patch)
		var limitErr *TierLimitError
		require.ErrorAs(t, err, &limitErr)
		assert.Equal(t, "custom_meta_title", limitErr.Feature)
		assert.Equal(t, "custom_meta_title requires Pro tier or higher", err.Error())

		stored, err := s.GetTenant(ctx, tn.ID)
		require.NoError(t, err)
		assert.Equal(t, "Seeded Blog", stored.Title(), "nothing is written")
	})

	for _, tier := range []tenant.Tier{tenant.TierPro, tenant.TierMax, tenant.TierLifetime} {
		t.Run(string(tier)+" tier is allowed", func(t *testing.T) {
			got, err := svc.Update(ctx, ownerOf(tn, tier), patch)
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Title())
		})
	}
}

func TestSettings_RequiresTenant(t *testing.T) {
	s := setupStore(t)
	svc := NewSettings(s, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor auth.Context
		want  error
	}{
		{"anonymous", auth.Context{}, ErrNotOnboarded},
		{"not onboarded", auth.Context{ExternalID: "user_x", Authenticated: true}, ErrNotOnboarded},
		{"tenant gone", auth.Context{ExternalID: "user_x", TenantID: "tnt_gone", Authenticated: true}, ErrTenantNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tt.actor)
			assert.ErrorIs(t, err, tt.want)
			_, err = svc.Update(ctx, tt.actor, tenant.SettingsPatch{Theme: ptr("dark")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettings_UpdateEvictsDirectory(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	tn := seedTenant(t, s, "alice", "")
	d := setupDirectory(t, s, time.Hour)
	svc := NewSettings(s, d, nil)

	cached, err := d.FindByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Seeded Blog", cached.Title())

	_, err = svc.Update(ctx, ownerOf(tn, tenant.TierFree), tenant.SettingsPatch{Title: ptr("Fresh Title")})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := d.FindByIdentifier(ctx, "alice")
		return err == nil && got.Title() == "Fresh Title"
	}, time.Second, 10*time.Millisecond)
}
