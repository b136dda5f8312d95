package tenant

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	tn, err := NewTenant("MyBlog", "  My Blog  ")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tn.ID, "tnt_"))
	assert.Equal(t, "myblog", tn.Subdomain)
	assert.Equal(t, TierFree, tn.Tier)
	assert.Nil(t, tn.CustomDomain)
	assert.Equal(t, "My Blog", tn.Title())

	var s Settings
	require.NoError(t, json.Unmarshal(tn.Settings, &s))
	assert.Equal(t, "default", s.Theme)
	assert.Empty(t, s.Description)
}

func TestNewTenant_Errors(t *testing.T) {
	_, err := NewTenant("www", "My Blog")
	assert.ErrorIs(t, err, ErrIdentifierReserved)

	_, err = NewTenant("a", "My Blog")
	assert.ErrorIs(t, err, ErrIdentifierInvalid)

	_, err = NewTenant("myblog", "x")
	assert.ErrorIs(t, err, ErrDisplayNameTooShort)

	_, err = NewTenant("myblog", strings.Repeat("x", 51))
	assert.ErrorIs(t, err, ErrDisplayNameTooLong)
}

func TestTenant_TitleFallback(t *testing.T) {
	tn := &Tenant{Subdomain: "myblog", Settings: json.RawMessage(`{"theme":"dark"}`)}
	assert.Equal(t, "myblog", tn.Title())

	tn.Settings = json.RawMessage(`not json`)
	assert.Equal(t, "myblog", tn.Title())
}

func TestDefaultWidgets(t *testing.T) {
	now := time.Now()
	widgets := DefaultWidgets("tnt_1", now)
	require.Len(t, widgets, 3)

	assert.Equal(t, WidgetThemeSwitcher, widgets[0].Type)
	assert.True(t, widgets[0].Enabled)
	assert.Equal(t, 1, widgets[0].DisplayOrder)

	assert.Equal(t, WidgetFontCustomizer, widgets[1].Type)
	assert.True(t, widgets[1].Enabled)

	assert.Equal(t, WidgetMusicPlayer, widgets[2].Type)
	assert.False(t, widgets[2].Enabled)
	assert.Equal(t, 3, widgets[2].DisplayOrder)

	for _, w := range widgets {
		assert.Equal(t, "tnt_1", w.TenantID)
		assert.JSONEq(t, `{}`, string(w.Config))
	}
}

func TestTier(t *testing.T) {
	assert.True(t, TierLifetime.AtLeast(TierMax))
	assert.True(t, TierPro.AtLeast(TierPro))
	assert.False(t, TierFree.AtLeast(TierPro))
	assert.False(t, Tier("gold").AtLeast(TierFree))
	assert.False(t, Tier("gold").IsValid())

	assert.Equal(t, FreePostLimit, TierFree.Limits().MaxPosts)
	assert.False(t, TierFree.Limits().CustomDomain)
	assert.Equal(t, Unlimited, TierMax.Limits().MaxPosts)
	assert.True(t, TierPro.Limits().CustomDomain)

	assert.True(t, TierFree.CanCreatePost(FreePostLimit-1))
	assert.False(t, TierFree.CanCreatePost(FreePostLimit))
	assert.True(t, TierPro.CanCreatePost(10_000))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" user_1 ", "Me@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ExternalID)
	assert.Equal(t, "me@example.com", u.Email)
	assert.False(t, u.OnboardingComplete)
	assert.Empty(t, u.TenantRef())

	id := "tnt_1"
	u.TenantID = &id
	assert.Equal(t, "tnt_1", u.TenantRef())

	_, err = NewUser("", "a@b.c")
	assert.ErrorIs(t, err, ErrExternalIDRequired)
	_, err = NewUser("user_1", " ")
	assert.ErrorIs(t, err, ErrEmailRequired)
}
