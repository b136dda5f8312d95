package tenant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSettingsPatch_Apply(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		patch SettingsPatch
		want  string
	}{
		{
			name:  "merges over existing keys",
			doc:   `{"title":"Old","theme":"default"}`,
			patch: SettingsPatch{Title: ptr("New")},
			want:  `{"title":"New","theme":"default"}`,
		},
		{
			name:  "keeps unknown keys",
			doc:   `{"title":"Old","legacy":{"a":1}}`,
			patch: SettingsPatch{SEOEnabled: ptr(false)},
			want:  `{"title":"Old","legacy":{"a":1},"seo_enabled":false}`,
		},
		{
			name:  "empty document",
			doc:   ``,
			patch: SettingsPatch{Theme: ptr("dark")},
			want:  `{"theme":"dark"}`,
		},
		{
			name:  "null document",
			doc:   `null`,
			patch: SettingsPatch{Theme: ptr("dark")},
			want:  `{"theme":"dark"}`,
		},
		{
			name:  "empty string is a value",
			doc:   `{"description":"Old"}`,
			patch: SettingsPatch{Description: ptr("")},
			want:  `{"description":""}`,
		},
		{
			name:  "empty patch",
			doc:   `{"title":"Same"}`,
			patch: SettingsPatch{},
			want:  `{"title":"Same"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.patch.Apply(json.RawMessage(tt.doc))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestSettingsPatch_ApplyRejectsNonObject(t *testing.T) {
	_, err := SettingsPatch{Title: ptr("x")}.Apply(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestSettingsPatch_ProFeatures(t *testing.T) {
	assert.Empty(t, SettingsPatch{Title: ptr("x"), Theme: ptr("dark")}.ProFeatures())

	p := SettingsPatch{
		Title:                   ptr("x"),
		ExternalAnalyticsScript: ptr("<script></script>"),
		SEOEnabled:              ptr(false),
	}
	assert.Equal(t, []string{"seo_enabled", "external_analytics_script"}, p.ProFeatures())
}
