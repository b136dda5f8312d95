package tenant

import (
	"encoding/json"
	"fmt"
)

// SettingsPatch is a partial edit of a tenant's settings document. Nil
// fields are left unchanged.
type SettingsPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	AccentColor *string `json:"accent_color,omitempty"`
	FontFamily  *string `json:"font_family,omitempty"`

	// Pro and higher only.
	SEOEnabled              *bool   `json:"seo_enabled,omitempty"`
	RobotsIndexing          *bool   `json:"robots_indexing,omitempty"`
	CustomMetaTitle         *string `json:"custom_meta_title,omitempty"`
	CustomMetaDescription   *string `json:"custom_meta_description,omitempty"`
	ExternalAnalyticsScript *string `json:"external_analytics_script,omitempty"`
}

// ProFeatures returns the settings keys in the patch that need the Pro tier,
// in a fixed order.
func (p SettingsPatch) ProFeatures() []string {
	var keys []string
	if p.SEOEnabled != nil {
		keys = append(keys, "seo_enabled")
	}
	if p.RobotsIndexing != nil {
		keys = append(keys, "robots_indexing")
	}
	if p.CustomMetaTitle != nil {
		keys = append(keys, "custom_meta_title")
	}
	if p.CustomMetaDescription != nil {
		keys = append(keys, "custom_meta_description")
	}
	if p.ExternalAnalyticsScript != nil {
		keys = append(keys, "external_analytics_script")
	}
	return keys
}

// Apply shallow-merges the patch into doc. Keys the patch does not name,
// including ones this version does not know, are kept.
func (p SettingsPatch) Apply(doc json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &merged); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
		if merged == nil {
			merged = map[string]json.RawMessage{}
		}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, err
	}
	for k, v := range changes {
		merged[k] = v
	}
	return json.Marshal(merged)
}
