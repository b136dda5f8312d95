package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		input  any
		fields []FieldError
	}{
		{
			name:  "valid post",
			input: CreatePostRequest{Title: "Hello", Slug: "hello-world", Status: "draft"},
		},
		{
			name:  "missing title",
			input: CreatePostRequest{},
			fields: []FieldError{
				{Path: "title", Message: "is required"},
			},
		},
		{
			name:  "several failures sorted by path",
			input: CreatePostRequest{Title: strings.Repeat("t", 201), Slug: "Bad Slug", Status: "gone"},
			fields: []FieldError{
				{Path: "slug", Message: "may only contain lowercase letters, numbers and hyphens"},
				{Path: "status", Message: "must be one of: draft published"},
				{Path: "title", Message: "must not exceed 200 characters"},
			},
		},
		{
			name:  "nil patch fields are skipped",
			input: UpdatePostRequest{},
		},
		{
			name:  "set patch fields are checked",
			input: UpdatePostRequest{Title: ptr(""), FeaturedImage: ptr("nope")},
			fields: []FieldError{
				{Path: "featured_image", Message: "must be a valid URL"},
				{Path: "title", Message: "must be at least 1 characters"},
			},
		},
		{
			name:  "negative nav order",
			input: CreatePageRequest{Title: "About", NavOrder: ptr(-1)},
			fields: []FieldError{
				{Path: "nav_order", Message: "must be greater than or equal to 0"},
			},
		},
		{
			name:  "short display name",
			input: CompleteOnboardingRequest{DisplayName: "x", Subdomain: "blog"},
			fields: []FieldError{
				{Path: "display_name", Message: "must be at least 2 characters"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.fields, verr.Fields)
			assert.Contains(t, verr.Error(), tt.fields[0].Path)
		})
	}
}
