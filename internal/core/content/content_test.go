package content

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	p, err := NewPost("tnt_1", "hello-world", "Hello World", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, p.Status)
	assert.Nil(t, p.PublishedAt)
	assert.JSONEq(t, `null`, string(p.Content))

	_, err = NewPost("tnt_1", "hello", "", nil)
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = NewPost("tnt_1", "Bad Slug", "Title", nil)
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestPost_PublishedAtSurvivesUnpublish(t *testing.T) {
	p, err := NewPost("tnt_1", "hello", "Hello", json.RawMessage(`{"type":"doc"}`))
	require.NoError(t, err)

	first := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.Publish(first)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.IsPublished())

	p.Unpublish(first.Add(time.Hour))
	assert.False(t, p.IsPublished())
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, first, *p.PublishedAt)

	p.Publish(first.Add(48 * time.Hour))
	assert.Equal(t, first, *p.PublishedAt)
}

func TestPost_SetStatus(t *testing.T) {
	p, err := NewPost("tnt_1", "hello", "Hello", nil)
	require.NoError(t, err)

	require.NoError(t, p.SetStatus(StatusPublished, time.Now()))
	assert.NotNil(t, p.PublishedAt)
	assert.ErrorIs(t, p.SetStatus("archived", time.Now()), ErrInvalidStatus)
}

func TestPage_SetStatus(t *testing.T) {
	p, err := NewPage("tnt_1", "about", "About", nil)
	require.NoError(t, err)
	assert.True(t, p.ShowInNav)

	require.NoError(t, p.SetStatus(StatusPublished, time.Now()))
	assert.True(t, p.IsPublished())
	assert.ErrorIs(t, p.SetStatus("", time.Now()), ErrInvalidStatus)
}

func TestKindAndStatus(t *testing.T) {
	assert.True(t, KindPost.IsValid())
	assert.True(t, KindPage.IsValid())
	assert.False(t, Kind("widget").IsValid())
	assert.True(t, StatusDraft.IsValid())
	assert.False(t, Status("archived").IsValid())
}
