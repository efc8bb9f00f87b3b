package service

import (
	"testing"
	"time"

	"anoa.com/feedsync/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexContent(t *testing.T) {
	got := indexContent(`<p>Hello <strong>world</strong></p><p>second&amp;third</p>`)
	assert.Equal(t, "Hello world second&third", got)
}

func TestNewPostDoc(t *testing.T) {
	avatar := "https://cdn.example.com/a.webp"
	groupID := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	post := &entity.Post{
		ID:        uuid.New(),
		Content:   `<p>hi <span data-type="mention" data-label="bob">@bob</span></p>`,
		GroupID:   &groupID,
		CreatedAt: created,
		Author:    entity.Profile{Username: "alice", AvatarURL: &avatar},
	}

	doc := newPostDoc(post, true)
	assert.Equal(t, post.ID.String(), doc.ID)
	assert.Equal(t, "hi @bob", doc.Content)
	assert.Equal(t, groupID.String(), doc.GroupID)
	assert.True(t, doc.IsPrivate)
	assert.Equal(t, created.Unix(), doc.CreatedAt)
	assert.Equal(t, "alice", doc.User.Username)
	assert.Equal(t, avatar, doc.User.AvatarURL)
}

func TestDecodeHits(t *testing.T) {
	raw := []map[string]any{
		{"id": "p1", "content": "hello", "created_at": 10, "user": map[string]any{"username": "alice"}, "_formatted": map[string]any{}},
	}
	hits, err := decodeHits(raw)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)
	assert.Equal(t, "alice", hits[0].User.Username)
	assert.EqualValues(t, 10, hits[0].CreatedAt)

	hits, err = decodeHits(nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
