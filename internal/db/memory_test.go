package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat/internal/models"
)

func TestMemoryStoreDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	older := &Document{ID: "a", Filename: "a.pdf", Status: models.StatusProcessing, UploadedAt: time.Now().Add(-time.Hour)}
	newer := &Document{ID: "b", Filename: "b.pdf", Status: models.StatusReady, UploadedAt: time.Now()}
	require.NoError(t, s.CreateDocument(ctx, older))
	require.NoError(t, s.CreateDocument(ctx, newer))

	// duplicate IDs rejected
	require.Error(t, s.CreateDocument(ctx, &Document{ID: "a"}))

	got, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", got.Filename)

	// newest first
	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)

	older.Status = models.StatusReady
	require.NoError(t, s.UpdateDocument(ctx, older))
	got, err = s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	require.NoError(t, s.DeleteDocument(ctx, "a"))
	_, err = s.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendMessage(ctx, &ChatMessage{DocumentID: "d", Role: models.RoleUser, Content: "q1"}))
	require.NoError(t, s.AppendMessage(ctx, &ChatMessage{DocumentID: "d", Role: models.RoleAssistant, Content: "a1"}))
	require.NoError(t, s.AppendMessage(ctx, &ChatMessage{DocumentID: "other", Role: models.RoleUser, Content: "x"}))

	msgs, err := s.ListMessages(ctx, "d", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q1", msgs[0].Content)
	assert.Equal(t, "a1", msgs[1].Content)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	// a limit keeps the most recent messages, still oldest first
	limited, err := s.ListMessages(ctx, "d", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a1", limited[0].Content)

	require.NoError(t, s.DeleteMessages(ctx, "d"))
	msgs, err = s.ListMessages(ctx, "d", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
