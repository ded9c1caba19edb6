package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-chat/internal/chromemdb"
	"pdf-chat/internal/config"
	"pdf-chat/internal/db"
	"pdf-chat/internal/models"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeVectors struct {
	replaced []string
	dropped  []string
	added    map[string][]chromemdb.Doc
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{added: make(map[string][]chromemdb.Doc)}
}

func (f *fakeVectors) Replace(name string) error {
	f.replaced = append(f.replaced, name)
	return nil
}

func (f *fakeVectors) AddDocs(_ context.Context, name string, docs []chromemdb.Doc) error {
	f.added[name] = append(f.added[name], docs...)
	return nil
}

func (f *fakeVectors) Drop(name string) error {
	f.dropped = append(f.dropped, name)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		EmbedLLM: config.LLMConfig{Model: "embed"},
		LLM:      config.LLMConfig{Model: "chat"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func writeTxt(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newDoc(filename string) *db.Document {
	return &db.Document{
		ID:         "test-id",
		Filename:   filename,
		Status:     models.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}
}

func TestIngest(t *testing.T) {
	store := db.NewMemoryStore()
	vectors := newFakeVectors()
	ing := NewIngestor(store, vectors, fakeEmbedder{}, testConfig())

	doc := newDoc("doc.txt")
	require.NoError(t, store.CreateDocument(context.Background(), doc))

	path := writeTxt(t, strings.Repeat("Plenty of meaningful content in this line. ", 40))
	require.NoError(t, ing.Ingest(context.Background(), doc, path))

	assert.Equal(t, []string{"doc-test-id"}, vectors.replaced)
	docs := vectors.added["doc-test-id"]
	require.NotEmpty(t, docs)
	assert.Equal(t, "doc.txt", docs[0].Metadata[models.MetaFilename])
	assert.Equal(t, "1", docs[0].Metadata[models.MetaPage])
	assert.Equal(t, []float32{1, 0}, docs[0].Embedding)

	stored, err := store.GetDocument(context.Background(), "test-id")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, stored.Status)
	assert.Equal(t, 1, stored.Pages)
	assert.Equal(t, len(docs), stored.Chunks)
}

func TestIngestFailureMarksDocumentFailed(t *testing.T) {
	store := db.NewMemoryStore()
	vectors := newFakeVectors()
	ing := NewIngestor(store, vectors, fakeEmbedder{}, testConfig())

	doc := newDoc("empty.txt")
	require.NoError(t, store.CreateDocument(context.Background(), doc))

	path := writeTxt(t, "   ")
	err := ing.Ingest(context.Background(), doc, path)
	require.Error(t, err)

	stored, serr := store.GetDocument(context.Background(), "test-id")
	require.NoError(t, serr)
	assert.Equal(t, models.StatusFailed, stored.Status)
	// partial collection cleaned up
	assert.Equal(t, []string{"doc-test-id"}, vectors.dropped)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	vectors := newFakeVectors()
	ing := NewIngestor(store, vectors, fakeEmbedder{}, testConfig())

	doc := newDoc("doc.txt")
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NoError(t, store.AppendMessage(ctx, &db.ChatMessage{DocumentID: doc.ID, Role: models.RoleUser, Content: "hi"}))

	require.NoError(t, ing.Remove(ctx, doc.ID))

	assert.Equal(t, []string{"doc-test-id"}, vectors.dropped)
	_, err := store.GetDocument(ctx, doc.ID)
	require.Error(t, err)
	msgs, err := store.ListMessages(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
