package chromemdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Doc is one embedded chunk as stored in the vector database
type Doc struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// SearchResult is a retrieved chunk with its similarity to the query
type SearchResult struct {
	Content    string
	Metadata   map[string]string
	Similarity float32
}

const compress = false

// VectorDBManager encapsulates the chromem-go database. Each uploaded
// document gets its own collection so re-uploads and deletes stay cheap.
type VectorDBManager struct {
	db            *chromem.DB
	dbPath        string
	encryptionKey string
}

// NewVectorDBManager initializes a new vector database manager
func NewVectorDBManager(dbPath string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
	}, nil
}

// Replace drops the collection if it exists and recreates it empty
func (m *VectorDBManager) Replace(name string) error {
	if m.db.GetCollection(name, nil) != nil {
		if err := m.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("failed to drop collection: %v", err)
		}
	}
	_, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}
	return nil
}

// AddDocs adds embedded chunks to a collection in one batch
func (m *VectorDBManager) AddDocs(ctx context.Context, name string, docs []Doc) error {
	c, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %v", err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		}
	}

	if err := c.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search performs a similarity search against one collection. k is clamped
// to the collection size, chromem rejects queries asking for more.
func (m *VectorDBManager) Search(ctx context.Context, name string, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}

	c := m.db.GetCollection(name, nil)
	if c == nil {
		return nil, fmt.Errorf("collection %s not found", name)
	}

	count := c.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// Drop removes a collection, missing collections are not an error
func (m *VectorDBManager) Drop(name string) error {
	if m.db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := m.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	return nil
}

// Export writes one collection to an encrypted file next to the database
func (m *VectorDBManager) Export(name string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if err := os.MkdirAll(m.dbPath, 0o755); err != nil {
		return fmt.Errorf("failed to create export folder: %v", err)
	}
	filePath := filepath.Join(m.dbPath, name+".chromem")

	log.Debug().Str("collection", name).Str("file", filePath).Msg("Exporting collection")
	if err := m.db.ExportToFile(filePath, compress, m.encryptionKey, name); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import loads a previously exported collection file
func (m *VectorDBManager) Import(name string) error {
	filePath := filepath.Join(m.dbPath, name+".chromem")
	if err := m.db.ImportFromFile(filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %v", err)
	}
	return nil
}

// ImportAll loads every exported collection file found under the db path.
// Run on startup with an in-memory database so exports survive restarts.
func (m *VectorDBManager) ImportAll() error {
	files, err := filepath.Glob(filepath.Join(m.dbPath, "*.chromem"))
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := m.db.ImportFromFile(f, m.encryptionKey); err != nil {
			return fmt.Errorf("failed to import %s: %v", filepath.Base(f), err)
		}
	}
	if len(files) > 0 {
		log.Info().Int("collections", len(files)).Msg("Imported exported collections")
	}
	return nil
}
