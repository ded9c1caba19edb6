package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdf-chat/internal/chromemdb"
	"pdf-chat/internal/config"
	"pdf-chat/internal/db"
	"pdf-chat/internal/embedding"
	"pdf-chat/internal/models"
	"pdf-chat/internal/parser"
	"pdf-chat/internal/rag"
)

// VectorStore is the slice of the vector database ingestion needs
type VectorStore interface {
	Replace(name string) error
	AddDocs(ctx context.Context, name string, docs []chromemdb.Doc) error
	Drop(name string) error
}

// Ingestor runs the upload pipeline: parse, clean, chunk, embed, index
type Ingestor struct {
	store    db.Store
	vectors  VectorStore
	embedder embeddings.Embedder
	cfg      *config.Config
}

func NewIngestor(store db.Store, vectors VectorStore, embedder embeddings.Embedder, cfg *config.Config) *Ingestor {
	return &Ingestor{store: store, vectors: vectors, embedder: embedder, cfg: cfg}
}

// Ingest processes the file at path into the document's vector collection.
// An existing collection for the same document is replaced, so re-uploading
// a file resets its index. On failure the document is marked failed and any
// partial collection is removed.
func (ing *Ingestor) Ingest(ctx context.Context, doc *db.Document, path string) error {
	collection := rag.CollectionName(doc.ID)

	if err := ing.run(ctx, doc, path, collection); err != nil {
		log.Error().Err(err).Str("document_id", doc.ID).Str("filename", doc.Filename).Msg("Ingestion failed")
		doc.Status = models.StatusFailed
		if uerr := ing.store.UpdateDocument(ctx, doc); uerr != nil {
			log.Error().Err(uerr).Str("document_id", doc.ID).Msg("Failed to mark document failed")
		}
		if derr := ing.vectors.Drop(collection); derr != nil {
			log.Error().Err(derr).Str("collection", collection).Msg("Failed to drop partial collection")
		}
		return err
	}
	return nil
}

func (ing *Ingestor) run(ctx context.Context, doc *db.Document, path, collection string) error {
	log.Info().Str("filename", doc.Filename).Msg("Parsing document")
	chunks, pages, err := parser.Parse(path, ing.cfg)
	if err != nil {
		return fmt.Errorf("failed to parse document: %v", err)
	}
	log.Info().Int("pages", pages).Int("chunks", len(chunks)).Msg("Parsed document")

	log.Info().Int("chunks", len(chunks)).Msg("Generating embeddings")
	chunkEmbeddings, err := embedding.GenerateEmbedding(ctx, ing.embedder, doc.Filename, chunks)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %v", err)
	}

	if err := ing.vectors.Replace(collection); err != nil {
		return err
	}

	docs := make([]chromemdb.Doc, len(chunkEmbeddings))
	for i, ce := range chunkEmbeddings {
		docs[i] = chromemdb.Doc{
			ID:        fmt.Sprintf("%s-%d-%d", doc.ID, ce.PageNumber, ce.ChunkID),
			Content:   ce.Content,
			Metadata:  chunkMetadata(ce),
			Embedding: ce.Embedding,
		}
	}

	log.Info().Int("documents", len(docs)).Str("collection", collection).Msg("Adding documents to vector database")
	if err := ing.vectors.AddDocs(ctx, collection, docs); err != nil {
		return err
	}

	doc.Pages = pages
	doc.Chunks = len(docs)
	doc.Status = models.StatusReady
	return ing.store.UpdateDocument(ctx, doc)
}

// Remove drops everything known about a document: vectors, history, registry row
func (ing *Ingestor) Remove(ctx context.Context, documentID string) error {
	if err := ing.vectors.Drop(rag.CollectionName(documentID)); err != nil {
		return err
	}
	if err := ing.store.DeleteMessages(ctx, documentID); err != nil {
		return err
	}
	return ing.store.DeleteDocument(ctx, documentID)
}

func chunkMetadata(ce models.ChunkEmbedding) map[string]string {
	return map[string]string{
		models.MetaFilename: ce.SourceFilename,
		models.MetaPage:     strconv.Itoa(ce.PageNumber),
		models.MetaChunk:    strconv.Itoa(ce.ChunkID),
	}
}
