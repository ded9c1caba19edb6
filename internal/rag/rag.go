package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"pdf-chat/internal/chromemdb"
	"pdf-chat/internal/config"
	"pdf-chat/internal/models"
)

// Searcher retrieves the chunks most similar to a query embedding
type Searcher interface {
	Search(ctx context.Context, collection string, queryEmbedding []float32, k int) ([]chromemdb.SearchResult, error)
}

// Generator produces a chat completion, optionally streaming it
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent, streamFn func(ctx context.Context, chunk []byte) error) (string, error)
}

type RAG struct {
	vectors  Searcher
	embedder embeddings.Embedder
	gen      Generator
	cfg      *config.Config
}

func NewRAG(vectors Searcher, embedder embeddings.Embedder, gen Generator, cfg *config.Config) *RAG {
	return &RAG{vectors: vectors, embedder: embedder, gen: gen, cfg: cfg}
}

// CollectionName maps a document ID to its vector collection
func CollectionName(documentID string) string {
	return "doc-" + documentID
}

// Query answers a question from one document's chunks. Prior turns are
// replayed as chat context so follow-up questions keep working. When
// streamFn is non-nil the answer is streamed through it as it generates.
func (r *RAG) Query(ctx context.Context, documentID, question string, history []models.Turn, streamFn func(ctx context.Context, chunk []byte) error) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	queryEmbedding, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %v", err)
	}

	results, err := r.vectors.Search(ctx, CollectionName(documentID), queryEmbedding, r.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("document_id", documentID).Int("retrieved", len(results)).Msg("Retrieved chunks")

	contextText, sources := buildContext(results)
	prompt := fmt.Sprintf(models.QAPromptTemplate, contextText, question)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, models.SystemPrompt),
	}
	for _, turn := range trimHistory(history, r.cfg.RAG.HistoryTurns) {
		messages = append(messages,
			llms.TextParts(llms.ChatMessageTypeHuman, turn.Question),
			llms.TextParts(llms.ChatMessageTypeAI, turn.Answer),
		)
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	content, err := r.gen.Generate(ctx, messages, streamFn)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Query:   question,
		Content: content,
		Sources: sources,
	}, nil
}

// buildContext joins retrieved chunks into the prompt context, tagging each
// with its page so the model can cite it
func buildContext(results []chromemdb.SearchResult) (string, []models.SourceRef) {
	var b strings.Builder
	sources := make([]models.SourceRef, 0, len(results))
	for i, res := range results {
		page := 0
		fmt.Sscanf(res.Metadata[models.MetaPage], "%d", &page)
		fmt.Fprintf(&b, "[page %d] %s", page, res.Content)
		if i < len(results)-1 {
			b.WriteString("\n\n")
		}
		sources = append(sources, models.SourceRef{
			Filename:   res.Metadata[models.MetaFilename],
			PageNumber: page,
			Snippet:    snippet(res.Content, 200),
			Similarity: res.Similarity,
		})
	}
	return b.String(), sources
}

func trimHistory(history []models.Turn, max int) []models.Turn {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
