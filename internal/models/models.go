package models

import "time"

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding pairs a chunk with its embedding vector
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// SourceRef points back at the retrieved chunk an answer drew from
type SourceRef struct {
	Filename   string  `json:"filename"`
	PageNumber int     `json:"page_number"`
	Snippet    string  `json:"snippet"`
	Similarity float32 `json:"similarity"`
}

// Answer is the result of one RAG query
type Answer struct {
	Query   string      `json:"query"`
	Content string      `json:"content"`
	Sources []SourceRef `json:"sources"`
}

// Turn is one prior question/answer pair used as chat context
type Turn struct {
	Question string
	Answer   string
}

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentInfo is the external view of an uploaded document
type DocumentInfo struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Pages      int            `json:"pages"`
	Chunks     int            `json:"chunks"`
	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploaded_at"`
}
