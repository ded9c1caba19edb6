package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-chat/internal/config"
	"pdf-chat/internal/models"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string                `bun:"id,pk"`
	Filename      string                `bun:"filename,notnull"`
	Pages         int                   `bun:"pages"`
	Chunks        int                   `bun:"chunks"`
	Status        models.DocumentStatus `bun:"status,notnull"`
	UploadedAt    time.Time             `bun:"uploaded_at,notnull,default:current_timestamp"`
}

type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:m"`
	ID            int64     `bun:"id,pk,autoincrement"`
	DocumentID    string    `bun:"document_id,notnull"`
	Role          string    `bun:"role,notnull"`
	Content       string    `bun:"content,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Store is the registry of uploaded documents and their chat history
type Store interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id string) error

	AppendMessage(ctx context.Context, msg *ChatMessage) error
	// ListMessages returns messages oldest first. A positive limit keeps
	// only the most recent ones.
	ListMessages(ctx context.Context, documentID string, limit int) ([]ChatMessage, error)
	DeleteMessages(ctx context.Context, documentID string) error
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.Key != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Key))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewCreateTable().Model((*ChatMessage)(nil)).IfNotExists().Exec(ctx)
	return err
}

// PostgresStore persists documents and chat turns through bun
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *Document) error {
	_, err := s.db.NewInsert().Model(doc).Exec(ctx)
	return err
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc := new(Document)
	err := s.db.NewSelect().Model(doc).Where("d.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		OrderExpr("d.uploaded_at DESC").
		Scan(ctx)
	return docs, err
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *Document) error {
	_, err := s.db.NewUpdate().Model(doc).WherePK().Exec(ctx)
	return err
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*Document)(nil)).Where("d.id = ?", id).Exec(ctx)
	return err
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *ChatMessage) error {
	_, err := s.db.NewInsert().Model(msg).Exec(ctx)
	return err
}

func (s *PostgresStore) ListMessages(ctx context.Context, documentID string, limit int) ([]ChatMessage, error) {
	var msgs []ChatMessage
	q := s.db.NewSelect().
		Model(&msgs).
		Where("m.document_id = ?", documentID)
	if limit > 0 {
		// newest rows, then flip back to chronological order
		q = q.OrderExpr("m.id DESC").Limit(limit)
	} else {
		q = q.OrderExpr("m.id ASC")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}

func (s *PostgresStore) DeleteMessages(ctx context.Context, documentID string) error {
	_, err := s.db.NewDelete().Model((*ChatMessage)(nil)).Where("m.document_id = ?", documentID).Exec(ctx)
	return err
}
