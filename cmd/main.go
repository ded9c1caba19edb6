package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-chat/internal/chromemdb"
	"pdf-chat/internal/config"
	"pdf-chat/internal/db"
	"pdf-chat/internal/embedding"
	"pdf-chat/internal/helper"
	"pdf-chat/internal/ingest"
	"pdf-chat/internal/llmservice"
	"pdf-chat/internal/models"
	"pdf-chat/internal/parser"
	"pdf-chat/internal/rag"
	"pdf-chat/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	addr := flag.String("addr", "", "Listen address, overrides server.addr from the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest and exit")
	query := flag.String("query", "", "Question to answer and exit, requires -doc")
	docID := flag.String("doc", "", "Document ID to query with -query")
	dryRun := flag.Bool("dry-run", false, "Parse the document and print chunks without embedding")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	applyOverrides(cfg, *addr)

	ctx := context.Background()

	if *filePath != "" {
		ingestFile(ctx, cfg, *filePath, *dryRun)
		return
	}

	if *query != "" {
		if *docID == "" {
			log.Fatal().Msg("Please provide the document ID with the -doc flag")
		}
		askQuestion(ctx, cfg, *docID, *query)
		return
	}

	runServer(cfg)
}

// applyOverrides applies command line overrides on top of the config file
func applyOverrides(cfg *config.Config, addr string) {
	if addr != "" {
		cfg.Server.Addr = addr
	}
}

func newDeps(cfg *config.Config) (db.Store, *chromemdb.VectorDBManager, *ingest.Ingestor, *rag.RAG) {
	store := newStore(cfg)

	vectors, err := chromemdb.NewVectorDBManager(cfg.Vector.Path, cfg.Vector.InMemory, cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database manager")
	}
	// an in-memory database starts empty, reload whatever was exported
	if cfg.Vector.InMemory && cfg.RAG.EncryptionKey != "" {
		if err := vectors.ImportAll(); err != nil {
			log.Fatal().Err(err).Msg("Error importing exported collections")
		}
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	ing := ingest.NewIngestor(store, vectors, embedder, cfg)
	answerer := rag.NewRAG(vectors, embedder, llmservice.NewClient(&cfg.LLM), cfg)
	return store, vectors, ing, answerer
}

func newStore(cfg *config.Config) db.Store {
	if !cfg.Database.Enabled {
		log.Info().Msg("Database disabled, using in-memory store")
		return db.NewMemoryStore()
	}

	dbClient, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	bunDB := db.NewDB(dbClient, cfg.Database.Debug)
	if err := db.InitDB(context.Background(), bunDB); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	return db.NewPostgresStore(bunDB)
}

func runServer(cfg *config.Config) {
	store, _, ing, answerer := newDeps(cfg)
	if err := server.Run(cfg, store, ing, answerer); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, filePath string, dryRun bool) {
	if dryRun {
		chunks, pages, err := parser.Parse(filePath, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Error parsing document")
		}
		log.Info().Int("pages", pages).Int("chunks", len(chunks)).Msg("Parsed document")
		helper.PrettyPrint(chunks)
		return
	}

	store, vectors, ing, _ := newDeps(cfg)

	id, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating document ID")
	}
	doc := &db.Document{
		ID:         id,
		Filename:   helper.SanitizeFilename(filePath),
		Status:     models.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		log.Fatal().Err(err).Msg("Error registering document")
	}
	if err := ing.Ingest(ctx, doc, filePath); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Str("document_id", doc.ID).Int("pages", doc.Pages).Int("chunks", doc.Chunks).Msg("Document ready")

	// in-memory collections are lost on exit, export them when a key is set
	if cfg.Vector.InMemory && cfg.RAG.EncryptionKey != "" {
		if err := vectors.Export(rag.CollectionName(doc.ID)); err != nil {
			log.Fatal().Err(err).Msg("Error exporting collection")
		}
	}
}

func askQuestion(ctx context.Context, cfg *config.Config, docID, query string) {
	_, _, _, answerer := newDeps(cfg)

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	streamFn := func(_ context.Context, chunk []byte) error {
		fmt.Print(string(chunk))
		return nil
	}
	answer, err := answerer.Query(ctx, docID, query, nil, streamFn)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}
	fmt.Print("\n\n")

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, src := range answer.Sources {
		fmt.Printf("%s (page %d, similarity %.3f)\n", src.Filename, src.PageNumber, src.Similarity)
	}
}
