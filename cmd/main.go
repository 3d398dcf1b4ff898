package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"document-qa/internal/advisor"
	"document-qa/internal/chromemdb"
	"document-qa/internal/chunker"
	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/extractor"
	"document-qa/internal/helper"
	"document-qa/internal/index"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/pgstore"
	"document-qa/internal/rag"
	"document-qa/internal/retriever"
	"document-qa/internal/session"
)

const (
	defaultConfigPath = "./configs/config.yaml"
	chromemPath       = "./chromemdb"
	collectionName    = "documents"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	files := flag.String("file", "", "Comma-separated paths to PDF documents to load")
	query := flag.String("query", "", "Question to answer against the loaded documents")
	storeName := flag.String("store", "vector_store", "Named vector store to save to / load from")
	backend := flag.String("backend", "", "Vector store backend: memory, pgvector or chromem")
	chat := flag.String("chat", "", "One-shot message for the greeting advisor")
	dryRun := flag.Bool("dry-run", false, "Chunk documents without embedding or persisting")
	flag.Parse()

	if *chat != "" {
		chatAdvisor(*chat)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}

	if *files == "" && *query == "" {
		log.Fatal().Msg("Please provide a document with -file, a question with -query, or a message with -chat")
	}

	ctx := context.Background()
	paths := splitPaths(*files)

	switch cfg.Store.Backend {
	case "memory", "":
		if len(paths) > 0 {
			ingestMemory(ctx, cfg, paths, *storeName, *dryRun)
		}
		if *query != "" {
			queryMemory(ctx, cfg, *query, *storeName)
		}
	case "pgvector":
		if len(paths) > 0 {
			ingestPG(ctx, cfg, paths, *dryRun)
		}
		if *query != "" {
			queryPG(ctx, cfg, *query)
		}
	case "chromem":
		if len(paths) > 0 {
			ingestChromem(ctx, cfg, paths, *dryRun)
		}
		if *query != "" {
			queryChromem(ctx, cfg, *query)
		}
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
	}
}

func splitPaths(files string) []string {
	if files == "" {
		return nil
	}
	var paths []string
	for _, p := range strings.Split(files, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func newChunker(cfg *config.Config) *chunker.Chunker {
	ch, err := chunker.New(chunker.Options{
		ChunkSize:        cfg.RAG.ChunkSize,
		ChunkOverlap:     cfg.RAG.ChunkOverlap,
		SentenceLookback: cfg.RAG.SentenceLookback,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid chunking configuration")
	}
	return ch
}

func retrieverOptions(cfg *config.Config) retriever.Options {
	return retriever.Options{
		TopK:             cfg.RAG.TopK,
		MaxContextChars:  cfg.RAG.MaxContextChars,
		HighConfidence:   cfg.RAG.HighConfidence,
		MediumConfidence: cfg.RAG.MediumConfidence,
	}
}

// ingestMemory loads documents into the in-process flat index and persists
// it under the named store.
func ingestMemory(ctx context.Context, cfg *config.Config, paths []string, storeName string, dryRun bool) {
	ch := newChunker(cfg)

	if dryRun {
		ex := extractor.NewPDFExtractor()
		for _, path := range paths {
			pages, err := ex.Extract(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Extraction failed")
				continue
			}
			chunks, err := ch.ChunkPages(filepath.Base(path), pages)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Chunking failed")
				continue
			}
			helper.PrettyPrint(chunks)
		}
		return
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	idx := index.New(embedder, index.Options{BatchSize: cfg.RAG.BatchSize, StoreDir: cfg.Store.Dir})
	sess := session.New()
	coord := retriever.New(idx, embedder, sess, retrieverOptions(cfg))
	ingester := retriever.NewIngester(extractor.NewPDFExtractor(), ch, coord)

	summary := ingester.IngestDocuments(ctx, paths)
	for _, o := range summary.Outcomes {
		if o.Err != nil {
			fmt.Printf("  %s: FAILED (%v)\n", o.Source, o.Err)
		} else {
			fmt.Printf("  %s: %d chunks\n", o.Source, o.Chunks)
		}
	}
	fmt.Printf("Ingested %d/%d documents, %d chunks total\n", summary.Documents, len(paths), summary.Chunks)

	if summary.Chunks == 0 {
		log.Warn().Msg("Nothing indexed, skipping save")
		return
	}
	if err := idx.Save(storeName); err != nil {
		log.Fatal().Err(err).Msg("Error saving vector store")
	}
}

// queryMemory loads the named store and answers the question over it.
func queryMemory(ctx context.Context, cfg *config.Config, query, storeName string) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	idx := index.New(embedder, index.Options{BatchSize: cfg.RAG.BatchSize, StoreDir: cfg.Store.Dir})
	if err := idx.Load(storeName); err != nil {
		if errors.Is(err, index.ErrStoreNotFound) {
			log.Warn().Str("store", storeName).Msg("No saved store; answering over an empty index")
		} else {
			log.Fatal().Err(err).Msg("Error loading vector store")
		}
	}

	coord := retriever.New(idx, embedder, session.New(), retrieverOptions(cfg))
	response, err := rag.NewRAG(coord, cfg).Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}
	printResponse(response)
}

// ingestPG stores chunk embeddings in the Postgres/pgvector backend.
func ingestPG(ctx context.Context, cfg *config.Config, paths []string, dryRun bool) {
	ch := newChunker(cfg)
	ex := extractor.NewPDFExtractor()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	dbClient, err := pgstore.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	db := pgstore.NewDB(dbClient, cfg.Database.Debug)
	defer db.Close()

	if !dryRun {
		if err := pgstore.InitDB(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
	}

	for _, path := range paths {
		pages, err := ex.Extract(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Extraction failed")
			continue
		}
		chunks, err := ch.ChunkPages(filepath.Base(path), pages)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Chunking failed")
			continue
		}
		if dryRun {
			helper.PrettyPrint(chunks)
			continue
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Error().Err(embedding.Classify(err)).Str("path", path).Msg("Embedding failed")
			continue
		}

		docs := make([]pgstore.Document, len(chunks))
		for i, c := range chunks {
			docs[i] = pgstore.Document{
				Content:    c.Text,
				Embedding:  vectors[i],
				Source:     c.Source,
				Page:       c.Page,
				ChunkIndex: c.Index,
			}
		}
		if err := pgstore.StoreDocuments(ctx, db, docs); err != nil {
			log.Fatal().Err(err).Msg("Error storing documents")
		}
		log.Info().Str("path", path).Int("chunks", len(docs)).Msg("Stored document")
	}
}

// queryPG answers a question over the pgvector backend.
func queryPG(ctx context.Context, cfg *config.Config, query string) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	dbClient, err := pgstore.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	db := pgstore.NewDB(dbClient, cfg.Database.Debug)
	defer db.Close()

	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Fatal().Err(embedding.Classify(err)).Msg("Error embedding query")
	}

	hits, err := pgstore.SearchDocuments(ctx, db, queryVec, cfg.RAG.TopK)
	if err != nil {
		log.Fatal().Err(err).Msg("Error searching documents")
	}
	answerFromHits(ctx, cfg, query, hits)
}

// ingestChromem stores chunk embeddings in the chromem-go backend.
func ingestChromem(ctx context.Context, cfg *config.Config, paths []string, dryRun bool) {
	ch := newChunker(cfg)
	ex := extractor.NewPDFExtractor()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	db, err := chromemdb.NewVectorDBManager(chromemPath, collectionName, false, cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database manager")
	}
	if _, err := db.GetOrCreateCollection(collectionName); err != nil {
		log.Fatal().Err(err).Msg("Error creating collection")
	}

	for _, path := range paths {
		pages, err := ex.Extract(path)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Extraction failed")
			continue
		}
		chunks, err := ch.ChunkPages(filepath.Base(path), pages)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Chunking failed")
			continue
		}
		if dryRun {
			helper.PrettyPrint(chunks)
			continue
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Error().Err(embedding.Classify(err)).Str("path", path).Msg("Embedding failed")
			continue
		}

		if err := db.AddChunks(ctx, chunks, vectors); err != nil {
			log.Fatal().Err(err).Msg("Error adding chunks to vector database")
		}
		log.Info().Str("path", path).Int("chunks", len(chunks)).Msg("Stored document")
	}
}

// queryChromem answers a question over the chromem backend.
func queryChromem(ctx context.Context, cfg *config.Config, query string) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	db, err := chromemdb.NewVectorDBManager(chromemPath, collectionName, false, cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database manager")
	}
	if _, err := db.GetOrCreateCollection(collectionName); err != nil {
		log.Fatal().Err(err).Msg("Error creating collection")
	}

	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Fatal().Err(embedding.Classify(err)).Msg("Error embedding query")
	}

	results, err := db.Query(ctx, queryVec, cfg.RAG.TopK)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying vector database")
	}

	hits := make([]models.Hit, len(results))
	for i, res := range results {
		// chromem reports cosine similarity; fold it into the same
		// distance shape the flat index produces.
		hits[i] = models.Hit{
			Chunk:    models.Chunk{Text: res.Content, Source: res.Metadata["source"]},
			Distance: float64(1 - res.Similarity),
			Position: i,
		}
	}
	answerFromHits(ctx, cfg, query, hits)
}

// answerFromHits assembles context from backend search hits and synthesizes
// an answer, mirroring the core retrieval path for external backends.
func answerFromHits(ctx context.Context, cfg *config.Config, query string, hits []models.Hit) {
	if len(hits) == 0 {
		printResponse(&models.PromptResponse{
			Query:      query,
			Answer:     models.NoDocumentsReply,
			Confidence: models.ConfidenceUnknown,
		})
		return
	}

	var parts []string
	var sources []models.Citation
	length := 0
	for _, h := range hits {
		if length+len(h.Chunk.Text) > cfg.RAG.MaxContextChars {
			break
		}
		parts = append(parts, h.Chunk.Text)
		length += len(h.Chunk.Text)
		sources = append(sources, models.Citation{
			Source:    h.Chunk.Source,
			Page:      h.Chunk.PageLabel(),
			Relevance: retriever.Relevance(h.Distance),
		})
	}

	confidence := models.ConfidenceLow
	if top := retriever.Relevance(hits[0].Distance); top >= cfg.RAG.HighConfidence {
		confidence = models.ConfidenceHigh
	} else if top >= cfg.RAG.MediumConfidence {
		confidence = models.ConfidenceMedium
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.SystemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.QAPromptTemplate, strings.Join(parts, models.ContextSeparator), query)}},
		},
	}
	answer, err := llmservice.GenerateContent(ctx, &cfg.InferenceLLM, messages)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating answer")
	}

	printResponse(&models.PromptResponse{
		Query:      query,
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
	})
}

func printResponse(response *models.PromptResponse) {
	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, s := range response.Sources {
		fmt.Printf("  %s (page %s, relevance %.3f)\n", s.Source, s.Page, s.Relevance)
	}
	fmt.Printf("  confidence: %s\n\n", response.Confidence)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Answer)
}

func chatAdvisor(message string) {
	a := advisor.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	fmt.Println(a.ProcessInput(message))
}
