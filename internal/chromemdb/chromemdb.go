package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

const compress = false

// VectorDBManager encapsulates the chromem-go database used as an
// alternative, embedded vector-store backend.
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	filePath      string
}

// NewVectorDBManager opens a persistent database at dbPath, or an in-memory
// one when inMemory is set.
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		filePath:      dbPath + "/" + collectionName + ".chromem",
	}, nil
}

func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// AddChunks stores pre-embedded chunks in the collection.
func (m *VectorDBManager) AddChunks(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      c.ID(),
			Content: c.Text,
			Metadata: map[string]string{
				"source":      c.Source,
				"page":        c.PageLabel(),
				"chunk_index": fmt.Sprintf("%d", c.Index),
			},
			Embedding: embeddings[i],
		}
	}
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query runs a similarity search by embedding and returns the raw results.
func (m *VectorDBManager) Query(ctx context.Context, queryEmbedding []float32, k int) ([]chromem.Result, error) {
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if count := m.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}
	results, err := m.collection.QueryEmbedding(ctx, queryEmbedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

func (m *VectorDBManager) DeleteCollection() error {
	if err := m.db.DeleteCollection(m.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Export writes the collection to an encrypted file. Only meaningful for an
// in-memory database.
func (m *VectorDBManager) Export(ctx context.Context) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if m.collection == nil {
		return fmt.Errorf("collection is required")
	}

	log.Debug().Str("collection", m.collection.Name).Str("file", m.filePath).Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

func (m *VectorDBManager) Import(ctx context.Context) error {
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}
