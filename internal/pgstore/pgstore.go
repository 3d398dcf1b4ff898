package pgstore

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// Document is one indexed chunk row in the pgvector-backed store.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(1536)"`
	Source        string    `bun:"source,notnull"`
	Page          int       `bun:"page"`
	ChunkIndex    int       `bun:"chunk_index"`
	Distance      float64   `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// StoreDocuments inserts all chunk rows in one batch.
func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments returns the limit nearest rows by L2 distance, nearest
// first, with the distance selected alongside each row.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]models.Hit, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		ColumnExpr("d.*").
		ColumnExpr("d.embedding <-> ? AS distance", queryEmbedding).
		OrderExpr("d.embedding <-> ?", queryEmbedding).
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	hits := make([]models.Hit, len(docs))
	for i, doc := range docs {
		hits[i] = models.Hit{
			Chunk: models.Chunk{
				Text:   doc.Content,
				Source: doc.Source,
				Page:   doc.Page,
				Index:  doc.ChunkIndex,
			},
			Distance: doc.Distance,
			Position: i,
		}
	}
	return hits, nil
}
