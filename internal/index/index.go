package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
)

// ErrInvalidTopK is returned by Search for non-positive k.
var ErrInvalidTopK = errors.New("k must be positive")

// DimensionMismatchError reports a vector whose width does not match the
// index. It indicates a misconfigured embedding model and is never coerced.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension %d does not match index dimension %d", e.Got, e.Want)
}

// Entry pairs a chunk with its embedding vector and its stable insertion
// position. Entries are append-only; there is no update or delete.
type Entry struct {
	Chunk    models.Chunk
	Vector   []float32
	Position int
}

const defaultBatchSize = 100

// Options tunes an Index instance.
type Options struct {
	BatchSize int    // chunks per embedding request
	StoreDir  string // directory that holds named on-disk stores
}

// Index is a flat L2 vector index over document chunks. Search is an exact
// O(n*d) scan, which is the right trade below ~10k chunks. The index is not
// safe for concurrent use; callers serialize insert, search, save and load.
type Index struct {
	embedder  embedding.Embedder
	batchSize int
	storeDir  string
	dimension int
	entries   []Entry
}

func New(embedder embedding.Embedder, opts Options) *Index {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Index{
		embedder:  embedder,
		batchSize: opts.BatchSize,
		storeDir:  opts.StoreDir,
	}
}

// Len reports the number of stored entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Dimension reports the pinned vector width, 0 while the index is empty.
func (ix *Index) Dimension() int { return ix.dimension }

// Entries returns the stored entries. The slice is shared; callers must not
// mutate it.
func (ix *Index) Entries() []Entry { return ix.entries }

// Insert embeds the chunks in batches and appends one entry per chunk.
// Batches are issued sequentially and committed all-or-nothing: a failed
// batch leaves the index exactly as it was before that batch, and the
// returned EmbeddingError names the chunks of the failed batch. Entries from
// batches committed before the failure remain.
func (ix *Index) Insert(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to insert")
		return 0, nil
	}

	inserted := 0
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := ctx.Err(); err != nil {
			return inserted, &embedding.EmbeddingError{ChunkIDs: chunkIDs(batch), Err: err}
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return inserted, &embedding.EmbeddingError{ChunkIDs: chunkIDs(batch), Err: embedding.Classify(err)}
		}
		if len(vectors) != len(batch) {
			return inserted, &embedding.EmbeddingError{
				ChunkIDs: chunkIDs(batch),
				Err:      fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch)),
			}
		}
		if err := ix.checkDimensions(vectors); err != nil {
			return inserted, err
		}

		for i, vec := range vectors {
			ix.entries = append(ix.entries, Entry{
				Chunk:    batch[i],
				Vector:   vec,
				Position: len(ix.entries),
			})
		}
		inserted += len(batch)
	}

	log.Debug().Int("inserted", inserted).Int("total", len(ix.entries)).Msg("Inserted chunks into index")
	return inserted, nil
}

// checkDimensions pins the index dimensionality on the first vector and
// rejects any batch that would mix widths.
func (ix *Index) checkDimensions(vectors [][]float32) error {
	for _, vec := range vectors {
		if len(vec) == 0 {
			return &DimensionMismatchError{Want: ix.dimension, Got: 0}
		}
		if ix.dimension == 0 {
			ix.dimension = len(vec)
			continue
		}
		if len(vec) != ix.dimension {
			return &DimensionMismatchError{Want: ix.dimension, Got: len(vec)}
		}
	}
	return nil
}

// Search returns the k entries nearest to query by Euclidean distance,
// sorted by non-decreasing distance with ties broken by ascending insertion
// position. k is clamped to the entry count; k <= 0 is invalid input.
func (ix *Index) Search(query []float32, k int) ([]models.Hit, error) {
	if k <= 0 {
		return nil, ErrInvalidTopK
	}
	if len(ix.entries) == 0 {
		return nil, nil
	}
	if len(query) != ix.dimension {
		return nil, &DimensionMismatchError{Want: ix.dimension, Got: len(query)}
	}

	hits := make([]models.Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		hits = append(hits, models.Hit{
			Chunk:    e.Chunk,
			Distance: l2Distance(query, e.Vector),
			Position: e.Position,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func chunkIDs(chunks []models.Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID()
	}
	return ids
}
