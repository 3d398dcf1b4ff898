package index

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

// ErrStoreNotFound is returned by Load when a named store's artifacts are
// missing on disk.
var ErrStoreNotFound = errors.New("vector store not found")

// CorruptStoreError reports a persisted store whose vector array and
// metadata list diverge in length. Such a store is never partially loaded.
type CorruptStoreError struct {
	Name     string
	Vectors  int
	Metadata int
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("store %q is corrupt: %d vectors but %d metadata records",
		e.Name, e.Vectors, e.Metadata)
}

// vectorArtifact is the dense numeric half of a persisted store.
type vectorArtifact struct {
	Dimension int
	Vectors   [][]float32
}

// metaRecord is one entry of the parallel per-chunk metadata list.
type metaRecord struct {
	Source     string `json:"source"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

func (ix *Index) vectorPath(name string) string {
	return filepath.Join(ix.storeDir, name+".vec")
}

func (ix *Index) metaPath(name string) string {
	return filepath.Join(ix.storeDir, name+".meta.json")
}

// Save serializes the full index under the given store name: a gob-encoded
// vector artifact and a parallel JSON metadata list.
func (ix *Index) Save(name string) error {
	if err := os.MkdirAll(ix.storeDir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	art := vectorArtifact{Dimension: ix.dimension, Vectors: make([][]float32, len(ix.entries))}
	records := make([]metaRecord, len(ix.entries))
	for i, e := range ix.entries {
		art.Vectors[i] = e.Vector
		records[i] = metaRecord{
			Source:     e.Chunk.Source,
			Page:       e.Chunk.Page,
			ChunkIndex: e.Chunk.Index,
			Text:       e.Chunk.Text,
		}
	}

	f, err := os.Create(ix.vectorPath(name))
	if err != nil {
		return fmt.Errorf("creating vector artifact: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(art); err != nil {
		return fmt.Errorf("encoding vectors: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(ix.metaPath(name), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	log.Info().Str("store", name).Int("entries", len(ix.entries)).Msg("Saved vector store")
	return nil
}

// Load replaces the in-memory index wholesale with the named store. Entries
// not saved before the call are discarded on success. A missing store fails
// with ErrStoreNotFound and a length divergence with CorruptStoreError; in
// both cases the in-memory index is left untouched.
func (ix *Index) Load(name string) error {
	f, err := os.Open(ix.vectorPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, name)
		}
		return fmt.Errorf("opening vector artifact: %w", err)
	}
	defer f.Close()

	var art vectorArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return fmt.Errorf("decoding vectors for %q: %w", name, err)
	}

	data, err := os.ReadFile(ix.metaPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, name)
		}
		return fmt.Errorf("reading metadata: %w", err)
	}
	var records []metaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding metadata for %q: %w", name, err)
	}

	if len(art.Vectors) != len(records) {
		return &CorruptStoreError{Name: name, Vectors: len(art.Vectors), Metadata: len(records)}
	}
	for _, vec := range art.Vectors {
		if len(vec) != art.Dimension {
			return &CorruptStoreError{Name: name, Vectors: len(art.Vectors), Metadata: len(records)}
		}
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{
			Chunk: models.Chunk{
				Text:   rec.Text,
				Source: rec.Source,
				Page:   rec.Page,
				Index:  rec.ChunkIndex,
			},
			Vector:   art.Vectors[i],
			Position: i,
		}
	}

	ix.entries = entries
	ix.dimension = art.Dimension
	log.Info().Str("store", name).Int("entries", len(entries)).Msg("Loaded vector store")
	return nil
}
