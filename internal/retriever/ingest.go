package retriever

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-qa/internal/chunker"
	"document-qa/internal/extractor"
)

// DocumentOutcome is the per-document result of a batch load. A document
// that failed carries its error; others carry the number of chunks indexed.
type DocumentOutcome struct {
	Path   string
	Source string
	Chunks int
	Err    error
}

// IngestSummary aggregates a multi-document load.
type IngestSummary struct {
	Outcomes  []DocumentOutcome
	Documents int // documents fully ingested
	Chunks    int
}

// Ingester wires the extraction capability and the chunker to the index for
// document loads.
type Ingester struct {
	extractor extractor.Extractor
	chunker   *chunker.Chunker
	coord     *Coordinator
}

func NewIngester(ex extractor.Extractor, ch *chunker.Chunker, coord *Coordinator) *Ingester {
	return &Ingester{extractor: ex, chunker: ch, coord: coord}
}

// IngestDocuments loads each document through extract, chunk and insert. A
// failure on one document is recorded in its outcome and never aborts the
// remaining documents.
func (in *Ingester) IngestDocuments(ctx context.Context, paths []string) *IngestSummary {
	summary := &IngestSummary{}
	for _, path := range paths {
		outcome := in.ingestOne(ctx, path)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Err == nil {
			summary.Documents++
		}
		summary.Chunks += outcome.Chunks
	}
	log.Info().Int("documents", summary.Documents).Int("chunks", summary.Chunks).
		Int("failed", len(summary.Outcomes)-summary.Documents).Msg("Ingest complete")
	return summary
}

func (in *Ingester) ingestOne(ctx context.Context, path string) DocumentOutcome {
	source := filepath.Base(path)
	outcome := DocumentOutcome{Path: path, Source: source}

	pages, err := in.extractor.Extract(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Extraction failed")
		outcome.Err = err
		return outcome
	}

	chunks, err := in.chunker.ChunkPages(source, pages)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Chunking produced nothing")
		outcome.Err = err
		return outcome
	}

	inserted, err := in.coord.index.Insert(ctx, chunks)
	outcome.Chunks = inserted
	if inserted > 0 {
		in.coord.sess.RecordDocument(source, inserted)
	}
	if err != nil {
		log.Warn().Err(err).Str("path", path).Int("inserted", inserted).Msg("Insert failed mid-document")
		outcome.Err = err
		return outcome
	}
	return outcome
}
