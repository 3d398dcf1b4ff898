package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/embedding"
	"document-qa/internal/models"
	"document-qa/internal/session"
)

// Indexer is the slice of the embedding index the coordinator needs.
type Indexer interface {
	Insert(ctx context.Context, chunks []models.Chunk) (int, error)
	Search(query []float32, k int) ([]models.Hit, error)
	Len() int
}

// Options tunes retrieval ranking and context assembly.
type Options struct {
	TopK             int
	MaxContextChars  int
	HighConfidence   float64
	MediumConfidence float64
}

// Retrieval is an answer-ready view of one query: scored chunks in
// descending relevance, an assembled context bounded in length, citations
// for rendering, and a confidence label derived from the best match.
type Retrieval struct {
	Results    []models.ScoredChunk
	Context    string
	Sources    []models.Citation
	Confidence models.Confidence
}

// Coordinator turns a query into ranked chunks with relevance scores and a
// confidence signal, and drives document ingestion into the index.
type Coordinator struct {
	index    Indexer
	embedder embedding.Embedder
	sess     *session.Session
	opts     Options
}

func New(idx Indexer, embedder embedding.Embedder, sess *session.Session, opts Options) *Coordinator {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 4000
	}
	if opts.HighConfidence == 0 {
		opts.HighConfidence = 0.8
	}
	if opts.MediumConfidence == 0 {
		opts.MediumConfidence = 0.5
	}
	return &Coordinator{index: idx, embedder: embedder, sess: sess, opts: opts}
}

// Session exposes the coordinator's session state.
func (co *Coordinator) Session() *session.Session { return co.sess }

// Retrieve embeds the query, searches the index and converts raw distances
// to bounded relevance scores. An empty index yields an empty result with
// Unknown confidence, so callers can tell "no documents loaded" apart from
// "no relevant match".
func (co *Coordinator) Retrieve(ctx context.Context, query string, k int) (*Retrieval, error) {
	if k <= 0 {
		k = co.opts.TopK
	}
	co.sess.RecordQuery()

	if co.index.Len() == 0 {
		log.Debug().Str("query", query).Msg("Retrieve on empty index")
		return &Retrieval{Confidence: models.ConfidenceUnknown}, nil
	}

	vec, err := co.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", embedding.Classify(err))
	}

	hits, err := co.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]models.ScoredChunk, len(hits))
	for i, h := range hits {
		results[i] = models.ScoredChunk{
			Chunk:     h.Chunk,
			Distance:  h.Distance,
			Relevance: Relevance(h.Distance),
		}
	}

	ret := &Retrieval{
		Results:    results,
		Confidence: co.classify(results),
	}
	ret.Context, ret.Sources = co.assembleContext(results)

	log.Debug().Str("query", query).Int("results", len(results)).
		Str("confidence", string(ret.Confidence)).Msg("Retrieved context")
	return ret, nil
}

// Relevance maps a raw L2 distance onto [0,1], monotonically decreasing, so
// scores are comparable across queries without knowing the distance scale.
func Relevance(distance float64) float64 {
	return 1 / (1 + distance)
}

// classify derives the confidence label from the single best relevance.
// One strong match is sufficient grounding; several weak ones are not.
func (co *Coordinator) classify(results []models.ScoredChunk) models.Confidence {
	if len(results) == 0 {
		return models.ConfidenceUnknown
	}
	top := results[0].Relevance
	switch {
	case top >= co.opts.HighConfidence:
		return models.ConfidenceHigh
	case top >= co.opts.MediumConfidence:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// assembleContext concatenates chunk text in descending relevance up to the
// configured maximum, with one citation per included chunk.
func (co *Coordinator) assembleContext(results []models.ScoredChunk) (string, []models.Citation) {
	var parts []string
	var sources []models.Citation
	length := 0
	for _, r := range results {
		if length+len(r.Chunk.Text) > co.opts.MaxContextChars {
			break
		}
		parts = append(parts, r.Chunk.Text)
		length += len(r.Chunk.Text)
		sources = append(sources, models.Citation{
			Source:    r.Chunk.Source,
			Page:      r.Chunk.PageLabel(),
			Relevance: r.Relevance,
		})
	}
	return strings.Join(parts, models.ContextSeparator), sources
}
