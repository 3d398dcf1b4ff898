package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/index"
	"document-qa/internal/models"
	"document-qa/internal/session"
)

type fakeEmbedder struct {
	vectors  map[string][]float32
	queryVec []float32
	queryErr error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no canned vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryVec, nil
}

// newCoordinator indexes the given text->vector mapping and wires a
// coordinator whose query embeds to queryVec.
func newCoordinator(t *testing.T, vectors map[string][]float32, order []string, queryVec []float32, opts Options) *Coordinator {
	t.Helper()
	emb := &fakeEmbedder{vectors: vectors, queryVec: queryVec}
	ix := index.New(emb, index.Options{})

	chunks := make([]models.Chunk, len(order))
	for i, text := range order {
		chunks[i] = models.Chunk{Text: text, Source: "doc.pdf", Page: 1, Index: i}
	}
	_, err := ix.Insert(context.Background(), chunks)
	require.NoError(t, err)

	return New(ix, emb, session.New(), opts)
}

func TestRetrieve_ConfidenceClassification(t *testing.T) {
	cases := []struct {
		name     string
		distance float32
		want     models.Confidence
	}{
		{"high at relevance 0.85", 1.0/0.85 - 1, models.ConfidenceHigh},
		{"medium at relevance 0.6", 1.0/0.6 - 1, models.ConfidenceMedium},
		{"low at relevance 0.2", 4, models.ConfidenceLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			co := newCoordinator(t,
				map[string][]float32{"only": {tc.distance, 0}},
				[]string{"only"},
				[]float32{0, 0},
				Options{},
			)
			ret, err := co.Retrieve(context.Background(), "q", 1)
			require.NoError(t, err)
			require.Len(t, ret.Results, 1)
			assert.Equal(t, tc.want, ret.Confidence)
		})
	}
}

func TestRetrieve_EmptyIndexYieldsUnknown(t *testing.T) {
	emb := &fakeEmbedder{queryVec: []float32{1, 0}}
	co := New(index.New(emb, index.Options{}), emb, session.New(), Options{})

	ret, err := co.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, ret.Results)
	assert.Empty(t, ret.Context)
	assert.Equal(t, models.ConfidenceUnknown, ret.Confidence)
}

func TestRetrieve_NearestChunkWins(t *testing.T) {
	co := newCoordinator(t,
		map[string][]float32{
			"chunk one":   {1, 0},
			"chunk two":   {2, 0},
			"chunk three": {3, 0},
		},
		[]string{"chunk one", "chunk two", "chunk three"},
		[]float32{2.1, 0},
		Options{},
	)

	ret, err := co.Retrieve(context.Background(), "closest to two", 1)
	require.NoError(t, err)
	require.Len(t, ret.Results, 1)

	best := ret.Results[0]
	assert.Equal(t, "chunk two", best.Chunk.Text)
	// relevance must beat the other chunks' known distances
	assert.Greater(t, best.Relevance, Relevance(1.1))
	assert.Greater(t, best.Relevance, Relevance(0.9))
}

func TestRetrieve_ResultsInDescendingRelevance(t *testing.T) {
	co := newCoordinator(t,
		map[string][]float32{
			"near": {1, 0},
			"mid":  {2, 0},
			"far":  {5, 0},
		},
		[]string{"far", "near", "mid"},
		[]float32{0, 0},
		Options{},
	)

	ret, err := co.Retrieve(context.Background(), "q", 3)
	require.NoError(t, err)
	require.Len(t, ret.Results, 3)

	assert.Equal(t, "near", ret.Results[0].Chunk.Text)
	for i := 1; i < len(ret.Results); i++ {
		assert.LessOrEqual(t, ret.Results[i].Relevance, ret.Results[i-1].Relevance)
	}
}

func TestRetrieve_ContextBoundedWithCitations(t *testing.T) {
	long := strings.Repeat("x", 30)
	co := newCoordinator(t,
		map[string][]float32{
			"short one": {1, 0},
			long:        {2, 0},
		},
		[]string{"short one", long},
		[]float32{0, 0},
		Options{MaxContextChars: 20},
	)

	ret, err := co.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, ret.Results, 2)

	assert.Equal(t, "short one", ret.Context, "second chunk exceeds the limit")
	require.Len(t, ret.Sources, 1)
	assert.Equal(t, "doc.pdf", ret.Sources[0].Source)
	assert.Equal(t, "1", ret.Sources[0].Page)
	assert.InDelta(t, Relevance(1), ret.Sources[0].Relevance, 1e-6)
}

func TestRetrieve_ContextJoinsInRelevanceOrder(t *testing.T) {
	co := newCoordinator(t,
		map[string][]float32{
			"second": {2, 0},
			"first":  {1, 0},
		},
		[]string{"second", "first"},
		[]float32{0, 0},
		Options{},
	)

	ret, err := co.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, "first"+models.ContextSeparator+"second", ret.Context)
}

func TestRetrieve_QueryDimensionMismatch(t *testing.T) {
	co := newCoordinator(t,
		map[string][]float32{"only": {1, 0, 0}},
		[]string{"only"},
		[]float32{1, 0}, // index is 3-dimensional
		Options{},
	)

	_, err := co.Retrieve(context.Background(), "q", 1)
	var dimErr *index.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
}

func TestRetrieve_QueryEmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{
		vectors:  map[string][]float32{"only": {1, 0}},
		queryVec: []float32{0, 0},
	}
	ix := index.New(emb, index.Options{})
	_, err := ix.Insert(context.Background(), []models.Chunk{{Text: "only", Source: "doc.pdf", Page: 1}})
	require.NoError(t, err)

	emb.queryErr = errors.New("boom")
	co := New(ix, emb, session.New(), Options{})
	_, err = co.Retrieve(context.Background(), "q", 1)
	assert.Error(t, err)
}

func TestRetrieve_CountsQueries(t *testing.T) {
	co := newCoordinator(t,
		map[string][]float32{"only": {1, 0}},
		[]string{"only"},
		[]float32{0, 0},
		Options{},
	)

	_, err := co.Retrieve(context.Background(), "first", 1)
	require.NoError(t, err)
	_, err = co.Retrieve(context.Background(), "second", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, co.Session().QueriesProcessed)
}
