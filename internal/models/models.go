package models

import "fmt"

// Page is one page of extracted document text, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// Chunk is the unit of retrieval: a bounded span of document text plus
// provenance metadata. Chunks are immutable after creation.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`        // 0 means unknown
	Index  int    `json:"chunk_index"` // 0-based position within the source document
}

// ID returns a stable identifier for the chunk.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_page%s_chunk%d", c.Source, c.PageLabel(), c.Index)
}

// PageLabel renders the page number for citations, "unknown" when absent.
func (c Chunk) PageLabel() string {
	if c.Page <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d", c.Page)
}

// Hit is one similarity-search result: a stored chunk with its raw L2
// distance to the query and its insertion position in the index.
type Hit struct {
	Chunk    Chunk
	Distance float64
	Position int
}

// ScoredChunk is a hit with its distance mapped to a bounded relevance score.
type ScoredChunk struct {
	Chunk     Chunk
	Distance  float64
	Relevance float64
}

// Citation points a caller at the provenance of one retrieved chunk.
type Citation struct {
	Source    string  `json:"source"`
	Page      string  `json:"page"`
	Relevance float64 `json:"relevance"`
}

// Confidence is a coarse label derived from the single best relevance score
// of a retrieval.
type Confidence string

const (
	ConfidenceHigh    Confidence = "High"
	ConfidenceMedium  Confidence = "Medium"
	ConfidenceLow     Confidence = "Low"
	ConfidenceUnknown Confidence = "Unknown"
)

// PromptResponse is a synthesized answer with its grounding.
type PromptResponse struct {
	Query      string
	Answer     string
	Sources    []Citation
	Confidence Confidence
}
