package chunker

import (
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

// ErrEmptyDocument is returned when a document yields no chunks after all of
// its pages are processed. Reported per document; a batch load continues with
// the remaining documents.
var ErrEmptyDocument = errors.New("document contains no usable text")

const (
	defaultChunkSize        = 1000 // characters
	defaultChunkOverlap     = 200  // characters
	defaultSentenceLookback = 100  // characters
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Options tunes the sliding-window split. SentenceLookback is how far the
// right edge of a window may retract to land after sentence-terminating
// punctuation instead of cutting mid-sentence.
type Options struct {
	ChunkSize        int
	ChunkOverlap     int
	SentenceLookback int
}

// Chunker turns page-tagged text into overlapping chunks bounded by
// ChunkSize, with consecutive chunks sharing ChunkOverlap characters.
type Chunker struct {
	opts Options
}

func New(opts Options) (*Chunker, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkOverlap == 0 {
		opts.ChunkOverlap = defaultChunkOverlap
	}
	if opts.SentenceLookback == 0 {
		opts.SentenceLookback = defaultSentenceLookback
	}
	if opts.ChunkSize <= 0 || opts.ChunkOverlap < 0 {
		return nil, errors.New("chunk size must be positive and overlap non-negative")
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		return nil, errors.New("chunk overlap must be smaller than chunk size")
	}
	return &Chunker{opts: opts}, nil
}

// pageMark records where a page's cleaned text begins in the concatenated
// document text.
type pageMark struct {
	offset int
	number int
}

// ChunkPages splits one document's pages into ordered chunks. Whitespace-only
// pages are dropped before chunking; a document where nothing survives fails
// with ErrEmptyDocument.
func (c *Chunker) ChunkPages(source string, pages []models.Page) ([]models.Chunk, error) {
	var sb strings.Builder
	var marks []pageMark
	for _, p := range pages {
		cleaned := cleanText(p.Text)
		if cleaned == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		marks = append(marks, pageMark{offset: sb.Len(), number: p.Number})
		sb.WriteString(cleaned)
	}

	text := sb.String()
	if text == "" {
		return nil, ErrEmptyDocument
	}

	chunks := c.split(source, text, marks)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	log.Debug().Str("source", source).Int("pages", len(marks)).Int("chunks", len(chunks)).
		Msg("Chunked document")
	return chunks, nil
}

// split walks text with a window of ChunkSize characters, retracting each cut
// to the nearest preceding sentence boundary within SentenceLookback, and
// advancing by ChunkSize-ChunkOverlap so consecutive chunks share a suffix.
func (c *Chunker) split(source, text string, marks []pageMark) []models.Chunk {
	size := c.opts.ChunkSize
	step := size - c.opts.ChunkOverlap

	var chunks []models.Chunk
	index := 0
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		} else if end < len(text) {
			end = c.adjustToSentence(text, start, end)
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, models.Chunk{
				Text:   piece,
				Source: source,
				Page:   pageForOffset(marks, start),
				Index:  index,
			})
			index++
		}

		if end == len(text) {
			break
		}
	}
	return chunks
}

// adjustToSentence retracts end to just after the nearest sentence-terminating
// punctuation within the look-back distance. Falls back to the hard cut when
// no boundary is found.
func (c *Chunker) adjustToSentence(text string, start, end int) int {
	lookback := c.opts.SentenceLookback
	if lookback > end-start-1 {
		lookback = end - start - 1
	}
	for i := end - 1; i >= end-lookback && i > start; i-- {
		switch text[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return end
}

func pageForOffset(marks []pageMark, offset int) int {
	page := 0
	for _, m := range marks {
		if m.offset > offset {
			break
		}
		page = m.number
	}
	return page
}

// cleanText collapses runs of whitespace and trims the result, so window
// arithmetic operates on characters of prose rather than layout artifacts.
func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
