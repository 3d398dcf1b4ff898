package extractor

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

// ExtractionError reports a document that could not be read or carried no
// extractable text layer.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor produces page-tagged text from a document on disk. Pages with no
// usable text are dropped from the result; a document where every page is
// empty yields an empty slice, not an error.
type Extractor interface {
	Extract(path string) ([]models.Page, error)
}

// PDFExtractor reads text-bearing PDFs. Scanned or image-only PDFs yield zero
// usable pages; OCR is out of scope.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (x *PDFExtractor) Extract(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		if strings.TrimSpace(pageText) == "" {
			log.Debug().Str("path", path).Int("page", i).Msg("Skipping page with no text")
			continue
		}
		pages = append(pages, models.Page{Number: i, Text: pageText})
	}

	log.Debug().Str("path", path).Int("pages", len(pages)).Msg("Extracted PDF text")
	return pages, nil
}
