package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited marks a provider throttling response. Retry and backoff are
// the caller's responsibility, not the index's.
var ErrRateLimited = errors.New("embedding request was rate limited")

// EmbeddingError reports a failed embedding request together with the chunks
// whose batch was rolled back.
type EmbeddingError struct {
	ChunkIDs []string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch of %d chunks: %v", len(e.ChunkIDs), e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Classify maps a raw provider error onto the package taxonomy. langchaingo
// surfaces provider responses as opaque strings, so throttling is recognized
// by the conventional markers.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
