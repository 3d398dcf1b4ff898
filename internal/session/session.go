package session

import (
	"time"

	"document-qa/internal/helper"
)

// Session tracks what has happened over one coordinator lifetime: documents
// loaded, chunks indexed and queries answered. It replaces process-wide
// counters with explicit state owned by the coordinator.
type Session struct {
	ID               string
	StartedAt        time.Time
	Documents        []string
	TotalChunks      int
	QueriesProcessed int
}

func New() *Session {
	id, err := helper.GenerateUUID()
	if err != nil {
		id = "session"
	}
	return &Session{
		ID:        id,
		StartedAt: time.Now(),
	}
}

// RecordDocument notes a successfully ingested document and its chunk count.
func (s *Session) RecordDocument(source string, chunks int) {
	s.Documents = append(s.Documents, source)
	s.TotalChunks += chunks
}

// RecordQuery bumps the processed-query counter.
func (s *Session) RecordQuery() {
	s.QueriesProcessed++
}

// Reset clears all counters while keeping the session identity.
func (s *Session) Reset() {
	s.Documents = nil
	s.TotalChunks = 0
	s.QueriesProcessed = 0
}
