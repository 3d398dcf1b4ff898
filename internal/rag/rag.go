package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"document-qa/internal/config"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/retriever"
)

// RAG answers questions by retrieving grounding context and conditioning the
// inference LLM on it.
type RAG struct {
	coord *retriever.Coordinator
	cfg   *config.Config
}

func NewRAG(coord *retriever.Coordinator, cfg *config.Config) *RAG {
	return &RAG{coord: coord, cfg: cfg}
}

// Query retrieves context for the question and synthesizes a cited answer.
// "No documents loaded" and "nothing relevant found" are answered directly
// without calling the LLM.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	ret, err := r.coord.Retrieve(ctx, query, r.cfg.RAG.TopK)
	if err != nil {
		return nil, err
	}

	if ret.Confidence == models.ConfidenceUnknown {
		return &models.PromptResponse{
			Query:      query,
			Answer:     models.NoDocumentsReply,
			Confidence: models.ConfidenceUnknown,
		}, nil
	}
	if ret.Context == "" {
		return &models.PromptResponse{
			Query:      query,
			Answer:     models.NoContextReply,
			Confidence: ret.Confidence,
		}, nil
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: models.SystemPrompt}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.QAPromptTemplate, ret.Context, query)}},
		},
	}

	answer, err := llmservice.GenerateContent(ctx, &r.cfg.InferenceLLM, messages)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("query", query).Str("confidence", string(ret.Confidence)).
		Int("sources", len(ret.Sources)).Msg("Synthesized answer")

	return &models.PromptResponse{
		Query:      query,
		Answer:     answer,
		Sources:    ret.Sources,
		Confidence: ret.Confidence,
	}, nil
}
