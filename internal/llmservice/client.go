package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
)

// GenerationError reports a failed LLM completion.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating with %s: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func newLLM(llmConfig *config.LLMConfig) (llms.Model, error) {
	switch llmConfig.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	case "openai", "":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown inference provider: %s", llmConfig.Provider)
	}
}

// GenerateContent runs one chat completion against the configured LLM.
func GenerateContent(ctx context.Context, llmConfig *config.LLMConfig, messages []llms.MessageContent) (string, error) {
	log.Debug().Str("model", llmConfig.Model).Int("messages", len(messages)).Msg("Generating content")

	llm, err := newLLM(llmConfig)
	if err != nil {
		return "", &GenerationError{Model: llmConfig.Model, Err: err}
	}

	res, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", &GenerationError{Model: llmConfig.Model, Err: err}
	}
	if len(res.Choices) == 0 {
		return "", &GenerationError{Model: llmConfig.Model, Err: errors.New("no choices returned")}
	}
	return res.Choices[0].Content, nil
}
