// AngelaMos | 2026
// service.go

package ai

import (
	"context"
	"fmt"
	"strings"
)

const paperMaxTokens = 3000

// LLM and Speech are the service's views of the outbound adapters.
type LLM interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

type Speech interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type Service struct {
	llm    LLM
	speech Speech
}

func NewService(llm LLM, speech Speech) *Service {
	return &Service{llm: llm, speech: speech}
}

func (s *Service) Query(
	ctx context.Context,
	prompt string,
	maxTokens int,
) (string, error) {
	text, err := s.llm.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("ai query: %w", err)
	}
	return text, nil
}

// GeneratePaper asks the model for a full question paper. Prompt shape is
// deliberately plain text; the provider does the formatting.
func (s *Service) GeneratePaper(
	ctx context.Context,
	req PaperRequest,
) (string, error) {
	language := req.Language
	if language == "" {
		language = "English"
	}

	prompt := fmt.Sprintf(
		"Prepare a %d-mark %s question paper for class %s in %s. "+
			"Cover these topics: %s. "+
			"Include section headings, per-question marks and a marking scheme.",
		req.TotalMarks,
		req.Subject,
		req.ClassName,
		language,
		strings.Join(req.Topics, ", "),
	)

	paper, err := s.llm.Complete(ctx, prompt, paperMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate paper: %w", err)
	}
	return paper, nil
}

func (s *Service) Voice(
	ctx context.Context,
	text, voice string,
) ([]byte, error) {
	audio, err := s.speech.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}
	return audio, nil
}
