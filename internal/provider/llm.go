// AngelaMos | 2026
// llm.go

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/schooltino/api/internal/config"
	"github.com/schooltino/api/internal/core"
)

// LLMClient calls the chat-completion provider through the shell. An
// unconfigured client reports NOT_CONFIGURED and the resolver already
// keeps AI routes from reaching it.
type LLMClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	shell    *Shell
}

func NewLLMClient(cfg config.ProviderConfig, logger *slog.Logger) *LLMClient {
	return &LLMClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{},
		shell:    NewShell("llm", CategoryLLM, cfg.Configured(), logger),
	}
}

func (c *LLMClient) Configured() bool { return c.shell.Configured() }

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Complete sends the prompt and returns the provider's text. Failures
// surface as the provider-down sentinel; callers map it to a 503.
func (c *LLMClient) Complete(
	ctx context.Context,
	prompt string,
	maxTokens int,
) (string, error) {
	var text string

	outcome := c.shell.Do(ctx, func(ctx context.Context) error {
		body, err := json.Marshal(completionRequest{
			Prompt:    prompt,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call provider: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider status %d", resp.StatusCode)
		}

		var decoded completionResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}

		text = decoded.Text
		return nil
	})

	if outcome != OutcomeOK {
		return "", fmt.Errorf("llm %s: %w", outcome, core.ErrProviderDown)
	}

	return text, nil
}
