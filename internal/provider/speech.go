// AngelaMos | 2026
// speech.go

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/schooltino/api/internal/config"
	"github.com/schooltino/api/internal/core"
)

// SpeechClient fronts the text-to-speech and speech-to-text provider.
type SpeechClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	shell    *Shell
}

func NewSpeechClient(
	cfg config.ProviderConfig,
	logger *slog.Logger,
) *SpeechClient {
	return &SpeechClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{},
		shell:    NewShell("speech", CategorySpeech, cfg.Configured(), logger),
	}
}

func (c *SpeechClient) Configured() bool { return c.shell.Configured() }

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func (c *SpeechClient) Synthesize(
	ctx context.Context,
	text, voice string,
) ([]byte, error) {
	var audio []byte

	outcome := c.shell.Do(ctx, func(ctx context.Context) error {
		body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.endpoint+"/synthesize",
			bytes.NewReader(body))
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

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		return nil
	})

	if outcome != OutcomeOK {
		return nil, fmt.Errorf("speech %s: %w", outcome, core.ErrProviderDown)
	}

	return audio, nil
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (c *SpeechClient) Transcribe(
	ctx context.Context,
	audio []byte,
) (string, error) {
	var text string

	outcome := c.shell.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.endpoint+"/transcribe",
			bytes.NewReader(audio))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call provider: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider status %d", resp.StatusCode)
		}

		var decoded transcribeResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}

		text = decoded.Text
		return nil
	})

	if outcome != OutcomeOK {
		return "", fmt.Errorf("speech %s: %w", outcome, core.ErrProviderDown)
	}

	return text, nil
}
