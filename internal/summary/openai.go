package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-5-mini"
)

// ErrEmptyAPIKey indicates a generator was configured without a credential.
var ErrEmptyAPIKey = errors.New("summary api key is empty")

// OpenAIConfig configures the OpenAI Responses API generator.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type openAIGenerator struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
}

type openAIResponseEnvelope struct {
	Output []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// NewOpenAIGenerator creates a Generator backed by the OpenAI Responses API.
func NewOpenAIGenerator(cfg OpenAIConfig) Generator {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAIGenerator{
		httpClient: httpClient,
		endpoint:   buildResponsesEndpoint(cfg.BaseURL),
		model:      model,
		apiKey:     cfg.APIKey,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrEmptyAPIKey
	}

	body, err := json.Marshal(map[string]any{
		"model": g.model,
		"input": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute generate request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		if readErr != nil {
			return "", fmt.Errorf("read generate error response: %w", readErr)
		}
		return "", fmt.Errorf("generate request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var envelope openAIResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return extractOutputText(envelope), nil
}

func buildResponsesEndpoint(baseURL string) string {
	if baseURL == "" {
		return defaultOpenAIBaseURL + "/v1/responses"
	}
	trimmed := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed + "/responses"
	}
	return trimmed + "/v1/responses"
}

// extractOutputText joins every output_text part. An empty result is not an
// error; the service substitutes its own wording.
func extractOutputText(envelope openAIResponseEnvelope) string {
	var parts []string
	for _, output := range envelope.Output {
		for _, content := range output.Content {
			if content.Type == "output_text" && strings.TrimSpace(content.Text) != "" {
				parts = append(parts, content.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
