package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/johnqtcg/guescus/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

type langChainGenerator struct {
	llm llms.Model
}

// NewLangChainGenerator adapts any langchaingo model.
func NewLangChainGenerator(llm llms.Model) Generator {
	return &langChainGenerator{llm: llm}
}

func (g *langChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate from prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// NewGenerator builds the generator selected by cfg.Provider. It returns a
// nil Generator and no error when summarization is disabled.
func NewGenerator(ctx context.Context, cfg config.SummaryConfig) (Generator, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrEmptyAPIKey
		}
		// Custom endpoints go through langchaingo's chat client; the default
		// endpoint uses the Responses API directly.
		if cfg.BaseURL != "" {
			opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithBaseURL(cfg.BaseURL)}
			if cfg.Model != "" {
				opts = append(opts, openai.WithModel(cfg.Model))
			}
			llm, err := openai.New(opts...)
			if err != nil {
				return nil, fmt.Errorf("create openai model: %w", err)
			}
			return NewLangChainGenerator(llm), nil
		}
		return NewOpenAIGenerator(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model}), nil
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, ErrEmptyAPIKey
		}
		model := cfg.Model
		if model == "" {
			model = defaultGeminiModel
		}
		llm, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey), googleai.WithDefaultModel(model))
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return NewLangChainGenerator(llm), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Provider)
	}
}
