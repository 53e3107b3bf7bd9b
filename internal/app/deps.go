package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"summarize-case/internal/config"
	"summarize-case/internal/llm"
)

// Deps bundles the runtime dependencies of a summarization run.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	LLM    llm.Client
}

// LoadEnv loads a .env file from the working directory when one exists.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Build wires the LLM client selected by cfg.
func Build(cfg config.Config, log *slog.Logger) (Deps, error) {
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		LLM:    llmClient,
	}, nil
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY (or --api-key) is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:  cfg.OpenAIKey,
			Model:   openai.ChatModel(cfg.LLMModel),
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Debug("using OpenAI LLM client", "model", client.Model(), "base_url", cfg.OpenAIBaseURL)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}
