package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/plantid/internal/classifier"
	"github.com/lehigh-university-libraries/plantid/internal/config"
	"github.com/lehigh-university-libraries/plantid/internal/gemini"
	"github.com/lehigh-university-libraries/plantid/internal/identification"
	"github.com/lehigh-university-libraries/plantid/internal/images"
	"github.com/lehigh-university-libraries/plantid/internal/ollama"
	"github.com/lehigh-university-libraries/plantid/internal/openai"
	"github.com/lehigh-university-libraries/plantid/internal/plantinfo"
	"github.com/lehigh-university-libraries/plantid/internal/providers"
)

func newProvider(cfg config.LLMConfig) (providers.Provider, error) {
	switch cfg.Provider {
	case "mistral":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.MistralBaseURL
		}
		return openai.New(baseURL, cfg.APIKey), nil
	case "openai":
		return openai.New(cfg.BaseURL, cfg.APIKey), nil
	case "gemini":
		return gemini.New(cfg.APIKey), nil
	case "ollama":
		return ollama.New(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// loadConfig reads and validates configuration; the service refuses to
// start without its LLM credentials.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildService loads the classifier artifact and assembles the pipeline.
// The returned model must be closed by the caller.
func buildService(cfg *config.Config) (*identification.Service, *classifier.ONNXModel, error) {
	provider, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	model, err := classifier.LoadONNX(cfg.Model.Path, classifier.ONNXOptions{
		LabelsPath:     cfg.Model.LabelsPath,
		RuntimeLibrary: cfg.Model.RuntimeLibrary,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load classifier: %w", err)
	}

	fetcher := images.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxBytes)
	retriever := plantinfo.NewRetriever(provider, cfg.LLM.Model, cfg.LLM.Temperature)

	return identification.NewService(fetcher, model, retriever), model, nil
}
