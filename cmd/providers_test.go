package cmd

import (
	"testing"

	"github.com/lehigh-university-libraries/plantid/internal/config"
	"github.com/lehigh-university-libraries/plantid/internal/gemini"
	"github.com/lehigh-university-libraries/plantid/internal/ollama"
	"github.com/lehigh-university-libraries/plantid/internal/openai"
)

func TestNewProvider(t *testing.T) {
	t.Run("mistral uses the Mistral endpoint", func(t *testing.T) {
		p, err := newProvider(config.LLMConfig{Provider: "mistral", APIKey: "k"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		client, ok := p.(*openai.OpenAI)
		if !ok {
			t.Fatalf("Expected *openai.OpenAI, got %T", p)
		}
		if client.BaseURL != openai.MistralBaseURL {
			t.Errorf("Expected base URL %s, got %s", openai.MistralBaseURL, client.BaseURL)
		}
		if client.APIKey != "k" {
			t.Errorf("Expected API key to be passed through, got %q", client.APIKey)
		}
	})

	t.Run("base url override", func(t *testing.T) {
		p, err := newProvider(config.LLMConfig{Provider: "mistral", BaseURL: "http://localhost:9000/v1/"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.(*openai.OpenAI).BaseURL; got != "http://localhost:9000/v1" {
			t.Errorf("Expected overridden base URL, got %s", got)
		}
	})

	t.Run("openai", func(t *testing.T) {
		p, err := newProvider(config.LLMConfig{Provider: "openai"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.(*openai.OpenAI).BaseURL; got != openai.OpenAIBaseURL {
			t.Errorf("Expected base URL %s, got %s", openai.OpenAIBaseURL, got)
		}
	})

	t.Run("gemini", func(t *testing.T) {
		p, err := newProvider(config.LLMConfig{Provider: "gemini", APIKey: "g"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := p.(*gemini.Gemini); !ok {
			t.Errorf("Expected *gemini.Gemini, got %T", p)
		}
	})

	t.Run("ollama", func(t *testing.T) {
		p, err := newProvider(config.LLMConfig{Provider: "ollama"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.(*ollama.Ollama).URL; got != ollama.DefaultURL {
			t.Errorf("Expected URL %s, got %s", ollama.DefaultURL, got)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := newProvider(config.LLMConfig{Provider: "claude"}); err == nil {
			t.Error("Expected error for unsupported provider")
		}
	})
}
