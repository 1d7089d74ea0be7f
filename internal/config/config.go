package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs at startup
type Config struct {
	Server ServerConfig `yaml:"server"`
	Model  ModelConfig  `yaml:"model"`
	LLM    LLMConfig    `yaml:"llm"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// ModelConfig points at the classifier artifact
type ModelConfig struct {
	Path string `yaml:"path"`
	// LabelsPath is an optional sidecar {"classes": [...]} file for artifacts
	// exported without a class_names metadata entry.
	LabelsPath     string `yaml:"labels_path"`
	RuntimeLibrary string `yaml:"runtime_library"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"-"`
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	MaxBytes  int64         `yaml:"max_bytes"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "5000",
			MaxBodyBytes: 1 << 20,
		},
		Model: ModelConfig{
			Path: "models/plant_classifier.onnx",
		},
		LLM: LLMConfig{
			Provider:    "mistral",
			Temperature: 0.3,
		},
		Fetch: FetchConfig{
			Timeout:   15 * time.Second,
			UserAgent: "Mozilla/5.0",
			MaxBytes:  20 << 20,
		},
	}
}

// Load reads an optional YAML file on top of the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PLANTID_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("PLANTID_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("PLANTID_LABELS_PATH"); v != "" {
		c.Model.LabelsPath = v
	}
	if v := os.Getenv("ONNXRUNTIME_LIB"); v != "" {
		c.Model.RuntimeLibrary = v
	}
	if v := os.Getenv("PLANTID_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("PLANTID_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("PLANTID_LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PLANTID_LLM_TEMPERATURE %q: %w", v, err)
		}
		c.LLM.Temperature = t
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "ollama" {
		if v := os.Getenv("OLLAMA_URL"); v != "" {
			c.LLM.BaseURL = v
		}
	}
	if env := APIKeyEnv(c.LLM.Provider); env != "" {
		c.LLM.APIKey = os.Getenv(env)
	}
	return nil
}

// Validate refuses configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "mistral", "openai", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unsupported provider: %s", c.LLM.Provider))
	}

	if env := APIKeyEnv(c.LLM.Provider); env != "" && c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s environment variable not set", env))
	}

	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}

	return errors.Join(errs...)
}

// APIKeyEnv names the environment variable holding the provider's API key.
// Providers that need no key return "".
func APIKeyEnv(provider string) string {
	switch provider {
	case "mistral":
		return "MISTRAL_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the completion model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case "mistral":
		return "mistral-small-latest"
	case "openai":
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-1.5-flash"
	case "ollama":
		return "mistral-small3.2:24b"
	default:
		return ""
	}
}
