// Package config loads the agent's runtime settings from YAML or JSON
// files. Keys absent from a file keep their defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gridironlabs/gridiron/pkg/gridiron/observability"
)

// Supported model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Settings is the typed runtime configuration for the agent.
// All tracing sinks are explicit; nothing is read from the environment
// except the API key fallback handled by the CLI.
type Settings struct {
	// Provider selects the model gateway: "anthropic" or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the provider-specific model identifier.
	// Empty selects the gateway's default.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key" yaml:"api_key"`

	// SystemPrompt is sent with every model invocation.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// MaxIterations bounds model invocations per turn.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// CheckpointPath is the SQLite file for session persistence.
	// Empty selects the in-memory store.
	CheckpointPath string `json:"checkpoint_path" yaml:"checkpoint_path"`

	// Tracing selects the span sinks.
	Tracing observability.TracingConfig `json:"tracing" yaml:"tracing"`
}

// DefaultSettings returns the baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		Provider:      ProviderAnthropic,
		MaxIterations: 10,
		Tracing: observability.TracingConfig{
			ServiceName:  "gridiron",
			OTLPEndpoint: "localhost:4317",
			OTLPInsecure: true,
		},
	}
}

// Load reads settings from a file, detecting the format by extension.
// Supported extensions: .yaml, .yml, .json.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses settings from YAML, starting from defaults.
func FromYAML(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml config: %w", err)
	}
	return s, s.Validate()
}

// FromJSON parses settings from JSON, starting from defaults.
func FromJSON(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json config: %w", err)
	}
	return s, s.Validate()
}

// Validate checks settings consistency.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported provider: %s", s.Provider)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", s.MaxIterations)
	}
	return nil
}
