package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when no credential is set for the provider.
var ErrMissingAPIKey = errors.New("API key not set")

// Config holds all configurable ctxchat settings.
type Config struct {
	Provider     string   `yaml:"provider"` // "anthropic" | "gemini"
	Model        string   `yaml:"model"`
	MaxTokens    int      `yaml:"max_tokens"`
	Temperature  *float64 `yaml:"temperature"` // nil means unset; 0 is a valid value
	BaseURL      string   `yaml:"base_url"`    // override the provider endpoint
	IndexPath    string   `yaml:"index_path"`
	ReplayOutput string   `yaml:"replay_output"`
	SystemPrompt string   `yaml:"system_prompt"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	t := 1.0
	return Config{
		Provider:     "anthropic",
		Model:        "claude-sonnet-4-5-20250929",
		MaxTokens:    4096,
		Temperature:  &t,
		IndexPath:    "chats_index.csv",
		ReplayOutput: "temp.txt",
	}
}

// GlobalPath returns ~/.config/ctxchat/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ctxchat", "config.yaml"), nil
}

// LoadGlobal reads ~/.config/ctxchat/config.yaml.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .ctxchat.yaml in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".ctxchat.yaml", false)
}

// loadFile reads and parses a YAML config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	apply(&result, global)
	apply(&result, project)
	return result
}

// Apply overlays the non-zero fields of over onto c.
func (c *Config) Apply(over *Config) {
	apply(c, over)
}

func apply(dst, src *Config) {
	if src == nil {
		return
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Temperature != nil {
		t := *src.Temperature
		dst.Temperature = &t
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.IndexPath != "" {
		dst.IndexPath = src.IndexPath
	}
	if src.ReplayOutput != "" {
		dst.ReplayOutput = src.ReplayOutput
	}
	if src.SystemPrompt != "" {
		dst.SystemPrompt = src.SystemPrompt
	}
}

// TemperatureValue returns the configured temperature, or the default when unset.
func (c Config) TemperatureValue() float64 {
	if c.Temperature == nil {
		return *Defaults().Temperature
	}
	return *c.Temperature
}

// APIKeyEnv names the environment variable holding the provider's credential.
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// APIKey looks up the provider's credential through getenv.
func APIKey(provider string, getenv func(string) string) (string, error) {
	name := APIKeyEnv(provider)
	key := strings.TrimSpace(getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, name)
	}
	return key, nil
}

// Validate checks settings that must hold before any request is made.
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown provider %q (want anthropic or gemini)", c.Provider)
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if t := c.TemperatureValue(); t < 0 || t > 1 {
		return fmt.Errorf("temperature must be between 0 and 1, got %v", t)
	}
	return nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
