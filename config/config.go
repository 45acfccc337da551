// Package config loads named provider API entries from a YAML or TOML file
// and resolves them into llm.ProviderConfig values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/quells-bot/llm-dispatch/llm"
)

// Config is the parsed configuration file.
type Config struct {
	Default string              `yaml:"default" toml:"default"`
	APIs    map[string]APIEntry `yaml:"apis" toml:"apis"`
}

// APIEntry describes one configured API.
type APIEntry struct {
	API            string  `yaml:"api" toml:"api"`
	URL            string  `yaml:"url" toml:"url"`
	APIKey         string  `yaml:"api_key" toml:"api_key"`
	APIKeyEnv      string  `yaml:"api_key_env" toml:"api_key_env"`
	Version        string  `yaml:"version" toml:"version"`
	DefaultModel   string  `yaml:"default_model" toml:"default_model"`
	TimeoutSeconds *uint32 `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg, err := Parse(data, filepath.Ext(absPath))
	if err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext and validates it.
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q, use .yaml, .yml or .toml", ext)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if len(c.APIs) == 0 {
		return fmt.Errorf("at least one api must be configured")
	}
	if c.Default != "" {
		if _, ok := c.APIs[c.Default]; !ok {
			return fmt.Errorf("default api %q is not configured", c.Default)
		}
	}

	for _, name := range c.Names() {
		if err := validateEntry(name, c.APIs[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(name string, e APIEntry) error {
	p, err := llm.ParseProvider(e.API)
	if err != nil {
		return fmt.Errorf("api %s: %w", name, err)
	}

	switch p {
	case llm.ProviderTest:
		return fmt.Errorf("api %s: provider %q is not made for actual use", name, e.API)
	case llm.ProviderBedrock:
		// Credentials and endpoint come from the AWS environment.
	default:
		if strings.TrimSpace(e.URL) == "" {
			return fmt.Errorf("api %s: url must be provided", name)
		}
	}

	if p == llm.ProviderAnthropic && strings.TrimSpace(e.Version) == "" {
		return fmt.Errorf("api %s: version is required for anthropic", name)
	}
	return nil
}

// Names returns the configured api names in sorted order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.APIs))
	for name := range c.APIs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the provider and connection settings for the named api, or
// for the default api when name is empty. An empty api_key is filled from the
// environment variable named by api_key_env.
func (c Config) Resolve(name string) (llm.Provider, llm.ProviderConfig, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.APIs) == 1 {
		name = c.Names()[0]
	}
	if name == "" {
		return 0, llm.ProviderConfig{}, fmt.Errorf("no api selected and no default configured")
	}

	e, ok := c.APIs[name]
	if !ok {
		return 0, llm.ProviderConfig{}, fmt.Errorf("api %q is not configured", name)
	}

	p, err := llm.ParseProvider(e.API)
	if err != nil {
		return 0, llm.ProviderConfig{}, fmt.Errorf("api %s: %w", name, err)
	}

	key := e.APIKey
	if key == "" && e.APIKeyEnv != "" {
		key = os.Getenv(e.APIKeyEnv)
	}

	return p, llm.ProviderConfig{
		URL:            e.URL,
		APIKey:         key,
		Version:        e.Version,
		DefaultModel:   e.DefaultModel,
		TimeoutSeconds: e.TimeoutSeconds,
	}, nil
}
