// Copyright (c) Microsoft. All rights reserved.

// Package config loads the settings shared by the sample programs from the
// environment, an optional .env file and an optional YAML model catalogue.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrNoModel is returned when none of the requested model settings is set.
var ErrNoModel = errors.New("config: no model configured")

const (
	DefaultUserMCPURL    = "http://localhost:8002/mcp"
	DefaultWeatherMCPURL = "http://localhost:8001/mcp"
)

// Config holds the sample settings.
type Config struct {
	CompletionModel string
	MediumModel     string
	SmallModel      string

	UserMCPURL    string
	WeatherMCPURL string

	AzureEndpoint   string
	AzureAPIKey     string
	AzureAPIVersion string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	LocalEndpoint   string

	AgentAPIKey string
	LogLevel    slog.Level

	Catalogue Catalogue
}

// Catalogue maps model names to where they are served.
type Catalogue struct {
	Models map[string]ModelEntry `yaml:"models"`
}

// ModelEntry describes one catalogue model.
type ModelEntry struct {
	Provider   string `yaml:"provider"` // azure, openai, anthropic or local
	Endpoint   string `yaml:"endpoint"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
	APIKeyEnv  string `yaml:"api_key_env"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// Lookup returns the catalogue entry for name.
func (c Catalogue) Lookup(name string) (ModelEntry, bool) {
	e, ok := c.Models[name]
	return e, ok
}

// Load reads .env from the working directory when present, then the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	c := &Config{
		CompletionModel: getenv("COMPLETION_DEPLOYMENT_NAME"),
		MediumModel:     getenv("MEDIUM_DEPLOYMENT_MODEL_NAME"),
		SmallModel:      getenv("SMALL_DEPLOYMENT_MODEL_NAME"),
		UserMCPURL:      orDefault(getenv("USER_MCP_SERVER_URL"), DefaultUserMCPURL),
		WeatherMCPURL:   orDefault(getenv("WEATHER_MCP_SERVER_URL"), DefaultWeatherMCPURL),
		AzureEndpoint:   getenv("AZURE_OPENAI_ENDPOINT"),
		AzureAPIKey:     getenv("AZURE_OPENAI_API_KEY"),
		AzureAPIVersion: orDefault(getenv("AZURE_OPENAI_API_VERSION"), "2024-10-21"),
		OpenAIAPIKey:    getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: getenv("ANTHROPIC_API_KEY"),
		LocalEndpoint:   getenv("LOCAL_MODEL_ENDPOINT"),
		AgentAPIKey:     getenv("AGENT_API_KEY"),
		LogLevel:        parseLevel(getenv("LOG_LEVEL"), getenv("DEBUG")),
	}
	if path := getenv("MODEL_CONFIG_FILE"); path != "" {
		cat, err := LoadCatalogue(path)
		if err != nil {
			return nil, err
		}
		c.Catalogue = cat
	}
	return c, nil
}

// LoadCatalogue reads a YAML model catalogue such as
//
//	models:
//	  gpt-4o-mini:
//	    provider: azure
//	    endpoint: https://example.openai.azure.com
//	    deployment: gpt-4o-mini
//	    api_key_env: AZURE_OPENAI_API_KEY
func LoadCatalogue(path string) (Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("config: open catalogue: %w", err)
	}
	defer f.Close()
	return ParseCatalogue(f)
}

// ParseCatalogue decodes a YAML model catalogue.
func ParseCatalogue(r io.Reader) (Catalogue, error) {
	var cat Catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return Catalogue{}, fmt.Errorf("config: parse catalogue: %w", err)
	}
	for name, e := range cat.Models {
		switch e.Provider {
		case "azure", "openai", "anthropic", "local":
		default:
			return Catalogue{}, fmt.Errorf("config: model %q: unknown provider %q", name, e.Provider)
		}
	}
	return cat, nil
}

// FirstModel returns the first non-empty model name among the given settings.
func FirstModel(names ...string) (string, error) {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			return n, nil
		}
	}
	return "", ErrNoModel
}

// Logger returns a text logger on w at the configured level and installs it
// as the slog default.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
	slog.SetDefault(l)
	return l
}

func parseLevel(level, debug string) slog.Level {
	if debug != "" && debug != "0" && !strings.EqualFold(debug, "false") {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
