// Copyright (c) Microsoft. All rights reserved.

// Package modelclient builds the chat client for a model name from the
// sample configuration.
package modelclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/anthropic"
	"github.com/jochenvw/agent-framework-samples/openai"
	"github.com/jochenvw/agent-framework-samples/samples/internal/config"
)

const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLocal     = "local"
)

// localMaxTokens keeps small local models inside their context window.
const localMaxTokens = 512

var (
	ErrNoModelName = errors.New("modelclient: model name is required")
	ErrNoProvider  = errors.New("modelclient: no provider configured")
)

// Model is a resolved chat client.
type Model struct {
	Name     string
	Provider string
	Client   af.ChatClient

	// AgentOptions must be applied to every agent built on Client.
	AgentOptions []af.AgentOption
}

// Option configures New.
type Option func(*settings)

type settings struct {
	credential azcore.TokenCredential
	httpClient *http.Client
	logger     *slog.Logger
}

// WithCredential sets the Azure credential used when no API key is configured.
// Defaults to azidentity.DefaultAzureCredential.
func WithCredential(cred azcore.TokenCredential) Option {
	return func(s *settings) { s.credential = cred }
}

// WithHTTPClient sets the HTTP client for OpenAI-compatible providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithLogger sets the logger of the clients and the local runtime middleware.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// openAIOptions are the client options every OpenAI-compatible provider
// shares.
func (s *settings) openAIOptions() []openai.Option {
	opts := []openai.Option{openai.WithLogger(s.logger)}
	if s.httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(s.httpClient))
	}
	return opts
}

// New resolves name to a chat client. A catalogue entry wins; otherwise
// claude* models go to Anthropic, then a local runtime, Azure OpenAI and
// OpenAI are tried in that order.
func New(cfg *config.Config, name string, opts ...Option) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNoModelName
	}
	s := &settings{logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	if e, ok := cfg.Catalogue.Lookup(name); ok {
		return fromEntry(cfg, name, e, s)
	}

	switch {
	case strings.HasPrefix(strings.ToLower(name), "claude"):
		return newAnthropic(name, cfg.AnthropicAPIKey, "", 0)
	case cfg.LocalEndpoint != "":
		return newLocal(name, cfg.LocalEndpoint, s, 0), nil
	case cfg.AzureEndpoint != "":
		return newAzure(name, config.ModelEntry{
			Endpoint:   cfg.AzureEndpoint,
			APIVersion: cfg.AzureAPIVersion,
		}, cfg.AzureAPIKey, s)
	case cfg.OpenAIAPIKey != "":
		return newOpenAI(name, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, s, 0), nil
	default:
		return nil, fmt.Errorf("%w for %q: set AZURE_OPENAI_ENDPOINT, OPENAI_API_KEY, ANTHROPIC_API_KEY or LOCAL_MODEL_ENDPOINT", ErrNoProvider, name)
	}
}

func fromEntry(cfg *config.Config, name string, e config.ModelEntry, s *settings) (*Model, error) {
	key := ""
	if e.APIKeyEnv != "" {
		key = os.Getenv(e.APIKeyEnv)
	}
	switch e.Provider {
	case ProviderAnthropic:
		if key == "" {
			key = cfg.AnthropicAPIKey
		}
		return newAnthropic(name, key, e.Endpoint, e.MaxTokens)
	case ProviderLocal:
		endpoint := e.Endpoint
		if endpoint == "" {
			endpoint = cfg.LocalEndpoint
		}
		if endpoint == "" {
			return nil, fmt.Errorf("%w: model %q has no endpoint", ErrNoProvider, name)
		}
		return newLocal(name, endpoint, s, e.MaxTokens), nil
	case ProviderAzure:
		if e.Endpoint == "" {
			e.Endpoint = cfg.AzureEndpoint
		}
		if e.APIVersion == "" {
			e.APIVersion = cfg.AzureAPIVersion
		}
		if key == "" {
			key = cfg.AzureAPIKey
		}
		return newAzure(name, e, key, s)
	default:
		if key == "" {
			key = cfg.OpenAIAPIKey
		}
		endpoint := e.Endpoint
		if endpoint == "" {
			endpoint = cfg.OpenAIBaseURL
		}
		return newOpenAI(name, key, endpoint, s, e.MaxTokens), nil
	}
}

func newAnthropic(name, key, baseURL string, maxTokens int) (*Model, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required for %q", ErrNoProvider, name)
	}
	opts := []anthropic.Option{anthropic.WithModel(name)}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if maxTokens > 0 {
		opts = append(opts, anthropic.WithMaxTokens(maxTokens))
	}
	return &Model{Name: name, Provider: ProviderAnthropic, Client: anthropic.New(key, opts...)}, nil
}

func newLocal(name, endpoint string, s *settings, maxTokens int) *Model {
	if maxTokens <= 0 {
		maxTokens = localMaxTokens
	}
	opts := append(s.openAIOptions(), openai.WithBaseURL(endpoint), openai.WithModel(name))
	return &Model{
		Name:     name,
		Provider: ProviderLocal,
		Client:   openai.New(opts...),
		AgentOptions: []af.AgentOption{
			af.WithChatMiddleware(openai.TextToolCallMiddleware(s.logger)),
			af.WithDefaultOptions(&af.ChatOptions{MaxTokens: &maxTokens}),
		},
	}
}

func newAzure(name string, e config.ModelEntry, key string, s *settings) (*Model, error) {
	deployment := e.Deployment
	if deployment == "" {
		deployment = name
	}
	opts := append(s.openAIOptions(),
		openai.WithBaseURL(strings.TrimRight(e.Endpoint, "/")+"/openai/deployments/"+deployment),
		openai.WithAPIVersion(e.APIVersion),
		openai.WithModel(deployment),
	)
	if key != "" {
		opts = append(opts, openai.WithAzureAPIKey(key))
	} else {
		cred := s.credential
		if cred == nil {
			c, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				return nil, fmt.Errorf("modelclient: azure credential: %w", err)
			}
			cred = c
		}
		opts = append(opts, openai.WithAzureCredential(cred))
	}
	m := &Model{Name: name, Provider: ProviderAzure, Client: openai.New(opts...)}
	if e.MaxTokens > 0 {
		n := e.MaxTokens
		m.AgentOptions = append(m.AgentOptions, af.WithDefaultOptions(&af.ChatOptions{MaxTokens: &n}))
	}
	return m, nil
}

func newOpenAI(name, key, baseURL string, s *settings, maxTokens int) *Model {
	opts := append(s.openAIOptions(), openai.WithModel(name), openai.WithAPIKey(key))
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m := &Model{Name: name, Provider: ProviderOpenAI, Client: openai.New(opts...)}
	if maxTokens > 0 {
		m.AgentOptions = append(m.AgentOptions, af.WithDefaultOptions(&af.ChatOptions{MaxTokens: &maxTokens}))
	}
	return m
}
