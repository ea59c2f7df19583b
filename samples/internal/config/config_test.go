// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultUserMCPURL, c.UserMCPURL)
	assert.Equal(t, DefaultWeatherMCPURL, c.WeatherMCPURL)
	assert.Equal(t, "2024-10-21", c.AzureAPIVersion)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
	assert.Empty(t, c.Catalogue.Models)
}

func TestFromEnv_LogLevel(t *testing.T) {
	c, err := FromEnv(env(map[string]string{"LOG_LEVEL": "warn"}))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, c.LogLevel)

	c, err = FromEnv(env(map[string]string{"LOG_LEVEL": "loud"}))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)

	c, err = FromEnv(env(map[string]string{"LOG_LEVEL": "error", "DEBUG": "1"}))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
}

func TestFromEnv_Catalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  gpt-4o-mini:
    provider: azure
    endpoint: https://example.openai.azure.com
    deployment: mini
  claude-sonnet-4-5:
    provider: anthropic
    max_tokens: 2048
`), 0o600))

	c, err := FromEnv(env(map[string]string{"MODEL_CONFIG_FILE": path}))
	require.NoError(t, err)
	e, ok := c.Catalogue.Lookup("gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, "mini", e.Deployment)
	e, ok = c.Catalogue.Lookup("claude-sonnet-4-5")
	require.True(t, ok)
	assert.Equal(t, 2048, e.MaxTokens)
}

func TestParseCatalogue_Rejects(t *testing.T) {
	_, err := ParseCatalogue(strings.NewReader("models:\n  x:\n    provider: bedrock\n"))
	assert.ErrorContains(t, err, "unknown provider")

	_, err = ParseCatalogue(strings.NewReader("models:\n  x:\n    provider: openai\n    colour: blue\n"))
	assert.Error(t, err)
}

func TestFromEnv_MissingCatalogue(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"MODEL_CONFIG_FILE": filepath.Join(t.TempDir(), "nope.yaml")}))
	assert.Error(t, err)
}

func TestFirstModel(t *testing.T) {
	m, err := FirstModel("", " ", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m)

	_, err = FirstModel("", "")
	assert.ErrorIs(t, err, ErrNoModel)
}
