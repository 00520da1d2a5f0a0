package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/config"
)

func TestDefault_HasExpectedBaselineValues(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 4, cfg.MaxRetryCount)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 150*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxRetryCount)
}

func TestLoad_EmptyPathSkipsFileRead(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoad_ParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
llm:
  api_key: test-key
  base_url: https://llm.example.com
database:
  url: postgres://localhost/docingest
max_retry_count: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://llm.example.com", cfg.LLM.BaseURL)
	assert.Equal(t, "postgres://localhost/docingest", cfg.Database.URL)
	assert.Equal(t, 7, cfg.MaxRetryCount)
}

func TestLoad_MalformedYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesTakePrecedenceOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  url: postgres://file-value\n"), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env-value")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-value", cfg.Database.URL)
}

func TestLoad_BlankEnvVarDoesNotOverrideFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: :9090\n"), 0o600))

	t.Setenv("SERVER_ADDRESS", "")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
}
