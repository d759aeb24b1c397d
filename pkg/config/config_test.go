package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearRecognizedEnv blanks every variable Load reads so host settings
// cannot leak into assertions. Empty values are treated as unset.
func clearRecognizedEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL",
		"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE",
		"ENGRAM_GROUP_ID", "ENGRAM_LOG_LEVEL", "ENGRAM_TELEMETRY_DIR", "ENGRAM_SESSION_DIR",
		"SERVER_HOST", "SERVER_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearRecognizedEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Database.URI)
	assert.Equal(t, "neo4j", cfg.Database.Username)
	assert.Equal(t, "neo4j", cfg.Database.Database)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "default", cfg.GroupID)
	assert.Equal(t, 20, cfg.Session.Window)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	clearRecognizedEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "engram.yaml")
	yaml := `
log:
  level: debug
database:
  uri: bolt://graph:7687
llm:
  model: gpt-4o
  api_key: should-be-ignored
group_id: tutorial
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "bolt://graph:7687", cfg.Database.URI)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "tutorial", cfg.GroupID)
	assert.Equal(t, "neo4j", cfg.Database.Username, "file settings merge over defaults")
	assert.Empty(t, cfg.LLM.APIKey, "api keys never come from files")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearRecognizedEnv(t)
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "engram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  uri: bolt://file:7687\n"), 0o644))

	t.Setenv("NEO4J_URI", "bolt://env:7687")
	t.Setenv("NEO4J_PASSWORD", "sekrit")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ENGRAM_GROUP_ID", "salesbot")
	t.Setenv("ENGRAM_LOG_LEVEL", "warn")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt://env:7687", cfg.Database.URI)
	assert.Equal(t, "sekrit", cfg.Database.Password)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "salesbot", cfg.GroupID)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	clearRecognizedEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ENGRAM_GROUP_ID=dotenv-group\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ENGRAM_GROUP_ID") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-group", cfg.GroupID)
}
