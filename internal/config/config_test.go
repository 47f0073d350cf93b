package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecret(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	dir := t.TempDir()

	cfg, err := LoadConfig("", FileSecrets{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 120*time.Second, cfg.AITimeout)
	assert.Equal(t, 90*time.Second, cfg.TTSTimeout)
	assert.Less(t, cfg.TTSTimeout, cfg.AITimeout)
	assert.Equal(t, 1, cfg.DefaultTargetCount)
	assert.InDelta(t, 0.5, cfg.TTSStability, 1e-9)
	assert.InDelta(t, 0.75, cfg.TTSSimilarity, 1e-9)
	assert.False(t, cfg.TextGenerationEnabled())
	assert.False(t, cfg.SpeechEnabled())
}

func TestLoadConfig_SecretsFromFilesAndEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("ELEVENLABS_API_KEY", "tts-from-env")
	dir := t.TempDir()
	writeSecret(t, dir, "ai_api_key", " sk-test \n")
	writeSecret(t, dir, "db_password", "pw")

	cfg, err := LoadConfig("", FileSecrets{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AIAPIKey)
	assert.Equal(t, "tts-from-env", cfg.TTSAPIKey)
	assert.True(t, cfg.TextGenerationEnabled())
	assert.True(t, cfg.SpeechEnabled())
	assert.Contains(t, cfg.GetDSN(), ":pw@")
	assert.NotContains(t, cfg.MaskedDSN(), "pw@")
}

func TestLoadConfig_PostgresNeedsPassword(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_PASSWORD", "")
	_, err := LoadConfig("", FileSecrets{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_DRIVER=memory\nAI_CLIENT_TYPE=ollama\nDEFAULT_TARGET_COUNT=0\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("AI_CLIENT_TYPE")
		os.Unsetenv("DEFAULT_TARGET_COUNT")
	})

	cfg, err := LoadConfig(envFile, FileSecrets{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.True(t, cfg.TextGenerationEnabled())
	assert.Equal(t, 1, cfg.DefaultTargetCount)
}

func TestFileSecrets_EmptyFileIsError(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "x", "   ")
	_, err := FileSecrets{Dir: dir}.Read("x", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSecretNotFound)
}

func TestFileSecrets_NotFound(t *testing.T) {
	_, err := FileSecrets{Dir: t.TempDir()}.Read("missing", "SOME_UNSET_ENV_FOR_TEST")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
