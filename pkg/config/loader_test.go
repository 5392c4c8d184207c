package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devConfig = `
log:
  level: debug
bot:
  token: "123456789:ABCdef"
  mode: polling
storage:
  backend: disk
  base_dir: /var/lib/hostbot/files
  public_base_url: "https://scripts.example.com"
  allowed_extensions: ["php"]
  scan_uploads: true
redis:
  enabled: false
`

func writeConfig(t *testing.T, content string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "development.yaml"), []byte(content), 0o644))
	t.Chdir(dir)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfig(t, devConfig)
	t.Setenv("APP_ENV", "")

	cfg, v, err := Load()
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "123456789:ABCdef", cfg.Bot.Token)
	assert.Equal(t, 10, cfg.Storage.MaxFiles)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxFileSize)
	assert.Equal(t, []string{"php"}, cfg.Storage.AllowedExtensions)
	assert.True(t, cfg.Storage.ScanUploads)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.PerMinute)
}

func TestLoad_MissingToken(t *testing.T) {
	writeConfig(t, `
storage:
  backend: disk
  base_dir: /tmp/files
  public_base_url: "https://scripts.example.com"
`)
	t.Setenv("APP_ENV", "")
	t.Setenv("BOT_TOKEN", "")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestValidate_RejectsBadPublicBaseURL(t *testing.T) {
	cfg := &Config{
		Bot: BotConfig{Token: "t", Mode: "polling"},
		Storage: StorageConfig{
			Backend:       "disk",
			BaseDir:       "/tmp/files",
			PublicBaseURL: "not-a-url",
			MaxFiles:      10,
			MaxFileSize:   1,
		},
	}

	assert.Error(t, Validate(cfg))
}
