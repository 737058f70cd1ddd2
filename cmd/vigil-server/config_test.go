package main

import (
	"os"
	"path/filepath"
	"testing"
	"vigil-backend/lib/configutil"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "<dev_state>/vigil.db", cfg.Database.File)
	require.Equal(t, RescanConfig{Schedule: "0 */6 * * *", OlderThanHours: 24, Concurrency: 4}, cfg.Rescan)

	remote := Config{}
	remote.Database.Url = "libsql://vigil.turso.io"
	require.Equal(t, "", remote.withDefaults().Database.File)
}

func TestShippedConfig(t *testing.T) {
	contents, err := os.ReadFile("config.json5")
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, contents, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{port: 9000, scraper: {github_token: "tok"}}`), 0600))

	cfg, err := configutil.ReadConfig[Config](path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "tok", cfg.Scraper.GithubToken)
	require.Equal(t, 30, cfg.Scraper.TimeoutSeconds)
	require.Equal(t, "0 */6 * * *", cfg.Rescan.Schedule)
}
