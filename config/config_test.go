// ABOUTME: Tests for configuration loading and persistence
// ABOUTME: Covers defaults, TOML parsing, env overrides and XDG paths
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPathUnderXDGConfigHome(t *testing.T) {
	path := DefaultPath()
	assert.True(t, strings.HasPrefix(path, xdg.ConfigHome))
	assert.Equal(t, "config.toml", filepath.Base(path))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001/api", cfg.API.BaseURL)
	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://crm.example.com/api/"
timeout_seconds = 5
page_size = 50
verbose = true

[server]
addr = ":9000"
allow_origins = ["https://app.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout())
	assert.Equal(t, 50, cfg.API.PageSize)
	assert.True(t, cfg.API.Verbose)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowOrigins)
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url ="), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OMW_CRM_API_URL", "http://env.example/api")
	t.Setenv("OMW_CRM_PAGE_SIZE", "7")
	t.Setenv("OMW_CRM_VERBOSE", "1")
	t.Setenv("OMW_CRM_CORS_ORIGINS", "http://a,http://b")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, 7, cfg.API.PageSize)
	assert.True(t, cfg.API.Verbose)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowOrigins)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://saved.example/api"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example/api", loaded.API.BaseURL)
}

func TestTokenTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, ServerConfig{}.TokenTTL())
	assert.Equal(t, 2*time.Hour, ServerConfig{TokenTTLHours: 2}.TokenTTL())
}
