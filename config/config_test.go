package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sylinko/everywhere-web/service/vo"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	registry, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, vo.Language("en-US"), registry.Default())
	assert.False(t, cfg.Remote())
	require.Len(t, cfg.Downloads, 3)
	assert.NotEmpty(t, cfg.Downloads[0].Links[0].URL)
	assert.Empty(t, cfg.Downloads[1].Links[0].URL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
defaultLanguage: zh-CN
languages: [zh-CN, en-US, ja-JP]
contentServer:
  url: http://contentserver:8080
  rootNodeId: everywhere
  contentSelector: "#content"
downloads:
  - key: windows
    links:
      - key: installer
        name: Installer
        url: https://example.com/setup.msi
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "https://everywhere.sylinko.com", cfg.BaseURL)
	assert.Equal(t, []string{"zh-CN", "en-US", "ja-JP"}, cfg.Languages)
	assert.True(t, cfg.Remote())
	require.Len(t, cfg.Downloads, 1)
	assert.Equal(t, "https://example.com/setup.msi", cfg.Site().Downloads[0].Links[0].URL)

	remote := cfg.RemoteSettings(vo.CollectionDocs)
	assert.Equal(t, "everywhere-docs", remote.RootNodeID)
	assert.Equal(t, "http://contentserver:8080", remote.ContentServerURL)
	assert.Equal(t, "#content", remote.ContentSelector)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EVERYWHERE_ADDR", ":9000")
	t.Setenv("EVERYWHERE_BASE_URL", "http://localhost:9000")
	t.Setenv("EVERYWHERE_LANGUAGES", "en-US, zh-CN ,zh-TW")
	t.Setenv("EVERYWHERE_CONTENT_DIR", "/srv/content")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, []string{"en-US", "zh-CN", "zh-TW"}, cfg.Languages)
	assert.Equal(t, "/srv/content", cfg.ContentDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "everywhere.sylinko.com" }},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://everywhere.sylinko.com" }},
		{"default not listed", func(c *Config) { c.DefaultLanguage = "fr-FR" }},
		{"no languages", func(c *Config) { c.Languages = nil }},
		{"invalid tag", func(c *Config) { c.Languages = append(c.Languages, "not a tag") }},
		{"no content", func(c *Config) { c.ContentDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
