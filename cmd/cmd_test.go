package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sylinko/everywhere-web/service/vo"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func testConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeFile(t, filepath.Join(contentDir, "docs", "en-US", "index.md"), "---\ntitle: Introduction\n---\nWelcome.\n")
	writeFile(t, filepath.Join(contentDir, "docs", "zh-CN", "index.md"), "---\ntitle: 简介\n---\n欢迎。\n")
	writeFile(t, filepath.Join(contentDir, "policies", "en-US", "privacy.md"), "# Privacy Policy\n\nNothing leaves your machine.\n")

	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, "contentDir: "+contentDir+"\nbaseUrl: http://localhost:3000\n")

	previous := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = previous })
}

func TestNewApp(t *testing.T) {
	testConfig(t)
	a, err := newApp()
	require.NoError(t, err)

	doc, err := a.collections.Docs.GetPage(context.Background(), "zh-CN", vo.Slug{})
	require.NoError(t, err)
	assert.Equal(t, "简介", doc.Title)
	assert.Equal(t, "/zh-CN/docs", a.docURL(doc))

	doc, err = a.collections.Policies.GetPage(context.Background(), "en-US", vo.Slug{"privacy"})
	require.NoError(t, err)
	assert.Equal(t, "Privacy Policy", doc.Title)
}

func TestNewAppServes(t *testing.T) {
	testConfig(t)
	a, err := newApp()
	require.NoError(t, err)
	idx, err := a.buildSearch(context.Background())
	require.NoError(t, err)
	defer idx.Close()

	srv, err := a.newServer(idx)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/zh-CN/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "欢迎")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://localhost:3000/zh-CN/docs")
}

func TestNewAppInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "baseUrl: not-a-url\n")
	previous := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = previous })

	_, err := newApp()
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"serve", "sitemap", "export", "mcp"} {
		assert.True(t, names[name], name)
	}
}
