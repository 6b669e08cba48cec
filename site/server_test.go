package site

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/search"
	"github.com/sylinko/everywhere-web/service/vo"
)

func testRegistry() *i18n.Registry {
	return i18n.MustRegistry("en-US", "en-US", "zh-CN")
}

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"docs/en-US/index.md":       {Data: []byte("---\ntitle: Introduction\ndescription: Start here\n---\nWelcome.\n")},
		"docs/en-US/faq.md":         {Data: []byte("---\ntitle: FAQ\nlastModified: 2025-04-02\n---\n## Why?\n\nBecause.\n")},
		"docs/zh-CN/faq.md":         {Data: []byte("---\ntitle: 常见问题\n---\n因为。\n")},
		"policies/en-US/privacy.md": {Data: []byte("---\ntitle: Privacy Policy\n---\nWe respect privacy.\n")},
		"legal/en-US/terms.md":      {Data: []byte("---\ntitle: Terms of Service\n---\nBe nice.\n")},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	registry := testRegistry()
	collections, err := content.NewLoader(testContent(), registry, nil).LoadCollections()
	require.NoError(t, err)
	return newTestServer(t, registry, collections, true)
}

func newTestServer(t *testing.T, registry *i18n.Registry, collections content.Collections, buildIndex bool) *Server {
	t.Helper()
	dictionary, err := i18n.DefaultDictionary(registry)
	require.NoError(t, err)

	idx, err := search.Open("", registry, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	if buildIndex {
		require.NoError(t, idx.Build(context.Background(), collections.Docs, func(doc *vo.Document) string {
			return DocPath(registry, doc)
		}))
	}

	srv, err := NewServer(Settings{
		BaseURL: "https://everywhere.sylinko.com/",
		Downloads: []Platform{
			{Key: "windows", Links: []DownloadLink{{Key: "installer", Name: "Installer", Note: ".msi", URL: "https://example.com/setup"}}},
			{Key: "macos", Links: []DownloadLink{{Key: "silicon", Name: "Apple Silicon", Note: ".pkg"}}},
		},
	}, registry, dictionary, collections, idx, nil)
	require.NoError(t, err)
	return srv
}

func do(srv http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRedirectTarget(t *testing.T) {
	registry := testRegistry()
	tests := []struct {
		name   string
		path   string
		query  string
		header string
		want   string
		ok     bool
	}{
		{"root", "/", "", "", "/en-US", true},
		{"empty", "", "", "", "/en-US", true},
		{"bare", "/download", "", "", "/en-US/download", true},
		{"negotiated", "/download", "", "zh-CN,en;q=0.5", "/zh-CN/download", true},
		{"query", "/download", "ref=x", "", "/en-US/download?ref=x", true},
		{"prefixed", "/en-US/download", "", "zh-CN", "", false},
		{"language root", "/zh-CN", "", "", "", false},
		{"unsupported segment", "/fr-FR/docs", "", "", "/en-US/fr-FR/docs", true},
		{"api", "/api/x", "", "zh-CN", "", false},
		{"api root", "/api", "", "", "", false},
		{"favicon", "/favicon.ico", "", "zh-CN", "", false},
		{"robots", "/robots.txt", "", "", "", false},
		{"sitemap", "/sitemap.xml", "", "", "", false},
		{"next static", "/_next/static/chunk", "", "", "", false},
		{"next image", "/_next/image", "url=x", "", "", false},
		{"og", "/og/docs/faq", "", "", "", false},
		{"asset", "/images/logo.PNG", "", "", "", false},
		{"font", "/fonts/inter.woff2", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RedirectTarget(registry, tt.path, tt.query, tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedirectIdempotent(t *testing.T) {
	registry := testRegistry()
	for _, p := range []string{"/", "/download", "/docs/faq", "/fr-FR"} {
		target, ok := RedirectTarget(registry, p, "", "")
		require.True(t, ok, p)
		_, again := RedirectTarget(registry, target, "", "")
		assert.False(t, again, target)
	}
}

func TestServerRedirects(t *testing.T) {
	srv := testServer(t)

	rec := do(srv, "/download?ref=x", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/en-US/download?ref=x", rec.Header().Get("Location"))
	assert.Equal(t, "Accept-Language", rec.Header().Get("Vary"))

	rec = do(srv, "/", map[string]string{"Accept-Language": "zh-TW,zh;q=0.9"})
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/zh-CN", rec.Header().Get("Location"))

	rec = do(srv, "/en-US/download", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, p := range []string{"/api/x", "/favicon.ico"} {
		rec = do(srv, p, map[string]string{"Accept-Language": "zh-CN"})
		assert.NotEqual(t, http.StatusTemporaryRedirect, rec.Code, p)
		assert.Empty(t, rec.Header().Get("Location"), p)
	}
}

func TestServerPages(t *testing.T) {
	srv := testServer(t)

	rec := do(srv, "/en-US", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Every moment, Every place.")
	assert.Contains(t, rec.Body.String(), `hreflang="zh-CN"`)

	rec = do(srv, "/zh-CN/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "随时随地")

	rec = do(srv, "/zh-CN/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="https://example.com/setup"`)
	assert.Contains(t, body, "即将推出")
	// missing zh-CN chrome text falls back to en-US
	assert.Contains(t, body, "Everywhere")

	rec = do(srv, "/en-US/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Introduction")
	assert.Contains(t, rec.Body.String(), `href="/en-US/llms.mdx"`)

	rec = do(srv, "/en-US/docs/faq", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<h2 id="why">Why?</h2>`)
	assert.Contains(t, rec.Body.String(), "2025-04-02")
	assert.Contains(t, rec.Body.String(), `href="/en-US/llms.mdx/faq"`)

	rec = do(srv, "/en-US/policies/privacy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "We respect privacy.")

	rec = do(srv, "/en-US/legal/terms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Be nice.")
}

func TestServerDocAlternates(t *testing.T) {
	srv := testServer(t)

	// faq exists in both languages
	rec := do(srv, "/en-US/docs/faq", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<link rel="alternate" hreflang="zh-CN" href="/zh-CN/docs/faq">`)
	assert.Contains(t, rec.Body.String(), `<link rel="alternate" hreflang="en-US" href="/en-US/docs/faq">`)

	// the docs index has no zh-CN translation
	rec = do(srv, "/en-US/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<link rel="alternate" hreflang="en-US" href="/en-US/docs">`)
	assert.NotContains(t, rec.Body.String(), `hreflang="zh-CN"`)

	rec = do(srv, "/en-US/policies/privacy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `hreflang="zh-CN"`)
}

func TestServerNotFound(t *testing.T) {
	srv := testServer(t)

	// no zh-CN translation: strict lookup, no fallback to the en-US body
	rec := do(srv, "/zh-CN/docs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Welcome.")
	assert.Contains(t, rec.Body.String(), "找不到此页面")

	rec = do(srv, "/zh-CN/policies/privacy", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, "/en-US/docs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, "/en-US/legal", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, "/en-US/unknown/page", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerExports(t *testing.T) {
	srv := testServer(t)

	rec := do(srv, "/en-US/llms.mdx/faq", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# FAQ\n\n## Why?\n\nBecause.\n", rec.Body.String())

	rec = do(srv, "/en-US/llms.mdx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Introduction")

	rec = do(srv, "/zh-CN/llms.mdx/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(srv, "/en-US/llms-full.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# FAQ\n\n## Why?\n\nBecause.\n\n# Introduction\n\nStart here\n\nWelcome.", rec.Body.String())
}

func TestServerSitemapAndRobots(t *testing.T) {
	srv := testServer(t)

	rec := do(srv, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://everywhere.sylinko.com/en-US/docs/faq</loc>")
	assert.Contains(t, body, `hreflang="zh-CN" href="https://everywhere.sylinko.com/zh-CN/docs/faq"`)
	assert.NotContains(t, body, "https://everywhere.sylinko.com/zh-CN/docs</loc>")

	rec = do(srv, "/robots.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /api/")
	assert.Contains(t, rec.Body.String(), "Sitemap: https://everywhere.sylinko.com/sitemap.xml")
}

func TestServerSearch(t *testing.T) {
	srv := testServer(t)

	rec := do(srv, "/api/search?query=because", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "/en-US/docs/faq", results[0].URL)

	rec = do(srv, "/api/search?query=%E5%9B%A0%E4%B8%BA&locale=zh-CN", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "/zh-CN/docs/faq", results[0].URL)

	rec = do(srv, "/api/search?query=x&locale=fr-FR", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type brokenSource struct{}

func (brokenSource) GetPage(context.Context, vo.Language, vo.Slug) (*vo.Document, error) {
	return nil, errors.Join(content.ErrUpstream, errors.New("dial tcp 10.0.0.7:8080: secret"))
}

func (brokenSource) GetPages(context.Context, vo.Language) ([]*vo.Document, error) {
	return nil, errors.Join(content.ErrUpstream, errors.New("dial tcp 10.0.0.7:8080: secret"))
}

func TestServerUpstreamFailure(t *testing.T) {
	registry := testRegistry()
	srv := newTestServer(t, registry, content.Collections{
		Docs:     brokenSource{},
		Policies: brokenSource{},
		Legal:    brokenSource{},
	}, false)

	rec := do(srv, "/en-US/docs/faq", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "Something went wrong")

	rec = do(srv, "/en-US/llms-full.txt", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = do(srv, "/sitemap.xml", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
