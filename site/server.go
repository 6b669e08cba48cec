// Package site serves the localized marketing pages, docs, exports, sitemap
// and search API.
package site

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/search"
	"github.com/sylinko/everywhere-web/service/vo"
	"github.com/sylinko/everywhere-web/sitemap"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// DownloadLink is one distribution of one platform. An empty URL renders as
// "coming soon".
type DownloadLink struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
	Note string `yaml:"note" json:"note"`
	URL  string `yaml:"url" json:"url"`
}

type Platform struct {
	Key   string         `yaml:"key" json:"key"`
	Links []DownloadLink `yaml:"links" json:"links"`
}

type Settings struct {
	BaseURL   string
	Downloads []Platform
	// EditURL is the prefix of the "edit this page" link, e.g. a repository
	// blob URL. Empty disables the link.
	EditURL string
}

// Server wires handlers, templates and content together.
type Server struct {
	settings    Settings
	registry    *i18n.Registry
	dictionary  *i18n.Dictionary
	collections content.Collections
	sitemap     *sitemap.Builder
	search      search.Service
	templates   *template.Template
	logger      *zap.Logger
	mux         *http.ServeMux
	handler     http.Handler
}

type Option func(*Server)

// WithAPIHandler mounts an extra handler under /api/, e.g. the MCP endpoint.
func WithAPIHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mux.Handle(pattern, h)
	}
}

func NewServer(
	settings Settings,
	registry *i18n.Registry,
	dictionary *i18n.Dictionary,
	collections content.Collections,
	searchService search.Service,
	logger *zap.Logger,
	opts ...Option,
) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"date": formatDate,
	}).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	s := &Server{
		settings:    settings,
		registry:    registry,
		dictionary:  dictionary,
		collections: collections,
		sitemap:     sitemap.NewBuilder(registry, collections.Docs, settings.BaseURL),
		search:      searchService,
		templates:   tmpl,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /robots.txt", s.handleRobots)
	s.mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)

	s.mux.HandleFunc("GET /{lang}", s.handleHome)
	s.mux.HandleFunc("GET /{lang}/{$}", s.handleHome)
	s.mux.HandleFunc("GET /{lang}/download", s.handleDownload)
	s.mux.HandleFunc("GET /{lang}/docs", s.handleDoc)
	s.mux.HandleFunc("GET /{lang}/docs/{slug...}", s.handleDoc)
	s.mux.HandleFunc("GET /{lang}/policies/privacy", s.handlePrivacy)
	s.mux.HandleFunc("GET /{lang}/legal/{slug...}", s.handleLegal)
	s.mux.HandleFunc("GET /{lang}/llms.mdx", s.handleMarkdown)
	s.mux.HandleFunc("GET /{lang}/llms.mdx/{slug...}", s.handleMarkdown)
	s.mux.HandleFunc("GET /{lang}/llms-full.txt", s.handleFullText)
	s.mux.HandleFunc("/", s.handleNotFound)

	for _, opt := range opts {
		opt(s)
	}

	var h http.Handler = s.mux
	h = LocaleRedirect(registry, logger)(h)
	h = AccessLog(logger)(h)
	s.handler = h
	return s, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sitemap exposes the builder for offline generation.
func (s *Server) Sitemap() *sitemap.Builder {
	return s.sitemap
}

// DocURL is the public path of a docs page.
func (s *Server) DocURL(doc *vo.Document) string {
	return DocPath(s.registry, doc)
}

// DocPath is the public path of a docs page.
func DocPath(registry *i18n.Registry, doc *vo.Document) string {
	p := string(vo.CollectionDocs)
	if key := doc.Slug.Key(); key != "" {
		p += "/" + key
	}
	return registry.LocalePath(doc.Language, p)
}
