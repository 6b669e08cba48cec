package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/export"
	"github.com/sylinko/everywhere-web/render"
	"github.com/sylinko/everywhere-web/search"
	"github.com/sylinko/everywhere-web/service/vo"
	"github.com/sylinko/everywhere-web/sitemap"
	"go.uber.org/zap"
)

type languageLink struct {
	Language vo.Language
	Name     string
	URL      string
	Active   bool
}

// pageData is shared by all templates. T looks up chrome text leniently.
type pageData struct {
	Lang        vo.Language
	Title       string
	Description string
	Path        string
	Languages   []languageLink
	// Alternates feed the hreflang links. Documents list only the languages
	// they exist in.
	Alternates []languageLink
	Doc         *vo.Document
	Body        template.HTML
	MarkdownURL string
	EditURL     string
	Downloads   []Platform
	Status      int
	Message     string
	t           func(string) string
}

func (p pageData) T(key string) string {
	return p.t(key)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *Server) newPageData(lang vo.Language, path string) pageData {
	data := pageData{
		Lang: lang,
		Path: path,
		t:    s.dictionary.Func(lang),
	}
	for _, l := range s.registry.Languages() {
		data.Languages = append(data.Languages, languageLink{
			Language: l,
			Name:     s.dictionary.T(l, "displayName"),
			URL:      s.registry.LocalePath(l, path),
			Active:   l == lang,
		})
	}
	data.Alternates = data.Languages
	return data
}

// translated narrows links to the languages source has slug in.
func (s *Server) translated(r *http.Request, source content.Source, slug vo.Slug, links []languageLink) []languageLink {
	var present []languageLink
	for _, link := range links {
		if link.Active {
			present = append(present, link)
			continue
		}
		if _, err := source.GetPage(r.Context(), link.Language, slug); err != nil {
			if !errors.Is(err, content.ErrNotFound) {
				s.logger.Debug("skipping alternate", zap.String("lang", string(link.Language)), zap.Error(err))
			}
			continue
		}
		present = append(present, link)
	}
	return present
}

// language resolves the {lang} path value. Unsupported languages are
// answered with a 404 and ok=false.
func (s *Server) language(w http.ResponseWriter, r *http.Request) (vo.Language, bool) {
	lang := vo.Language(r.PathValue("lang"))
	if !s.registry.Supports(lang) {
		s.renderError(w, r, s.registry.Default(), content.ErrUnsupportedLanguage)
		return "", false
	}
	return lang, true
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError maps content errors to 404 and everything else to a generic
// 500 page. Internal details are only logged.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, lang vo.Language, err error) {
	status := http.StatusInternalServerError
	message := "errors.internal"
	if errors.Is(err, content.ErrNotFound) || errors.Is(err, content.ErrUnsupportedLanguage) {
		status = http.StatusNotFound
		message = "errors.notFound"
	} else {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	data := s.newPageData(lang, "")
	data.Status = status
	data.Message = data.T(message)
	data.Title = strconv.Itoa(status)
	s.render(w, status, "error.gohtml", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	lang := s.registry.Default()
	if lp, ok := s.registry.Split(r.URL.Path); ok {
		lang = lp.Language
	}
	s.renderError(w, r, lang, content.ErrNotFound)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	data := s.newPageData(lang, "")
	data.Title = data.T("site.title")
	data.Description = data.T("site.description")
	s.render(w, http.StatusOK, "home.gohtml", data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	data := s.newPageData(lang, "download")
	data.Title = data.T("download.title")
	data.Downloads = s.settings.Downloads
	s.render(w, http.StatusOK, "download.gohtml", data)
}

func (s *Server) renderDocument(w http.ResponseWriter, r *http.Request, lang vo.Language, source content.Source, slug vo.Slug, path string) {
	doc, err := source.GetPage(r.Context(), lang, slug)
	if err != nil {
		s.renderError(w, r, lang, err)
		return
	}
	data := s.newPageData(lang, path)
	data.Alternates = s.translated(r, source, slug, data.Languages)
	data.Doc = doc
	data.Title = doc.Title
	data.Description = doc.Description
	data.Body = template.HTML(render.HTML(doc))
	if doc.Collection == vo.CollectionDocs {
		markdownPath := "llms.mdx"
		if key := slug.Key(); key != "" {
			markdownPath += "/" + key
		}
		data.MarkdownURL = s.registry.LocalePath(lang, markdownPath)
		if s.settings.EditURL != "" {
			data.EditURL = s.settings.EditURL + "/" + doc.Path
		}
	}
	s.render(w, http.StatusOK, "doc.gohtml", data)
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	slug := vo.ParseSlug(r.PathValue("slug"))
	path := string(vo.CollectionDocs)
	if key := slug.Key(); key != "" {
		path += "/" + key
	}
	s.renderDocument(w, r, lang, s.collections.Docs, slug, path)
}

func (s *Server) handlePrivacy(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	s.renderDocument(w, r, lang, s.collections.Policies, vo.Slug{"privacy"}, "policies/privacy")
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	lang, ok := s.language(w, r)
	if !ok {
		return
	}
	slug := vo.ParseSlug(r.PathValue("slug"))
	if len(slug) == 0 {
		s.renderError(w, r, lang, content.ErrNotFound)
		return
	}
	s.renderDocument(w, r, lang, s.collections.Legal, slug, "legal/"+slug.Key())
}

func (s *Server) writeText(w http.ResponseWriter, r *http.Request, contentType, body string, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, content.ErrNotFound) || errors.Is(err, content.ErrUnsupportedLanguage) {
			status = http.StatusNotFound
		} else {
			s.logger.Error("export failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	lang := vo.Language(r.PathValue("lang"))
	markdown, err := export.Page(r.Context(), s.collections.Docs, lang, vo.ParseSlug(r.PathValue("slug")))
	s.writeText(w, r, export.MimeType, string(markdown), err)
}

func (s *Server) handleFullText(w http.ResponseWriter, r *http.Request) {
	lang := vo.Language(r.PathValue("lang"))
	markdown, err := export.Full(r.Context(), s.collections.Docs, lang)
	s.writeText(w, r, "text/plain; charset=utf-8", string(markdown), err)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := sitemap.Robots(s.settings.BaseURL)
	s.writeText(w, r, "text/plain; charset=utf-8", robots, err)
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.sitemap.Build(r.Context())
	if err != nil {
		s.logger.Error("failed to build sitemap", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := sitemap.WriteXML(&buf, entries); err != nil {
		s.logger.Error("failed to encode sitemap", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", sitemap.ContentTypeXML)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "search is disabled"})
		return
	}
	q := r.URL.Query()
	lang := vo.Language(q.Get("locale"))
	if lang == "" {
		lang = vo.Language(q.Get("lang"))
	}
	if lang == "" {
		lang = s.registry.Default()
	}
	limit := search.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	results, err := s.search.Search(r.Context(), q.Get("query"), lang, limit)
	switch {
	case errors.Is(err, content.ErrUnsupportedLanguage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported locale"})
	case err != nil:
		s.logger.Error("search failed", zap.String("query", q.Get("query")), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
	default:
		writeJSON(w, http.StatusOK, results)
	}
}
