package content

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/service/vo"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

var frontMatterDelimiter = []byte("---")

var lastModifiedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type frontMatter struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	LastModified any    `yaml:"lastModified"`
	Full         bool   `yaml:"full"`
}

// Loader builds indexes from a content tree laid out as
// <collection>/<lang>/<slug...>.{md,mdx,html}.
type Loader struct {
	fsys     fs.FS
	registry *i18n.Registry
	logger   *zap.Logger
}

func NewLoader(fsys fs.FS, registry *i18n.Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fsys:     fsys,
		registry: registry,
		logger:   logger,
	}
}

// LoadCollections loads the docs, policies and legal collections.
func (l *Loader) LoadCollections() (Collections, error) {
	var collections Collections
	targets := []struct {
		collection vo.Collection
		source     *Source
	}{
		{vo.CollectionDocs, &collections.Docs},
		{vo.CollectionPolicies, &collections.Policies},
		{vo.CollectionLegal, &collections.Legal},
	}
	for _, target := range targets {
		idx, err := l.Load(target.collection)
		if err != nil {
			return Collections{}, err
		}
		*target.source = idx
	}
	return collections, nil
}

// Load walks one collection for every supported language. A missing
// language directory means that language has no translations.
func (l *Loader) Load(collection vo.Collection) (*Index, error) {
	var docs []*vo.Document
	for _, lang := range l.registry.Languages() {
		root := path.Join(string(collection), string(lang))
		err := fs.WalkDir(l.fsys, root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			format, ok := bodyFormat(p)
			if !ok {
				return nil
			}
			raw, err := fs.ReadFile(l.fsys, p)
			if err != nil {
				return err
			}
			doc, err := parseDocument(raw, format)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", p, err)
			}
			doc.Language = lang
			doc.Collection = collection
			doc.Path = p
			doc.Slug = slugFromPath(strings.TrimPrefix(p, root+"/"))
			docs = append(docs, doc)
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("no content for language", zap.String("collection", string(collection)), zap.String("language", string(lang)))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", root, err)
		}
	}
	idx, err := NewIndex(l.registry, collection, docs)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded content", zap.String("collection", string(collection)), zap.Int("documents", idx.Len()))
	return idx, nil
}

func bodyFormat(p string) (vo.BodyFormat, bool) {
	switch path.Ext(p) {
	case ".md", ".mdx":
		return vo.BodyFormatMarkdown, true
	case ".html", ".htm":
		return vo.BodyFormatHTML, true
	}
	return "", false
}

// slugFromPath maps "api/foo.md" to [api foo] and "api/index.md" to [api].
func slugFromPath(rel string) vo.Slug {
	slug := vo.ParseSlug(strings.TrimSuffix(rel, path.Ext(rel)))
	if len(slug) > 0 && slug[len(slug)-1] == "index" {
		slug = slug[:len(slug)-1]
	}
	return slug
}

func parseDocument(raw []byte, format vo.BodyFormat) (*vo.Document, error) {
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}
	doc := &vo.Document{
		ContentSummary: vo.ContentSummary{
			Title:       meta.Title,
			Description: meta.Description,
		},
		Body:       strings.TrimSpace(string(body)),
		BodyFormat: format,
		Full:       meta.Full,
	}
	switch v := meta.LastModified.(type) {
	case time.Time:
		lm := v.UTC()
		doc.LastModified = &lm
	case string:
		lm, err := parseLastModified(v)
		if err != nil {
			return nil, err
		}
		doc.LastModified = &lm
	case nil:
	default:
		return nil, fmt.Errorf("invalid lastModified %v", v)
	}

	switch format {
	case vo.BodyFormatHTML:
		if doc.Title == "" || doc.Description == "" {
			node, err := html.Parse(bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("failed to parse HTML: %w", err)
			}
			if doc.Title == "" {
				doc.Title = extractTitle(node)
			}
			if doc.Description == "" {
				doc.Description = extractMetaDescription(node)
			}
		}
	case vo.BodyFormatMarkdown:
		if doc.Title == "" {
			doc.Title = firstHeading(doc.Body)
		}
	}
	return doc, nil
}

func splitFrontMatter(raw []byte) (frontMatter, []byte, error) {
	var meta frontMatter
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(raw, frontMatterDelimiter) {
		return meta, raw, nil
	}
	rest := raw[len(frontMatterDelimiter):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelimiter...))
	if end < 0 {
		return meta, nil, errors.New("unterminated front matter")
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return meta, nil, fmt.Errorf("invalid front matter: %w", err)
	}
	body := rest[end+1+len(frontMatterDelimiter):]
	return meta, body, nil
}

func parseLastModified(value string) (time.Time, error) {
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid lastModified %q", value)
}

func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
