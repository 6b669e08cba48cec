// Package sitemap derives the site's URL inventory, with cross-language
// alternates, from the docs content graph.
package sitemap

import (
	"context"
	"strings"
	"time"

	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/service/vo"
	"golang.org/x/sync/errgroup"
)

const (
	rootPriority = 1.0
	apiSegment   = "api"
	docsSegment  = "docs"
)

// Builder walks the docs source once per supported language.
type Builder struct {
	registry *i18n.Registry
	docs     content.Source
	baseURL  string
}

func NewBuilder(registry *i18n.Registry, docs content.Source, baseURL string) *Builder {
	return &Builder{
		registry: registry,
		docs:     docs,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

type localizedPage struct {
	lang vo.Language
	doc  *vo.Document
}

// Priority decreases with slug depth: 0.9, 0.8, then 0.7 from depth three on.
// Index pages (depth 0) rank like depth one.
func Priority(depth int) float64 {
	switch {
	case depth <= 1:
		return 0.9
	case depth == 2:
		return 0.8
	default:
		return 0.7
	}
}

// ChangeFrequency is monthly for generated API reference pages and weekly
// for everything else.
func ChangeFrequency(slug vo.Slug) vo.ChangeFrequency {
	if len(slug) > 0 && slug[0] == apiSegment {
		return vo.ChangeFrequencyMonthly
	}
	return vo.ChangeFrequencyWeekly
}

func docsPath(slug vo.Slug) string {
	if key := slug.Key(); key != "" {
		return docsSegment + "/" + key
	}
	return docsSegment
}

func (b *Builder) url(lang vo.Language, path string) string {
	return b.baseURL + b.registry.LocalePath(lang, path)
}

// alternates maps every given language plus x-default to the localized URL.
// x-default is the registry default when present, else the first language.
func (b *Builder) alternates(langs []vo.Language, path string) map[string]string {
	alternates := make(map[string]string, len(langs)+1)
	for _, lang := range langs {
		alternates[string(lang)] = b.url(lang, path)
	}
	if len(langs) == 0 {
		return alternates
	}
	def := langs[0]
	for _, lang := range langs {
		if lang == b.registry.Default() {
			def = lang
			break
		}
	}
	alternates[vo.XDefault] = b.url(def, path)
	return alternates
}

// listAll fetches every language's docs concurrently and waits for all.
func (b *Builder) listAll(ctx context.Context) ([][]*vo.Document, error) {
	languages := b.registry.Languages()
	pages := make([][]*vo.Document, len(languages))
	g, ctx := errgroup.WithContext(ctx)
	for i, lang := range languages {
		g.Go(func() error {
			docs, err := b.docs.GetPages(ctx, lang)
			if err != nil {
				return err
			}
			pages[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// Build returns one root entry per language followed by one entry per
// (language, doc) pair, grouped by slug in first-seen order. A slug listed
// twice for a language keeps its first document.
func (b *Builder) Build(ctx context.Context) ([]vo.SitemapEntry, error) {
	languages := b.registry.Languages()
	pages, err := b.listAll(ctx)
	if err != nil {
		return nil, err
	}

	latest := map[vo.Language]time.Time{}
	var order []string
	groups := map[string][]localizedPage{}
	for i, lang := range languages {
		seen := map[string]bool{}
		for _, doc := range pages[i] {
			key := doc.Slug.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], localizedPage{lang: lang, doc: doc})
			if doc.LastModified != nil && doc.LastModified.After(latest[lang]) {
				latest[lang] = *doc.LastModified
			}
		}
	}

	entries := make([]vo.SitemapEntry, 0, len(languages))
	for _, lang := range languages {
		entry := vo.SitemapEntry{
			URL:             b.url(lang, ""),
			ChangeFrequency: vo.ChangeFrequencyDaily,
			Priority:        rootPriority,
			Alternates:      b.alternates(languages, ""),
		}
		if lm, ok := latest[lang]; ok {
			entry.LastModified = &lm
		}
		entries = append(entries, entry)
	}

	for _, key := range order {
		group := groups[key]
		present := make([]vo.Language, len(group))
		for i, p := range group {
			present[i] = p.lang
		}
		slug := group[0].doc.Slug
		path := docsPath(slug)
		for _, p := range group {
			entry := vo.SitemapEntry{
				URL:             b.url(p.lang, path),
				ChangeFrequency: ChangeFrequency(slug),
				Priority:        Priority(slug.Depth()),
				Alternates:      b.alternates(present, path),
			}
			if p.doc.LastModified != nil {
				lm := *p.doc.LastModified
				entry.LastModified = &lm
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
