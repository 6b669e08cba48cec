// Package content resolves localized documents by language and slug.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/service/vo"
)

var (
	ErrNotFound            = errors.New("document not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrUpstream            = errors.New("content source failure")
)

// Source is a strict per-language document lookup. It never falls back to
// another language's document.
type Source interface {
	GetPage(ctx context.Context, lang vo.Language, slug vo.Slug) (*vo.Document, error)
	GetPages(ctx context.Context, lang vo.Language) ([]*vo.Document, error)
}

// Collections groups the sources the site serves.
type Collections struct {
	Docs     Source
	Policies Source
	Legal    Source
}

// Index is an immutable in-memory Source keyed by (language, slug).
type Index struct {
	registry   *i18n.Registry
	collection vo.Collection
	pages      map[vo.Language]map[string]*vo.Document
	order      map[vo.Language][]*vo.Document
}

var _ Source = (*Index)(nil)

// NewIndex builds an index from docs in their traversal order. Documents in
// unsupported languages and duplicate (language, slug) pairs are rejected.
func NewIndex(registry *i18n.Registry, collection vo.Collection, docs []*vo.Document) (*Index, error) {
	idx := &Index{
		registry:   registry,
		collection: collection,
		pages:      map[vo.Language]map[string]*vo.Document{},
		order:      map[vo.Language][]*vo.Document{},
	}
	for _, l := range registry.Languages() {
		idx.pages[l] = map[string]*vo.Document{}
	}
	for _, doc := range docs {
		byKey, ok := idx.pages[doc.Language]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnsupportedLanguage, doc.Language, doc.Path)
		}
		key := doc.Slug.Key()
		if prev, ok := byKey[key]; ok {
			return nil, fmt.Errorf("duplicate %s page %q for %s: %s and %s", collection, key, doc.Language, prev.Path, doc.Path)
		}
		stored := doc.Clone()
		stored.Collection = collection
		byKey[key] = stored
		idx.order[doc.Language] = append(idx.order[doc.Language], stored)
	}
	return idx, nil
}

func (idx *Index) GetPage(ctx context.Context, lang vo.Language, slug vo.Slug) (*vo.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byKey, ok := idx.pages[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	doc, ok := byKey[slug.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrNotFound, idx.collection, lang, slug.Key())
	}
	return doc.Clone(), nil
}

func (idx *Index) GetPages(ctx context.Context, lang vo.Language) ([]*vo.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := idx.pages[lang]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	docs := make([]*vo.Document, len(idx.order[lang]))
	for i, doc := range idx.order[lang] {
		docs[i] = doc.Clone()
	}
	return docs, nil
}

// Len returns the number of documents across all languages.
func (idx *Index) Len() int {
	n := 0
	for _, docs := range idx.order {
		n += len(docs)
	}
	return n
}
