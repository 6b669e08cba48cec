// Package search is a per-language full-text index over the docs, backed by
// SQLite FTS5.
package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/render"
	"github.com/sylinko/everywhere-web/service/vo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "modernc.org/sqlite" // SQLite driver
)

const DefaultLimit = 20

const schema = `
DROP TABLE IF EXISTS pages;
CREATE VIRTUAL TABLE pages USING fts5(
	lang UNINDEXED,
	url UNINDEXED,
	title UNINDEXED,
	description UNINDEXED,
	title_terms,
	body_terms,
	tokenize = 'unicode61'
);`

// Result follows the shape of the docs search API.
type Result struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

type Service interface {
	Search(ctx context.Context, query string, lang vo.Language, limit int) ([]Result, error)
}

// Index is a read-only search index once built.
type Index struct {
	db       *sql.DB
	registry *i18n.Registry
	logger   *zap.Logger
}

var _ Service = (*Index)(nil)

// Open creates the FTS schema at dsn. An empty dsn uses a private
// in-memory database.
func Open(dsn string, registry *i18n.Registry, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening search database: %w", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search schema: %w", err)
	}
	return &Index{db: db, registry: registry, logger: logger}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

type indexedPage struct {
	lang vo.Language
	doc  *vo.Document
	text string
}

// Build indexes every document of source for all supported languages. url
// maps a document to its public path.
func (idx *Index) Build(ctx context.Context, source content.Source, url func(*vo.Document) string) error {
	languages := idx.registry.Languages()
	collected := make([][]indexedPage, len(languages))
	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range languages {
		g.Go(func() error {
			docs, err := source.GetPages(gctx, lang)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				text, err := render.Text(doc)
				if err != nil {
					return err
				}
				collected[i] = append(collected[i], indexedPage{lang: lang, doc: doc, text: text})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("collecting search documents: %w", err)
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages"); err != nil {
		return fmt.Errorf("clearing search index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pages (lang, url, title, description, title_terms, body_terms) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, pages := range collected {
		for _, p := range pages {
			tokenizer := profileFor(p.lang).index
			_, err := stmt.ExecContext(ctx,
				string(p.lang),
				url(p.doc),
				p.doc.Title,
				p.doc.Description,
				strings.Join(tokenizer.Tokens(p.doc.Title), " "),
				strings.Join(tokenizer.Tokens(p.doc.Description+" "+p.text), " "),
			)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", p.doc.Path, err)
			}
			count++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing search index: %w", err)
	}
	idx.logger.Info("built search index", zap.Int("documents", count))
	return nil
}

// matchExpression turns query terms into an FTS5 expression where every
// term must match. Terms are quoted so user input cannot inject operators.
func matchExpression(terms []string, prefix bool) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
		if prefix && i == len(terms)-1 {
			quoted[i] += "*"
		}
	}
	return strings.Join(quoted, " ")
}

// Search ranks documents of lang matching all query terms, titles weighted
// above body text.
func (idx *Index) Search(ctx context.Context, query string, lang vo.Language, limit int) ([]Result, error) {
	if !idx.registry.Supports(lang) {
		return nil, fmt.Errorf("%w: %q", content.ErrUnsupportedLanguage, lang)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	profile := profileFor(lang)
	terms := profile.query.Tokens(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT url, title, description
		FROM pages
		WHERE pages MATCH ? AND lang = ?
		ORDER BY bm25(pages, 0.0, 0.0, 0.0, 0.0, 10.0, 1.0), url
		LIMIT ?`,
		matchExpression(terms, profile.prefix), string(lang), limit)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.URL, &r.Content, &r.Description); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.ID = r.URL
		r.Type = "page"
		results = append(results, r)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return results, nil
}
