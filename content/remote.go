package content

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foomo/contentserver/content"
	"github.com/foomo/contentserver/requests"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/service/vo"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	contentserverclient "github.com/foomo/contentserver/client"
)

const (
	mimeTypeHTML     = "text/html"
	mimeTypeMarkdown = "text/markdown"
)

// contentServer is the subset of the content server client the remote
// source needs.
type contentServer interface {
	GetContent(ctx context.Context, cont *requests.Content) (*content.SiteContent, error)
	GetNodes(ctx context.Context, env *requests.Env, nodes map[string]*requests.Node) (map[string]*content.Node, error)
}

type RemoteSettings struct {
	ContentServerURL string
	// RootNodeID is the content server node whose subtree holds the collection.
	RootNodeID string
	MimeTypes  []string
	Groups     []string
	// ContentSelector narrows HTML bodies that are full pages, e.g. "#content".
	ContentSelector string
}

// RemoteSource reads a collection from a foomo content server. Content
// server dimensions are language tags.
type RemoteSource struct {
	client     contentServer
	registry   *i18n.Registry
	collection vo.Collection
	settings   RemoteSettings
	logger     *zap.Logger
}

var _ Source = (*RemoteSource)(nil)

func NewRemoteSource(
	settings RemoteSettings,
	httpClient *http.Client,
	registry *i18n.Registry,
	collection vo.Collection,
	logger *zap.Logger,
) *RemoteSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := contentserverclient.New(
		contentserverclient.NewHTTPTransport(
			settings.ContentServerURL,
			contentserverclient.HTTPTransportWithHTTPClient(httpClient),
		))
	return newRemoteSource(client, settings, registry, collection, logger)
}

func newRemoteSource(client contentServer, settings RemoteSettings, registry *i18n.Registry, collection vo.Collection, logger *zap.Logger) *RemoteSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(settings.MimeTypes) == 0 {
		settings.MimeTypes = []string{mimeTypeMarkdown, mimeTypeHTML}
	}
	return &RemoteSource{
		client:     client,
		registry:   registry,
		collection: collection,
		settings:   settings,
		logger:     logger,
	}
}

func (s *RemoteSource) env(lang vo.Language) *requests.Env {
	return &requests.Env{
		Dimensions: []string{string(lang)},
		Groups:     s.settings.Groups,
	}
}

func (s *RemoteSource) collectionPath(lang vo.Language) string {
	return s.registry.LocalePath(lang, string(s.collection))
}

func (s *RemoteSource) GetPage(ctx context.Context, lang vo.Language, slug vo.Slug) (*vo.Document, error) {
	if !s.registry.Supports(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	uri := s.collectionPath(lang)
	if key := slug.Key(); key != "" {
		uri += "/" + key
	}
	siteContent, err := s.client.GetContent(ctx, &requests.Content{
		URI:   uri,
		Env:   s.env(lang),
		Nodes: map[string]*requests.Node{},
	})
	if err != nil {
		s.logger.Warn("content server request failed", zap.String("uri", uri), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if int(siteContent.Status) == http.StatusNotFound || siteContent.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	// the content server resolves unknown URIs to the closest ancestor
	if siteContent.Item.URI != "" && siteContent.Item.URI != uri {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return s.document(lang, slug, siteContent.Item, siteContent.MimeType), nil
}

func (s *RemoteSource) GetPages(ctx context.Context, lang vo.Language) ([]*vo.Document, error) {
	if !s.registry.Supports(lang) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	nodes, err := s.client.GetNodes(ctx, s.env(lang), map[string]*requests.Node{
		s.settings.RootNodeID: {
			ID:        s.settings.RootNodeID,
			Dimension: string(lang),
			MimeTypes: s.settings.MimeTypes,
			Expand:    true,
		},
	})
	if err != nil {
		s.logger.Warn("content server request failed", zap.String("rootNodeID", s.settings.RootNodeID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	root, ok := nodes[s.settings.RootNodeID]
	if !ok || root == nil {
		return nil, fmt.Errorf("%w: root node %q missing", ErrUpstream, s.settings.RootNodeID)
	}

	prefix := s.collectionPath(lang)
	var docs []*vo.Document
	seen := map[string]bool{}
	var walk func(n *content.Node)
	walk = func(n *content.Node) {
		if n.Item != nil && n.Item.URI != "" && (n.Item.URI == prefix || strings.HasPrefix(n.Item.URI, prefix+"/")) {
			slug := vo.ParseSlug(strings.TrimPrefix(n.Item.URI, prefix))
			// URIs differing only in slashes map to the same slug; first wins
			if key := slug.Key(); seen[key] {
				s.logger.Debug("skipping duplicate page", zap.String("uri", n.Item.URI), zap.String("id", n.Item.ID))
			} else {
				seen[key] = true
				docs = append(docs, s.document(lang, slug, n.Item, n.Item.MimeType))
			}
		}
		for _, id := range n.Index {
			if child, ok := n.Nodes[id]; ok && child != nil {
				walk(child)
			}
		}
	}
	walk(root)
	return docs, nil
}

func (s *RemoteSource) document(lang vo.Language, slug vo.Slug, item *content.Item, mimeType string) *vo.Document {
	doc := &vo.Document{
		Collection: s.collection,
		Language:   lang,
		Slug:       slug,
		ContentSummary: vo.ContentSummary{
			Title:       dataString(item.Data, "title"),
			Description: dataString(item.Data, "description"),
		},
		Body:       dataString(item.Data, "body"),
		BodyFormat: vo.BodyFormatMarkdown,
		Path:       item.ID,
	}
	if doc.Title == "" {
		doc.Title = item.Name
	}
	if mimeType == mimeTypeHTML {
		doc.BodyFormat = vo.BodyFormatHTML
		s.narrowHTML(doc)
	}
	if full, ok := item.Data["full"].(bool); ok {
		doc.Full = full
	}
	if raw := dataString(item.Data, "lastModified"); raw != "" {
		if lm, err := parseLastModified(raw); err == nil {
			doc.LastModified = &lm
		} else {
			s.logger.Debug("ignoring invalid lastModified", zap.String("id", item.ID), zap.String("value", raw))
		}
	}
	return doc
}

// narrowHTML cuts a full page body down to its content element and fills a
// missing description from the page's meta tags.
func (s *RemoteSource) narrowHTML(doc *vo.Document) {
	if s.settings.ContentSelector == "" {
		return
	}
	root, err := html.Parse(strings.NewReader(doc.Body))
	if err != nil {
		return
	}
	if doc.Description == "" {
		doc.Description = extractMetaDescription(root)
	}
	if body, ok := selectContent(root, s.settings.ContentSelector); ok {
		doc.Body = body
	} else {
		s.logger.Debug("content selector did not match", zap.String("id", doc.Path), zap.String("selector", s.settings.ContentSelector))
	}
}

func dataString(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
