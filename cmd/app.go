package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/sylinko/everywhere-web/config"
	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/search"
	"github.com/sylinko/everywhere-web/service/vo"
	"github.com/sylinko/everywhere-web/site"
	"go.uber.org/zap"
)

// app is everything the commands share once configuration is loaded.
type app struct {
	cfg         config.Config
	logger      *zap.Logger
	registry    *i18n.Registry
	dictionary  *i18n.Dictionary
	collections content.Collections
}

func newApp() (*app, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	dictionary, err := i18n.DefaultDictionary(registry)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		dictionary: dictionary,
	}
	if a.collections, err = a.loadCollections(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) loadCollections() (content.Collections, error) {
	if !a.cfg.Remote() {
		a.logger.Info("loading content", zap.String("dir", a.cfg.ContentDir))
		return content.NewLoader(os.DirFS(a.cfg.ContentDir), a.registry, a.logger).LoadCollections()
	}
	a.logger.Info("using content server", zap.String("url", a.cfg.ContentServer.URL))
	httpClient := &http.Client{Timeout: 10 * time.Second}
	remote := func(collection vo.Collection) content.Source {
		return content.NewRemoteSource(a.cfg.RemoteSettings(collection), httpClient, a.registry, collection, a.logger)
	}
	return content.Collections{
		Docs:     remote(vo.CollectionDocs),
		Policies: remote(vo.CollectionPolicies),
		Legal:    remote(vo.CollectionLegal),
	}, nil
}

func (a *app) docURL(doc *vo.Document) string {
	return site.DocPath(a.registry, doc)
}

func (a *app) buildSearch(ctx context.Context) (*search.Index, error) {
	idx, err := search.Open(a.cfg.SearchDSN, a.registry, a.logger)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(ctx, a.collections.Docs, a.docURL); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

func (a *app) newServer(searchService search.Service, opts ...site.Option) (*site.Server, error) {
	return site.NewServer(a.cfg.Site(), a.registry, a.dictionary, a.collections, searchService, a.logger, opts...)
}
