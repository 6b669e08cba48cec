// Package mcp exposes the localized docs to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/export"
	"github.com/sylinko/everywhere-web/i18n"
	"github.com/sylinko/everywhere-web/search"
	"github.com/sylinko/everywhere-web/service/vo"
)

const Version = "0.1.0"

type GetPageRequest struct {
	Lang string `json:"lang"` // BCP 47 tag, defaults to the site default
	Slug string `json:"slug"` // slash separated, empty for the docs root
}

type GetPageResponse struct {
	Document *vo.Document `json:"document"`
	URL      string       `json:"url"`
}

type ListPagesRequest struct {
	Lang string `json:"lang"`
}

type ListPagesResponse struct {
	Pages []vo.DocumentSummary `json:"pages"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Lang  string `json:"lang"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// Docs is what the tools need from the site.
type Docs struct {
	Registry *i18n.Registry
	Source   content.Source
	Search   search.Service
	// URL maps a document to its public path.
	URL func(*vo.Document) string
}

// language resolves the lang argument. Without one, calls that arrived over
// HTTP negotiate from the request's Accept-Language header.
func (d Docs) language(ctx context.Context, raw string) (vo.Language, error) {
	if raw == "" {
		if req, ok := HTTPRequestFromContext(ctx); ok {
			return d.Registry.Negotiate(req.Header.Get("Accept-Language")), nil
		}
		return d.Registry.Default(), nil
	}
	lang := vo.Language(raw)
	if !d.Registry.Supports(lang) {
		return "", fmt.Errorf("%w: %q", content.ErrUnsupportedLanguage, raw)
	}
	return lang, nil
}

// NewServer creates an MCP server with the getPage, listPages and
// exportMarkdown tools. search is only registered when a search service is
// configured.
func NewServer(docs Docs) *server.MCPServer {
	s := server.NewMCPServer(
		"Everywhere Docs MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	langOption := mcp.WithString("lang",
		mcp.Description("Language tag such as en-US or zh-CN. Defaults to the caller's Accept-Language, then "+string(docs.Registry.Default())),
	)

	s.AddTool(mcp.NewTool("getPage",
		mcp.WithDescription("Get a docs page in one language. Missing translations are reported, never substituted."),
		langOption,
		mcp.WithString("slug", mcp.Description("Page slug, e.g. 'getting-started/install'. Empty for the docs index.")),
	), mcp.NewTypedToolHandler(getPageHandler(docs)))

	s.AddTool(mcp.NewTool("listPages",
		mcp.WithDescription("List every docs page available in one language"),
		langOption,
	), mcp.NewTypedToolHandler(listPagesHandler(docs)))

	s.AddTool(mcp.NewTool("exportMarkdown",
		mcp.WithDescription("Export a docs page as flat markdown"),
		langOption,
		mcp.WithString("slug", mcp.Description("Page slug, empty for the docs index")),
	), mcp.NewTypedToolHandler(exportMarkdownHandler(docs)))

	if docs.Search != nil {
		s.AddTool(mcp.NewTool("search",
			mcp.WithDescription("Full-text search over the docs of one language"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
			langOption,
			mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
		), mcp.NewTypedToolHandler(searchHandler(docs)))
	}

	return s
}

func toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, content.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: page not found", action))
	case errors.Is(err, content.ErrUnsupportedLanguage):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s", action))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}

func getPageHandler(docs Docs) func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
		lang, err := docs.language(ctx, args.Lang)
		if err != nil {
			return toolError("get page", err), nil
		}
		doc, err := docs.Source.GetPage(ctx, lang, vo.ParseSlug(args.Slug))
		if err != nil {
			return toolError("get page", err), nil
		}
		return jsonResult(GetPageResponse{Document: doc, URL: docs.URL(doc)})
	}
}

func listPagesHandler(docs Docs) func(ctx context.Context, request mcp.CallToolRequest, args ListPagesRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ListPagesRequest) (*mcp.CallToolResult, error) {
		lang, err := docs.language(ctx, args.Lang)
		if err != nil {
			return toolError("list pages", err), nil
		}
		pages, err := docs.Source.GetPages(ctx, lang)
		if err != nil {
			return toolError("list pages", err), nil
		}
		response := ListPagesResponse{Pages: make([]vo.DocumentSummary, 0, len(pages))}
		for _, doc := range pages {
			response.Pages = append(response.Pages, vo.DocumentSummary{
				URL:            docs.URL(doc),
				Language:       doc.Language,
				ContentSummary: doc.ContentSummary,
			})
		}
		return jsonResult(response)
	}
}

func exportMarkdownHandler(docs Docs) func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
		lang, err := docs.language(ctx, args.Lang)
		if err != nil {
			return toolError("export markdown", err), nil
		}
		markdown, err := export.Page(ctx, docs.Source, lang, vo.ParseSlug(args.Slug))
		if err != nil {
			return toolError("export markdown", err), nil
		}
		return mcp.NewToolResultText(string(markdown)), nil
	}
}

func searchHandler(docs Docs) func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
		if args.Query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		lang, err := docs.language(ctx, args.Lang)
		if err != nil {
			return toolError("search", err), nil
		}
		results, err := docs.Search.Search(ctx, args.Query, lang, args.Limit)
		if err != nil {
			return toolError("search", err), nil
		}
		return jsonResult(SearchResponse{Results: results})
	}
}
