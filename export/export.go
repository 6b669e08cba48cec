// Package export flattens documents into markdown for llms.mdx and
// llms-full.txt style endpoints.
package export

import (
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/sylinko/everywhere-web/content"
	"github.com/sylinko/everywhere-web/service/vo"
)

const MimeType = "text/markdown; charset=utf-8"

// Separator joins documents in a bulk export.
const Separator = "\n\n"

// Markdown renders a document as flat markdown: a title heading, the
// description and the body.
func Markdown(doc *vo.Document) (vo.Markdown, error) {
	body, err := flatten(doc)
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", doc.Path, err)
	}
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(doc.Title)
	sb.WriteString("\n\n")
	if doc.Description != "" {
		sb.WriteString(doc.Description)
		sb.WriteString("\n\n")
	}
	sb.WriteString(body)
	return vo.Markdown(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}

func flatten(doc *vo.Document) (string, error) {
	switch doc.BodyFormat {
	case vo.BodyFormatHTML:
		markdown, err := htmltomarkdown.ConvertString(doc.Body)
		if err != nil {
			return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
		}
		return strings.TrimSpace(markdown), nil
	default:
		return stripModuleStatements(doc.Body), nil
	}
}

// stripModuleStatements drops top level MDX import/export lines, leaving
// fenced code untouched.
func stripModuleStatements(body string) string {
	lines := strings.Split(body, "\n")
	out := lines[:0]
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && (strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "export ")) {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Page resolves and exports a single document.
func Page(ctx context.Context, source content.Source, lang vo.Language, slug vo.Slug) (vo.Markdown, error) {
	doc, err := source.GetPage(ctx, lang, slug)
	if err != nil {
		return "", err
	}
	return Markdown(doc)
}

// Full exports every document of a language, joined by Separator.
func Full(ctx context.Context, source content.Source, lang vo.Language) (vo.Markdown, error) {
	docs, err := source.GetPages(ctx, lang)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		markdown, err := Markdown(doc)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimRight(string(markdown), "\n"))
	}
	return vo.Markdown(strings.Join(parts, Separator)), nil
}
