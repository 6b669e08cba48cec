// Package render turns document bodies into HTML and plain text.
package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
	"github.com/sylinko/everywhere-web/service/vo"
)

const markdownExtensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs | blackfriday.Footnotes

// HTML renders the body of doc. HTML bodies are returned as is.
func HTML(doc *vo.Document) string {
	if doc.BodyFormat == vo.BodyFormatHTML {
		return doc.Body
	}
	return string(blackfriday.Run([]byte(doc.Body), blackfriday.WithExtensions(markdownExtensions)))
}

// Text returns the visible text of the rendered body with whitespace
// collapsed.
func Text(doc *vo.Document) (string, error) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(HTML(doc)))
	if err != nil {
		return "", fmt.Errorf("failed to parse body of %s: %w", doc.Path, err)
	}
	page.Find("script,style,head").Remove()
	return strings.Join(strings.Fields(page.Text()), " "), nil
}
