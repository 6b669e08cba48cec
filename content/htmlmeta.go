package content

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// selectContent narrows a full HTML page to the inner markup of the element
// matching selector. Selectors are "#id", ".class" or a tag name.
func selectContent(doc *html.Node, selector string) (string, bool) {
	var n *html.Node
	switch {
	case strings.HasPrefix(selector, "#"):
		n = findNode(doc, func(n *html.Node) bool { return attr(n, "id") == selector[1:] })
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		n = findNode(doc, func(n *html.Node) bool {
			for _, c := range strings.Fields(attr(n, "class")) {
				if c == class {
					return true
				}
			}
			return false
		})
	default:
		n = findElement(doc, selector)
	}
	if n == nil {
		return "", false
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", false
		}
	}
	return strings.TrimSpace(buf.String()), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findNode(c, match); result != nil {
			return result
		}
	}
	return nil
}

// extractTitle returns the <title> text, or the first <h1> when there is none.
func extractTitle(doc *html.Node) string {
	if title := textOf(findElement(doc, "title")); title != "" {
		return title
	}
	return textOf(findElement(doc, "h1"))
}

// extractMetaDescription extracts the meta description from the HTML document
func extractMetaDescription(doc *html.Node) string {
	var description string
	var findMeta func(*html.Node)

	findMeta = func(n *html.Node) {
		if description != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if name == "description" && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findMeta(c)
		}
	}

	findMeta(doc)
	return description
}

func findElement(n *html.Node, tag string) *html.Node {
	return findNode(n, func(n *html.Node) bool { return n.Data == tag })
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
