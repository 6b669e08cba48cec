package sitemap

import (
	"fmt"
	"net/url"
	"strings"
)

// Robots renders the crawler policy: everything is allowed except the API
// and the Open Graph image renderer.
func Robots(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	origin := strings.TrimRight(baseURL, "/")
	if u.Scheme != "" && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	var sb strings.Builder
	sb.WriteString("User-Agent: *\n")
	sb.WriteString("Allow: /\n")
	sb.WriteString("Disallow: /api/\n")
	sb.WriteString("Disallow: /og/\n")
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Host: %s\n", u.Hostname())
	fmt.Fprintf(&sb, "Sitemap: %s/sitemap.xml\n", origin)
	return sb.String(), nil
}
