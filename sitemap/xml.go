package sitemap

import (
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/sylinko/everywhere-web/service/vo"
)

const (
	ContentTypeXML = "application/xml; charset=utf-8"

	sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNamespace   = "http://www.w3.org/1999/xhtml"
)

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string         `xml:"loc"`
	Links      []xmlAlternate `xml:"xhtml:link"`
	LastMod    string         `xml:"lastmod,omitempty"`
	ChangeFreq string         `xml:"changefreq,omitempty"`
	Priority   string         `xml:"priority,omitempty"`
}

type xmlAlternate struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// WriteXML encodes entries as a sitemap with xhtml:link alternates. Links
// are sorted by hreflang so output is stable.
func WriteXML(w io.Writer, entries []vo.SitemapEntry) error {
	set := xmlURLSet{
		XMLNS: sitemapNamespace,
		XHTML: xhtmlNamespace,
		URLs:  make([]xmlURL, 0, len(entries)),
	}
	for _, entry := range entries {
		u := xmlURL{
			Loc:        entry.URL,
			ChangeFreq: string(entry.ChangeFrequency),
			Priority:   strconv.FormatFloat(entry.Priority, 'f', 1, 64),
		}
		if entry.LastModified != nil {
			u.LastMod = entry.LastModified.UTC().Format(time.RFC3339)
		}
		hreflangs := make([]string, 0, len(entry.Alternates))
		for hreflang := range entry.Alternates {
			hreflangs = append(hreflangs, hreflang)
		}
		sort.Strings(hreflangs)
		for _, hreflang := range hreflangs {
			u.Links = append(u.Links, xmlAlternate{
				Rel:      "alternate",
				Hreflang: hreflang,
				Href:     entry.Alternates[hreflang],
			})
		}
		set.URLs = append(set.URLs, u)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	return enc.Flush()
}
