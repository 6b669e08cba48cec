package vo

import (
	"strings"
	"time"
)

type Markdown string

// Language is a supported UI/content language tag, e.g. "en-US".
type Language string

func (l Language) String() string {
	return string(l)
}

// Slug identifies a document independent of its language.
type Slug []string

// ParseSlug splits a slash separated path into a slug, dropping empty segments.
func ParseSlug(path string) Slug {
	slug := Slug{}
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			slug = append(slug, segment)
		}
	}
	return slug
}

// Key is the language independent lookup key of a slug.
func (s Slug) Key() string {
	return strings.Join(s, "/")
}

func (s Slug) Depth() int {
	return len(s)
}

type BodyFormat string

const (
	BodyFormatMarkdown BodyFormat = "markdown"
	BodyFormatHTML     BodyFormat = "html"
)

type Collection string

const (
	CollectionDocs     Collection = "docs"
	CollectionPolicies Collection = "policies"
	CollectionLegal    Collection = "legal"
)

type ContentSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DocumentSummary struct {
	URL            string   `json:"url"`
	Language       Language `json:"language"`
	ContentSummary `json:"contentSummary"`
}

// Document is one renderable page in one language.
type Document struct {
	Collection     Collection `json:"collection"`
	Language       Language   `json:"language"`
	Slug           Slug       `json:"slug"`
	ContentSummary `json:"contentSummary"`
	Body           string     `json:"body"`
	BodyFormat     BodyFormat `json:"bodyFormat"`
	LastModified   *time.Time `json:"lastModified,omitempty"`
	Full           bool       `json:"full,omitempty"`
	Path           string     `json:"path"` // source relative path
}

// Clone returns a copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Slug = append(Slug{}, d.Slug...)
	if d.LastModified != nil {
		lm := *d.LastModified
		c.LastModified = &lm
	}
	return &c
}

// LocalePath is a request path split into its language and the remainder.
type LocalePath struct {
	Language Language
	Path     string
}

type ChangeFrequency string

const (
	ChangeFrequencyDaily   ChangeFrequency = "daily"
	ChangeFrequencyWeekly  ChangeFrequency = "weekly"
	ChangeFrequencyMonthly ChangeFrequency = "monthly"
)

// XDefault is the synthetic alternates key pointing at the default language.
const XDefault = "x-default"

type SitemapEntry struct {
	URL             string            `json:"url"`
	LastModified    *time.Time        `json:"lastModified,omitempty"`
	ChangeFrequency ChangeFrequency   `json:"changeFrequency"`
	Priority        float64           `json:"priority"`
	Alternates      map[string]string `json:"alternates"`
}
