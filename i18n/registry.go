// Package i18n holds the locale registry, accept-language negotiation and
// the lenient UI dictionary.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sylinko/everywhere-web/service/vo"
	"golang.org/x/text/language"
)

var (
	ErrNoLanguages    = errors.New("no languages configured")
	ErrDefaultMissing = errors.New("default language is not a supported language")
)

// Registry is the static set of supported languages.
type Registry struct {
	languages []vo.Language
	def       vo.Language
}

// NewRegistry validates the language set. The set must be non-empty, contain
// def and only hold well formed BCP 47 tags.
func NewRegistry(def vo.Language, languages ...vo.Language) (*Registry, error) {
	if len(languages) == 0 {
		return nil, ErrNoLanguages
	}
	seen := make(map[vo.Language]bool, len(languages))
	r := &Registry{def: def}
	for _, l := range languages {
		if _, err := language.Parse(string(l)); err != nil {
			return nil, fmt.Errorf("invalid language tag %q: %w", l, err)
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		r.languages = append(r.languages, l)
	}
	if !seen[def] {
		return nil, fmt.Errorf("%w: %q", ErrDefaultMissing, def)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static configuration.
func MustRegistry(def vo.Language, languages ...vo.Language) *Registry {
	r, err := NewRegistry(def, languages...)
	if err != nil {
		panic(err)
	}
	return r
}

// Languages returns the supported languages in configuration order.
func (r *Registry) Languages() []vo.Language {
	return append([]vo.Language(nil), r.languages...)
}

func (r *Registry) Default() vo.Language {
	return r.def
}

func (r *Registry) Supports(l vo.Language) bool {
	for _, s := range r.languages {
		if s == l {
			return true
		}
	}
	return false
}

// LocalePath builds "/<lang>/<path>", or "/<lang>" for an empty path.
func (r *Registry) LocalePath(l vo.Language, path string) string {
	clean := strings.TrimPrefix(path, "/")
	if clean == "" {
		return "/" + string(l)
	}
	return "/" + string(l) + "/" + clean
}

// Split strips a supported language segment from a request path. ok is false
// for bare paths and paths whose first segment is not a supported language.
func (r *Registry) Split(path string) (lp vo.LocalePath, ok bool) {
	for _, l := range r.languages {
		prefix := "/" + string(l)
		switch {
		case path == prefix:
			return vo.LocalePath{Language: l, Path: "/"}, true
		case strings.HasPrefix(path, prefix+"/"):
			return vo.LocalePath{Language: l, Path: path[len(prefix):]}, true
		}
	}
	return vo.LocalePath{Path: path}, false
}
