package i18n

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sylinko/everywhere-web/service/vo"
)

type weightedTag struct {
	tag     string
	quality float64
}

// parseAcceptLanguage splits a header into tags ordered by descending
// quality. Ties keep header order. Missing or broken weights count as 1.0.
func parseAcceptLanguage(header string) []weightedTag {
	var tags []weightedTag
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		tag := strings.TrimSpace(fields[0])
		if tag == "" || tag == "*" {
			continue
		}
		quality := 1.0
		for _, param := range fields[1:] {
			key, value, found := strings.Cut(strings.TrimSpace(param), "=")
			if !found || strings.TrimSpace(key) != "q" {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				quality = q
			}
		}
		tags = append(tags, weightedTag{tag: tag, quality: quality})
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].quality > tags[j].quality
	})
	return tags
}

func primarySubtag(tag string) string {
	primary, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(primary)
}

// Negotiate picks the best supported language for an accept-language header.
// It never fails: anything unmatched yields the default language.
func (r *Registry) Negotiate(header string) vo.Language {
	if strings.TrimSpace(header) == "" {
		return r.def
	}
	for _, candidate := range parseAcceptLanguage(header) {
		for _, l := range r.languages {
			if strings.EqualFold(string(l), candidate.tag) {
				return l
			}
		}
		base := primarySubtag(candidate.tag)
		var (
			match   vo.Language
			matches int
		)
		for _, l := range r.languages {
			if strings.HasPrefix(primarySubtag(string(l)), base) {
				match = l
				matches++
			}
		}
		if matches == 1 {
			return match
		}
	}
	return r.def
}
