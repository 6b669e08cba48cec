package search

import (
	"strings"
	"unicode"

	"github.com/sylinko/everywhere-web/service/vo"
)

// Tokenizer splits text into index terms.
type Tokenizer interface {
	Tokens(text string) []string
}

// WordTokenizer splits on anything that is not a letter or digit.
type WordTokenizer struct{}

func (WordTokenizer) Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CJKTokenizer segments runs of CJK characters into overlapping bigrams.
// Other runs are tokenized like WordTokenizer. With Unigrams set every CJK
// character is also emitted on its own, so single character queries match.
type CJKTokenizer struct {
	Unigrams bool
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func (t CJKTokenizer) Tokens(text string) []string {
	var (
		tokens []string
		word   []rune
		run    []rune
	)
	flushWord := func() {
		if len(word) > 0 {
			tokens = append(tokens, strings.ToLower(string(word)))
			word = word[:0]
		}
	}
	flushRun := func() {
		switch {
		case len(run) == 1:
			tokens = append(tokens, string(run))
		case len(run) > 1:
			for i := 0; i+1 < len(run); i++ {
				tokens = append(tokens, string(run[i:i+2]))
			}
			if t.Unigrams {
				for _, r := range run {
					tokens = append(tokens, string(r))
				}
			}
		}
		run = run[:0]
	}
	for _, r := range text {
		switch {
		case isCJK(r):
			flushWord()
			run = append(run, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushRun()
			word = append(word, r)
		default:
			flushWord()
			flushRun()
		}
	}
	flushWord()
	flushRun()
	return tokens
}

// languageProfile selects tokenization and matching per language.
type languageProfile struct {
	index Tokenizer
	query Tokenizer
	// prefix enables prefix matching of the last query term
	prefix bool
}

var defaultProfile = languageProfile{index: WordTokenizer{}, query: WordTokenizer{}, prefix: true}

// cjkProfile indexes bigrams and unigrams but queries with bigrams, so a
// multi character query still requires adjacent characters.
var cjkProfile = languageProfile{index: CJKTokenizer{Unigrams: true}, query: CJKTokenizer{}, prefix: false}

// profiles mirrors the locale map of the search endpoint: zh-CN gets the
// CJK segmenter and exact term matching.
var profiles = map[vo.Language]languageProfile{
	"zh-CN": cjkProfile,
	"zh-TW": cjkProfile,
	"ja-JP": cjkProfile,
	"ko-KR": cjkProfile,
}

func profileFor(lang vo.Language) languageProfile {
	if p, ok := profiles[lang]; ok {
		return p
	}
	return defaultProfile
}
