package lexicon

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Lexicon is an immutable set of normalized terms. The zero value is an
// empty lexicon that matches nothing.
type Lexicon struct {
	tag     language.Tag
	terms   map[string]struct{}
	words   map[string]struct{}
	phrases []string
}

// New builds a Lexicon from raw terms, normalizing each with the case rules of tag.
// Blank terms are dropped and duplicates collapse.
func New(tag language.Tag, terms ...string) *Lexicon {
	lex := &Lexicon{
		tag:   tag,
		terms: make(map[string]struct{}, len(terms)),
		words: make(map[string]struct{}, len(terms)),
	}
	for _, raw := range terms {
		lex.add(raw)
	}
	lex.sortPhrases()
	return lex
}

func (l *Lexicon) sortPhrases() {
	slices.Sort(l.phrases)
}

func (l *Lexicon) add(raw string) bool {
	term := Normalize(raw, l.tag)
	if term == "" {
		return false
	}
	if _, ok := l.terms[term]; ok {
		return false
	}
	l.terms[term] = struct{}{}
	if isSingleWord(term) {
		l.words[term] = struct{}{}
	} else {
		l.phrases = append(l.phrases, term)
	}
	return true
}

// Len returns the number of distinct terms.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.terms)
}

// Match reports whether any term occurs in text as a whole word or phrase.
func (l *Lexicon) Match(text string) bool {
	if l.Len() == 0 {
		return false
	}
	normalized := Normalize(text, l.tag)
	if normalized == "" {
		return false
	}
	if len(l.words) > 0 {
		for _, token := range strings.FieldsFunc(normalized, isBoundary) {
			if _, ok := l.words[token]; ok {
				return true
			}
		}
	}
	for _, phrase := range l.phrases {
		if containsDelimited(normalized, phrase) {
			return true
		}
	}
	return false
}

// Classify returns 1 when text contains a lexicon term as a whole word, else 0.
func Classify(text string, lex *Lexicon) int {
	if lex.Match(text) {
		return 1
	}
	return 0
}

// Normalize trims, composes (NFC), lowercases with the case rules of tag,
// and collapses internal whitespace runs to a single space.
func Normalize(s string, tag language.Tag) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = cases.Lower(tag).String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isBoundary(r rune) bool {
	return !isWordRune(r)
}

func isSingleWord(term string) bool {
	for _, r := range term {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

// containsDelimited finds needle in haystack where the runes on either side
// of the occurrence are boundaries or the ends of haystack.
func containsDelimited(haystack, needle string) bool {
	for offset := 0; offset <= len(haystack)-len(needle); {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isBoundary(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isBoundary(r)
}
