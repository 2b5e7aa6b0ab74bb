// Package textutil normalises user-entered text for search matching.
package textutil

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize applies NFKC, strips combining marks, folds case and collapses
// whitespace so "  Huruf   À " and "huruf a" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(folder.String(out)), " ")
}

// Tokens splits the normalised form of s on whitespace and punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// MatchAll reports whether every token of query occurs as a substring of one
// of fields. An empty query matches everything.
func MatchAll(query string, fields ...string) bool {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return true
	}
	haystack := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := Normalize(f); n != "" {
			haystack = append(haystack, n)
		}
	}
	for _, token := range tokens {
		found := false
		for _, h := range haystack {
			if strings.Contains(h, token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NormalizeTags lower-cases, trims and de-duplicates tags, returning them sorted.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = Normalize(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
