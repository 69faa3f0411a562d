// Package normalize folds free text for keyword matching and tidies
// excerpts captured from the page.
//
// Fold pipeline
// 1 drop control bytes and invalid UTF-8 (Sanitize)
// 2 Unicode NFKC
// 3 case folding
// 4 strip format characters (zero-width joiners, BOM)
// 5 fold fullwidth forms to ASCII
// 6 collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Fold returns the case-folded, single-line form of s used for substring rules
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return Collapse(out)
}

// Collapse turns every whitespace run (newlines included) into one space and trims
func Collapse(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Excerpt collapses whitespace and truncates to n runes
func Excerpt(s string, n int) string { return Truncate(Collapse(Sanitize(s)), n) }
