// Package textnorm canonicalizes anchor and heading text for matching.
//
// Two modes exist: NormalizeForMatch is aggressive (keyword matching needs
// punctuation out of the way), NormalizeForRegex is light (patterns need
// word boundaries and punctuation context preserved). Both are pure, total,
// deterministic and idempotent.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// dashFold lists every character treated as a dash for matching purposes:
// hyphen-minus, hyphen, non-breaking hyphen, figure dash, en dash, em dash,
// horizontal bar and minus sign.
var dashFold = map[rune]bool{
	'-': true, '‐': true, '‑': true, '‒': true,
	'–': true, '—': true, '―': true, '−': true,
}

// quoteFold lists every character treated as a quote: straight and curly
// double/single quotes, guillemets, low quotes and primes.
var quoteFold = map[rune]bool{
	'"': true, '\'': true, '`': true,
	'‘': true, '’': true, '‚': true, '‛': true,
	'“': true, '”': true, '„': true, '‟': true,
	'«': true, '»': true, '‹': true, '›': true,
	'′': true, '″': true,
}

// NormalizeForMatch canonicalizes text for keyword matching: case fold,
// ё-fold, Latin diacritic fold, dash/quote fold to spaces, whitespace
// collapse, trim. Empty input yields empty output.
func NormalizeForMatch(s string) string {
	if s == "" {
		return ""
	}
	s = foldCase(s)
	s = foldDiacritics(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if dashFold[r] || quoteFold[r] {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeForRegex canonicalizes text for regex matching: case fold and
// ё-fold only. Punctuation is preserved so patterns can anchor on word
// boundaries and punctuation context.
func NormalizeForRegex(s string) string {
	if s == "" {
		return ""
	}
	return foldCase(s)
}

// foldCase lower-cases and folds ё/Ё to е
func foldCase(s string) string {
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "ё", "е")
}

// foldDiacritics strips combining marks from non-Cyrillic base characters
// (café → cafe). Cyrillic bases are left intact so й is not collapsed into
// и; ё is already handled by foldCase before decomposition.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	var base rune
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Cyrillic, base) {
			continue
		}
		if !unicode.Is(unicode.Mn, r) {
			base = r
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}
