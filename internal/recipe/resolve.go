package recipe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/textnorm"
)

// SectionSignals is the resolved, language-specific rule bundle for one
// target section. It is derived from a Recipe at resolution time, never
// stored.
type SectionSignals struct {
	Section         string
	Must            []string
	Should          []string
	Not             []string
	Regex           []*regexp.Regexp
	FallbackQueries []string
	Source          model.SignalSource
	Priority        int
}

// MaxScore returns the maximum attainable weighted score for this rule set
func (s *SectionSignals) MaxScore(weights model.ClassifyConfig) int {
	return len(s.Must)*weights.MustWeight +
		len(s.Should)*weights.ShouldWeight +
		len(s.Regex)*weights.RegexWeight
}

// ResolveSignals resolves a recipe into SectionSignals for one language.
// Missing language blocks fall back to the recipe's configured fallback
// language and then to empty sets; only a malformed regex is an error.
func ResolveSignals(rec *Recipe, lang model.Language) (*SectionSignals, error) {
	var (
		must, should, not []string
		patterns          []string
	)

	if rec.IsV2() {
		block := v2Block(rec, lang)
		if block != nil {
			must, should, not, patterns = block.Must, block.Should, block.Not, block.Regex
		}
	} else if rec.HeadingMatch != nil {
		must, should, not = rec.HeadingMatch.Must, rec.HeadingMatch.Should, rec.HeadingMatch.Not
	}
	if !rec.IsV2() && rec.Regex != nil {
		patterns = rec.Regex.Heading
	}

	sig := &SectionSignals{
		Section:         rec.Section,
		Must:            normalizeKeywords(must),
		Should:          normalizeKeywords(should),
		Not:             normalizeKeywords(not),
		FallbackQueries: fallbackQueries(rec, lang),
		Source:          model.SourceExplicit,
		Priority:        rec.Priority,
	}

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: pattern %q: %v", ErrInvalidRecipe, rec.Section, p, err)
		}
		sig.Regex = append(sig.Regex, re)
	}

	// A recipe with no curated signals still has to produce a best-effort
	// rule set for newly added sections.
	if len(sig.Must) == 0 && len(sig.Should) == 0 && len(sig.Regex) == 0 {
		sig.Must = deriveKeywords(rec.Title, sig.FallbackQueries)
		sig.Source = model.SourceAuto
	}

	return sig, nil
}

// v2Block picks the language block, honouring the recipe's fallback language
func v2Block(rec *Recipe, lang model.Language) *LangSignals {
	if rec.Mapping == nil || rec.Mapping.Signals == nil {
		return nil
	}
	byLang := rec.Mapping.Signals.Lang
	if block, ok := byLang[lang]; ok && block != nil {
		return block
	}
	if rec.Language != nil && rec.Language.Fallback != "" {
		if block, ok := byLang[rec.Language.Fallback]; ok {
			return block
		}
	}
	return nil
}

func fallbackQueries(rec *Recipe, lang model.Language) []string {
	if rec.FallbackSearch == nil {
		return nil
	}
	if qs, ok := rec.FallbackSearch.QueryTemplates[lang]; ok {
		return qs
	}
	if rec.Language != nil && rec.Language.Fallback != "" {
		return rec.FallbackSearch.QueryTemplates[rec.Language.Fallback]
	}
	return nil
}

func normalizeKeywords(kws []string) []string {
	var out []string
	for _, kw := range kws {
		n := textnorm.NormalizeForMatch(kw)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// stopTokens are dropped during keyword auto-derivation: they carry no
// sectioning signal in either language
var stopTokens = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"или": true, "для": true, "при": true, "его": true, "как": true,
}

// placeholderRE strips {placeholder} slots out of fallback query templates
var placeholderRE = regexp.MustCompile(`\{[^}]*\}`)

// deriveKeywords synthesizes a minimal must-keyword set from the section
// display title and its fallback query templates
func deriveKeywords(title string, queries []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(text string) {
		for _, tok := range strings.Fields(textnorm.NormalizeForMatch(text)) {
			if utf8.RuneCountInString(tok) < 3 || stopTokens[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	add(title)
	for _, q := range queries {
		add(placeholderRE.ReplaceAllString(q, " "))
	}
	return out
}

// Resolver caches resolved signal sets per (section, language). The cache
// is read-mostly: built on first resolution, then shared across concurrent
// classification calls.
type Resolver struct {
	cache *gocache.Cache
}

// NewResolver creates a resolver with a process-lifetime cache
func NewResolver(cfg model.CacheConfig) *Resolver {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Resolver{cache: gocache.New(ttl, cfg.CleanupInterval)}
}

// Resolve returns the cached signal set for (recipe, language), resolving
// and caching it on first use
func (r *Resolver) Resolve(rec *Recipe, lang model.Language) (*SectionSignals, error) {
	key := rec.Section + ":" + string(lang)
	if v, ok := r.cache.Get(key); ok {
		return v.(*SectionSignals), nil
	}
	sig, err := ResolveSignals(rec, lang)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, sig, gocache.DefaultExpiration)
	return sig, nil
}
