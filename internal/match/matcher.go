// Package match aligns anchors between two document versions using a
// layered method cascade: exact text identity, fuzzy text similarity,
// embedding similarity, and a hybrid of the latter two. Each from-anchor
// receives at most one match, and each to-anchor is consumed at most once.
package match

import (
	"context"
	"fmt"
	"sort"

	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/textnorm"
)

// EmbeddingProvider supplies embedding vectors keyed by anchor id.
// Embedding computation is an external collaborator; a nil provider or a
// missing vector degrades matching to fuzzy-only.
type EmbeddingProvider interface {
	Vectors(ctx context.Context, anchors []model.Anchor) (map[string][]float32, error)
}

// Options are the matcher thresholds; zero values fall back to the
// defaults from model.DefaultConfig
type Options struct {
	FuzzyThreshold     float64
	EmbeddingThreshold float64
	HybridThreshold    float64
	HybridFuzzyWeight  float64
}

func (o Options) withDefaults() Options {
	def := model.DefaultConfig().Match
	if o.FuzzyThreshold == 0 {
		o.FuzzyThreshold = def.FuzzyThreshold
	}
	if o.EmbeddingThreshold == 0 {
		o.EmbeddingThreshold = def.EmbeddingThreshold
	}
	if o.HybridThreshold == 0 {
		o.HybridThreshold = def.HybridThreshold
	}
	if o.HybridFuzzyWeight == 0 {
		o.HybridFuzzyWeight = def.HybridFuzzyWeight
	}
	return o
}

// Matcher aligns anchor streams. It is stateless across calls; the only
// mutable state, the to-side candidate pool, is owned by a single Align
// call.
type Matcher struct {
	opts     Options
	provider EmbeddingProvider
}

// NewMatcher creates a matcher. provider may be nil.
func NewMatcher(opts Options, provider EmbeddingProvider) *Matcher {
	return &Matcher{opts: opts.withDefaults(), provider: provider}
}

// candidate is one to-anchor with its precomputed matching features
type candidate struct {
	anchor model.Anchor
	norm   string
	tokens map[string]struct{}
	used   bool
}

// Align produces at most one AnchorMatch per from-anchor. From-anchors are
// processed in ascending ordinal order so positional tie-breaks are
// reproducible; ctx is checked between anchors for cooperative
// cancellation. Calling Align twice on the same inputs yields identical
// results.
func (m *Matcher) Align(ctx context.Context, documentID string, from, to []model.Anchor) ([]model.AnchorMatch, error) {
	if len(from) == 0 || len(to) == 0 {
		return nil, nil
	}

	fromVersion := from[0].DocVersionID
	toVersion := to[0].DocVersionID

	ordered := make([]model.Anchor, len(from))
	copy(ordered, from)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	pool := make([]*candidate, len(to))
	for i, a := range to {
		norm := textnorm.NormalizeForMatch(a.TextRaw)
		pool[i] = &candidate{anchor: a, norm: norm, tokens: tokenSet(norm)}
	}

	vectors, err := m.fetchVectors(ctx, ordered, to)
	if err != nil {
		return nil, err
	}

	var matches []model.AnchorMatch
	for i := range ordered {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fa := &ordered[i]
		if match, ok := m.alignOne(fa, pool, vectors); ok {
			match.DocumentID = documentID
			match.FromDocVersionID = fromVersion
			match.ToDocVersionID = toVersion
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// fetchVectors asks the provider for every vector once per Align call
func (m *Matcher) fetchVectors(ctx context.Context, from, to []model.Anchor) (map[string][]float32, error) {
	if m.provider == nil {
		return nil, nil
	}
	all := make([]model.Anchor, 0, len(from)+len(to))
	all = append(all, from...)
	all = append(all, to...)
	vectors, err := m.provider.Vectors(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}
	return vectors, nil
}

// alignOne runs the cascade for a single from-anchor against the
// unconsumed pool
func (m *Matcher) alignOne(fa *model.Anchor, pool []*candidate, vectors map[string][]float32) (model.AnchorMatch, bool) {
	faNorm := textnorm.NormalizeForMatch(fa.TextRaw)
	faTokens := tokenSet(faNorm)
	faVec := vectors[fa.AnchorID]

	// Stage 1: exact. Identical normalized text and content type, unique
	// among the remaining candidates.
	var exact *candidate
	exactCount := 0
	for _, c := range pool {
		if c.used || c.anchor.ContentType != fa.ContentType {
			continue
		}
		if c.norm != "" && c.norm == faNorm {
			exact = c
			exactCount++
		}
	}
	if exactCount == 1 {
		exact.used = true
		return model.AnchorMatch{
			FromAnchorID: fa.AnchorID,
			ToAnchorID:   exact.anchor.AnchorID,
			Score:        1.0,
			Method:       model.MethodExact,
		}, true
	}

	// Stages 2-4 share per-candidate scores; fuzzy and embedding are
	// memoized so the hybrid stage can reuse them.
	type scored struct {
		c         *candidate
		fuzzy     float64
		embedding float64
		hasVec    bool
	}
	var cands []scored
	for _, c := range pool {
		if c.used {
			continue
		}
		s := scored{c: c, fuzzy: -1, embedding: -1}
		if c.anchor.ContentType == fa.ContentType && faNorm != "" && c.norm != "" {
			s.fuzzy = fuzzySimilarity(faNorm, faTokens, c.norm, c.tokens)
		}
		if cv := vectors[c.anchor.AnchorID]; len(faVec) > 0 && len(cv) > 0 {
			s.embedding = cosine(faVec, cv)
			s.hasVec = true
		}
		cands = append(cands, s)
	}

	pick := func(score func(scored) float64, threshold float64, method model.MatchMethod) (model.AnchorMatch, bool) {
		bestIdx := -1
		var bestScore float64
		for i, s := range cands {
			sc := score(s)
			if sc < threshold {
				continue
			}
			if bestIdx < 0 || beats(sc, s.c, bestScore, cands[bestIdx].c, fa) {
				bestIdx = i
				bestScore = sc
			}
		}
		if bestIdx < 0 {
			return model.AnchorMatch{}, false
		}
		best := cands[bestIdx]
		best.c.used = true
		match := model.AnchorMatch{
			FromAnchorID: fa.AnchorID,
			ToAnchorID:   best.c.anchor.AnchorID,
			Score:        bestScore,
			Method:       method,
		}
		if method == model.MethodHybrid {
			match.Debug = map[string]interface{}{
				"fuzzy":     best.fuzzy,
				"embedding": best.embedding,
			}
		}
		return match, true
	}

	// Stage 2: fuzzy
	if match, ok := pick(func(s scored) float64 {
		if s.fuzzy < 0 {
			return -1
		}
		return s.fuzzy
	}, m.opts.FuzzyThreshold, model.MethodFuzzy); ok {
		return match, true
	}

	// Stage 3: embedding
	if match, ok := pick(func(s scored) float64 {
		if !s.hasVec {
			return -1
		}
		return s.embedding
	}, m.opts.EmbeddingThreshold, model.MethodEmbedding); ok {
		return match, true
	}

	// Stage 4: hybrid, only where both signals exist and neither alone
	// cleared its threshold
	w := m.opts.HybridFuzzyWeight
	if match, ok := pick(func(s scored) float64 {
		if s.fuzzy < 0 || !s.hasVec {
			return -1
		}
		return w*s.fuzzy + (1-w)*s.embedding
	}, m.opts.HybridThreshold, model.MethodHybrid); ok {
		return match, true
	}

	return model.AnchorMatch{}, false
}

// beats decides whether (score, cand) is a strictly better pick than the
// current best: higher score first, then smaller ordinal distance to the
// from-anchor, then smaller to-ordinal. The ordering is total, which keeps
// Align deterministic.
func beats(score float64, cand *candidate, bestScore float64, best *candidate, fa *model.Anchor) bool {
	if score != bestScore {
		return score > bestScore
	}
	dc := ordinalDistance(cand.anchor.Ordinal, fa.Ordinal)
	db := ordinalDistance(best.anchor.Ordinal, fa.Ordinal)
	if dc != db {
		return dc < db
	}
	return cand.anchor.Ordinal < best.anchor.Ordinal
}

func ordinalDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
