// Package classify scores anchor/heading text against candidate section
// signal sets and yields a ranked zone classification with confidence and
// the matched evidence.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
	"github.com/ndrozdov/anchora/internal/registry"
	"github.com/ndrozdov/anchora/internal/textnorm"
)

// ErrEmptyText rejects classification of empty anchor text at the call
// boundary
var ErrEmptyText = errors.New("classify: empty anchor text")

// Classifier is a pure scorer: it holds read-only configuration and shares
// the resolver cache across concurrent calls
type Classifier struct {
	registry *registry.Registry
	resolver *recipe.Resolver
	weights  model.ClassifyConfig
}

// New creates a classifier
func New(reg *registry.Registry, res *recipe.Resolver, weights model.ClassifyConfig) *Classifier {
	return &Classifier{registry: reg, resolver: res, weights: weights}
}

// candidateScore is one scored candidate section
type candidateScore struct {
	section    string
	zone       model.ZoneKey
	zoneOK     bool
	confidence float64
	matched    []string
	source     model.SignalSource
	priority   int
}

// Classify scores text against every candidate recipe and returns the
// winning zone, validated against the doc type's zone set. "No candidate
// clears the gate" is not an error: it yields the unknown result.
func (c *Classifier) Classify(text string, docType model.DocType, lang model.Language, candidates []*recipe.Recipe) (model.ClassificationResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.Unclassified(), ErrEmptyText
	}

	matchText := textnorm.NormalizeForMatch(text)
	regexText := textnorm.NormalizeForRegex(text)

	var best *candidateScore
	for _, rec := range candidates {
		sig, err := c.resolver.Resolve(rec, lang)
		if err != nil {
			return model.Unclassified(), fmt.Errorf("resolve candidate %q: %w", rec.Section, err)
		}

		score, ok := scoreSignals(sig, matchText, regexText, c.weights)
		if !ok {
			continue
		}
		zone, zoneOK := c.registry.Canonical(docType, sig.Section)
		cand := &candidateScore{
			section:    sig.Section,
			zone:       zone,
			zoneOK:     zoneOK,
			confidence: score.confidence,
			matched:    score.matched,
			source:     sig.Source,
			priority:   sig.Priority,
		}
		if best == nil || cand.beats(best) {
			best = cand
		}
	}

	if best == nil {
		return model.Unclassified(), nil
	}

	// The allow-list is authoritative over raw scoring
	if !best.zoneOK || !c.registry.AllowsZone(docType, best.zone) {
		return model.ClassificationResult{
			Zone:           model.ZoneUnknown,
			Confidence:     0,
			MatchedSignals: best.matched,
			Source:         best.source,
		}, nil
	}

	return model.ClassificationResult{
		Zone:           best.zone,
		Confidence:     best.confidence,
		MatchedSignals: best.matched,
		Source:         best.source,
	}, nil
}

// beats orders candidates: score desc, then priority desc, then canonical
// key ascending for determinism
func (s *candidateScore) beats(other *candidateScore) bool {
	if s.confidence != other.confidence {
		return s.confidence > other.confidence
	}
	if s.priority != other.priority {
		return s.priority > other.priority
	}
	return s.section < other.section
}

type signalScore struct {
	confidence float64
	matched    []string
}

// scoreSignals evaluates one signal set against normalized text. The not
// veto is absolute; the must/regex gate decides candidacy; the weighted
// count is normalized by the rule set's maximum attainable score.
func scoreSignals(sig *recipe.SectionSignals, matchText, regexText string, weights model.ClassifyConfig) (signalScore, bool) {
	for _, kw := range sig.Not {
		if strings.Contains(matchText, kw) {
			return signalScore{}, false
		}
	}

	var matched []string
	points := 0

	mustHits := 0
	for _, kw := range sig.Must {
		if strings.Contains(matchText, kw) {
			mustHits++
			points += weights.MustWeight
			matched = append(matched, "must:"+kw)
		}
	}
	regexHits := 0
	for _, re := range sig.Regex {
		if re.MatchString(regexText) {
			regexHits++
			points += weights.RegexWeight
			matched = append(matched, "regex:"+re.String())
		}
	}
	if mustHits == 0 && regexHits == 0 {
		return signalScore{}, false
	}

	for _, kw := range sig.Should {
		if strings.Contains(matchText, kw) {
			points += weights.ShouldWeight
			matched = append(matched, "should:"+kw)
		}
	}

	max := sig.MaxScore(weights)
	if max == 0 {
		return signalScore{}, false
	}
	return signalScore{
		confidence: float64(points) / float64(max),
		matched:    matched,
	}, true
}
