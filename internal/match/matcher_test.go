package match

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ndrozdov/anchora/internal/model"
)

func anchor(id, version, text string, ordinal int) model.Anchor {
	return model.Anchor{
		AnchorID:     id,
		DocVersionID: version,
		ContentType:  model.ContentParagraph,
		Ordinal:      ordinal,
		TextRaw:      text,
	}
}

// staticVectors is a test provider returning fixed vectors by anchor id
type staticVectors map[string][]float32

func (v staticVectors) Vectors(_ context.Context, anchors []model.Anchor) (map[string][]float32, error) {
	out := make(map[string][]float32)
	for _, a := range anchors {
		if vec, ok := v[a.AnchorID]; ok {
			out[a.AnchorID] = vec
		}
	}
	return out, nil
}

// failingProvider always errors
type failingProvider struct{}

func (failingProvider) Vectors(context.Context, []model.Anchor) (map[string][]float32, error) {
	return nil, errors.New("embedding service down")
}

func TestAlign_ExactReordered(t *testing.T) {
	m := NewMatcher(Options{}, nil)
	from := []model.Anchor{
		anchor("a1", "v1", "Intro", 0),
		anchor("a2", "v1", "Objectives", 1),
	}
	to := []model.Anchor{
		anchor("b1", "v2", "Objectives", 0),
		anchor("b2", "v2", "Intro", 1),
	}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	byFrom := map[string]model.AnchorMatch{}
	for _, mt := range matches {
		byFrom[mt.FromAnchorID] = mt
	}
	if mt := byFrom["a1"]; mt.ToAnchorID != "b2" || mt.Score != 1.0 || mt.Method != model.MethodExact {
		t.Errorf("a1: got %+v, want exact b2 at 1.0", mt)
	}
	if mt := byFrom["a2"]; mt.ToAnchorID != "b1" || mt.Score != 1.0 || mt.Method != model.MethodExact {
		t.Errorf("a2: got %+v, want exact b1 at 1.0", mt)
	}
}

func TestAlign_UnmatchedFromAnchor(t *testing.T) {
	m := NewMatcher(Options{}, nil)
	from := []model.Anchor{
		anchor("a1", "v1", "Intro", 0),
		anchor("a2", "v1", "Completely different content about dosing schedules", 1),
	}
	to := []model.Anchor{
		anchor("b1", "v2", "Intro", 0),
	}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].FromAnchorID != "a1" || matches[0].ToAnchorID != "b1" {
		t.Errorf("unexpected match %+v", matches[0])
	}
}

func TestAlign_OneToOneInvariant(t *testing.T) {
	m := NewMatcher(Options{}, nil)
	// Two from-anchors with identical text compete for one to-anchor
	from := []model.Anchor{
		anchor("a1", "v1", "Inclusion criteria", 0),
		anchor("a2", "v1", "Inclusion criteria", 1),
	}
	to := []model.Anchor{
		anchor("b1", "v2", "Inclusion criteria", 0),
	}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	seen := map[string]bool{}
	for _, mt := range matches {
		if seen[mt.ToAnchorID] {
			t.Fatalf("to-anchor %s consumed twice", mt.ToAnchorID)
		}
		seen[mt.ToAnchorID] = true
	}
	if len(matches) != 1 {
		t.Errorf("expected exactly 1 match for 1 to-anchor, got %d", len(matches))
	}
}

func TestAlign_Deterministic(t *testing.T) {
	m := NewMatcher(Options{FuzzyThreshold: 0.4}, nil)
	from := []model.Anchor{
		anchor("a1", "v1", "Цели исследования", 0),
		anchor("a2", "v1", "Критерии включения пациентов", 1),
		anchor("a3", "v1", "Статистические методы анализа", 2),
	}
	to := []model.Anchor{
		anchor("b1", "v2", "Критерии включения и невключения пациентов", 0),
		anchor("b2", "v2", "Цели и задачи исследования", 1),
		anchor("b3", "v2", "Статистические методы", 2),
	}

	first, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := m.Align(context.Background(), "doc-1", from, to)
		if err != nil {
			t.Fatalf("align: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("align not deterministic:\nfirst=%+v\nagain=%+v", first, again)
		}
	}
}

func TestAlign_FuzzyTieBreakPrefersCloserOrdinal(t *testing.T) {
	m := NewMatcher(Options{FuzzyThreshold: 0.5}, nil)
	from := []model.Anchor{
		anchor("a1", "v1", "Dosing schedule", 2),
	}
	// Identical candidates at different ordinals: exact stage skips them
	// (not unique), fuzzy scores tie, ordinal distance decides
	to := []model.Anchor{
		anchor("b-far", "v2", "Dosing schedule", 8),
		anchor("b-near", "v2", "Dosing schedule", 3),
	}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].ToAnchorID != "b-near" {
		t.Errorf("tie-break should prefer the positionally closer anchor, got %s", matches[0].ToAnchorID)
	}
	if matches[0].Method != model.MethodFuzzy {
		t.Errorf("duplicate candidates must not match exactly, got method %s", matches[0].Method)
	}
}

func TestAlign_FuzzyThresholdConfigurable(t *testing.T) {
	from := []model.Anchor{anchor("a1", "v1", "Цели исследования", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Цели и задачи исследования", 0)}

	// Under the default threshold this pairing scores too low
	strict := NewMatcher(Options{}, nil)
	matches, err := strict.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no match at default threshold, got %+v", matches)
	}

	loose := NewMatcher(Options{FuzzyThreshold: 0.5}, nil)
	matches, err = loose.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 1 || matches[0].Method != model.MethodFuzzy {
		t.Fatalf("expected one fuzzy match at lowered threshold, got %+v", matches)
	}
	if matches[0].Score <= 0 || matches[0].Score >= 1 {
		t.Errorf("fuzzy score should be in (0,1), got %f", matches[0].Score)
	}
}

func TestAlign_EmbeddingStage(t *testing.T) {
	vectors := staticVectors{
		"a1": {1, 0},
		"b1": {1, 0},
		"b2": {0, 1},
	}
	m := NewMatcher(Options{}, vectors)
	from := []model.Anchor{anchor("a1", "v1", "Background", 0)}
	to := []model.Anchor{
		anchor("b1", "v2", "Introduction and context", 0),
		anchor("b2", "v2", "Appendix tables", 1),
	}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].ToAnchorID != "b1" || matches[0].Method != model.MethodEmbedding {
		t.Errorf("expected embedding match to b1, got %+v", matches[0])
	}
	if math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("cosine of identical vectors should be 1.0, got %f", matches[0].Score)
	}
}

func TestAlign_HybridStage(t *testing.T) {
	// Fuzzy and embedding each fail their (raised) thresholds; their
	// combination clears the hybrid threshold
	vectors := staticVectors{
		"a1": {1, 0},
		"b1": {0.6, 0.8},
	}
	m := NewMatcher(Options{
		FuzzyThreshold:     0.9,
		EmbeddingThreshold: 0.9,
		HybridThreshold:    0.5,
		HybridFuzzyWeight:  0.5,
	}, vectors)
	from := []model.Anchor{anchor("a1", "v1", "Study objectives", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Study objective", 0)}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	if len(matches) != 1 || matches[0].Method != model.MethodHybrid {
		t.Fatalf("expected hybrid match, got %+v", matches)
	}
	if matches[0].Debug == nil {
		t.Error("hybrid match should carry fuzzy/embedding debug scores")
	}
	if matches[0].Score < 0.5 || matches[0].Score >= 0.9 {
		t.Errorf("hybrid score out of expected range: %f", matches[0].Score)
	}
}

func TestAlign_NoProviderDegradesToFuzzy(t *testing.T) {
	m := NewMatcher(Options{}, nil)
	from := []model.Anchor{anchor("a1", "v1", "Background", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Completely unrelated text", 0)}

	matches, err := m.Align(context.Background(), "doc-1", from, to)
	if err != nil {
		t.Fatalf("align without provider must not error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no match, got %+v", matches)
	}
}

func TestAlign_ProviderError(t *testing.T) {
	m := NewMatcher(Options{}, failingProvider{})
	from := []model.Anchor{anchor("a1", "v1", "Background", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Background", 0)}

	if _, err := m.Align(context.Background(), "doc-1", from, to); err == nil {
		t.Error("expected provider error to propagate")
	}
}

func TestAlign_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMatcher(Options{}, nil)
	from := []model.Anchor{anchor("a1", "v1", "Intro", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Intro", 0)}

	if _, err := m.Align(ctx, "doc-1", from, to); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAlign_VersionMetadata(t *testing.T) {
	m := NewMatcher(Options{}, nil)
	from := []model.Anchor{anchor("a1", "v1", "Intro", 0)}
	to := []model.Anchor{anchor("b1", "v2", "Intro", 0)}

	matches, err := m.Align(context.Background(), "doc-7", from, to)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	mt := matches[0]
	if mt.DocumentID != "doc-7" || mt.FromDocVersionID != "v1" || mt.ToDocVersionID != "v2" {
		t.Errorf("match metadata wrong: %+v", mt)
	}
}
