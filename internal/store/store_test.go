package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ndrozdov/anchora/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "anchora.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndLoadAnchors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conf := 0.92
	anchors := []model.Anchor{
		{AnchorID: "a2", DocVersionID: "v1", ContentType: model.ContentParagraph, Ordinal: 1, TextRaw: "Body"},
		{AnchorID: "a1", DocVersionID: "v1", ContentType: model.ContentHeading, Ordinal: 0, TextRaw: "Title", SectionPath: "1", Confidence: &conf},
	}
	if err := s.SaveAnchors(ctx, anchors); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Anchors(ctx, "v1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(got))
	}
	// Ordinal order, not insertion order
	if got[0].AnchorID != "a1" || got[1].AnchorID != "a2" {
		t.Errorf("expected ordinal order a1,a2; got %s,%s", got[0].AnchorID, got[1].AnchorID)
	}
	if got[0].ContentType != model.ContentHeading {
		t.Errorf("content type lost: %s", got[0].ContentType)
	}
	if got[0].Confidence == nil || *got[0].Confidence != 0.92 {
		t.Errorf("confidence lost: %v", got[0].Confidence)
	}
	if got[1].Confidence != nil {
		t.Errorf("absent confidence should stay nil")
	}
}

func testMatches(score float64) []model.AnchorMatch {
	return []model.AnchorMatch{
		{FromAnchorID: "a1", ToAnchorID: "b1", Score: score, Method: model.MethodExact},
		{FromAnchorID: "a2", ToAnchorID: "b2", Score: score, Method: model.MethodFuzzy,
			Debug: map[string]interface{}{"fuzzy": score}},
	}
}

func TestStore_ReplaceMatchesIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run1, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", testMatches(1.0))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	run2, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", testMatches(0.9))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if run1 == run2 {
		t.Error("runs should have distinct ids")
	}

	got, err := s.MatchesByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("re-run must replace, not append: got %d rows", len(got))
	}
	for _, m := range got {
		if m.Score != 0.9 {
			t.Errorf("expected superseding run's scores, got %f", m.Score)
		}
	}
}

func TestStore_ReplaceMatchesKeepsOtherPairs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", testMatches(1.0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ReplaceMatches(ctx, "doc-1", "v2", "v3", testMatches(0.8)); err != nil {
		t.Fatal(err)
	}
	// Replacing v1→v2 must not touch v2→v3
	if _, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", testMatches(0.7)); err != nil {
		t.Fatal(err)
	}

	got, err := s.MatchesByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 rows across two pairs, got %d", len(got))
	}
}

func TestStore_MatchByToAnchor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", testMatches(1.0)); err != nil {
		t.Fatal(err)
	}

	m, err := s.MatchByToAnchor(ctx, "v2", "b2")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if m == nil || m.FromAnchorID != "a2" {
		t.Fatalf("expected a2→b2, got %+v", m)
	}
	if m.Debug == nil || m.Debug["fuzzy"] == nil {
		t.Errorf("debug metadata lost: %+v", m.Debug)
	}

	missing, err := s.MatchByToAnchor(ctx, "v2", "b99")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unmatched to-anchor, got %+v", missing)
	}
}

func TestStore_UniquePerFromAnchor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	dup := []model.AnchorMatch{
		{FromAnchorID: "a1", ToAnchorID: "b1", Score: 1, Method: model.MethodExact},
		{FromAnchorID: "a1", ToAnchorID: "b2", Score: 1, Method: model.MethodExact},
	}
	if _, err := s.ReplaceMatches(ctx, "doc-1", "v1", "v2", dup); err == nil {
		t.Error("expected uniqueness violation for duplicate from-anchor")
	}

	// The failed transaction must leave nothing behind
	got, err := s.MatchesByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("failed run leaked %d rows", len(got))
	}
}
