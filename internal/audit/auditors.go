package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/registry"
	"github.com/ndrozdov/anchora/internal/textnorm"
)

// EmptyAnchorAuditor flags anchors whose text normalizes to nothing; they
// cannot be classified or matched
type EmptyAnchorAuditor struct{}

func (EmptyAnchorAuditor) Name() string { return "empty_anchor" }
func (EmptyAnchorAuditor) Scope() Scope { return ScopeVersion }

func (a EmptyAnchorAuditor) Run(_ context.Context, anchors []model.Anchor) ([]Issue, error) {
	var issues []Issue
	for _, an := range anchors {
		if textnorm.NormalizeForMatch(an.TextRaw) == "" {
			issues = append(issues, Issue{
				Auditor:     a.Name(),
				Severity:    SeverityWarning,
				AnchorID:    an.AnchorID,
				Description: "anchor text is empty after normalization",
			})
		}
	}
	return issues, nil
}

// DuplicateAnchorAuditor flags anchor ids that repeat within a version;
// ids must be stable and unique per version
type DuplicateAnchorAuditor struct{}

func (DuplicateAnchorAuditor) Name() string { return "duplicate_anchor" }
func (DuplicateAnchorAuditor) Scope() Scope { return ScopeVersion }

func (a DuplicateAnchorAuditor) Run(_ context.Context, anchors []model.Anchor) ([]Issue, error) {
	seen := make(map[string]bool)
	var issues []Issue
	for _, an := range anchors {
		if seen[an.AnchorID] {
			issues = append(issues, Issue{
				Auditor:     a.Name(),
				Severity:    SeverityCritical,
				AnchorID:    an.AnchorID,
				Description: "duplicate anchor id within one version",
			})
			continue
		}
		seen[an.AnchorID] = true
	}
	return issues, nil
}

// UnmatchedAuditor reports from-anchors without a match (possible removal
// or heavy rework) and to-anchors no match consumed (possible addition)
type UnmatchedAuditor struct{}

func (UnmatchedAuditor) Name() string { return "unmatched" }
func (UnmatchedAuditor) Scope() Scope { return ScopeVersionPair }

func (a UnmatchedAuditor) Run(_ context.Context, report *PairReport) ([]Issue, error) {
	matchedFrom := make(map[string]bool, len(report.Matches))
	matchedTo := make(map[string]bool, len(report.Matches))
	for _, m := range report.Matches {
		matchedFrom[m.FromAnchorID] = true
		matchedTo[m.ToAnchorID] = true
	}

	var issues []Issue
	for _, an := range report.From {
		if !matchedFrom[an.AnchorID] {
			issues = append(issues, Issue{
				Auditor:     a.Name(),
				Severity:    SeverityWarning,
				AnchorID:    an.AnchorID,
				Description: "from-anchor has no counterpart: possibly deleted or restructured",
			})
		}
	}
	for _, an := range report.To {
		if !matchedTo[an.AnchorID] {
			issues = append(issues, Issue{
				Auditor:     a.Name(),
				Severity:    SeverityInfo,
				AnchorID:    an.AnchorID,
				Description: "to-anchor has no counterpart: possibly added",
			})
		}
	}
	return issues, nil
}

// ZoneDriftAuditor flags matches whose anchors classify into different,
// unrelated zones. Drift between related sections (objectives/endpoints)
// is expected churn; drift across unrelated zones usually means the match
// is wrong or the document was restructured.
type ZoneDriftAuditor struct {
	Registry *registry.Registry
	DocType  model.DocType
}

func (ZoneDriftAuditor) Name() string { return "zone_drift" }
func (ZoneDriftAuditor) Scope() Scope { return ScopeVersionPair }

func (a ZoneDriftAuditor) Run(_ context.Context, report *PairReport) ([]Issue, error) {
	if report.Zones == nil {
		return nil, nil
	}
	var issues []Issue
	for _, m := range report.Matches {
		fromZone, fromOK := report.Zones[m.FromAnchorID]
		toZone, toOK := report.Zones[m.ToAnchorID]
		if !fromOK || !toOK || fromZone == toZone {
			continue
		}
		if fromZone == model.ZoneUnknown || toZone == model.ZoneUnknown {
			continue
		}
		if a.Registry.IsRelated(a.DocType, fromZone, toZone) {
			continue
		}
		issues = append(issues, Issue{
			Auditor:  a.Name(),
			Severity: SeverityWarning,
			AnchorID: m.FromAnchorID,
			Description: fmt.Sprintf("matched anchors drift across unrelated zones: %s",
				strings.Join([]string{string(fromZone), string(toZone)}, " -> ")),
		})
	}
	return issues, nil
}
