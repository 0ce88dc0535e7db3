// Package audit scans anchor streams and alignments for structural
// problems. Auditors come in two scopes: single-version auditors inspect
// one anchor stream, version-pair auditors inspect an alignment between
// two versions. Issues are values, never errors: an anchor without a match
// is a finding, not a failure.
package audit

import (
	"context"

	"github.com/ndrozdov/anchora/internal/model"
)

// Scope distinguishes what an auditor runs against
type Scope string

const (
	ScopeVersion     Scope = "version"      // One document version's anchors
	ScopeVersionPair Scope = "version_pair" // An alignment of two versions
)

// Severity grades a finding
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Issue is one audit finding
type Issue struct {
	Auditor     string   `json:"auditor"`
	Severity    Severity `json:"severity"`
	AnchorID    string   `json:"anchor_id,omitempty"`
	Description string   `json:"description"`
}

// Auditor is the shared contract: a name and a scope. The run signature
// differs per scope, so concrete auditors implement exactly one of
// VersionAuditor or PairAuditor.
type Auditor interface {
	Name() string
	Scope() Scope
}

// VersionAuditor checks one version's anchor stream
type VersionAuditor interface {
	Auditor
	Run(ctx context.Context, anchors []model.Anchor) ([]Issue, error)
}

// PairReport is the input of a version-pair audit
type PairReport struct {
	From    []model.Anchor
	To      []model.Anchor
	Matches []model.AnchorMatch
	// Zones optionally maps anchor id to its classified zone, enabling
	// drift checks
	Zones map[string]model.ZoneKey
}

// PairAuditor checks an alignment between two versions
type PairAuditor interface {
	Auditor
	Run(ctx context.Context, report *PairReport) ([]Issue, error)
}

// RunVersionAuditors applies every version auditor to one anchor stream
func RunVersionAuditors(ctx context.Context, auditors []VersionAuditor, anchors []model.Anchor) ([]Issue, error) {
	var issues []Issue
	for _, a := range auditors {
		found, err := a.Run(ctx, anchors)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}
	return issues, nil
}

// RunPairAuditors applies every pair auditor to one alignment
func RunPairAuditors(ctx context.Context, auditors []PairAuditor, report *PairReport) ([]Issue, error) {
	var issues []Issue
	for _, a := range auditors {
		found, err := a.Run(ctx, report)
		if err != nil {
			return nil, err
		}
		issues = append(issues, found...)
	}
	return issues, nil
}
