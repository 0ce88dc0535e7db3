package worker

import (
	"context"

	"github.com/ndrozdov/anchora/internal/classify"
	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
)

// AlignJob aligns one version pair of one document
type AlignJob struct {
	DocumentID string
	From       []model.Anchor
	To         []model.Anchor
	Matcher    *match.Matcher
}

// AlignResult carries one alignment outcome
type AlignResult struct {
	DocumentID string
	Matches    []model.AnchorMatch
	Error      error
}

// Err returns the job error, if any
func (r *AlignResult) Err() error { return r.Error }

// Execute runs the alignment
func (j *AlignJob) Execute(ctx context.Context) Result {
	matches, err := j.Matcher.Align(ctx, j.DocumentID, j.From, j.To)
	return &AlignResult{DocumentID: j.DocumentID, Matches: matches, Error: err}
}

// ClassifyJob classifies every anchor of one document version
type ClassifyJob struct {
	DocVersionID string
	DocType      model.DocType
	Language     model.Language
	Anchors      []model.Anchor
	Candidates   []*recipe.Recipe
	Classifier   *classify.Classifier
}

// ClassifyResult maps anchor ids to their classification
type ClassifyResult struct {
	DocVersionID string
	Results      map[string]model.ClassificationResult
	Error        error
}

// Err returns the job error, if any
func (r *ClassifyResult) Err() error { return r.Error }

// Execute classifies the version's anchors in ordinal order, checking ctx
// between anchors
func (j *ClassifyJob) Execute(ctx context.Context) Result {
	out := &ClassifyResult{
		DocVersionID: j.DocVersionID,
		Results:      make(map[string]model.ClassificationResult, len(j.Anchors)),
	}
	for _, a := range j.Anchors {
		select {
		case <-ctx.Done():
			out.Error = ctx.Err()
			return out
		default:
		}
		res, err := j.Classifier.Classify(a.TextRaw, j.DocType, j.Language, j.Candidates)
		if err != nil {
			out.Error = err
			return out
		}
		out.Results[a.AnchorID] = res
	}
	return out
}
