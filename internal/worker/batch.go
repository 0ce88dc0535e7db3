package worker

import (
	"context"

	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
)

// Pair is one document version pair to align
type Pair struct {
	DocumentID string
	From       []model.Anchor
	To         []model.Anchor
}

// BatchProcessor fans version-pair alignments across a pool
type BatchProcessor struct {
	pool    *Pool
	matcher *match.Matcher
}

// NewBatchProcessor creates a processor with the given concurrency
func NewBatchProcessor(workers int, matcher *match.Matcher) *BatchProcessor {
	return &BatchProcessor{pool: NewPool(workers), matcher: matcher}
}

// Process aligns every pair and returns results in pair order. One failing
// pair does not abort the others; a cancelled run leaves nil slots for
// pairs that never started.
func (b *BatchProcessor) Process(ctx context.Context, pairs []Pair) []*AlignResult {
	jobs := make([]Job, len(pairs))
	for i, p := range pairs {
		jobs[i] = &AlignJob{
			DocumentID: p.DocumentID,
			From:       p.From,
			To:         p.To,
			Matcher:    b.matcher,
		}
	}
	results := b.pool.Run(ctx, jobs)
	out := make([]*AlignResult, len(results))
	for i, r := range results {
		if r != nil {
			out[i] = r.(*AlignResult)
		}
	}
	return out
}
