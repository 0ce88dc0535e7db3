package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndrozdov/anchora/internal/classify"
	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
	"github.com/ndrozdov/anchora/internal/registry"
)

type countJob struct {
	counter *atomic.Int64
	fail    bool
}

type countResult struct {
	err error
}

func (r *countResult) Err() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	if j.fail {
		return &countResult{err: errors.New("job failed")}
	}
	return &countResult{}
}

func TestPool_RunsAllJobs(t *testing.T) {
	var counter atomic.Int64
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = &countJob{counter: &counter}
	}

	results := NewPool(4).Run(context.Background(), jobs)

	if got := counter.Load(); got != 20 {
		t.Errorf("expected 20 executions, got %d", got)
	}
	for i, r := range results {
		if r == nil {
			t.Errorf("result %d missing", i)
		} else if r.Err() != nil {
			t.Errorf("result %d unexpected error: %v", i, r.Err())
		}
	}
}

func TestPool_ResultsKeepSubmissionOrder(t *testing.T) {
	var counter atomic.Int64
	jobs := []Job{
		&countJob{counter: &counter},
		&countJob{counter: &counter, fail: true},
		&countJob{counter: &counter},
	}

	results := NewPool(2).Run(context.Background(), jobs)

	if results[1] == nil || results[1].Err() == nil {
		t.Error("failing job's result should sit at its submission index")
	}
	if results[0].Err() != nil || results[2].Err() != nil {
		t.Error("other jobs should succeed")
	}
}

func TestPool_CancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var counter atomic.Int64
	jobs := make([]Job, 100)
	for i := range jobs {
		jobs[i] = &countJob{counter: &counter}
	}

	done := make(chan struct{})
	go func() {
		NewPool(2).Run(ctx, jobs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain after cancellation")
	}
	if counter.Load() == 100 {
		t.Error("expected some jobs to be skipped after cancellation")
	}
}

func TestAlignJob_Execute(t *testing.T) {
	job := &AlignJob{
		DocumentID: "doc-1",
		From:       []model.Anchor{{AnchorID: "a1", DocVersionID: "v1", ContentType: model.ContentParagraph, TextRaw: "Intro"}},
		To:         []model.Anchor{{AnchorID: "b1", DocVersionID: "v2", ContentType: model.ContentParagraph, TextRaw: "Intro"}},
		Matcher:    match.NewMatcher(match.Options{}, nil),
	}

	res := job.Execute(context.Background())
	if res.Err() != nil {
		t.Fatalf("execute: %v", res.Err())
	}
	ar := res.(*AlignResult)
	if len(ar.Matches) != 1 || ar.Matches[0].Method != model.MethodExact {
		t.Errorf("unexpected alignment %+v", ar.Matches)
	}
}

func TestBatchProcessor_KeepsPairOrder(t *testing.T) {
	matcher := match.NewMatcher(match.Options{}, nil)
	pairs := []Pair{
		{
			DocumentID: "doc-1",
			From:       []model.Anchor{{AnchorID: "a1", DocVersionID: "v1", ContentType: model.ContentParagraph, TextRaw: "Цели исследования"}},
			To:         []model.Anchor{{AnchorID: "b1", DocVersionID: "v2", ContentType: model.ContentParagraph, TextRaw: "Цели исследования"}},
		},
		{
			DocumentID: "doc-2",
			From:       []model.Anchor{{AnchorID: "a1", DocVersionID: "v1", ContentType: model.ContentParagraph, TextRaw: "совсем другой текст"}},
			To:         []model.Anchor{{AnchorID: "b1", DocVersionID: "v2", ContentType: model.ContentParagraph, TextRaw: "ничего общего здесь нет"}},
		},
	}

	results := NewBatchProcessor(2, matcher).Process(context.Background(), pairs)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0] == nil || results[0].DocumentID != "doc-1" || len(results[0].Matches) != 1 {
		t.Errorf("doc-1 should align its single pair, got %+v", results[0])
	}
	if results[1] == nil || results[1].DocumentID != "doc-2" || len(results[1].Matches) != 0 {
		t.Errorf("doc-2 has no plausible match, got %+v", results[1])
	}
}

func TestClassifyJob_Execute(t *testing.T) {
	cfg := model.DefaultConfig()
	job := &ClassifyJob{
		DocVersionID: "v1",
		DocType:      model.DocTypeProtocol,
		Language:     model.LangRU,
		Anchors: []model.Anchor{
			{AnchorID: "a1", TextRaw: "Цели исследования"},
			{AnchorID: "a2", TextRaw: "Список литературы"},
		},
		Candidates: []*recipe.Recipe{{
			Version: 2,
			Section: "objectives",
			Mapping: &recipe.Mapping{Signals: &recipe.SignalsBlock{Lang: map[model.Language]*recipe.LangSignals{
				model.LangRU: {Must: []string{"цели"}},
			}}},
		}},
		Classifier: classify.New(registry.DefaultRegistry(), recipe.NewResolver(cfg.Cache), cfg.Classify),
	}

	res := job.Execute(context.Background())
	if res.Err() != nil {
		t.Fatalf("execute: %v", res.Err())
	}
	cr := res.(*ClassifyResult)
	if cr.Results["a1"].Zone != model.ZoneObjectives {
		t.Errorf("a1 should classify as objectives, got %+v", cr.Results["a1"])
	}
	if cr.Results["a2"].Zone != model.ZoneUnknown {
		t.Errorf("a2 should stay unknown, got %+v", cr.Results["a2"])
	}
}
