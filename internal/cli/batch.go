package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ndrozdov/anchora/internal/embed"
	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/store"
	"github.com/ndrozdov/anchora/internal/worker"
)

var (
	batchWorkers int
	batchDB      string
	batchOut     string
)

// batchManifest lists the version pairs to align
type batchManifest struct {
	Pairs []batchPair `yaml:"pairs"`
}

// batchPair is one document version pair
type batchPair struct {
	DocumentID  string `yaml:"document_id"`
	From        string `yaml:"from"`
	FromVersion string `yaml:"from_version,omitempty"`
	To          string `yaml:"to"`
	ToVersion   string `yaml:"to_version,omitempty"`
}

// batchOutcome is one row of batch output
type batchOutcome struct {
	DocumentID string              `json:"document_id"`
	Matches    []model.AnchorMatch `json:"matches,omitempty"`
	RunID      string              `json:"run_id,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Align many document version pairs concurrently",
	Long: `Batch reads a YAML manifest of version pairs and aligns each pair on a
bounded worker pool. One failing pair does not abort the others; its error
is reported in that pair's output row instead.

Manifest shape:

  pairs:
    - document_id: protocol-017
      from: versions/v3.jsonl
      to: versions/v4.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent alignments (default: from config)")
	batchCmd.Flags().StringVar(&batchDB, "db", "", "SQLite database to persist anchors and matches")
	batchCmd.Flags().StringVar(&batchOut, "json", "", "write outcomes to file instead of stdout")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	manifest, err := readManifest(args[0])
	if err != nil {
		return err
	}
	if len(manifest.Pairs) == 0 {
		return fmt.Errorf("manifest %s lists no pairs", args[0])
	}

	provider, err := embed.NewProvider(cfg.Embedding)
	if err != nil {
		return err
	}
	matcher := match.NewMatcher(match.Options{
		FuzzyThreshold:     cfg.Match.FuzzyThreshold,
		EmbeddingThreshold: cfg.Match.EmbeddingThreshold,
		HybridThreshold:    cfg.Match.HybridThreshold,
		HybridFuzzyWeight:  cfg.Match.HybridFuzzyWeight,
	}, provider)

	outcomes := make([]batchOutcome, len(manifest.Pairs))
	pairs := make([]worker.Pair, 0, len(manifest.Pairs))
	pairIdx := make([]int, 0, len(manifest.Pairs))

	for i, pair := range manifest.Pairs {
		outcomes[i].DocumentID = pair.DocumentID
		from, err := loadAnchors(pair.From, pair.FromVersion)
		if err != nil {
			outcomes[i].Error = err.Error()
			continue
		}
		to, err := loadAnchors(pair.To, pair.ToVersion)
		if err != nil {
			outcomes[i].Error = err.Error()
			continue
		}
		pairs = append(pairs, worker.Pair{DocumentID: pair.DocumentID, From: from, To: to})
		pairIdx = append(pairIdx, i)
	}

	concurrency := cfg.Workers.Concurrency
	if batchWorkers > 0 {
		concurrency = batchWorkers
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Aligning %d pairs with %d workers\n", len(pairs), concurrency)
	}

	results := worker.NewBatchProcessor(concurrency, matcher).Process(ctx, pairs)

	var st *store.Store
	if batchDB != "" {
		st, err = store.Open(batchDB)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	for pi, ar := range results {
		i := pairIdx[pi]
		if ar == nil {
			outcomes[i].Error = "skipped: run cancelled"
			continue
		}
		if ar.Err() != nil {
			outcomes[i].Error = ar.Err().Error()
			continue
		}
		outcomes[i].Matches = ar.Matches
		if st != nil {
			runID, err := persistBatchPair(cmd, st, manifest.Pairs[i], pairs[pi].From, pairs[pi].To, ar.Matches)
			if err != nil {
				outcomes[i].Error = err.Error()
				continue
			}
			outcomes[i].RunID = runID
		}
	}

	return writeJSON(batchOut, outcomes)
}

func readManifest(path string) (*batchManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m batchManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func persistBatchPair(cmd *cobra.Command, st *store.Store, pair batchPair, from, to []model.Anchor, matches []model.AnchorMatch) (string, error) {
	ctx := cmd.Context()
	if err := st.SaveAnchors(ctx, from); err != nil {
		return "", err
	}
	if err := st.SaveAnchors(ctx, to); err != nil {
		return "", err
	}
	fromVersion := ""
	if len(from) > 0 {
		fromVersion = from[0].DocVersionID
	}
	toVersion := ""
	if len(to) > 0 {
		toVersion = to[0].DocVersionID
	}
	return st.ReplaceMatches(ctx, pair.DocumentID, fromVersion, toVersion, matches)
}
