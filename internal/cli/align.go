package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndrozdov/anchora/internal/embed"
	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/store"
)

var (
	alignDocumentID  string
	alignFromVersion string
	alignToVersion   string
	alignFuzzy       float64
	alignEmbedding   float64
	alignHybrid      float64
	alignDB          string
	alignVectors     string
	alignOpenAI      bool
	alignOut         string
)

// alignCmd represents the align command
var alignCmd = &cobra.Command{
	Use:   "align <from.jsonl> <to.jsonl>",
	Short: "Align anchors between two versions of a document",
	Long: `Align matches the anchors of one document version to the anchors of the
next through a layered cascade: exact normalized-text identity, fuzzy
similarity, embedding similarity, and a hybrid of the two. Each from-anchor
receives at most one match and each to-anchor is consumed at most once;
anchors without a confident counterpart stay unmatched.

Embeddings are optional. With --embeddings a static vector file keyed by
anchor id is used; with --openai vectors are fetched from the OpenAI
embeddings API (OPENAI_API_KEY must be set). Without either, matching
degrades to the exact and fuzzy stages.

With --db the matches replace any previous run for the same version pair
in a SQLite database, atomically.`,
	Args: cobra.ExactArgs(2),
	RunE: runAlign,
}

func init() {
	alignCmd.Flags().StringVar(&alignDocumentID, "document-id", "", "logical document id (default: from-version id)")
	alignCmd.Flags().StringVar(&alignFromVersion, "from-version", "", "from-version id (default: file name)")
	alignCmd.Flags().StringVar(&alignToVersion, "to-version", "", "to-version id (default: file name)")
	alignCmd.Flags().Float64Var(&alignFuzzy, "fuzzy-threshold", 0, "fuzzy similarity threshold (default: from config)")
	alignCmd.Flags().Float64Var(&alignEmbedding, "embedding-threshold", 0, "embedding similarity threshold (default: from config)")
	alignCmd.Flags().Float64Var(&alignHybrid, "hybrid-threshold", 0, "hybrid score threshold (default: from config)")
	alignCmd.Flags().StringVar(&alignDB, "db", "", "SQLite database to persist anchors and matches")
	alignCmd.Flags().StringVar(&alignVectors, "embeddings", "", "static embedding vectors file (JSON, keyed by anchor id)")
	alignCmd.Flags().BoolVar(&alignOpenAI, "openai", false, "fetch embeddings from the OpenAI API")
	alignCmd.Flags().StringVar(&alignOut, "json", "", "write matches to file instead of stdout")

	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	from, err := loadAnchors(args[0], alignFromVersion)
	if err != nil {
		return err
	}
	to, err := loadAnchors(args[1], alignToVersion)
	if err != nil {
		return err
	}

	documentID := alignDocumentID
	if documentID == "" {
		documentID = versionFromPath(args[0])
	}

	provider, err := alignProvider(cfg)
	if err != nil {
		return err
	}

	matcher := match.NewMatcher(alignOptions(cfg), provider)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Aligning %d -> %d anchors for %s\n", len(from), len(to), documentID)
	}

	matches, err := matcher.Align(ctx, documentID, from, to)
	if err != nil {
		return err
	}

	if alignDB != "" {
		runID, err := persistAlignment(cmd, documentID, from, to, matches)
		if err != nil {
			return err
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Persisted run %s (%d matches)\n", runID, len(matches))
		}
	}

	if matches == nil {
		matches = []model.AnchorMatch{}
	}
	return writeJSON(alignOut, matches)
}

// alignOptions layers CLI threshold flags over the configured defaults
func alignOptions(cfg model.Config) match.Options {
	opts := match.Options{
		FuzzyThreshold:     cfg.Match.FuzzyThreshold,
		EmbeddingThreshold: cfg.Match.EmbeddingThreshold,
		HybridThreshold:    cfg.Match.HybridThreshold,
		HybridFuzzyWeight:  cfg.Match.HybridFuzzyWeight,
	}
	if alignFuzzy > 0 {
		opts.FuzzyThreshold = alignFuzzy
	}
	if alignEmbedding > 0 {
		opts.EmbeddingThreshold = alignEmbedding
	}
	if alignHybrid > 0 {
		opts.HybridThreshold = alignHybrid
	}
	return opts
}

// alignProvider resolves the embedding provider from flags, falling back
// to the configured one
func alignProvider(cfg model.Config) (match.EmbeddingProvider, error) {
	switch {
	case alignVectors != "" && alignOpenAI:
		return nil, fmt.Errorf("--embeddings and --openai are mutually exclusive")
	case alignVectors != "":
		cfg.Embedding.Provider = "static"
		cfg.Embedding.VectorsPath = alignVectors
	case alignOpenAI:
		cfg.Embedding.Provider = "openai"
	}
	return embed.NewProvider(cfg.Embedding)
}

func persistAlignment(cmd *cobra.Command, documentID string, from, to []model.Anchor, matches []model.AnchorMatch) (string, error) {
	ctx := cmd.Context()
	st, err := store.Open(alignDB)
	if err != nil {
		return "", err
	}
	defer st.Close()

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
	return st.ReplaceMatches(ctx, documentID, fromVersion, toVersion, matches)
}
