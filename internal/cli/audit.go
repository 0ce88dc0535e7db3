package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndrozdov/anchora/internal/audit"
	"github.com/ndrozdov/anchora/internal/classify"
	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
	"github.com/ndrozdov/anchora/internal/registry"
)

var (
	auditDocType     string
	auditLang        string
	auditRecipes     string
	auditRegistry    string
	auditFromVersion string
	auditToVersion   string
	auditOut         string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <anchors.jsonl> [to.jsonl]",
	Short: "Run consistency checks over a document version or a version pair",
	Long: `Audit inspects document versions for data-quality problems and emits the
findings as a JSON array of issues.

With one file, the per-version auditors run: anchors whose text normalizes
to nothing, and duplicate anchor ids.

With two files the versions are first aligned, then the pair auditors run
on top of the per-version ones: anchors left unmatched on either side, and
matched anchors whose semantic zones drifted apart. Zone drift requires
--recipes so both sides can be classified; without it the drift auditor is
skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditDocType, "doc-type", "protocol", "document type (protocol, icf, csr)")
	auditCmd.Flags().StringVar(&auditLang, "lang", "ru", "document language (ru, en)")
	auditCmd.Flags().StringVar(&auditRecipes, "recipes", "", "recipe directory or file, enables the zone-drift auditor")
	auditCmd.Flags().StringVar(&auditRegistry, "registry", "", "zone registry file (default: built-in)")
	auditCmd.Flags().StringVar(&auditFromVersion, "from-version", "", "from-version id (default: file name)")
	auditCmd.Flags().StringVar(&auditToVersion, "to-version", "", "to-version id (default: file name)")
	auditCmd.Flags().StringVar(&auditOut, "json", "", "write issues to file instead of stdout")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	from, err := loadAnchors(args[0], auditFromVersion)
	if err != nil {
		return err
	}

	versionAuditors := []audit.VersionAuditor{
		audit.EmptyAnchorAuditor{},
		audit.DuplicateAnchorAuditor{},
	}

	issues, err := audit.RunVersionAuditors(ctx, versionAuditors, from)
	if err != nil {
		return err
	}

	if len(args) == 2 {
		to, err := loadAnchors(args[1], auditToVersion)
		if err != nil {
			return err
		}
		toIssues, err := audit.RunVersionAuditors(ctx, versionAuditors, to)
		if err != nil {
			return err
		}
		issues = append(issues, toIssues...)

		pairIssues, err := auditPair(ctx, cfg, from, to)
		if err != nil {
			return err
		}
		issues = append(issues, pairIssues...)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Found %d issues\n", len(issues))
	}
	if issues == nil {
		issues = []audit.Issue{}
	}
	return writeJSON(auditOut, issues)
}

// auditPair aligns the pair and runs the pair-scoped auditors
func auditPair(ctx context.Context, cfg model.Config, from, to []model.Anchor) ([]audit.Issue, error) {
	matcher := match.NewMatcher(match.Options{
		FuzzyThreshold:     cfg.Match.FuzzyThreshold,
		EmbeddingThreshold: cfg.Match.EmbeddingThreshold,
		HybridThreshold:    cfg.Match.HybridThreshold,
		HybridFuzzyWeight:  cfg.Match.HybridFuzzyWeight,
	}, nil)

	documentID := ""
	if len(from) > 0 {
		documentID = from[0].DocVersionID
	}
	matches, err := matcher.Align(ctx, documentID, from, to)
	if err != nil {
		return nil, err
	}

	report := &audit.PairReport{From: from, To: to, Matches: matches}

	reg, err := loadRegistry(auditRegistry)
	if err != nil {
		return nil, err
	}

	auditors := []audit.PairAuditor{audit.UnmatchedAuditor{}}
	if auditRecipes != "" {
		zones, err := classifyZones(cfg, reg, from, to)
		if err != nil {
			return nil, err
		}
		report.Zones = zones
		auditors = append(auditors, audit.ZoneDriftAuditor{
			Registry: reg,
			DocType:  model.DocType(auditDocType),
		})
	}

	return audit.RunPairAuditors(ctx, auditors, report)
}

// classifyZones classifies both sides so the drift auditor can compare
// semantic zones across a match
func classifyZones(cfg model.Config, reg *registry.Registry, from, to []model.Anchor) (map[string]model.ZoneKey, error) {
	lang := model.Language(auditLang)
	docType := model.DocType(auditDocType)

	recipes, err := loadRecipes(auditRecipes, lang)
	if err != nil {
		return nil, err
	}
	classifier := classify.New(reg, recipe.NewResolver(cfg.Cache), cfg.Classify)

	zones := make(map[string]model.ZoneKey, len(from)+len(to))
	for _, side := range [][]model.Anchor{from, to} {
		for _, a := range side {
			res, err := classifier.Classify(a.TextRaw, docType, lang, recipes)
			if err != nil {
				// Empty anchors are already reported by the version auditor
				zones[a.AnchorID] = model.ZoneUnknown
				continue
			}
			zones[a.AnchorID] = res.Zone
		}
	}
	return zones, nil
}
