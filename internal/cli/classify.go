package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndrozdov/anchora/internal/classify"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
)

var (
	classifyDocType   string
	classifyLang      string
	classifyRecipes   string
	classifyRegistry  string
	classifyVersionID string
	classifyOut       string
)

// classifiedAnchor is one row of classify output
type classifiedAnchor struct {
	AnchorID       string             `json:"anchor_id"`
	SectionPath    string             `json:"section_path,omitempty"`
	Zone           model.ZoneKey      `json:"zone"`
	Confidence     float64            `json:"confidence"`
	MatchedSignals []string           `json:"matched_signals,omitempty"`
	Source         model.SignalSource `json:"source,omitempty"`
}

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <anchors.jsonl|doc.html>",
	Short: "Classify document anchors into canonical semantic zones",
	Long: `Classify reads a document version's anchors from a JSONL or HTML file,
scores each anchor's text against the section recipes, and emits one zone
classification per anchor as a JSON array.

Anchors that no recipe claims are reported as zone "unknown" with
confidence 0 rather than dropped, so downstream consumers see the full
document.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyDocType, "doc-type", "protocol", "document type (protocol, icf, csr)")
	classifyCmd.Flags().StringVar(&classifyLang, "lang", "ru", "document language (ru, en)")
	classifyCmd.Flags().StringVar(&classifyRecipes, "recipes", "", "recipe directory or file (required)")
	classifyCmd.Flags().StringVar(&classifyRegistry, "registry", "", "zone registry file (default: built-in)")
	classifyCmd.Flags().StringVar(&classifyVersionID, "version-id", "", "document version id (default: file name)")
	classifyCmd.Flags().StringVar(&classifyOut, "json", "", "write results to file instead of stdout")
	_ = classifyCmd.MarkFlagRequired("recipes")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	docType := model.DocType(classifyDocType)
	lang := model.Language(classifyLang)

	anchors, err := loadAnchors(args[0], classifyVersionID)
	if err != nil {
		return err
	}
	recipes, err := loadRecipes(classifyRecipes, lang)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(classifyRegistry)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Classifying %d anchors against %d recipes (%s, %s)\n",
			len(anchors), len(recipes), docType, lang)
	}

	classifier := classify.New(reg, recipe.NewResolver(cfg.Cache), cfg.Classify)

	rows := make([]classifiedAnchor, 0, len(anchors))
	for _, a := range anchors {
		res, err := classifier.Classify(a.TextRaw, docType, lang, recipes)
		if err != nil {
			return fmt.Errorf("classify anchor %s: %w", a.AnchorID, err)
		}
		rows = append(rows, classifiedAnchor{
			AnchorID:       a.AnchorID,
			SectionPath:    a.SectionPath,
			Zone:           res.Zone,
			Confidence:     res.Confidence,
			MatchedSignals: res.MatchedSignals,
			Source:         res.Source,
		})
	}

	return writeJSON(classifyOut, rows)
}

// writeJSON emits v as indented JSON to path, or stdout when path is empty
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
