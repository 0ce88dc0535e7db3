// Package recipe models externally authored section-detection rule
// documents and resolves them into language-specific signal bundles.
//
// Two schema generations are supported. The v2 shape keys signals by
// language under mapping.signals.lang and carries a language policy with a
// fallback; the legacy v1 shape is flat (heading_match + regex.heading +
// fallback_search). Both resolve to the same SectionSignals contract, so
// the classifier is generation-agnostic.
package recipe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ndrozdov/anchora/internal/model"
)

// ErrInvalidRecipe marks configuration errors detected at load or
// resolution time. These are never surfaced per-anchor.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is one section-detection rule document, v1 or v2
type Recipe struct {
	Version  int    `yaml:"version,omitempty" json:"version,omitempty"`
	Section  string `yaml:"section" json:"section"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	Priority int    `yaml:"priority,omitempty" json:"priority,omitempty"`

	// v2 fields
	Language *LanguagePolicy `yaml:"language,omitempty" json:"language,omitempty"`
	Mapping  *Mapping        `yaml:"mapping,omitempty" json:"mapping,omitempty"`

	// v1 fields
	HeadingMatch *HeadingMatch `yaml:"heading_match,omitempty" json:"heading_match,omitempty"`
	Regex        *RegexBlock   `yaml:"regex,omitempty" json:"regex,omitempty"`

	FallbackSearch *FallbackSearch `yaml:"fallback_search,omitempty" json:"fallback_search,omitempty"`
}

// LanguagePolicy is the v2 language selection block
type LanguagePolicy struct {
	Mode     string         `yaml:"mode" json:"mode"` // "auto" or a fixed language code
	Fallback model.Language `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Mapping nests the v2 signal blocks
type Mapping struct {
	Signals *SignalsBlock `yaml:"signals,omitempty" json:"signals,omitempty"`
}

// SignalsBlock keys language-specific signals
type SignalsBlock struct {
	Lang map[model.Language]*LangSignals `yaml:"lang,omitempty" json:"lang,omitempty"`
}

// LangSignals carries the raw rule lists for one language
type LangSignals struct {
	Must   []string `yaml:"must,omitempty" json:"must,omitempty"`
	Should []string `yaml:"should,omitempty" json:"should,omitempty"`
	Not    []string `yaml:"not,omitempty" json:"not,omitempty"`
	Regex  []string `yaml:"regex,omitempty" json:"regex,omitempty"`
}

// HeadingMatch is the flat v1 keyword block
type HeadingMatch struct {
	Must   []string `yaml:"must,omitempty" json:"must,omitempty"`
	Should []string `yaml:"should,omitempty" json:"should,omitempty"`
	Not    []string `yaml:"not,omitempty" json:"not,omitempty"`
}

// RegexBlock is the v1 regex block
type RegexBlock struct {
	Heading []string `yaml:"heading,omitempty" json:"heading,omitempty"`
}

// FallbackSearch holds per-language query templates
type FallbackSearch struct {
	QueryTemplates map[model.Language][]string `yaml:"query_templates,omitempty" json:"query_templates,omitempty"`
}

// IsV2 reports whether the recipe uses the language-keyed schema
func (r *Recipe) IsV2() bool {
	return r.Version >= 2 || r.Mapping != nil
}

// Load reads a single recipe document from a YAML file
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe %s: %w", path, err)
	}
	var rec Recipe
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidRecipe, path, err)
	}
	if strings.TrimSpace(rec.Section) == "" {
		return nil, fmt.Errorf("%w: %s: missing section key", ErrInvalidRecipe, path)
	}
	return &rec, nil
}

// LoadDir reads every *.yaml/*.yml recipe under dir, sorted by section key
// for deterministic candidate order
func LoadDir(dir string) ([]*Recipe, error) {
	var recipes []*Recipe
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		rec, err := Load(path)
		if err != nil {
			return err
		}
		recipes = append(recipes, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Section < recipes[j].Section })
	return recipes, nil
}

// CompileAll resolves every recipe for the given language, forcing regex
// compilation so malformed patterns fail fast at load time
func CompileAll(recipes []*Recipe, lang model.Language) error {
	for _, rec := range recipes {
		if _, err := ResolveSignals(rec, lang); err != nil {
			return err
		}
	}
	return nil
}
