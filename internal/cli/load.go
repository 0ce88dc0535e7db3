package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ndrozdov/anchora/internal/ingest"
	"github.com/ndrozdov/anchora/internal/model"
	"github.com/ndrozdov/anchora/internal/recipe"
	"github.com/ndrozdov/anchora/internal/registry"
)

// loadConfig layers viper values (config file + ANCHORA_* env) over the
// built-in defaults
func loadConfig() model.Config {
	cfg := model.DefaultConfig()

	setFloat := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}

	setFloat("match.fuzzy_threshold", &cfg.Match.FuzzyThreshold)
	setFloat("match.embedding_threshold", &cfg.Match.EmbeddingThreshold)
	setFloat("match.hybrid_threshold", &cfg.Match.HybridThreshold)
	setFloat("match.hybrid_fuzzy_weight", &cfg.Match.HybridFuzzyWeight)

	setInt("classify.must_weight", &cfg.Classify.MustWeight)
	setInt("classify.should_weight", &cfg.Classify.ShouldWeight)
	setInt("classify.regex_weight", &cfg.Classify.RegexWeight)

	setString("embedding.provider", &cfg.Embedding.Provider)
	setString("embedding.model", &cfg.Embedding.Model)
	setString("embedding.base_url", &cfg.Embedding.BaseURL)
	setString("embedding.vectors_path", &cfg.Embedding.VectorsPath)
	setFloat("embedding.requests_per_second", &cfg.Embedding.RequestsPerSecond)
	setInt("embedding.burst", &cfg.Embedding.Burst)
	setInt("embedding.batch_size", &cfg.Embedding.BatchSize)

	setInt("workers.concurrency", &cfg.Workers.Concurrency)

	cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Output.Verbose = viper.GetBool("verbose")
	return cfg
}

// loadAnchors reads a document version from a JSONL or HTML file. The
// version id defaults to the file name without extension.
func loadAnchors(path, versionID string) ([]model.Anchor, error) {
	if versionID == "" {
		versionID = versionFromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open anchors %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ingest.FromHTML(f, versionID)
	default:
		return ingest.ReadJSONL(f, versionID)
	}
}

func versionFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadRecipes reads recipes from a directory or a single YAML file and
// fails fast on malformed regex patterns
func loadRecipes(path string, lang model.Language) ([]*recipe.Recipe, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("recipes %s: %w", path, err)
	}
	var recipes []*recipe.Recipe
	if info.IsDir() {
		recipes, err = recipe.LoadDir(path)
	} else {
		var rec *recipe.Recipe
		rec, err = recipe.Load(path)
		recipes = []*recipe.Recipe{rec}
	}
	if err != nil {
		return nil, err
	}
	if err := recipe.CompileAll(recipes, lang); err != nil {
		return nil, err
	}
	return recipes, nil
}

// loadRegistry reads a zone registry file, or falls back to the built-in
// registry when no path is given
func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.DefaultRegistry(), nil
	}
	return registry.Load(path)
}
