// Package embed supplies embedding vectors for anchors. Embedding
// computation is an external capability: the matcher consumes it through
// the match.EmbeddingProvider interface and degrades to fuzzy-only
// matching when no provider is configured.
package embed

import (
	"fmt"

	"github.com/ndrozdov/anchora/internal/match"
	"github.com/ndrozdov/anchora/internal/model"
)

// NewProvider builds the configured embedding provider. An empty provider
// name means "no embeddings": the caller passes nil to the matcher.
func NewProvider(cfg model.EmbeddingConfig) (match.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg)
	case "static":
		return LoadStaticProvider(cfg.VectorsPath)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (supported: openai, static)", cfg.Provider)
	}
}
