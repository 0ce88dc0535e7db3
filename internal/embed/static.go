package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ndrozdov/anchora/internal/model"
)

// StaticProvider serves precomputed vectors keyed by anchor id, loaded
// from a JSON file. It is the offline path: embedding services deliver
// vector dumps out of band and the matcher consumes them here.
type StaticProvider struct {
	vectors map[string][]float32
}

// NewStaticProvider wraps an in-memory vector map
func NewStaticProvider(vectors map[string][]float32) *StaticProvider {
	return &StaticProvider{vectors: vectors}
}

// LoadStaticProvider reads a {"anchor_id": [..], ...} JSON file
func LoadStaticProvider(path string) (*StaticProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("static embedding provider: vectors path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectors %s: %w", path, err)
	}
	var vectors map[string][]float32
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parse vectors %s: %w", path, err)
	}
	return &StaticProvider{vectors: vectors}, nil
}

// Name returns the provider name
func (p *StaticProvider) Name() string {
	return "static"
}

// Vectors returns the known vectors for the requested anchors. Missing
// anchors are simply absent: the matcher degrades per anchor.
func (p *StaticProvider) Vectors(_ context.Context, anchors []model.Anchor) (map[string][]float32, error) {
	out := make(map[string][]float32)
	for _, a := range anchors {
		if vec, ok := p.vectors[a.AnchorID]; ok {
			out[a.AnchorID] = vec
		}
	}
	return out, nil
}
