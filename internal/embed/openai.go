package embed

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ndrozdov/anchora/internal/model"
)

// OpenAIProvider computes embeddings via the OpenAI embeddings API,
// rate-limited so batch alignment runs stay within the account's request
// quota.
type OpenAIProvider struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	limiter   *rate.Limiter
	batchSize int
}

// NewOpenAIProvider creates a provider from configuration
func NewOpenAIProvider(cfg model.EmbeddingConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedding provider: API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     openai.EmbeddingModel(cfg.Model),
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		batchSize: batch,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Vectors embeds the anchors' raw text in batches, keyed by anchor id.
// Anchors with empty text are skipped rather than sent to the API.
func (p *OpenAIProvider) Vectors(ctx context.Context, anchors []model.Anchor) (map[string][]float32, error) {
	out := make(map[string][]float32, len(anchors))

	var ids []string
	var texts []string
	for _, a := range anchors {
		if a.TextRaw == "" {
			continue
		}
		ids = append(ids, a.AnchorID)
		texts = append(texts, a.TextRaw)
	}

	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: p.model,
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("create embeddings: expected %d vectors, got %d", end-start, len(resp.Data))
		}
		for i, d := range resp.Data {
			out[ids[start+i]] = d.Embedding
		}
	}

	return out, nil
}
