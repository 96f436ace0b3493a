package embedding

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/polystore/v1/index"
)

// Provider contract
type Provider interface {
	// Create generates embeddings for the given texts using the specified model.
	Create(ctx context.Context, model string, texts ...string) ([][]float64, error)
}

// Client computes embeddings through an inference service. It implements
// index.BatchEmbedder, so it can back the search index of any database.
type Client struct {
	provider  Provider
	model     string
	batchSize int
}

var _ index.BatchEmbedder = (*Client)(nil)

// NewClient constructs a Client from Config.
// It validates the config and internally constructs the inference provider.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	p, err := newInferenceProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return NewClientWithProvider(p, cfg.Model, cfg.BatchSize), nil
}

// NewClientWithProvider wraps an existing provider.
func NewClientWithProvider(p Provider, model string, batchSize int) *Client {
	return &Client{provider: p, model: model, batchSize: batchSize}
}

// Embed returns the embedding of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch returns one embedding per text, splitting the request into
// batches of the configured size.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	size := c.batchSize
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vectors, err := c.provider.Create(ctx, c.model, texts[start:end]...)
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		for _, v := range vectors {
			out = append(out, toFloat32(v))
		}
	}
	return out, nil
}

// Close allows the client to release any internal resources used by the provider.
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
