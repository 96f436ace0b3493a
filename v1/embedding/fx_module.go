package embedding

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/polystore/v1/index"
)

// FXModule wires the embedding client into Fx.
//
// It provides:
//   - *Config         (NewConfig)
//   - *Client         (NewClient)
//   - index.Embedder  (the client, picked up by the polystore client module)
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewConfig,
		NewClient,
		AsEmbedder,
	),

	fx.Invoke(RegisterEmbeddingLifecycle),
)

// AsEmbedder exposes the client as an index.Embedder.
func AsEmbedder(c *Client) index.Embedder { return c }

// RegisterEmbeddingLifecycle releases the client's connections on shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
