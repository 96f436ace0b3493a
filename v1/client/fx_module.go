package client

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/polystore/v1/index"
	"github.com/Aleph-Alpha/polystore/v1/logger"
	"github.com/Aleph-Alpha/polystore/v1/observability"
	"github.com/Aleph-Alpha/polystore/v1/tracer"
)

// FXModule provides a *Client that attaches every database of the injected
// *Config on start and closes them on stop.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    client.FXModule,
//	    fx.Provide(func() (*client.Config, error) {
//	        return client.LoadConfig("polystore.yaml")
//	    }),
//	)
//
// An observability.Observer (for example from metrics.FXModule), a
// *tracer.Tracer and an index.Embedder are picked up when present.
var FXModule = fx.Module("polystore-client",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterClientLifecycle),
)

// ClientParams groups the dependencies of NewClientWithDI.
type ClientParams struct {
	fx.In

	Config   *Config
	Logger   *logger.Logger
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
	Embedder index.Embedder         `optional:"true"`
}

// NewClientWithDI builds a Client from injected dependencies. Databases are
// attached by the lifecycle hook, not here.
func NewClientWithDI(p ClientParams) *Client {
	opts := []Option{WithLogger(p.Logger)}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	if p.Tracer != nil {
		opts = append(opts, WithTracer(p.Tracer))
	}
	if p.Embedder != nil {
		opts = append(opts, WithEmbedder(p.Embedder))
	}
	if p.Config != nil && p.Config.BaseDir != "" {
		opts = append(opts, WithBaseDir(p.Config.BaseDir))
	}
	return New(opts...)
}

// RegisterClientLifecycle attaches the configured databases on start and
// closes every attached database on stop.
func RegisterClientLifecycle(lc fx.Lifecycle, c *Client, cfg *Config, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg == nil {
				return nil
			}
			if err := c.FromConfig(ctx, cfg); err != nil {
				log.Error("failed to attach configured databases", err, nil)
				return err
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing polystore databases", nil, map[string]interface{}{
				"aliases": c.Aliases(),
			})
			return c.Close(ctx)
		},
	})
}
