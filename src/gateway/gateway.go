// Package gateway wires the preview renderer, the downstream risk scorers
// and the upstream transports together.
package gateway

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/Easy-Infra-Ltd/phish-preview/src/transport"
)

// Gateway is the top-level orchestrator. It wires config, transports,
// tool registry, and the preview renderer together.
type Gateway struct {
	cfg    config.Config
	logger *slog.Logger

	// transportFactory is injected for testing; nil uses the default.
	transportFactory transport.TransportFactory
}

// New creates a Gateway from the given config and logger.
func New(cfg config.Config, logger *slog.Logger) *Gateway {
	return &Gateway{cfg: cfg, logger: logger}
}

// NewWithTransportFactory creates a Gateway with a custom scorer transport
// factory (primarily for testing).
func NewWithTransportFactory(cfg config.Config, logger *slog.Logger, factory transport.TransportFactory) *Gateway {
	return &Gateway{cfg: cfg, logger: logger, transportFactory: factory}
}

// Run builds the renderer, connects scorers, registers tools and the
// preview HTTP handler, and starts the upstream server. Blocks until
// SIGINT/SIGTERM or ctx cancellation.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g.logger.Info("starting phish preview")

	// 1. Build the renderer once; it is shared read-only by every request.
	renderer := BuildRenderer(g.cfg.Preview, g.logger)

	// 2. Connect to scorers. None connected is not fatal.
	sm := transport.NewScorerManager(ctx, g.cfg.Scorers, g.logger, g.transportFactory)
	defer sm.Close()

	svc := NewService(renderer, NewScorer(sm, g.logger), g.logger)

	// 3. Register tools and the HTTP preview endpoint.
	upstream := transport.NewUpstream(g.cfg.Upstream, g.logger)
	count := NewRegistry(upstream, svc, g.logger).Register()
	upstream.Handle(g.cfg.Upstream.HTTP.PreviewPath, NewPreviewHandler(svc, g.logger))
	g.logger.Info("tools registered", "total", count, "stages", renderer.Stages())

	// 4. Start upstream (blocks until ctx cancelled).
	g.logger.Info("upstream ready", "transport", g.cfg.Upstream.Transport)
	return upstream.Run(ctx)
}
