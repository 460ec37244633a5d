package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Upstream wraps an MCP server that faces clients. Tools are registered on
// the underlying Server, and plain HTTP handlers with Handle, before calling
// Run.
type Upstream struct {
	Server *mcp.Server
	cfg    config.UpstreamConfig
	logger *slog.Logger

	routes []route
}

type route struct {
	pattern string
	handler http.Handler
}

// NewUpstream creates an upstream MCP server configured for the given transport.
// Tools should be added to u.Server before calling Run.
func NewUpstream(cfg config.UpstreamConfig, logger *slog.Logger) *Upstream {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    ImplementationName,
			Version: Version,
		},
		&mcp.ServerOptions{Logger: logger},
	)
	return &Upstream{
		Server: srv,
		cfg:    cfg,
		logger: logger.With("area", "upstream"),
	}
}

// Handle registers an additional HTTP handler served next to the MCP
// endpoint. Handlers are only served by the http transport.
func (u *Upstream) Handle(pattern string, handler http.Handler) {
	u.routes = append(u.routes, route{pattern: pattern, handler: handler})
}

// Handler returns the HTTP handler serving the MCP endpoint and every
// handler registered with Handle.
func (u *Upstream) Handler() http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return u.Server },
		&mcp.StreamableHTTPOptions{Logger: u.logger},
	)

	mux := http.NewServeMux()
	mux.Handle(u.cfg.HTTP.Path, mcpHandler)
	for _, r := range u.routes {
		mux.Handle(r.pattern, r.handler)
	}
	return mux
}

// Run starts the upstream server on the configured transport and blocks
// until ctx is cancelled or the transport closes.
func (u *Upstream) Run(ctx context.Context) error {
	switch u.cfg.Transport {
	case config.TransportStdio:
		return u.runStdio(ctx)
	case config.TransportHTTP:
		return u.runHTTP(ctx)
	default:
		return fmt.Errorf("unsupported upstream transport: %s", u.cfg.Transport)
	}
}

func (u *Upstream) runStdio(ctx context.Context) error {
	if len(u.routes) > 0 {
		u.logger.Debug("http handlers are not served over stdio", "handlers", len(u.routes))
	}
	u.logger.Info("starting stdio transport")
	return u.Server.Run(ctx, &mcp.StdioTransport{})
}

func (u *Upstream) runHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", u.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", u.cfg.HTTP.Addr, err)
	}
	u.logger.Info("starting HTTP transport", "addr", ln.Addr(), "path", u.cfg.HTTP.Path, "handlers", len(u.routes))

	srv := &http.Server{
		Handler:           u.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		u.logger.Info("shutting down HTTP transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
