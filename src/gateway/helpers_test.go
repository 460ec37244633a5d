package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/Easy-Infra-Ltd/phish-preview/src/transport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testScorerServer creates an in-memory MCP server exposing a "score" tool
// backed by handler and returns its client-side transport. The server runs
// until ctx is cancelled.
func testScorerServer(t *testing.T, ctx context.Context, handler mcp.ToolHandler) mcp.Transport {
	t.Helper()
	srv := mcp.NewServer(
		&mcp.Implementation{Name: "test-scorer", Version: "0.0.1"},
		nil,
	)
	srv.AddTool(&mcp.Tool{
		Name:        config.DefaultScorerTool,
		Description: "test scorer",
		InputSchema: map[string]any{"type": "object"},
	}, handler)

	srvTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = srv.Run(ctx, srvTransport)
	}()
	return clientTransport
}

func textScore(text string) mcp.ToolHandler {
	return func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func structuredScore(score float64) mcp.ToolHandler {
	return func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: "see structured content"}},
			StructuredContent: map[string]any{"score": score},
		}, nil
	}
}

func failingScore() mcp.ToolHandler {
	return func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "model unavailable"}},
			IsError: true,
		}, nil
	}
}

func boolPtr(b bool) *bool { return &b }

// newTestService builds a Service from preview config and connects the
// given scorers via in-memory transports.
func newTestService(
	t *testing.T,
	ctx context.Context,
	scorers map[string]mcp.ToolHandler,
	pcfg config.PreviewConfig,
) *Service {
	t.Helper()

	var cfgs []config.ScorerConfig
	transports := make(map[string]mcp.Transport)
	for name, handler := range scorers {
		cfgs = append(cfgs, config.ScorerConfig{
			Name:      name,
			Transport: config.TransportStdio,
			Command:   []string{"dummy"},
			Tool:      config.DefaultScorerTool,
		})
		transports[name] = testScorerServer(t, ctx, handler)
	}

	factory := func(sc config.ScorerConfig) (mcp.Transport, error) {
		return transports[sc.Name], nil
	}

	sm := transport.NewScorerManager(ctx, cfgs, testLogger(), factory)
	t.Cleanup(sm.Close)

	return NewService(BuildRenderer(pcfg, testLogger()), NewScorer(sm, testLogger()), testLogger())
}

// setupGateway registers the preview tools on an upstream server and
// returns a client session connected to it.
func setupGateway(
	t *testing.T,
	ctx context.Context,
	scorers map[string]mcp.ToolHandler,
	pcfg config.PreviewConfig,
) *mcp.ClientSession {
	t.Helper()

	svc := newTestService(t, ctx, scorers, pcfg)
	upstream := transport.NewUpstream(config.UpstreamConfig{Transport: config.TransportStdio}, testLogger())
	if n := NewRegistry(upstream, svc, testLogger()).Register(); n != 3 {
		t.Fatalf("registered %d tools, want 3", n)
	}

	srvTransport, clientTransport := mcp.NewInMemoryTransports()
	go func() {
		_ = upstream.Server.Run(ctx, srvTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "0.0.1"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() {
		if err := session.Close(); err != nil {
			t.Logf("session close: %v", err)
		}
	})
	return session
}

func trustedConfig(domains ...string) config.PreviewConfig {
	return config.PreviewConfig{TrustedDomains: config.DomainList{Domains: domains}}
}

// decodeStructured re-encodes a result's structured content into v.
func decodeStructured(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	data, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("encoding structured content: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decoding structured content %s: %v", data, err)
	}
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected *TextContent, got %T", res.Content[0])
	}
	return tc.Text
}
