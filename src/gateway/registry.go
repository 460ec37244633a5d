package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Easy-Infra-Ltd/phish-preview/src/preview"
	"github.com/Easy-Infra-Ltd/phish-preview/src/transport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed on the upstream server.
const (
	ToolRenderPreview = "render_preview"
	ToolScorePercent  = "score_percent"
	ToolTrustedHosts  = "trusted_hosts"
)

// Registry registers the preview tools on the upstream server.
type Registry struct {
	upstream *transport.Upstream
	service  *Service
	logger   *slog.Logger
}

// NewRegistry creates a registry wired to the given upstream and service.
func NewRegistry(upstream *transport.Upstream, service *Service, logger *slog.Logger) *Registry {
	return &Registry{
		upstream: upstream,
		service:  service,
		logger:   logger.With("area", "registry"),
	}
}

// Register adds every tool to the upstream server and returns how many
// were registered.
func (r *Registry) Register() int {
	tools := []struct {
		tool    *mcp.Tool
		handler mcp.ToolHandler
	}{
		{renderPreviewTool(), r.renderPreview},
		{scorePercentTool(), r.scorePercent},
		{trustedHostsTool(), r.trustedHosts},
	}

	for _, t := range tools {
		r.upstream.Server.AddTool(t.tool, t.handler)
		r.logger.Debug("registered tool", "tool", t.tool.Name)
	}
	return len(tools)
}

func renderPreviewTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolRenderPreview,
		Title:       "Render phishing preview",
		Description: "Renders an email body as an HTML fragment with classified links (safe, warn, danger) and highlighted risk words. Pass either plaintext in \"text\" or a raw RFC 5322 message in \"eml\".",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "plaintext email body"},
				"eml":  map[string]any{"type": "string", "description": "raw message source"},
			},
		},
	}
}

func scorePercentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolScorePercent,
		Title:       "Risk score to percent",
		Description: "Maps a 0-10 risk score to a 0-100 display percentage and a Low/Medium/High band. Non-numeric scores map to 0.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score": map[string]any{"description": "risk score on a 0-10 scale"},
			},
		},
	}
}

func trustedHostsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolTrustedHosts,
		Title:       "Trusted hosts and brands",
		Description: "Lists the trusted hostnames linked from a text and the brands they legitimately represent.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
	}
}

func (r *Registry) renderPreview(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args PreviewRequest
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	resp, err := r.service.Preview(ctx, args)
	if err != nil {
		r.logger.Warn("preview failed", "err", err)
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: resp.Fragment}},
		StructuredContent: resp,
	}, nil
}

type scorePercentArgs struct {
	Score any `json:"score"`
}

type scorePercentResult struct {
	Percent float64 `json:"percent"`
	Band    string  `json:"band"`
}

func (r *Registry) scorePercent(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args scorePercentArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	res := scorePercentResult{
		Percent: preview.ScoreToPercent(args.Score),
		Band:    preview.RiskBand(args.Score),
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%g", res.Percent)}},
		StructuredContent: res,
	}, nil
}

type trustedHostsArgs struct {
	Text string `json:"text"`
}

type trustedHostsResult struct {
	Hosts  []string `json:"hosts"`
	Brands []string `json:"brands"`
}

func (r *Registry) trustedHosts(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args trustedHostsArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err), nil
	}

	rules := r.service.Renderer().Rules()
	hosts := preview.TrustedHostsInText(args.Text, rules.Trusted)
	res := trustedHostsResult{
		Hosts:  hosts,
		Brands: preview.BrandsImplicated(hosts, rules.Brands),
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(data)}},
		StructuredContent: res,
	}, nil
}

// decodeArgs unmarshals tool arguments into v. Missing arguments leave v
// at its zero value.
func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
