package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Easy-Infra-Ltd/phish-preview/src/preview"
	"github.com/Easy-Infra-Ltd/phish-preview/src/transport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const scoreTimeout = 10 * time.Second

// ScoreResult is the risk score reported by a downstream scorer.
type ScoreResult struct {
	Scorer string  `json:"scorer"`
	Score  float64 `json:"score"`
}

// Scorer asks the connected downstream scorers for a risk score. It looks
// up sessions at call time so that reconnected sessions are used
// automatically.
type Scorer struct {
	scorers *transport.ScorerManager
	logger  *slog.Logger
}

// NewScorer creates a Scorer. A nil manager yields a Scorer that never
// answers.
func NewScorer(scorers *transport.ScorerManager, logger *slog.Logger) *Scorer {
	return &Scorer{scorers: scorers, logger: logger.With("area", "scoring")}
}

// Score returns the highest score reported by any connected scorer.
// ok is false when no scorer answered.
func (s *Scorer) Score(ctx context.Context, text string) (result ScoreResult, ok bool) {
	if s == nil || s.scorers == nil {
		return ScoreResult{}, false
	}

	for _, conn := range s.scorers.Conns() {
		score, err := s.callScorer(ctx, conn, text)
		if err != nil {
			s.logger.Warn("scorer failed", "scorer", conn.Name, "err", err)
			continue
		}
		if !ok || score > result.Score {
			result = ScoreResult{Scorer: conn.Name, Score: score}
			ok = true
		}
	}
	return result, ok
}

func (s *Scorer) callScorer(ctx context.Context, conn *transport.ScorerConn, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, scoreTimeout)
	defer cancel()

	res, err := conn.Session.CallTool(ctx, &mcp.CallToolParams{
		Name:      conn.Config.Tool,
		Arguments: map[string]any{"text": text},
	})
	if err != nil {
		return 0, fmt.Errorf("calling %s: %w", conn.Config.Tool, err)
	}
	if res.IsError {
		return 0, fmt.Errorf("calling %s: tool reported an error", conn.Config.Tool)
	}

	return scoreFromResult(res), nil
}

// scoreFromResult reads the score from the structured "score" field, or
// failing that from the first text content. A result carrying no number
// scores 0.
func scoreFromResult(res *mcp.CallToolResult) float64 {
	if m, ok := res.StructuredContent.(map[string]any); ok {
		if v, ok := preview.ParseScore(m["score"]); ok {
			return v
		}
	}

	for _, c := range res.Content {
		tc, ok := c.(*mcp.TextContent)
		if !ok || strings.TrimSpace(tc.Text) == "" {
			continue
		}
		if v, ok := preview.ParseScore(tc.Text); ok {
			return v
		}
		break
	}
	return 0
}
