package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Easy-Infra-Ltd/phish-preview/src/mailbody"
	"github.com/Easy-Infra-Ltd/phish-preview/src/preview"
	"github.com/google/uuid"
)

// PreviewRequest is the input to a preview: either a plaintext body or a
// raw message. EML wins when both are set.
type PreviewRequest struct {
	Text string `json:"text,omitempty"`
	EML  string `json:"eml,omitempty"`
}

// PreviewResponse is a rendered preview with its analysis and, when a
// scorer answered, the risk score.
type PreviewResponse struct {
	ID string `json:"id"`
	preview.Analysis

	Subject      string   `json:"subject,omitempty"`
	From         string   `json:"from,omitempty"`
	SenderDomain string   `json:"senderDomain,omitempty"`
	MailWarnings []string `json:"mailWarnings,omitempty"`
	// SenderMismatches lists brands named in the body that the sender
	// domain does not belong to.
	SenderMismatches []string `json:"senderMismatches,omitempty"`

	Score   *float64 `json:"score,omitempty"`
	Percent *float64 `json:"percent,omitempty"`
	Band    string   `json:"band,omitempty"`
	Scorer  string   `json:"scorer,omitempty"`
}

// Service renders previews and attaches risk scores. It is safe for
// concurrent use.
type Service struct {
	renderer *preview.Renderer
	scorer   *Scorer
	logger   *slog.Logger
}

// NewService creates a Service. scorer may be nil.
func NewService(renderer *preview.Renderer, scorer *Scorer, logger *slog.Logger) *Service {
	return &Service{
		renderer: renderer,
		scorer:   scorer,
		logger:   logger.With("area", "preview"),
	}
}

// Renderer returns the renderer the service uses.
func (s *Service) Renderer() *preview.Renderer { return s.renderer }

// Preview renders a request. The only error is an unreadable raw message;
// any text renders.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (PreviewResponse, error) {
	resp := PreviewResponse{ID: uuid.NewString()}

	text := req.Text
	if req.EML != "" {
		body, err := mailbody.Extract(strings.NewReader(req.EML))
		if err != nil {
			return PreviewResponse{}, fmt.Errorf("extracting message body: %w", err)
		}
		text = body.Text
		resp.Subject = body.Subject
		resp.From = body.From
		resp.SenderDomain = body.SenderDomain
		resp.MailWarnings = body.Warnings
	}

	resp.Analysis = s.renderer.Analyze(text)
	if err := preview.Audit(resp.Fragment); err != nil {
		s.logger.Error("fragment failed audit, serving escaped text", "id", resp.ID, "err", err)
		resp.Fragment = preview.Escape(text)
	}
	resp.SenderMismatches = preview.SenderMismatches(resp.SenderDomain, resp.BrandsMentioned, s.renderer.Rules().Brands)

	if sr, ok := s.scorer.Score(ctx, text); ok {
		percent := preview.ScoreToPercent(sr.Score)
		resp.Score = &sr.Score
		resp.Percent = &percent
		resp.Band = preview.RiskBand(sr.Score)
		resp.Scorer = sr.Scorer
	}

	s.logger.Info("rendered preview",
		"id", resp.ID,
		"links", len(resp.Links),
		"marks", len(resp.Marks),
		"unverifiedBrands", resp.UnverifiedBrands,
		"senderMismatches", resp.SenderMismatches,
		"band", resp.Band,
	)
	return resp, nil
}
