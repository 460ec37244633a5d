// Package report writes a human-readable summary of a preview analysis for
// terminals.
package report

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/Easy-Infra-Ltd/phish-preview/src/preview"
	"github.com/fatih/color"
)

// Summary is everything the report prints.
type Summary struct {
	Analysis preview.Analysis
	Subject  string
	From     string
	// SenderDomain and SenderMismatches come from a parsed message.
	SenderDomain     string
	SenderMismatches []string
	// Score is the external 0-10 risk score, nil when no scorer answered.
	Score *float64
}

// Writer formats summaries, optionally with ANSI colours.
type Writer struct {
	colors map[string]*color.Color
}

// NewWriter creates a Writer. Colours are forced on or off regardless of
// whether the output is a terminal; the caller decides.
func NewWriter(useColor bool) *Writer {
	colors := map[string]*color.Color{
		"safe":    color.New(color.FgGreen),
		"warn":    color.New(color.FgYellow),
		"danger":  color.New(color.FgRed, color.Bold),
		"header":  color.New(color.FgWhite, color.Bold),
		"subtle":  color.New(color.FgCyan),
		"Low":     color.New(color.FgGreen),
		"Medium":  color.New(color.FgYellow),
		"High":    color.New(color.FgRed, color.Bold),
		"unknown": color.New(color.FgMagenta),
	}
	for _, c := range colors {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &Writer{colors: colors}
}

func (rw *Writer) paint(key, s string) string {
	c, ok := rw.colors[key]
	if !ok {
		c = rw.colors["unknown"]
	}
	return c.Sprint(s)
}

// Write prints s to w.
func (rw *Writer) Write(w io.Writer, s Summary) error {
	var b strings.Builder

	if s.Subject != "" {
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Subject:"), s.Subject)
	}
	if s.From != "" {
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "From:"), s.From)
	}
	if s.Score != nil {
		band := preview.RiskBand(*s.Score)
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Risk:"),
			rw.paint(band, fmt.Sprintf("%.0f%% (%s)", preview.ScoreToPercent(*s.Score), band)))
	}

	a := s.Analysis
	fmt.Fprintf(&b, "%s\n", rw.paint("header", fmt.Sprintf("Links (%d):", len(a.Links))))
	for _, l := range a.Links {
		class := l.Class.String()
		fmt.Fprintf(&b, "  %-8s %s", rw.paint(class, "["+class+"]"), html.UnescapeString(l.URL))
		if hint := linkHint(l); hint != "" {
			fmt.Fprintf(&b, "  %s", rw.paint("subtle", hint))
		}
		b.WriteByte('\n')
	}

	words := make([]string, 0, len(a.Marks))
	for _, m := range a.Marks {
		words = append(words, html.UnescapeString(m.Text))
	}
	fmt.Fprintf(&b, "%s %s\n", rw.paint("header", fmt.Sprintf("Risk words (%d):", len(words))), list(words))

	fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Verified brands:"), list(a.BrandsImplicated))
	if len(a.UnverifiedBrands) > 0 {
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Unverified brands:"), rw.paint("warn", list(a.UnverifiedBrands)))
	}
	if len(s.SenderMismatches) > 0 {
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Sender mismatch:"),
			rw.paint("danger", fmt.Sprintf("%s not sent from their domains (sender %s)", list(s.SenderMismatches), s.SenderDomain)))
	}
	for _, n := range a.Notes {
		fmt.Fprintf(&b, "%s %s\n", rw.paint("header", "Note:"), n)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func linkHint(l preview.ExtractedURL) string {
	switch {
	case l.IPLiteral:
		return "ip literal"
	case l.TrustedBy != "":
		return "trusted via " + l.TrustedBy
	case l.Lookalike != "":
		return "resembles " + l.Lookalike
	case l.Host == "":
		return "unparsable"
	}
	return ""
}

func list(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
