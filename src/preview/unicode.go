package preview

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UnicodeStage normalizes text to NFKC and removes invisible and control
// characters, so that zero-width joiners or full-width letters cannot slip a
// risk word or a lookalike host past the later stages. It runs before
// escaping.
type UnicodeStage struct{}

func (UnicodeStage) Name() string { return "unicode" }

func (UnicodeStage) Apply(content string) StageResult {
	normalized := norm.NFKC.String(content)

	var b strings.Builder
	b.Grow(len(normalized))

	removed := 0
	for _, r := range normalized {
		if shouldRemove(r) {
			removed++
			continue
		}
		b.WriteRune(r)
	}

	cleaned := b.String()
	if cleaned == content {
		return StageResult{Content: content, StageName: "unicode"}
	}

	var notes []string
	if removed > 0 {
		notes = append(notes, "invisible/control characters removed")
	}
	return StageResult{
		Content:   cleaned,
		Changed:   true,
		Notes:     notes,
		StageName: "unicode",
	}
}

// shouldRemove reports whether r is a format (Cf), private use (Co) or
// control (Cc) character other than common whitespace.
func shouldRemove(r rune) bool {
	if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
		return false
	}
	return unicode.In(r, unicode.Cf, unicode.Co, unicode.Cc)
}
