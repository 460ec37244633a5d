package preview

import "strings"

// htmlEscaper replaces exactly the four characters that can open a tag or
// close an attribute. Single quotes are left alone: every attribute this
// package emits is double-quoted.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Escape neutralizes markup in untrusted text. It must run exactly once,
// before any markup is injected.
func Escape(text string) string {
	return htmlEscaper.Replace(text)
}

// EscapeStage escapes the raw input.
type EscapeStage struct{}

func (EscapeStage) Name() string { return "escape" }

func (EscapeStage) Apply(content string) StageResult {
	escaped := Escape(content)
	return StageResult{
		Content:   escaped,
		Changed:   escaped != content,
		StageName: "escape",
	}
}
