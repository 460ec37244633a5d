package preview

import (
	"regexp"
	"strings"
)

// builtInRiskWords are the phishing indicator words flagged by default.
var builtInRiskWords = []string{
	"urgent",
	"verify",
	"password",
	"account",
	"login",
	"click",
	"reset",
	"secure",
	"update",
}

// RiskWordSet is an ordered, immutable set of case-insensitive whole-word
// risk indicators with their compiled matchers.
type RiskWordSet struct {
	words    []string
	patterns []*regexp.Regexp
}

// NewRiskWordSet builds a word set. If disableBuiltIn is false the
// built-in words come first; custom words are always appended. Words are
// deduplicated case-insensitively, keeping the first spelling.
func NewRiskWordSet(disableBuiltIn bool, custom ...string) RiskWordSet {
	var sources []string
	if !disableBuiltIn {
		sources = append(sources, builtInRiskWords...)
	}
	sources = append(sources, custom...)

	var set RiskWordSet
	seen := make(map[string]struct{}, len(sources))
	for _, w := range sources {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		set.words = append(set.words, w)
		set.patterns = append(set.patterns, wordPattern(w))
	}
	return set
}

// wordPattern matches w case-insensitively in escaped text. Word
// boundaries are only required on sides where w starts or ends with a word
// character, so words such as `"free"` or "AT&T" still match.
func wordPattern(w string) *regexp.Regexp {
	expr := regexp.QuoteMeta(Escape(w))
	if isWordByte(w[0]) {
		expr = `\b` + expr
	}
	if isWordByte(w[len(w)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(`(?i)` + expr)
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// DefaultRiskWords returns the built-in word set.
func DefaultRiskWords() RiskWordSet {
	return NewRiskWordSet(false)
}

// Words returns the words in application order.
func (s RiskWordSet) Words() []string {
	out := make([]string, len(s.words))
	copy(out, s.words)
	return out
}

// Len returns the number of words.
func (s RiskWordSet) Len() int { return len(s.words) }
