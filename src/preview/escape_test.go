package preview

import "testing"

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"tag", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"quote", `say "hi"`, "say &quot;hi&quot;"},
		{"ampersand first", "a & b", "a &amp; b"},
		{"existing entity escaped again", "&amp;", "&amp;amp;"},
		{"single quote untouched", "it's", "it's"},
		{"unicode untouched", "grüße ✓", "grüße ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeStage_Changed(t *testing.T) {
	res := EscapeStage{}.Apply("a < b")
	if !res.Changed {
		t.Error("expected Changed for input with markup")
	}
	if res.Content != "a &lt; b" {
		t.Errorf("content = %q, want %q", res.Content, "a &lt; b")
	}

	res = EscapeStage{}.Apply("plain")
	if res.Changed {
		t.Error("expected no change for plain input")
	}
}
