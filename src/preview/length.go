package preview

// truncationMarker is appended to input cut by a LengthStage.
const truncationMarker = "\n[truncated]"

// LengthStage truncates input exceeding a character limit so that a
// single render stays bounded.
type LengthStage struct {
	MaxChars int
}

// NewLengthStage creates a LengthStage with the given character limit.
func NewLengthStage(maxChars int) *LengthStage {
	return &LengthStage{MaxChars: maxChars}
}

func (s *LengthStage) Name() string { return "length" }

func (s *LengthStage) Apply(content string) StageResult {
	runes := []rune(content)
	if s.MaxChars <= 0 || len(runes) <= s.MaxChars {
		return StageResult{Content: content, StageName: s.Name()}
	}

	return StageResult{
		Content:   string(runes[:s.MaxChars]) + truncationMarker,
		Changed:   true,
		Notes:     []string{"input exceeded character limit"},
		StageName: s.Name(),
	}
}
