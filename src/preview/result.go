package preview

import "fmt"

// Classification is the trust verdict for an extracted URL.
type Classification int

const (
	// ClassWarn is the default: the link is not known to be trusted.
	ClassWarn Classification = iota
	// ClassSafe means the host is a trusted domain or one of its subdomains.
	ClassSafe
	// ClassDanger means the URL contains an IPv4 literal. It overrides
	// every other classification.
	ClassDanger
)

func (c Classification) String() string {
	switch c {
	case ClassSafe:
		return "safe"
	case ClassWarn:
		return "warn"
	case ClassDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// MarshalText lets classifications appear as their names in JSON output.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a classification name.
func (c *Classification) UnmarshalText(text []byte) error {
	switch string(text) {
	case "safe":
		*c = ClassSafe
	case "warn":
		*c = ClassWarn
	case "danger":
		*c = ClassDanger
	default:
		return fmt.Errorf("unknown classification %q", text)
	}
	return nil
}

// ExtractedURL is one URL found in the text together with its verdict.
type ExtractedURL struct {
	URL         string         `json:"url"`  // as matched in the escaped text
	Host        string         `json:"host"` // lower-cased, "www." stripped; empty if unparsable
	Class       Classification `json:"class"`
	TrustedBy   string         `json:"trustedBy,omitempty"`
	IPLiteral   bool           `json:"ipLiteral,omitempty"`
	Registrable string         `json:"registrable,omitempty"`
	Lookalike   string         `json:"lookalike,omitempty"`
}

// Mark is one highlighted risk-word occurrence.
type Mark struct {
	Word string `json:"word"` // configured risk word
	Text string `json:"text"` // text as it appeared
}

// StageResult is the outcome of a single Stage.
type StageResult struct {
	Content   string
	Changed   bool
	Links     []ExtractedURL
	Marks     []Mark
	Notes     []string // human-readable remarks, e.g. "input truncated"
	StageName string
}

// Result aggregates results from all stages of a pipeline.
type Result struct {
	Fragment     string
	Links        []ExtractedURL
	Marks        []Mark
	Notes        []string
	StageResults []StageResult
}
