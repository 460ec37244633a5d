package preview

import (
	"regexp"
	"sort"
	"strings"
)

// markClass is the fixed class carried by every risk marker.
const markClass = "danger"

var (
	// linkElement matches one complete link element, opening to closing tag.
	linkElement = regexp.MustCompile(`(?i)<a\b[^>]*>.*?</a>`)

	// escapedEntity matches the entities produced by Escape. They are never
	// targets for word matching.
	escapedEntity = regexp.MustCompile(`&(?:amp|lt|gt|quot);`)
)

// SegmentKind tags a Segment.
type SegmentKind int

const (
	// SegmentPlain is escaped text eligible for risk-word marking.
	SegmentPlain SegmentKind = iota
	// SegmentLink is a finished link element and is never rescanned.
	SegmentLink
)

func (k SegmentKind) String() string {
	if k == SegmentLink {
		return "link"
	}
	return "plain"
}

// Segment is a span of rendered markup.
type Segment struct {
	Kind SegmentKind
	Text string
}

// SplitSegments splits markup into alternating Link and Plain segments.
// Concatenating the segment texts in order reproduces html exactly.
func SplitSegments(html string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range linkElement.FindAllStringIndex(html, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Kind: SegmentPlain, Text: html[last:loc[0]]})
		}
		segs = append(segs, Segment{Kind: SegmentLink, Text: html[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(html) {
		segs = append(segs, Segment{Kind: SegmentPlain, Text: html[last:]})
	}
	return segs
}

// HighlightWords wraps every whole-word occurrence of a risk word outside
// link elements in a marker element. Link segments pass through untouched.
func HighlightWords(html string, words RiskWordSet) (string, []Mark) {
	if words.Len() == 0 || html == "" {
		return html, nil
	}

	var (
		b     strings.Builder
		marks []Mark
	)
	b.Grow(len(html))
	for _, seg := range SplitSegments(html) {
		if seg.Kind == SegmentLink {
			b.WriteString(seg.Text)
			continue
		}
		marks = append(marks, markPlain(&b, seg.Text, words)...)
	}
	return b.String(), marks
}

type claim struct {
	start, end int
	word       string
}

// markPlain writes text to b with risk words wrapped. Words are applied in
// order against the original text; a match overlapping a span already
// claimed by an earlier word, or cutting through an escaped entity, is
// skipped. Marker
// markup is therefore never matched by a later word.
func markPlain(b *strings.Builder, text string, words RiskWordSet) []Mark {
	entities := escapedEntity.FindAllStringIndex(text, -1)

	var claims []claim
	for i, re := range words.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlapsAny(claims, loc[0], loc[1]) || splitsEntity(entities, loc[0], loc[1]) {
				continue
			}
			claims = append(claims, claim{start: loc[0], end: loc[1], word: words.words[i]})
		}
	}

	sort.Slice(claims, func(i, j int) bool { return claims[i].start < claims[j].start })

	var marks []Mark
	last := 0
	for _, c := range claims {
		b.WriteString(text[last:c.start])
		b.WriteString(`<mark class="` + markClass + `">`)
		b.WriteString(text[c.start:c.end])
		b.WriteString(`</mark>`)
		marks = append(marks, Mark{Word: c.word, Text: text[c.start:c.end]})
		last = c.end
	}
	b.WriteString(text[last:])
	return marks
}

// splitsEntity reports whether [start, end) cuts through an escaped entity.
// A match may contain whole entities but never part of one.
func splitsEntity(entities [][]int, start, end int) bool {
	for _, e := range entities {
		if start > e[0] && start < e[1] || end > e[0] && end < e[1] {
			return true
		}
	}
	return false
}

func overlapsAny(claims []claim, start, end int) bool {
	for _, c := range claims {
		if start < c.end && c.start < end {
			return true
		}
	}
	return false
}

// MarkStage highlights risk words outside link elements.
type MarkStage struct {
	words RiskWordSet
}

// NewMarkStage creates a MarkStage for the given words.
func NewMarkStage(words RiskWordSet) *MarkStage {
	return &MarkStage{words: words}
}

func (s *MarkStage) Name() string { return "marks" }

func (s *MarkStage) Apply(content string) StageResult {
	out, marks := HighlightWords(content, s.words)
	return StageResult{
		Content:   out,
		Changed:   len(marks) > 0,
		Marks:     marks,
		StageName: s.Name(),
	}
}
