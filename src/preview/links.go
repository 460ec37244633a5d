package preview

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	// hrefPattern matches http/https URLs. The excluded set mirrors what
	// ends a URL in running text: whitespace, ")", ">", and quotes.
	hrefPattern = regexp.MustCompile(`(?i)https?://[^\s\v\p{Z}\x{FEFF})>'"]+`)

	// ipv4Pattern matches a dotted-quad IPv4 literal on whole-number boundaries.
	ipv4Pattern = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d{1,2})\.){3}(?:25[0-5]|2[0-4]\d|1?\d{1,2})\b`)

	entityUnescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
	)
)

// ClassifyURL derives the host and classification of a URL as it was
// matched in escaped text. Unparsable URLs keep the default ClassWarn
// unless they carry an IPv4 literal.
func ClassifyURL(raw string, trusted TrustedDomainSet) ExtractedURL {
	u := ExtractedURL{
		URL:   raw,
		Host:  hostOf(raw),
		Class: ClassWarn,
	}

	if d, ok := trusted.Match(u.Host); ok {
		u.Class = ClassSafe
		u.TrustedBy = d
	}

	// Tested against the raw text, not the host: an IP anywhere in the URL
	// wins over trust.
	if ipv4Pattern.MatchString(raw) {
		u.Class = ClassDanger
		u.IPLiteral = true
	}

	if u.Host != "" && !u.IPLiteral {
		if r, err := publicsuffix.EffectiveTLDPlusOne(u.Host); err == nil {
			u.Registrable = r
		}
	}
	if u.Class == ClassWarn {
		u.Lookalike = lookalikeOf(u, trusted)
	}
	return u
}

// hostOf returns the lower-cased ASCII hostname of raw with one leading
// "www." removed, or "" when raw does not parse.
func hostOf(raw string) string {
	parsed, err := url.Parse(entityUnescaper.Replace(raw))
	if err != nil || !validPort(parsed.Port()) {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}
	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return ""
		}
		host = ascii
	}
	return strings.TrimPrefix(host, "www.")
}

// validPort reports whether port is empty or a number in 0-65535. The
// url package only checks that a port is made of digits.
func validPort(port string) bool {
	if port == "" {
		return true
	}
	n, err := strconv.Atoi(port)
	return err == nil && n <= 65535
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// lookalikeOf names the trusted domain an untrusted host appears to
// imitate: it embeds the trusted name ("paypal.com.evil.io",
// "notpaypal.com") or its registrable domain is a small edit away from it
// ("paypa1.com").
func lookalikeOf(u ExtractedURL, trusted TrustedDomainSet) string {
	if u.Host == "" || u.IPLiteral {
		return ""
	}
	candidate := u.Registrable
	if candidate == "" {
		candidate = u.Host
	}
	for _, d := range trusted.domains {
		if strings.Contains(u.Host, d) {
			return d
		}
		if len(d) < 5 {
			continue
		}
		limit := 1
		if len(d) >= 10 {
			limit = 2
		}
		if dist := levenshtein.ComputeDistance(candidate, d); dist > 0 && dist <= limit {
			return d
		}
	}
	return ""
}

// LinkifyURLs replaces every URL in already-escaped text with a badge link
// element. Nothing else in the text is altered.
func LinkifyURLs(escaped string, trusted TrustedDomainSet) (string, []ExtractedURL) {
	var links []ExtractedURL
	out := hrefPattern.ReplaceAllStringFunc(escaped, func(m string) string {
		u := ClassifyURL(m, trusted)
		links = append(links, u)
		return anchor(u)
	})
	return out, links
}

// anchor builds the link element. The URL comes from escaped text, so it
// is already safe inside a double-quoted attribute and as element text.
func anchor(u ExtractedURL) string {
	var b strings.Builder
	b.Grow(2*len(u.URL) + 96)
	b.WriteString(`<a href="`)
	b.WriteString(u.URL)
	b.WriteString(`" target="_blank" rel="nofollow noopener noreferrer" class="badge `)
	b.WriteString(u.Class.String())
	b.WriteString(`">`)
	b.WriteString(u.URL)
	b.WriteString(`</a>`)
	return b.String()
}

// LinkStage wraps URLs in classified link elements.
type LinkStage struct {
	trusted TrustedDomainSet
}

// NewLinkStage creates a LinkStage classifying against trusted.
func NewLinkStage(trusted TrustedDomainSet) *LinkStage {
	return &LinkStage{trusted: trusted}
}

func (s *LinkStage) Name() string { return "links" }

func (s *LinkStage) Apply(content string) StageResult {
	out, links := LinkifyURLs(content, s.trusted)
	return StageResult{
		Content:   out,
		Changed:   len(links) > 0,
		Links:     links,
		StageName: s.Name(),
	}
}
