package preview

import (
	"regexp"
	"sort"
	"strings"
)

// BrandRules maps a brand display name to the domains that legitimately
// represent it. It is immutable once built.
type BrandRules struct {
	domains  map[string][]string
	names    []string // sorted
	mentions map[string]*regexp.Regexp
}

// NewBrandRules copies and normalizes rules. Brand names are trimmed and
// lower-cased; domains are normalized like trusted domains.
func NewBrandRules(rules map[string][]string) BrandRules {
	br := BrandRules{domains: make(map[string][]string, len(rules))}
	for name, doms := range rules {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		set := NewTrustedDomainSet(append(br.domains[name], doms...)...)
		if set.Len() == 0 {
			continue
		}
		br.domains[name] = set.domains
	}
	br.mentions = make(map[string]*regexp.Regexp, len(br.domains))
	for name := range br.domains {
		br.names = append(br.names, name)
		br.mentions[name] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	}
	sort.Strings(br.names)
	return br
}

// DefaultBrandRules returns the built-in brand table.
func DefaultBrandRules() BrandRules {
	ms := []string{"microsoft.com", "office.com", "outlook.com"}
	return NewBrandRules(map[string][]string{
		"paypal":     {"paypal.com"},
		"github":     {"github.com"},
		"microsoft":  ms,
		"office 365": ms,
		"o365":       ms,
		"dbs":        {"dbs.com.sg", "posb.com.sg"},
		"singpass":   {"singpass.gov.sg"},
		"iras":       {"iras.gov.sg"},
	})
}

// Names returns the brand names, sorted.
func (r BrandRules) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Domains returns the domains representing brand.
func (r BrandRules) Domains(brand string) []string {
	doms := r.domains[strings.ToLower(brand)]
	out := make([]string, len(doms))
	copy(out, doms)
	return out
}

// BrandsFor returns every brand whose domains cover host, sorted.
func (r BrandRules) BrandsFor(host string) []string {
	host = strings.ToLower(host)
	var out []string
	for _, name := range r.names {
		if _, ok := matchSuffix(host, r.domains[name]); ok {
			out = append(out, name)
		}
	}
	return out
}

// TrustedHostsInText scans raw, unescaped text for URLs and returns the
// distinct hostnames that are trusted, sorted.
func TrustedHostsInText(text string, trusted TrustedDomainSet) []string {
	seen := make(map[string]struct{})
	for _, m := range hrefPattern.FindAllString(text, -1) {
		host := hostOf(m)
		if trusted.Contains(host) {
			seen[host] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// BrandsImplicated returns the brands legitimately represented by the
// given hostnames, sorted.
func BrandsImplicated(hosts []string, brands BrandRules) []string {
	seen := make(map[string]struct{})
	for _, h := range hosts {
		for _, b := range brands.BrandsFor(h) {
			seen[b] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// BrandsMentioned returns the brands named in text as whole words,
// case-insensitively, sorted.
func BrandsMentioned(text string, brands BrandRules) []string {
	var out []string
	for _, name := range brands.names {
		if brands.mentions[name].MatchString(text) {
			out = append(out, name)
		}
	}
	return out
}

// SenderMismatches returns the mentioned brands that senderDomain does not
// represent, sorted. A mail from "noreply@evil.io" that names PayPal
// yields ["paypal"]. An empty sender yields nothing: there is no sender to
// check.
func SenderMismatches(senderDomain string, mentioned []string, brands BrandRules) []string {
	sender := normalizeDomain(senderDomain)
	if sender == "" {
		return nil
	}
	var out []string
	for _, name := range mentioned {
		name = strings.ToLower(name)
		doms, ok := brands.domains[name]
		if !ok {
			continue
		}
		if _, covered := matchSuffix(sender, doms); !covered {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
