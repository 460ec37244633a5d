package preview

import (
	"sort"
	"strings"
)

// TrustedDomainSet is an immutable set of allow-listed apex domains.
// Subdomains inherit trust through dot-boundary suffix matching. The zero
// value is a valid, empty set.
type TrustedDomainSet struct {
	domains []string // sorted, unique
}

// NewTrustedDomainSet normalizes and deduplicates the given domains.
// Entries are trimmed and lower-cased, one leading "www." is dropped, and
// blank entries and "#" comments are skipped.
func NewTrustedDomainSet(domains ...string) TrustedDomainSet {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = normalizeDomain(d)
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return TrustedDomainSet{domains: out}
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "" || strings.HasPrefix(d, "#") {
		return ""
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// Match reports the first trusted entry that host equals or is a
// subdomain of. A bare substring never matches: "notpaypal.com" is not
// covered by "paypal.com".
func (s TrustedDomainSet) Match(host string) (string, bool) {
	return matchSuffix(host, s.domains)
}

// Contains reports whether host is trusted.
func (s TrustedDomainSet) Contains(host string) bool {
	_, ok := s.Match(host)
	return ok
}

// Len returns the number of trusted entries.
func (s TrustedDomainSet) Len() int { return len(s.domains) }

// Domains returns a sorted copy of the entries.
func (s TrustedDomainSet) Domains() []string {
	out := make([]string, len(s.domains))
	copy(out, s.domains)
	return out
}

func matchSuffix(host string, domains []string) (string, bool) {
	if host == "" {
		return "", false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d, true
		}
	}
	return "", false
}
