package config

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DomainList is a list of trusted domains that fails closed: a payload that
// is not a list of strings decodes to an empty list with Malformed set
// instead of an error.
type DomainList struct {
	Domains   []string
	Malformed bool
}

// UnmarshalJSON accepts a JSON array of strings. Anything else yields an
// empty, malformed list.
func (l *DomainList) UnmarshalJSON(data []byte) error {
	*l = ParseTrustedPayload(data)
	return nil
}

// MarshalJSON encodes the list as a plain array.
func (l DomainList) MarshalJSON() ([]byte, error) {
	if l.Domains == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Domains)
}

// UnmarshalYAML accepts a YAML sequence of scalars. Anything else yields an
// empty, malformed list.
func (l *DomainList) UnmarshalYAML(value *yaml.Node) error {
	*l = DomainList{}

	if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		l.Malformed = true
		return nil
	}

	domains := make([]string, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() == "!!null" {
			l.Malformed = true
			return nil
		}
		domains = append(domains, item.Value)
	}
	l.Domains = domains
	return nil
}

// IsZero reports whether the list carries neither domains nor a malformed
// marker, which lets the yaml omitempty tag drop it.
func (l DomainList) IsZero() bool {
	return len(l.Domains) == 0 && !l.Malformed
}

// ParseTrustedPayload decodes a JSON array of domain strings, as embedded in
// a page or posted by a client. An empty or null payload is a valid empty
// list. Any other shape, including a non-string element, is malformed and
// decodes to an empty list.
func ParseTrustedPayload(data []byte) DomainList {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DomainList{}
	}

	var domains []string
	if err := json.Unmarshal(trimmed, &domains); err != nil {
		return DomainList{Malformed: true}
	}
	return DomainList{Domains: domains}
}

// LoadTrustedDomains reads a trusted-domain file. A .json file must hold an
// array of strings. Any other file is read one domain per line; blank lines
// and lines starting with "#" are skipped, and a leading "www." is dropped.
// On failure the returned list is empty and marked malformed.
func LoadTrustedDomains(path string) (DomainList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DomainList{Malformed: true}, fmt.Errorf("reading trusted domains %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		list := ParseTrustedPayload(data)
		if list.Malformed {
			return list, fmt.Errorf("parsing trusted domains %s: expected a JSON array of strings", path)
		}
		return list, nil
	}

	var domains []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, strings.TrimPrefix(line, "www."))
	}
	if err := sc.Err(); err != nil {
		return DomainList{Malformed: true}, fmt.Errorf("scanning trusted domains %s: %w", path, err)
	}

	return DomainList{Domains: domains}, nil
}

// ErrMalformedTrustedDomains reports that the inline trustedDomains value
// was not a list of strings and was treated as empty.
var ErrMalformedTrustedDomains = errors.New("preview.trustedDomains is malformed, treated as empty")

// ResolveTrustedDomains returns the union of the inline list and the file list.
// Both sources fail closed independently: a broken source contributes no
// domains and is reported in the joined error, while the domains from the
// other source are still returned.
func (p PreviewConfig) ResolveTrustedDomains() ([]string, error) {
	var errs []error

	domains := make([]string, 0, len(p.TrustedDomains.Domains))
	if p.TrustedDomains.Malformed {
		errs = append(errs, ErrMalformedTrustedDomains)
	} else {
		domains = append(domains, p.TrustedDomains.Domains...)
	}

	if p.TrustedDomainsFile != "" {
		list, err := LoadTrustedDomains(p.TrustedDomainsFile)
		if err != nil {
			errs = append(errs, err)
		} else {
			domains = append(domains, list.Domains...)
		}
	}

	return domains, errors.Join(errs...)
}
