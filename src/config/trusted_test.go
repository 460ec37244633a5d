package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseTrustedPayload(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		wantDomains   []string
		wantMalformed bool
	}{
		{"array", `["paypal.com", "github.com"]`, []string{"paypal.com", "github.com"}, false},
		{"empty array", `[]`, []string{}, false},
		{"empty payload", ``, nil, false},
		{"whitespace", "  \n", nil, false},
		{"null", `null`, nil, false},
		{"object", `{"a": 1}`, nil, true},
		{"number", `42`, nil, true},
		{"mixed", `["paypal.com", null, 3]`, nil, true},
		{"truncated", `["paypal.com"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTrustedPayload([]byte(tt.payload))
			if got.Malformed != tt.wantMalformed {
				t.Errorf("malformed = %v, want %v", got.Malformed, tt.wantMalformed)
			}
			if len(got.Domains) != len(tt.wantDomains) || (len(tt.wantDomains) > 0 && !reflect.DeepEqual(got.Domains, tt.wantDomains)) {
				t.Errorf("domains = %v, want %v", got.Domains, tt.wantDomains)
			}
		})
	}
}

func TestDomainList_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DomainList{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty list = %s, want []", data)
	}

	data, err = json.Marshal(DomainList{Domains: []string{"a.com"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `["a.com"]` {
		t.Errorf("list = %s, want [\"a.com\"]", data)
	}
}

func TestLoadTrustedDomains_Text(t *testing.T) {
	content := "# trusted senders\npaypal.com\n\nWWW.GitHub.com\n  dbs.com.sg  \n# end\n"
	path := writeTemp(t, "trusted.txt", content)

	got, err := LoadTrustedDomains(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"paypal.com", "github.com", "dbs.com.sg"}
	if !reflect.DeepEqual(got.Domains, want) {
		t.Errorf("domains = %v, want %v", got.Domains, want)
	}
	if got.Malformed {
		t.Error("text file should not be malformed")
	}
}

func TestLoadTrustedDomains_JSON(t *testing.T) {
	path := writeTemp(t, "trusted.json", `["paypal.com", "iras.gov.sg"]`)

	got, err := LoadTrustedDomains(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.Domains, []string{"paypal.com", "iras.gov.sg"}) {
		t.Errorf("domains = %v", got.Domains)
	}
}

func TestLoadTrustedDomains_FailsClosed(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		got, err := LoadTrustedDomains(filepath.Join(t.TempDir(), "absent.txt"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want os.ErrNotExist", err)
		}
		if !got.Malformed || len(got.Domains) != 0 {
			t.Errorf("got %+v, want empty malformed list", got)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		got, err := LoadTrustedDomains(writeTemp(t, "trusted.json", `{"paypal.com": true}`))
		if err == nil {
			t.Error("expected error")
		}
		if !got.Malformed || len(got.Domains) != 0 {
			t.Errorf("got %+v, want empty malformed list", got)
		}
	})
}

func TestResolveTrustedDomains(t *testing.T) {
	file := writeTemp(t, "trusted.txt", "github.com\n")

	p := PreviewConfig{
		TrustedDomains:     DomainList{Domains: []string{"paypal.com"}},
		TrustedDomainsFile: file,
	}
	got, err := p.ResolveTrustedDomains()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"paypal.com", "github.com"}) {
		t.Errorf("domains = %v, want [paypal.com github.com]", got)
	}
}

func TestResolveTrustedDomains_PartialFailure(t *testing.T) {
	t.Run("missing file keeps inline list", func(t *testing.T) {
		p := PreviewConfig{
			TrustedDomains:     DomainList{Domains: []string{"paypal.com"}},
			TrustedDomainsFile: filepath.Join(t.TempDir(), "absent.txt"),
		}
		got, err := p.ResolveTrustedDomains()
		if err == nil {
			t.Error("expected error for missing file")
		}
		if !reflect.DeepEqual(got, []string{"paypal.com"}) {
			t.Errorf("domains = %v, want [paypal.com]", got)
		}
	})

	t.Run("malformed inline keeps file list", func(t *testing.T) {
		p := PreviewConfig{
			TrustedDomains:     DomainList{Malformed: true},
			TrustedDomainsFile: writeTemp(t, "trusted.txt", "github.com\n"),
		}
		got, err := p.ResolveTrustedDomains()
		if !errors.Is(err, ErrMalformedTrustedDomains) {
			t.Errorf("err = %v, want ErrMalformedTrustedDomains", err)
		}
		if !reflect.DeepEqual(got, []string{"github.com"}) {
			t.Errorf("domains = %v, want [github.com]", got)
		}
	})
}
