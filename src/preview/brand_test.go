package preview

import (
	"reflect"
	"testing"
)

func TestTrustedHostsInText(t *testing.T) {
	trusted := NewTrustedDomainSet("paypal.com", "github.com")
	text := `see https://www.PayPal.com/a and http://login.paypal.com, also
http://paypal.com.evil.io and https://github.com/x and https://www.paypal.com/b`

	got := TrustedHostsInText(text, trusted)
	want := []string{"github.com", "login.paypal.com", "paypal.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TrustedHostsInText = %v, want %v", got, want)
	}
}

func TestTrustedHostsInText_None(t *testing.T) {
	got := TrustedHostsInText("no links here", NewTrustedDomainSet("paypal.com"))
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}

	got = TrustedHostsInText("https://paypal.com", TrustedDomainSet{})
	if len(got) != 0 {
		t.Errorf("got %v with empty trust set, want empty", got)
	}
}

func TestBrandsImplicated(t *testing.T) {
	brands := DefaultBrandRules()

	tests := []struct {
		name  string
		hosts []string
		want  []string
	}{
		{"paypal", []string{"paypal.com"}, []string{"paypal"}},
		{"subdomain", []string{"www2.github.com"}, []string{"github"}},
		{"shared domains", []string{"outlook.com"}, []string{"microsoft", "o365", "office 365"}},
		{"union", []string{"github.com", "iras.gov.sg"}, []string{"github", "iras"}},
		{"no boundary", []string{"notpaypal.com"}, []string{}},
		{"none", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BrandsImplicated(tt.hosts, brands)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BrandsImplicated(%v) = %v, want %v", tt.hosts, got, tt.want)
			}
		})
	}
}

func TestBrandsMentioned(t *testing.T) {
	brands := DefaultBrandRules()
	got := BrandsMentioned("Your Office 365 and PAYPAL accounts; githubber is fine", brands)
	want := []string{"office 365", "paypal"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BrandsMentioned = %v, want %v", got, want)
	}
}

func TestSenderMismatches(t *testing.T) {
	brands := DefaultBrandRules()

	tests := []struct {
		name      string
		sender    string
		mentioned []string
		want      []string
	}{
		{"foreign sender", "evil.io", []string{"paypal"}, []string{"paypal"}},
		{"brand domain", "paypal.com", []string{"paypal"}, nil},
		{"brand subdomain", "Mail.PayPal.com", []string{"paypal"}, nil},
		{"lookalike", "paypal.com.evil.io", []string{"paypal"}, []string{"paypal"}},
		{"shared domains", "office.com", []string{"office 365", "microsoft", "github"}, []string{"github"}},
		{"sorted", "evil.io", []string{"paypal", "github"}, []string{"github", "paypal"}},
		{"unknown brand ignored", "evil.io", []string{"acme"}, nil},
		{"no sender", "", []string{"paypal"}, nil},
		{"nothing mentioned", "evil.io", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SenderMismatches(tt.sender, tt.mentioned, brands)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SenderMismatches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewBrandRules_Normalizes(t *testing.T) {
	rules := NewBrandRules(map[string][]string{
		" ACME ": {"WWW.Acme.com", "acme.io"},
		"empty":  {"", " "},
		"":       {"nameless.com"},
	})

	if got := rules.Names(); !reflect.DeepEqual(got, []string{"acme"}) {
		t.Errorf("names = %v, want [acme]", got)
	}
	if got := rules.Domains("Acme"); !reflect.DeepEqual(got, []string{"acme.com", "acme.io"}) {
		t.Errorf("domains = %v, want [acme.com acme.io]", got)
	}
	if got := rules.BrandsFor("shop.acme.io"); !reflect.DeepEqual(got, []string{"acme"}) {
		t.Errorf("BrandsFor = %v, want [acme]", got)
	}
}
