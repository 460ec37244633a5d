package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// validName matches alphanumeric, hyphens, and underscores.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Config is the top-level preview service configuration loaded from JSON or
// YAML.
type Config struct {
	Upstream UpstreamConfig `json:"upstream" yaml:"upstream"`
	Scorers  []ScorerConfig `json:"scorers,omitempty" yaml:"scorers,omitempty"`
	Preview  PreviewConfig  `json:"preview" yaml:"preview"`
}

// UpstreamConfig controls how clients connect to the service.
type UpstreamConfig struct {
	Transport string     `json:"transport" yaml:"transport"` // "stdio" or "http"
	HTTP      HTTPConfig `json:"http" yaml:"http"`
}

// HTTPConfig holds HTTP listener settings.
type HTTPConfig struct {
	Addr        string `json:"addr" yaml:"addr"`               // e.g. ":8080"
	Path        string `json:"path" yaml:"path"`               // MCP endpoint, e.g. "/mcp"
	PreviewPath string `json:"previewPath" yaml:"previewPath"` // plain HTTP render endpoint
}

// ScorerConfig defines a downstream MCP server that returns a numeric risk
// score for an email body.
type ScorerConfig struct {
	Name      string   `json:"name" yaml:"name"`
	Transport string   `json:"transport" yaml:"transport"` // "stdio" or "http"
	Command   []string `json:"command,omitempty" yaml:"command,omitempty"`
	URL       string   `json:"url,omitempty" yaml:"url,omitempty"`
	Tool      string   `json:"tool,omitempty" yaml:"tool,omitempty"`
}

// PreviewConfig controls the rendering rules. Pointer fields are optional so
// that an override can be layered on top of a base with Merge.
type PreviewConfig struct {
	TrustedDomains          DomainList          `json:"trustedDomains,omitempty" yaml:"trustedDomains,omitempty"`
	TrustedDomainsFile      string              `json:"trustedDomainsFile,omitempty" yaml:"trustedDomainsFile,omitempty"`
	RiskWords               []string            `json:"riskWords,omitempty" yaml:"riskWords,omitempty"`
	DisableBuiltInRiskWords *bool               `json:"disableBuiltInRiskWords,omitempty" yaml:"disableBuiltInRiskWords,omitempty"`
	Brands                  map[string][]string `json:"brands,omitempty" yaml:"brands,omitempty"`
	NormalizeUnicode        *bool               `json:"normalizeUnicode,omitempty" yaml:"normalizeUnicode,omitempty"`
	MaxInputChars           *int                `json:"maxInputChars,omitempty" yaml:"maxInputChars,omitempty"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultHTTPAddr        = ":8080"
	DefaultHTTPPath        = "/mcp"
	DefaultHTTPPreviewPath = "/preview"
	DefaultScorerTool      = "score"
	DefaultMaxInputChars   = 0 // unlimited
)

// Load reads and parses a config file, applies defaults, and validates.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
// A relative trustedDomainsFile is resolved against the config file's
// directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if f := cfg.Preview.TrustedDomainsFile; f != "" && !filepath.IsAbs(f) {
		cfg.Preview.TrustedDomainsFile = filepath.Join(filepath.Dir(path), f)
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given:
// stdio upstream, no scorers, built-in risk words and brands, no trusted
// domains.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Upstream.Transport == "" {
		cfg.Upstream.Transport = TransportStdio
	}
	if cfg.Upstream.HTTP.Addr == "" {
		cfg.Upstream.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Upstream.HTTP.Path == "" {
		cfg.Upstream.HTTP.Path = DefaultHTTPPath
	}
	if cfg.Upstream.HTTP.PreviewPath == "" {
		cfg.Upstream.HTTP.PreviewPath = DefaultHTTPPreviewPath
	}

	for i := range cfg.Scorers {
		if cfg.Scorers[i].Tool == "" {
			cfg.Scorers[i].Tool = DefaultScorerTool
		}
	}

	if cfg.Preview.DisableBuiltInRiskWords == nil {
		cfg.Preview.DisableBuiltInRiskWords = boolPtr(false)
	}
	if cfg.Preview.NormalizeUnicode == nil {
		cfg.Preview.NormalizeUnicode = boolPtr(false)
	}
	if cfg.Preview.MaxInputChars == nil {
		cfg.Preview.MaxInputChars = intPtr(DefaultMaxInputChars)
	}
}

func validate(cfg Config) error {
	if cfg.Upstream.Transport != TransportStdio && cfg.Upstream.Transport != TransportHTTP {
		return fmt.Errorf("upstream transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, cfg.Upstream.Transport)
	}

	httpCfg := cfg.Upstream.HTTP
	if !strings.HasPrefix(httpCfg.Path, "/") {
		return fmt.Errorf("upstream http.path must start with \"/\", got %q", httpCfg.Path)
	}
	if !strings.HasPrefix(httpCfg.PreviewPath, "/") {
		return fmt.Errorf("upstream http.previewPath must start with \"/\", got %q", httpCfg.PreviewPath)
	}
	if httpCfg.Path == httpCfg.PreviewPath {
		return fmt.Errorf("upstream http.path and http.previewPath must differ, both are %q", httpCfg.Path)
	}

	names := make(map[string]struct{}, len(cfg.Scorers))
	for i, sc := range cfg.Scorers {
		if sc.Name == "" {
			return fmt.Errorf("scorers[%d]: name is required", i)
		}
		if !validName.MatchString(sc.Name) {
			return fmt.Errorf("scorers[%d]: name %q must match %s", i, sc.Name, validName.String())
		}
		if _, exists := names[sc.Name]; exists {
			return fmt.Errorf("scorers[%d]: duplicate name %q", i, sc.Name)
		}
		names[sc.Name] = struct{}{}

		if sc.Transport != TransportStdio && sc.Transport != TransportHTTP {
			return fmt.Errorf("scorers[%d] (%s): transport must be %q or %q, got %q",
				i, sc.Name, TransportStdio, TransportHTTP, sc.Transport)
		}

		if sc.Transport == TransportStdio && len(sc.Command) == 0 {
			return fmt.Errorf("scorers[%d] (%s): command is required for stdio transport", i, sc.Name)
		}

		if sc.Transport == TransportHTTP && sc.URL == "" {
			return fmt.Errorf("scorers[%d] (%s): url is required for http transport", i, sc.Name)
		}
	}

	return validatePreview(cfg.Preview)
}

func validatePreview(p PreviewConfig) error {
	for i, w := range p.RiskWords {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("preview.riskWords[%d]: word must not be blank", i)
		}
	}

	for name, domains := range p.Brands {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("preview.brands: brand name must not be blank")
		}
		if len(domains) == 0 {
			return fmt.Errorf("preview.brands[%q]: at least one domain is required", name)
		}
	}

	if p.MaxInputChars != nil && *p.MaxInputChars < 0 {
		return fmt.Errorf("preview.maxInputChars must not be negative, got %d", *p.MaxInputChars)
	}

	return nil
}

// Merge returns a PreviewConfig with overrides applied on top of a base.
// Fields that are nil or empty in the override use the base value.
func Merge(base, override *PreviewConfig) PreviewConfig {
	if override == nil {
		return *base
	}

	merged := *base

	if len(override.TrustedDomains.Domains) > 0 || override.TrustedDomains.Malformed {
		merged.TrustedDomains = override.TrustedDomains
	}
	if override.TrustedDomainsFile != "" {
		merged.TrustedDomainsFile = override.TrustedDomainsFile
	}
	if len(override.RiskWords) > 0 {
		merged.RiskWords = override.RiskWords
	}
	if override.DisableBuiltInRiskWords != nil {
		merged.DisableBuiltInRiskWords = override.DisableBuiltInRiskWords
	}
	if len(override.Brands) > 0 {
		merged.Brands = override.Brands
	}
	if override.NormalizeUnicode != nil {
		merged.NormalizeUnicode = override.NormalizeUnicode
	}
	if override.MaxInputChars != nil {
		merged.MaxInputChars = override.MaxInputChars
	}

	return merged
}

// Bool dereferences an optional flag, treating nil as false.
func Bool(b *bool) bool { return b != nil && *b }

// Int dereferences an optional number, treating nil as zero.
func Int(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
