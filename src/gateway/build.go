package gateway

import (
	"log/slog"

	"github.com/Easy-Infra-Ltd/phish-preview/src/config"
	"github.com/Easy-Infra-Ltd/phish-preview/src/preview"
)

// BuildRenderer constructs a preview.Renderer from a (merged) config.
// Stage order: unicode -> length -> escape -> links -> marks.
//
// Trusted-domain sources fail closed: a malformed inline list or an
// unreadable file contributes no domains and is logged, never returned.
func BuildRenderer(cfg config.PreviewConfig, logger *slog.Logger) *preview.Renderer {
	domains, err := cfg.ResolveTrustedDomains()
	if err != nil {
		logger.Warn("trusted domains degraded", "err", err, "usable", len(domains))
	}

	rules := preview.Rules{
		Trusted:   preview.NewTrustedDomainSet(domains...),
		Brands:    mergeBrands(preview.DefaultBrandRules(), cfg.Brands),
		RiskWords: preview.NewRiskWordSet(config.Bool(cfg.DisableBuiltInRiskWords), cfg.RiskWords...),
	}

	logger.Debug("preview rules",
		"trusted", rules.Trusted.Len(),
		"brands", len(rules.Brands.Names()),
		"riskWords", rules.RiskWords.Len(),
	)

	return preview.NewRenderer(rules, preview.Options{
		NormalizeUnicode: config.Bool(cfg.NormalizeUnicode),
		MaxInputChars:    config.Int(cfg.MaxInputChars),
	})
}

// mergeBrands layers configured brands over the built-in table. A
// configured brand replaces the built-in entry of the same name.
func mergeBrands(base preview.BrandRules, extra map[string][]string) preview.BrandRules {
	if len(extra) == 0 {
		return base
	}

	merged := make(map[string][]string, len(base.Names())+len(extra))
	for _, name := range base.Names() {
		merged[name] = base.Domains(name)
	}
	overlay := preview.NewBrandRules(extra)
	for _, name := range overlay.Names() {
		merged[name] = overlay.Domains(name)
	}
	return preview.NewBrandRules(merged)
}
