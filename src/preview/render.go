package preview

// Rules is the immutable configuration threaded into every render. It is
// built once at startup and shared read-only.
type Rules struct {
	Trusted   TrustedDomainSet
	Brands    BrandRules
	RiskWords RiskWordSet
}

// DefaultRules returns rules with no trusted domains and the built-in
// brands and risk words.
func DefaultRules() Rules {
	return Rules{
		Brands:    DefaultBrandRules(),
		RiskWords: DefaultRiskWords(),
	}
}

// Options enables stages that run before escaping. The zero value renders
// the text exactly as given.
type Options struct {
	NormalizeUnicode bool
	MaxInputChars    int // 0 means unlimited
}

// Renderer turns plaintext into an annotated fragment. It is safe for
// concurrent use.
type Renderer struct {
	rules Rules
	// prepare holds the stages that run on raw text; render starts at
	// escaping. Brand evidence is gathered between the two.
	prepare *Pipeline
	render  *Pipeline
}

// NewRenderer builds a Renderer. Stage order: unicode -> length -> escape
// -> links -> marks.
func NewRenderer(rules Rules, opts Options) *Renderer {
	var prep []Stage
	if opts.NormalizeUnicode {
		prep = append(prep, UnicodeStage{})
	}
	if opts.MaxInputChars > 0 {
		prep = append(prep, NewLengthStage(opts.MaxInputChars))
	}
	return &Renderer{
		rules:   rules,
		prepare: NewPipeline(prep...),
		render: NewPipeline(
			EscapeStage{},
			NewLinkStage(rules.Trusted),
			NewMarkStage(rules.RiskWords),
		),
	}
}

// Rules returns the renderer's configuration.
func (r *Renderer) Rules() Rules { return r.rules }

// Stages returns the pipeline's stage names in execution order.
func (r *Renderer) Stages() []string {
	return append(r.prepare.Stages(), r.render.Stages()...)
}

// Render returns the annotated fragment for text. Empty text renders as
// the empty string.
func (r *Renderer) Render(text string) string {
	_, res := r.process(text)
	return res.Fragment
}

// process runs both pipelines and returns the text that entered escaping
// along with the combined result.
func (r *Renderer) process(text string) (string, Result) {
	pre := r.prepare.Process(text)
	res := r.render.Process(pre.Fragment)
	res.Notes = append(pre.Notes, res.Notes...)
	res.StageResults = append(pre.StageResults, res.StageResults...)
	return pre.Fragment, res
}

// Analysis is a render together with everything found along the way.
type Analysis struct {
	Fragment         string         `json:"fragment"`
	Links            []ExtractedURL `json:"links"`
	Marks            []Mark         `json:"marks"`
	TrustedHosts     []string       `json:"trustedHosts"`
	BrandsImplicated []string       `json:"brandsImplicated"`
	BrandsMentioned  []string       `json:"brandsMentioned"`
	UnverifiedBrands []string       `json:"unverifiedBrands"`
	Notes            []string       `json:"notes,omitempty"`
}

// Analyze renders text and reports links, marks and brand evidence. The
// brand evidence is taken from the same normalized, truncated text that
// was rendered, and never alters the fragment.
func (r *Renderer) Analyze(text string) Analysis {
	prepared, res := r.process(text)

	hosts := TrustedHostsInText(prepared, r.rules.Trusted)
	implicated := BrandsImplicated(hosts, r.rules.Brands)
	mentioned := BrandsMentioned(prepared, r.rules.Brands)

	return Analysis{
		Fragment:         res.Fragment,
		Links:            nonNil(res.Links),
		Marks:            nonNil(res.Marks),
		TrustedHosts:     hosts,
		BrandsImplicated: implicated,
		BrandsMentioned:  nonNil(mentioned),
		UnverifiedBrands: difference(mentioned, implicated),
		Notes:            res.Notes,
	}
}

// Render is the one-shot form of Renderer.Render with default options.
func Render(text string, rules Rules) string {
	return NewRenderer(rules, Options{}).Render(text)
}

func difference(a, b []string) []string {
	drop := make(map[string]struct{}, len(b))
	for _, s := range b {
		drop[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
