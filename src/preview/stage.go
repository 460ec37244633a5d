// Package preview turns untrusted plaintext (a suspected phishing email
// body) into an HTML fragment that is safe to display and that flags
// phishing indicators: untrusted or IP-literal links and configured risk
// words outside links.
package preview

// Stage transforms content on its way through the render pipeline.
// Implementations must not mutate shared state; they return the transformed
// content and whatever they found in the StageResult.
type Stage interface {
	// Name returns a short identifier used in results and logs.
	Name() string

	// Apply transforms content. It never fails.
	Apply(content string) StageResult
}
