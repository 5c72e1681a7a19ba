package stream

import "regexp"

// Marker replaces every stripped fragment. It matches none of the patterns
// below, so redaction is idempotent.
const Marker = "[redacted]"

var (
	// Multi-segment filesystem paths, optionally home-relative. The leading
	// character class keeps URL paths intact: a path inside a URL is
	// preceded by a host character, not whitespace or punctuation.
	absolutePathPattern = regexp.MustCompile(`(^|[\s"'(\[=])(~?(?:/[A-Za-z0-9._\-]+){2,})`)

	// One level of a JSON-style object with at least one keyed field.
	// Applied repeatedly, so nested payloads collapse inside out.
	payloadFragmentPattern = regexp.MustCompile(`\{[^{}]*"[^"]*"\s*:[^{}]*\}`)
)

// RedactBeforeStream strips tool-internal artifacts from reply text before
// it reaches the transport: structured payload fragments first, then bare
// filesystem paths.
func RedactBeforeStream(text string) string {
	for {
		replaced := payloadFragmentPattern.ReplaceAllString(text, Marker)
		if replaced == text {
			break
		}
		text = replaced
	}
	return absolutePathPattern.ReplaceAllString(text, "${1}"+Marker)
}
