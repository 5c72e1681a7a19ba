// Package reflection parses and judges the second-pass model verdict on a
// tool-based answer. Parsing tolerates prose-wrapped and slightly malformed
// replies; anything unrecoverable degrades to an explain outcome instead of
// an error.
package reflection

import (
	"encoding/json"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// FallbackExplanation is surfaced when the reflection reply cannot be read
// at all. Kept stable because callers and tests match on its wording.
const FallbackExplanation = "I could not validate the tool output."

// ParseOutcome never fails: a reply that is not one of the three structured
// outcomes becomes an explain with no confidence, which the gate rejects.
func ParseOutcome(content string) contractx.ReflectionOutcome {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return explainFallback()
	}

	if outcome, ok := decodeOutcome(trimmed); ok {
		return outcome
	}

	// Local models often wrap the object in prose or code fences. Scan for
	// balanced JSON objects and try each in order.
	for _, candidate := range scanJSONObjects(trimmed) {
		if outcome, ok := decodeOutcome(candidate); ok {
			return outcome
		}
	}

	return explainFallback()
}

func explainFallback() contractx.ReflectionOutcome {
	return contractx.ReflectionOutcome{
		Kind:        contractx.ReflectionExplain,
		Explanation: FallbackExplanation,
	}
}

type wireTool struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Args      map[string]any `json:"args"`
}

type wireOutcome struct {
	Outcome      string    `json:"outcome"`
	Confidence   *float64  `json:"confidence"`
	FinalMessage string    `json:"final_message"`
	Tool         *wireTool `json:"tool"`
	Explanation  string    `json:"explanation"`
}

func decodeOutcome(candidate string) (contractx.ReflectionOutcome, bool) {
	var wire wireOutcome
	if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
		return contractx.ReflectionOutcome{}, false
	}

	outcome := contractx.ReflectionOutcome{
		Kind:         contractx.ReflectionKind(strings.ToLower(strings.TrimSpace(wire.Outcome))),
		FinalMessage: strings.TrimSpace(wire.FinalMessage),
		Confidence:   wire.Confidence,
		Explanation:  strings.TrimSpace(wire.Explanation),
	}
	if wire.Tool != nil {
		arguments := wire.Tool.Arguments
		if arguments == nil {
			arguments = wire.Tool.Args
		}
		outcome.Tool = &contractx.ToolCall{
			Name:      strings.TrimSpace(wire.Tool.Name),
			Arguments: arguments,
		}
	}

	switch outcome.Kind {
	case contractx.ReflectionAccept:
		if outcome.FinalMessage == "" {
			return contractx.ReflectionOutcome{}, false
		}
	case contractx.ReflectionRequestTool:
		if outcome.Tool == nil || outcome.Tool.Name == "" {
			return contractx.ReflectionOutcome{}, false
		}
	case contractx.ReflectionExplain:
		if outcome.Explanation == "" {
			outcome.Explanation = FallbackExplanation
		}
	default:
		return contractx.ReflectionOutcome{}, false
	}

	return outcome, true
}

// scanJSONObjects returns every top-level balanced brace span, ignoring
// braces inside JSON strings. Quotes outside any object are prose and do not
// open a string.
func scanJSONObjects(text string) []string {
	var (
		objects  []string
		depth    int
		start    int
		inString bool
		escaped  bool
	)

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					objects = append(objects, text[start:i+1])
				}
			}
		}
	}

	return objects
}
