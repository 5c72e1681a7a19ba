package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/responder.txt
	responderRaw string

	//go:embed template/reflection.txt
	reflectionRaw string
)

// PromptSet holds loaded prompt content.
//
// Template text must not contain literal braces: every message in a compiled
// graph goes through placeholder formatting, so the templates describe the
// expected JSON field by field instead of showing an inline example.
type PromptSet struct {
	Responder  string
	Reflection string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Responder:  strings.TrimSpace(responderRaw),
		Reflection: strings.TrimSpace(reflectionRaw),
	}
}
