// Package policy decides what the assistant may remember and what remembered
// content may reach model context. Every function is pure: storage and
// embeddings live elsewhere.
package policy

import (
	"regexp"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// RedactionMarker replaces sensitive spans in display strings. It matches no
// sensitive pattern itself, which keeps redaction idempotent.
const RedactionMarker = "[redacted]"

type Settings struct {
	SaveConversationHistory bool    `split_words:"true" default:"true"`
	MinWriteConfidence      float64 `split_words:"true" default:"0.5"`
	MinRetrievalConfidence  float64 `split_words:"true" default:"0.6"`
	MaxAgeDays              int     `split_words:"true" default:"30"`
	MaxContextItems         int     `split_words:"true" default:"5"`
}

func DefaultSettings() Settings {
	return Settings{
		SaveConversationHistory: true,
		MinWriteConfidence:      0.5,
		MinRetrievalConfidence:  0.6,
		MaxAgeDays:              30,
		MaxContextItems:         5,
	}
}

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

type WriteVerdict struct {
	Decision Decision
	Reason   string
}

type RetrievalVerdict struct {
	Allowed bool
	Reason  string
}

// Credential-shaped content. Matching text is denied storage outright; deny
// takes precedence over redaction, so nothing sensitive is stored even in
// masked form.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpassword\b`),
	regexp.MustCompile(`(?i)\bpasscode\b`),
	regexp.MustCompile(`(?i)\bapi[_ -]?key\b`),
	regexp.MustCompile(`(?i)\bsecret\b`),
	regexp.MustCompile(`(?i)\btoken\b`),
	regexp.MustCompile(`(?i)\bcredentials?\b`),
	regexp.MustCompile(`(?i)\bprivate[_ -]?key\b`),
	regexp.MustCompile(`(?i)\bssn\b`),
	regexp.MustCompile(`(?i)\bsocial security\b`),
	regexp.MustCompile(`(?i)\bcredit card\b`),
	regexp.MustCompile(`(?i)\bpin (?:code|number)\b`),
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
}

func matchesSensitive(text string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// EvaluateWritePolicy gates a candidate memory write. Rules apply in order;
// the first failing rule names the reason.
func EvaluateWritePolicy(text string, confidence float64, settings Settings) WriteVerdict {
	if !settings.SaveConversationHistory {
		return WriteVerdict{Decision: DecisionDeny, Reason: "history saving is disabled"}
	}
	if confidence < settings.MinWriteConfidence {
		return WriteVerdict{Decision: DecisionDeny, Reason: "confidence below write minimum"}
	}
	if matchesSensitive(text) {
		return WriteVerdict{Decision: DecisionDeny, Reason: "sensitive content is never stored"}
	}
	return WriteVerdict{Decision: DecisionAllow}
}

// EvaluateRetrievalPolicy gates a memory lookup before it happens. The now
// parameter is part of the contract for future age-sensitive rules; current
// rules do not consult it.
func EvaluateRetrievalPolicy(queryText string, reflectionConfidence float64, settings Settings, now time.Time) RetrievalVerdict {
	_ = now
	if !settings.SaveConversationHistory {
		return RetrievalVerdict{Reason: "history saving is disabled"}
	}
	if reflectionConfidence < settings.MinRetrievalConfidence {
		return RetrievalVerdict{Reason: "confidence below retrieval minimum"}
	}
	if matchesSensitive(queryText) {
		return RetrievalVerdict{Reason: "query matches a sensitive pattern"}
	}
	return RetrievalVerdict{Allowed: true}
}

// FilterRetrievable drops items outside the age window or below the minimum
// confidence. Surviving items keep their input order.
func FilterRetrievable(memories []contractx.MemoryItem, settings Settings, now time.Time) []contractx.MemoryItem {
	maxAge := time.Duration(settings.MaxAgeDays) * 24 * time.Hour

	kept := make([]contractx.MemoryItem, 0, len(memories))
	for _, item := range memories {
		if settings.MaxAgeDays > 0 && now.Sub(item.Created) > maxAge {
			continue
		}
		if item.Confidence < settings.MinRetrievalConfidence {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// PrepareForContext shapes retrieved memories into injectable lines. Items
// flagged for redaction are excluded entirely, never embedded in masked form.
// The cap keeps the first MaxContextItems survivors; input arrives relevance
// ranked, so dropping the tail is the deterministic rule.
func PrepareForContext(memories []contractx.MemoryItem, settings Settings) []string {
	lines := make([]string, 0, len(memories))
	for _, item := range memories {
		if item.RedactionLevel == contractx.RedactionLevelRedact {
			continue
		}
		lines = append(lines, item.Text)
		if settings.MaxContextItems > 0 && len(lines) == settings.MaxContextItems {
			break
		}
	}
	return lines
}

// Redact masks sensitive spans with the fixed marker. Running it twice
// yields the same string because the marker matches no pattern.
func Redact(text string) string {
	for _, pattern := range sensitivePatterns {
		text = pattern.ReplaceAllString(text, RedactionMarker)
	}
	return text
}
