// Package router maps raw user text to zero or one deterministic tool call
// so that known query shapes never spend a model round trip. Detection is an
// ordered table of pattern and normalizer pairs; the first match wins, and
// reordering the table is a behavior change.
package router

import (
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// Inputs longer than these limits are treated as pasted material, not
// conversation, and are never pre-routed even on keyword collisions.
const (
	maxConversationalLength = 400
	maxConversationalLines  = 3
)

const (
	defaultGamesPerPage = 5
	maxGamesPerPage     = 100
)

type detector struct {
	tool  string
	match func(text string) (map[string]any, bool)
}

type Router struct {
	detectors []detector
}

func New() *Router {
	return &Router{
		detectors: []detector{
			{tool: contractx.ToolNBAQuery, match: detectSports},
			{tool: contractx.ToolWeatherQuery, match: detectWeather},
			{tool: contractx.ToolClock, match: detectClock},
			{tool: contractx.ToolCalculator, match: detectCalculator},
			{tool: contractx.ToolSystemInfo, match: detectSystemInfo},
			{tool: contractx.ToolFileRead, match: detectReadFile},
			{tool: contractx.ToolListDirectory, match: detectListDirectory},
			{tool: contractx.ToolClipboardRead, match: detectClipboard},
			{tool: contractx.ToolWebSearch, match: detectWebSearch},
		},
	}
}

// Classify inspects one inbound message and decides the route. It is pure:
// no I/O, no clock, no state.
func (r *Router) Classify(text string) contractx.RoutingDecision {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return contractx.ErrorRoute("message must not be empty")
	}
	if isNonConversational(trimmed) {
		return contractx.LlmRoute()
	}

	for _, d := range r.detectors {
		if args, ok := d.match(trimmed); ok {
			return contractx.ToolsRoute(contractx.ToolCall{Name: d.tool, Arguments: args})
		}
	}

	return contractx.LlmRoute()
}

var (
	markupPattern    = regexp.MustCompile(`<[A-Za-z/][^>]*>`)
	policyTagPattern = regexp.MustCompile(`^\[[A-Za-z][A-Za-z0-9 _-]*\]`)
)

func isNonConversational(text string) bool {
	if len(text) > maxConversationalLength {
		return true
	}
	if strings.Count(text, "\n") >= maxConversationalLines {
		return true
	}
	if strings.Contains(text, "```") {
		return true
	}
	if markupPattern.MatchString(text) {
		return true
	}
	return policyTagPattern.MatchString(text)
}

// Team nicknames ordered longest first so compound names win the alternation.
var nbaTeams = []string{
	"trail blazers", "timberwolves", "mavericks", "cavaliers", "grizzlies",
	"pelicans", "warriors", "clippers", "raptors", "pistons", "hornets",
	"wizards", "nuggets", "rockets", "celtics", "thunder", "blazers",
	"pacers", "sixers", "76ers", "lakers", "knicks", "wolves", "bucks",
	"spurs", "kings", "hawks", "magic", "bulls", "suns", "heat", "nets",
	"jazz", "mavs", "cavs",
}

var nbaTeamCanonical = map[string]string{
	"mavs":    "mavericks",
	"cavs":    "cavaliers",
	"sixers":  "76ers",
	"wolves":  "timberwolves",
	"blazers": "trail blazers",
}

var (
	nbaTeamPattern       = regexp.MustCompile(`(?i)\b(` + strings.Join(nbaTeams, "|") + `)\b`)
	sportsKeywordPattern = regexp.MustCompile(`(?i)\b(games?|scores?|standings?|records?|season|nba|basketball|played?|beat|won|lost|schedule)\b`)
	lastGamesPattern     = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d{1,3})\s+games?\b`)
)

func detectSports(text string) (map[string]any, bool) {
	team := strings.ToLower(nbaTeamPattern.FindString(text))
	if team == "" {
		return nil, false
	}

	countMatch := lastGamesPattern.FindStringSubmatch(text)
	if countMatch == nil && !sportsKeywordPattern.MatchString(text) {
		return nil, false
	}

	perPage := defaultGamesPerPage
	if countMatch != nil {
		if n, err := strconv.Atoi(countMatch[1]); err == nil && n > 0 {
			perPage = n
			if perPage > maxGamesPerPage {
				perPage = maxGamesPerPage
			}
		}
	}

	if canonical, ok := nbaTeamCanonical[team]; ok {
		team = canonical
	}

	return map[string]any{"query": team, "perPage": perPage}, true
}

var (
	weatherKeywordPattern     = regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain(?:ing)?|snow(?:ing)?|humidity|sunny|cloudy|windy|how (?:hot|cold))\b`)
	weatherPrepositionPattern = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+`)
	weatherLocationTail       = regexp.MustCompile(`(?i)^[a-z][a-z .'-]{0,60}`)
)

var locationStopWords = map[string]bool{
	"what": true, "what's": true, "and": true, "or": true, "please": true,
	"then": true, "when": true, "how": true,
}

var temporalWords = map[string]bool{
	"today": true, "tomorrow": true, "tonight": true, "now": true,
	"right": true, "currently": true, "this": true, "week": true,
	"weekend": true, "morning": true, "afternoon": true, "evening": true,
}

// detectWeather anchors location extraction on the last preposition so that
// "search for weather in paris" yields paris, not the whole trailing clause.
func detectWeather(text string) (map[string]any, bool) {
	if !weatherKeywordPattern.MatchString(text) {
		return nil, false
	}

	preps := weatherPrepositionPattern.FindAllStringIndex(text, -1)
	if len(preps) == 0 {
		return nil, false
	}

	tail := text[preps[len(preps)-1][1]:]
	location := normalizeLocation(weatherLocationTail.FindString(tail))
	if location == "" {
		return nil, false
	}

	return map[string]any{"location": location}, true
}

func normalizeLocation(raw string) string {
	location := strings.ToLower(strings.TrimSpace(raw))
	location = strings.Trim(location, `"' `)
	location = strings.TrimRight(location, "?!.")

	words := strings.Fields(location)
	cut := len(words)
	for i, w := range words {
		if locationStopWords[w] {
			cut = i
			break
		}
	}
	words = words[:cut]
	for len(words) > 0 && temporalWords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) > 0 && words[0] == "the" {
		words = words[1:]
	}

	return strings.Join(words, " ")
}

var clockPattern = regexp.MustCompile(`(?i)\b(what time is it|current time|what's the time|what is the time|today's date|what day is it|what is the date|what's the date|current date|time and date|date and time)\b`)

func detectClock(text string) (map[string]any, bool) {
	if !clockPattern.MatchString(text) {
		return nil, false
	}
	return nil, true
}

var (
	mathVerbPattern       = regexp.MustCompile(`(?i)^(?:what(?:'s| is)|calculate|compute|eval(?:uate)?|solve)\s+(.+)$`)
	bareExpressionPattern = regexp.MustCompile(`^[0-9+\-*/%^().\s]+$`)
	anyOperatorPattern    = regexp.MustCompile(`[+\-*/%^]`)
	anyDigitPattern       = regexp.MustCompile(`[0-9]`)
)

func detectCalculator(text string) (map[string]any, bool) {
	candidate := strings.TrimSpace(text)
	if m := mathVerbPattern.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(candidate), "?="))

	if candidate == "" {
		return nil, false
	}
	if !bareExpressionPattern.MatchString(candidate) {
		return nil, false
	}
	if !anyOperatorPattern.MatchString(candidate) || !anyDigitPattern.MatchString(candidate) {
		return nil, false
	}

	return map[string]any{"expression": candidate}, true
}

var systemInfoPattern = regexp.MustCompile(`(?i)\b(cpu usage|memory usage|ram usage|disk (?:space|usage)|system info(?:rmation)?|how much (?:memory|ram|disk)|free (?:memory|ram|disk)|uptime)\b`)

func detectSystemInfo(text string) (map[string]any, bool) {
	if !systemInfoPattern.MatchString(text) {
		return nil, false
	}
	return nil, true
}

var (
	readFileVerbPattern  = regexp.MustCompile(`(?i)^(?:read|open|show(?:\s+me)?|cat|display|print)\s+(?:the\s+)?(?:file\s+|contents?\s+of\s+)?(.+)$`)
	fileExtensionPattern = regexp.MustCompile(`\.[A-Za-z][A-Za-z0-9]{0,7}$`)
)

func detectReadFile(text string) (map[string]any, bool) {
	m := readFileVerbPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	path, ok := normalizePath(m[1])
	if !ok {
		return nil, false
	}
	if !strings.Contains(path, "/") && !fileExtensionPattern.MatchString(path) {
		return nil, false
	}

	return map[string]any{"path": path}, true
}

// normalizePath trims noise around a captured path. Unquoted captures with
// spaces are rejected so prose like "show the files in docs" never reads as
// a single file name.
func normalizePath(raw string) (string, bool) {
	path := strings.TrimSpace(raw)
	path = strings.TrimRight(path, "?!")
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}

	quoted := false
	if len(path) >= 2 && (path[0] == '"' || path[0] == '\'') && path[len(path)-1] == path[0] {
		path = path[1 : len(path)-1]
		quoted = true
	}
	if path == "" {
		return "", false
	}
	if !quoted && strings.ContainsAny(path, " \t") {
		return "", false
	}

	return path, true
}

var listDirPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^ls(?:\s+(\S+))?\s*$`),
	regexp.MustCompile(`(?i)\b(?:list|show)\s+(?:me\s+)?(?:the\s+)?(?:files?|director(?:y|ies)|folders?|contents)\b(?:\s+(?:in|of|under|at)\s+(.+))?`),
	regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is)\s+in\s+((?:~|\.{1,2})?/[^\s?]*|\.{1,2})\s*\??$`),
}

func detectListDirectory(text string) (map[string]any, bool) {
	for _, pattern := range listDirPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		path := "."
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			if normalized, ok := normalizePath(m[1]); ok {
				path = normalized
			}
		}
		return map[string]any{"path": path}, true
	}
	return nil, false
}

var clipboardPattern = regexp.MustCompile(`(?i)\b(clipboard|what did i (?:just )?copy|paste buffer)\b`)

func detectClipboard(text string) (map[string]any, bool) {
	if !clipboardPattern.MatchString(text) {
		return nil, false
	}
	return nil, true
}

var webSearchPattern = regexp.MustCompile(`(?i)^(?:search(?:\s+the\s+web)?(?:\s+for)?|look\s+up|google|find\s+info(?:rmation)?\s+(?:about|on))\s+(.+)$`)

func detectWebSearch(text string) (map[string]any, bool) {
	m := webSearchPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	query := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "?"))
	query = strings.Trim(query, `"'`)
	if query == "" {
		return nil, false
	}

	return map[string]any{"query": query}, true
}
