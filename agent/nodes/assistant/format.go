package assistantnode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// The formatter turns raw tool payloads into the exact sentence the user
// sees. Numbers and names come straight from the payload, so a score or a
// sum can never be distorted by model paraphrase.

type clockPayload struct {
	Time     string `mapstructure:"time"`
	Date     string `mapstructure:"date"`
	Timezone string `mapstructure:"timezone"`
}

type calculatorPayload struct {
	Expression string   `mapstructure:"expression"`
	Result     *float64 `mapstructure:"result"`
}

type systemInfoPayload struct {
	Hostname  string `mapstructure:"hostname"`
	OS        string `mapstructure:"os"`
	Arch      string `mapstructure:"arch"`
	CPUs      int    `mapstructure:"cpus"`
	GoVersion string `mapstructure:"go_version"`
	HeapAlloc string `mapstructure:"heap_alloc"`
	Uptime    string `mapstructure:"uptime"`
}

type fileReadPayload struct {
	Path      string `mapstructure:"path"`
	SizeBytes int64  `mapstructure:"size_bytes"`
	Content   string `mapstructure:"content"`
}

type directoryEntry struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type listDirectoryPayload struct {
	Path      string           `mapstructure:"path"`
	Entries   []directoryEntry `mapstructure:"entries"`
	Truncated bool             `mapstructure:"truncated"`
}

type clipboardPayload struct {
	Content string `mapstructure:"content"`
	Length  int    `mapstructure:"length"`
}

type nbaGame struct {
	Date          string `mapstructure:"date"`
	Opponent      string `mapstructure:"opponent"`
	Home          bool   `mapstructure:"home"`
	TeamScore     int    `mapstructure:"team_score"`
	OpponentScore int    `mapstructure:"opponent_score"`
	Result        string `mapstructure:"result"`
}

type nbaPayload struct {
	Team  string    `mapstructure:"team"`
	Games []nbaGame `mapstructure:"games"`
}

type weatherPayload struct {
	Location     string   `mapstructure:"location"`
	TemperatureC *float64 `mapstructure:"temperature_c"`
	Condition    string   `mapstructure:"condition"`
	Humidity     int      `mapstructure:"humidity"`
}

// formatResult renders a recognized payload as user-facing text. Payloads it
// does not recognize fall back to the reflection pass.
func formatResult(result contractx.ToolResult) (string, bool) {
	switch result.Tool {
	case contractx.ToolClock:
		return formatClock(result.Result)
	case contractx.ToolCalculator:
		return formatCalculator(result.Result)
	case contractx.ToolSystemInfo:
		return formatSystemInfo(result.Result)
	case contractx.ToolFileRead:
		return formatFileRead(result.Result)
	case contractx.ToolListDirectory:
		return formatListDirectory(result.Result)
	case contractx.ToolClipboardRead:
		return formatClipboard(result.Result)
	case contractx.ToolNBAQuery:
		return formatGames(result.Result)
	case contractx.ToolWeatherQuery:
		return formatWeather(result.Result)
	default:
		return "", false
	}
}

func decodePayload(payload any, target any) bool {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return false
	}
	return decoder.Decode(payload) == nil
}

func formatClock(payload any) (string, bool) {
	var p clockPayload
	if !decodePayload(payload, &p) || p.Time == "" || p.Date == "" {
		return "", false
	}
	if p.Timezone != "" {
		return fmt.Sprintf("It is %s on %s (%s).", p.Time, p.Date, p.Timezone), true
	}
	return fmt.Sprintf("It is %s on %s.", p.Time, p.Date), true
}

func formatCalculator(payload any) (string, bool) {
	var p calculatorPayload
	if !decodePayload(payload, &p) || p.Expression == "" || p.Result == nil {
		return "", false
	}
	return fmt.Sprintf("%s = %s", p.Expression, formatNumber(*p.Result)), true
}

func formatSystemInfo(payload any) (string, bool) {
	var p systemInfoPayload
	if !decodePayload(payload, &p) || p.OS == "" || p.Arch == "" {
		return "", false
	}
	var b strings.Builder
	if p.Hostname != "" {
		fmt.Fprintf(&b, "%s runs %s/%s", p.Hostname, p.OS, p.Arch)
	} else {
		fmt.Fprintf(&b, "This machine runs %s/%s", p.OS, p.Arch)
	}
	if p.CPUs > 0 {
		fmt.Fprintf(&b, " with %d CPUs", p.CPUs)
	}
	b.WriteString(".")
	if p.GoVersion != "" {
		fmt.Fprintf(&b, " %s", p.GoVersion)
		if p.HeapAlloc != "" {
			fmt.Fprintf(&b, ", heap %s", p.HeapAlloc)
		}
		b.WriteString(".")
	}
	if p.Uptime != "" {
		fmt.Fprintf(&b, " Assistant up %s.", p.Uptime)
	}
	return b.String(), true
}

func formatFileRead(payload any) (string, bool) {
	var p fileReadPayload
	if !decodePayload(payload, &p) || p.Path == "" {
		return "", false
	}
	return fmt.Sprintf("%s (%d bytes):\n%s", p.Path, p.SizeBytes, p.Content), true
}

func formatListDirectory(payload any) (string, bool) {
	var p listDirectoryPayload
	if !decodePayload(payload, &p) || p.Path == "" {
		return "", false
	}
	if len(p.Entries) == 0 {
		return fmt.Sprintf("%s is empty.", p.Path), true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s contains %d entries:", p.Path, len(p.Entries))
	for _, entry := range p.Entries {
		b.WriteString("\n  ")
		b.WriteString(entry.Name)
		if entry.Type == "dir" {
			b.WriteString("/")
		}
	}
	if p.Truncated {
		b.WriteString("\n  (listing truncated)")
	}
	return b.String(), true
}

func formatClipboard(payload any) (string, bool) {
	var p clipboardPayload
	if !decodePayload(payload, &p) {
		return "", false
	}
	if p.Content == "" {
		return "The clipboard is empty.", true
	}
	return fmt.Sprintf("Clipboard (%d characters):\n%s", p.Length, p.Content), true
}

func formatGames(payload any) (string, bool) {
	var p nbaPayload
	if !decodePayload(payload, &p) || p.Team == "" || len(p.Games) == 0 {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent games for the %s:", p.Team)
	for _, game := range p.Games {
		venue := "at"
		if game.Home {
			venue = "vs"
		}
		fmt.Fprintf(&b, "\n  %s: %s %d-%d %s %s",
			game.Date, game.Result, game.TeamScore, game.OpponentScore, venue, game.Opponent)
	}
	return b.String(), true
}

func formatWeather(payload any) (string, bool) {
	var p weatherPayload
	if !decodePayload(payload, &p) || p.Location == "" || p.TemperatureC == nil {
		return "", false
	}
	condition := p.Condition
	if condition == "" {
		condition = "unknown conditions"
	}
	line := fmt.Sprintf("Currently %s°C and %s in %s", formatNumber(*p.TemperatureC), strings.ToLower(condition), p.Location)
	if p.Humidity > 0 {
		line += fmt.Sprintf(" (humidity %d%%)", p.Humidity)
	}
	return line + ".", true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
