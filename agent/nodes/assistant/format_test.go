package assistantnode

import (
	"testing"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func TestFormatResultRendersKnownPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result contractx.ToolResult
		want   string
	}{
		{
			name: "clock",
			result: contractx.ToolResult{Tool: contractx.ToolClock, Success: true, Result: map[string]any{
				"iso":      "2025-03-14T09:26:53Z",
				"time":     "09:26",
				"date":     "Friday, 14 March 2025",
				"timezone": "UTC",
			}},
			want: "It is 09:26 on Friday, 14 March 2025 (UTC).",
		},
		{
			name: "calculator",
			result: contractx.ToolResult{Tool: contractx.ToolCalculator, Success: true, Result: map[string]any{
				"expression": "2 + 3",
				"result":     float64(5),
			}},
			want: "2 + 3 = 5",
		},
		{
			name: "calculator fraction",
			result: contractx.ToolResult{Tool: contractx.ToolCalculator, Success: true, Result: map[string]any{
				"expression": "10 / 4",
				"result":     float64(2.5),
			}},
			want: "10 / 4 = 2.5",
		},
		{
			name: "system info",
			result: contractx.ToolResult{Tool: contractx.ToolSystemInfo, Success: true, Result: map[string]any{
				"hostname":   "devbox",
				"os":         "linux",
				"arch":       "amd64",
				"cpus":       float64(8),
				"go_version": "go1.24.1",
				"heap_alloc": "12.5 MB",
				"uptime":     "1h2m3s",
			}},
			want: "devbox runs linux/amd64 with 8 CPUs. go1.24.1, heap 12.5 MB. Assistant up 1h2m3s.",
		},
		{
			name: "file read",
			result: contractx.ToolResult{Tool: contractx.ToolFileRead, Success: true, Result: map[string]any{
				"path":       "/tmp/notes.txt",
				"size_bytes": float64(11),
				"content":    "hello\nworld",
			}},
			want: "/tmp/notes.txt (11 bytes):\nhello\nworld",
		},
		{
			name: "list directory",
			result: contractx.ToolResult{Tool: contractx.ToolListDirectory, Success: true, Result: map[string]any{
				"path": "/tmp",
				"entries": []any{
					map[string]any{"name": "a.txt", "type": "file"},
					map[string]any{"name": "sub", "type": "dir"},
				},
				"truncated": true,
			}},
			want: "/tmp contains 2 entries:\n  a.txt\n  sub/\n  (listing truncated)",
		},
		{
			name: "empty directory",
			result: contractx.ToolResult{Tool: contractx.ToolListDirectory, Success: true, Result: map[string]any{
				"path":    "/tmp/empty",
				"entries": []any{},
			}},
			want: "/tmp/empty is empty.",
		},
		{
			name: "clipboard",
			result: contractx.ToolResult{Tool: contractx.ToolClipboardRead, Success: true, Result: map[string]any{
				"content": "copied text",
				"length":  float64(11),
			}},
			want: "Clipboard (11 characters):\ncopied text",
		},
		{
			name: "empty clipboard",
			result: contractx.ToolResult{Tool: contractx.ToolClipboardRead, Success: true, Result: map[string]any{
				"content": "",
				"length":  float64(0),
			}},
			want: "The clipboard is empty.",
		},
		{
			name: "games",
			result: contractx.ToolResult{Tool: contractx.ToolNBAQuery, Success: true, Result: map[string]any{
				"team": "warriors",
				"games": []any{
					map[string]any{"date": "2025-03-01", "opponent": "Lakers", "home": true, "team_score": float64(120), "opponent_score": float64(110), "result": "W"},
					map[string]any{"date": "2025-02-27", "opponent": "Suns", "home": false, "team_score": float64(98), "opponent_score": float64(104), "result": "L"},
				},
			}},
			want: "Recent games for the warriors:\n  2025-03-01: W 120-110 vs Lakers\n  2025-02-27: L 98-104 at Suns",
		},
		{
			name: "weather",
			result: contractx.ToolResult{Tool: contractx.ToolWeatherQuery, Success: true, Result: map[string]any{
				"location":      "Bangkok",
				"temperature_c": float64(31.5),
				"condition":     "Partly cloudy",
				"humidity":      float64(64),
			}},
			want: "Currently 31.5°C and partly cloudy in Bangkok (humidity 64%).",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := formatResult(tc.result)
			if !ok {
				t.Fatalf("expected a deterministic rendering")
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestFormatResultRejectsUnknownOrPartialPayloads(t *testing.T) {
	t.Parallel()

	cases := []contractx.ToolResult{
		{Tool: contractx.ToolWebSearch, Success: true, Result: map[string]any{"results": []any{}}},
		{Tool: contractx.ToolWeatherQuery, Success: true, Result: map[string]any{"location": "Bangkok"}},
		{Tool: contractx.ToolCalculator, Success: true, Result: map[string]any{"expression": "2+3"}},
		{Tool: contractx.ToolClock, Success: true, Result: "not a map"},
		{Tool: contractx.ToolNBAQuery, Success: true, Result: map[string]any{"team": "warriors", "games": []any{}}},
	}
	for _, result := range cases {
		if got, ok := formatResult(result); ok {
			t.Fatalf("tool %s: expected no rendering, got %q", result.Tool, got)
		}
	}
}

func TestFormatResultsAnswersPreRoutedClock(t *testing.T) {
	t.Parallel()

	state := &GraphState{
		PreRouted: true,
		ToolResults: []contractx.ToolResult{{
			Tool:    contractx.ToolClock,
			Success: true,
			Result: map[string]any{
				"time":     "09:26",
				"date":     "Friday, 14 March 2025",
				"timezone": "UTC",
			},
		}},
	}

	state, err := FormatResults(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Message != "It is 09:26 on Friday, 14 March 2025 (UTC)." {
		t.Fatalf("unexpected message: %q", state.Message)
	}
	if !state.Streamable {
		t.Fatalf("deterministic answers should stream")
	}
}

func TestFormatResultsReportsToolFailure(t *testing.T) {
	t.Parallel()

	state := &GraphState{
		PreRouted: true,
		ToolResults: []contractx.ToolResult{{
			Tool:    contractx.ToolCalculator,
			Success: false,
			Error:   "division by zero",
		}},
	}

	state, err := FormatResults(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Message != "I couldn't run the calculator tool: division by zero." {
		t.Fatalf("unexpected message: %q", state.Message)
	}
	if state.Streamable {
		t.Fatalf("failure notices must not stream")
	}
}

func TestFormatResultsLeavesWebSearchToReflection(t *testing.T) {
	t.Parallel()

	state := &GraphState{
		PreRouted: true,
		ToolResults: []contractx.ToolResult{{
			Tool:    contractx.ToolWebSearch,
			Success: true,
			Result:  map[string]any{"results": []any{map[string]any{"title": "hit"}}},
		}},
	}

	state, err := FormatResults(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Message != "" {
		t.Fatalf("web search should fall through to reflection, got %q", state.Message)
	}
}

func TestFormatResultsIgnoresModelPlannedCalls(t *testing.T) {
	t.Parallel()

	state := &GraphState{
		PreRouted: false,
		ToolResults: []contractx.ToolResult{{
			Tool:    contractx.ToolClock,
			Success: true,
			Result:  map[string]any{"time": "09:26", "date": "Friday, 14 March 2025"},
		}},
	}

	state, err := FormatResults(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Message != "" {
		t.Fatalf("model-planned tool output must go through reflection, got %q", state.Message)
	}
}
