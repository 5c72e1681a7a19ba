package assistantnode

import (
	"errors"
	"fmt"
	"strings"
)

// FormatResults answers pre-routed requests straight from the payload. Scores,
// temperatures, clock readings and sums reach the user exactly as the tool
// produced them. Payloads without a deterministic rendering, web search for
// one, stay on the reflection path.
func FormatResults(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("format results: state is nil")
	}
	if !in.PreRouted || in.Status != "" || in.Message != "" || len(in.ToolResults) == 0 {
		return in, nil
	}

	for _, result := range in.ToolResults {
		if !result.Success {
			in.Message = toolFailureMessage(result.Tool, result.Error)
			in.Streamable = false
			return in, nil
		}
	}

	lines := make([]string, 0, len(in.ToolResults))
	for _, result := range in.ToolResults {
		line, ok := formatResult(result)
		if !ok {
			return in, nil
		}
		lines = append(lines, line)
	}

	in.Message = strings.Join(lines, "\n\n")
	in.Streamable = true
	return in, nil
}

func toolFailureMessage(tool, reason string) string {
	if strings.TrimSpace(reason) == "" {
		return fmt.Sprintf("I couldn't run the %s tool.", tool)
	}
	return fmt.Sprintf("I couldn't run the %s tool: %s.", tool, strings.TrimRight(reason, "."))
}
