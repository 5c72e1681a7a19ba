package assistantnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	reflectx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/reflection"
)

// DefaultMaxReflectionDepth bounds how many follow-up tool calls the
// reflection pass may request before the turn is declared failed.
const DefaultMaxReflectionDepth = 3

const validationFailedMessage = "I ran the tools but could not finish validating the results. Please try asking again."

// ReflectResults has a second model pass judge the tool output before it
// reaches the user. The pass may accept with a confidence, ask for one more
// tool call, or explain why it cannot validate. Follow-up requests loop back
// through the gateway up to maxDepth times.
func ReflectResults(ctx context.Context, in *GraphState, reflector contractx.Reflector, gateway contractx.ToolGateway, gate reflectx.Gate, maxDepth int) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("reflect results: state is nil")
	}
	if in.Status != "" || in.Message != "" || len(in.ToolResults) == 0 {
		return in, nil
	}
	if reflector == nil {
		return nil, errors.New("reflect results: reflector is nil")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxReflectionDepth
	}

	depth := 0
	for {
		outcome, err := reflector.Reflect(ctx, contractx.ReflectionRequest{
			UserMessage: in.Text,
			ToolResults: in.ToolResults,
		})
		if err != nil {
			return nil, fmt.Errorf("reflect results: %w", err)
		}

		switch outcome.Kind {
		case contractx.ReflectionRequestTool:
			if outcome.Tool == nil {
				applyExplanation(in, gate, outcome)
				return in, nil
			}
			if depth >= maxDepth {
				log.Warn().Int("depth", depth).Str("tool", outcome.Tool.Name).Msg("reflection depth exhausted")
				in.Failed = true
				in.Message = validationFailedMessage
				in.Streamable = false
				return in, nil
			}
			depth++
			extra, err := gateway.ExecuteBatch(ctx, []contractx.ToolCall{*outcome.Tool}, in.AllowOnce)
			if err != nil {
				return nil, fmt.Errorf("reflect results: %w", err)
			}
			if len(extra) == 1 && extra[0].Status == contractx.StatusNeedsConfirmation {
				markNeedsConfirmation(in, extra[0])
				return in, nil
			}
			in.ToolResults = append(in.ToolResults, extra...)

		case contractx.ReflectionAccept:
			verdict := gate.Enforce(&outcome)
			in.Report = verdict.Report()
			in.Message = strings.TrimSpace(outcome.FinalMessage)
			in.Streamable = verdict.Accepted
			if in.Message == "" {
				in.Message = reflectx.FallbackExplanation
				in.Streamable = false
			}
			return in, nil

		default:
			applyExplanation(in, gate, outcome)
			return in, nil
		}
	}
}

// applyExplanation finishes the turn with the reflector's explanation. The
// gate still runs so the report carries an honest accepted flag and the
// threshold it was measured against.
func applyExplanation(in *GraphState, gate reflectx.Gate, outcome contractx.ReflectionOutcome) {
	verdict := gate.Enforce(&outcome)
	in.Report = verdict.Report()

	message := strings.TrimSpace(outcome.Explanation)
	if message == "" {
		message = reflectx.FallbackExplanation
	}
	in.Message = message
	in.Streamable = false
}
