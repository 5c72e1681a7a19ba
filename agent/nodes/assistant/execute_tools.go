package assistantnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// ExecuteTools runs the planned batch through the gateway. A permission
// refusal is a complete reply on its own: the turn stops and asks the user
// instead of doing half the work.
func ExecuteTools(ctx context.Context, in *GraphState, gateway contractx.ToolGateway) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("execute tools: state is nil")
	}
	if gateway == nil {
		return nil, errors.New("execute tools: gateway is nil")
	}
	if len(in.Calls) == 0 {
		return in, nil
	}

	results, err := gateway.ExecuteBatch(ctx, in.Calls, in.AllowOnce)
	if err != nil {
		return nil, fmt.Errorf("execute tools: %w", err)
	}
	in.ToolResults = results

	if len(results) == 1 && results[0].Status == contractx.StatusNeedsConfirmation {
		markNeedsConfirmation(in, results[0])
	}
	return in, nil
}

func markNeedsConfirmation(in *GraphState, refusal contractx.ToolResult) {
	in.Status = contractx.StatusNeedsConfirmation
	in.MissingPermissions = refusal.MissingPermissions
	in.Message = permissionMessage(refusal.MissingPermissions)
	in.Streamable = false
}

func permissionMessage(missing []string) string {
	if len(missing) == 0 {
		return "I need your permission before I can continue."
	}
	return fmt.Sprintf("I need your permission before I can continue. Missing: %s.", strings.Join(missing, ", "))
}
