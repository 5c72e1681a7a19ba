// Package responder hosts the two model stages of a turn: the responder that
// plans the reply or the tool calls, and the reflector that judges tool
// output before it reaches the user.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

type responderImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Responder = (*responderImpl)(nil)

func newResponder(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	catalog []*schema.ToolInfo,
) (*responderImpl, error) {
	var boundModel einomodel.BaseChatModel = chatModel
	if len(catalog) > 0 {
		withTools, err := chatModel.WithTools(catalog)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tool catalog: %v", contractx.ErrModelInvoke, err)
		}
		boundModel = withTools
	}

	runner, err := compileModelGraph(ctx, boundModel, systemPrompt, "responder.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile responder graph: %v", contractx.ErrModelInvoke, err)
	}
	return &responderImpl{runner: runner}, nil
}

func (r *responderImpl) Respond(ctx context.Context, req contractx.ResponderRequest) (contractx.ResponderResponse, error) {
	payload := map[string]any{
		"user_message":   req.UserMessage,
		"history":        req.History,
		"memory_context": req.MemoryContext,
		"now":            req.Now.Format(time.RFC3339),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.ResponderResponse{}, fmt.Errorf("%w: marshal responder payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.ResponderResponse{}, fmt.Errorf("%w: responder invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.ResponderResponse{}, fmt.Errorf("%w: empty responder response", contractx.ErrSchemaViolation)
	}

	calls, err := toToolCalls(msg.ToolCalls)
	if err != nil {
		return contractx.ResponderResponse{}, err
	}
	if len(calls) > 0 {
		return contractx.ResponderResponse{ToolCalls: calls}, nil
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return contractx.ResponderResponse{}, fmt.Errorf("%w: responder returned neither text nor tool calls", contractx.ErrSchemaViolation)
	}
	return contractx.ResponderResponse{Message: content}, nil
}

func toToolCalls(calls []schema.ToolCall) ([]contractx.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]contractx.ToolCall, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		out = append(out, contractx.ToolCall{
			Name:      name,
			Arguments: args,
		})
	}
	return out, nil
}
