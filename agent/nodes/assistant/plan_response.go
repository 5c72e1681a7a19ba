package assistantnode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// PlanResponse asks the responder model for the next step: either a direct
// answer or a batch of tool calls. A direct answer is final as-is, it does
// not go through reflection.
func PlanResponse(ctx context.Context, in *GraphState, responder contractx.Responder) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("plan response: state is nil")
	}
	if responder == nil {
		return nil, errors.New("plan response: responder is nil")
	}

	resp, err := responder.Respond(ctx, contractx.ResponderRequest{
		UserMessage:   in.Text,
		History:       in.History,
		MemoryContext: in.MemoryContext,
		Now:           in.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("plan response: %w", err)
	}

	in.Planned = resp
	if len(resp.ToolCalls) > 0 {
		in.Calls = resp.ToolCalls
		return in, nil
	}

	if strings.TrimSpace(resp.Message) == "" {
		return nil, fmt.Errorf("%w: responder message is empty", contractx.ErrSchemaViolation)
	}
	in.Message = resp.Message
	in.Streamable = true
	return in, nil
}
