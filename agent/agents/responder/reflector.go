package responder

import (
	"context"
	"encoding/json"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	reflectx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/reflection"
)

type reflectorImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Reflector = (*reflectorImpl)(nil)

func newReflector(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (*reflectorImpl, error) {
	runner, err := compileModelGraph(ctx, chatModel, systemPrompt, "reflector.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile reflector graph: %v", contractx.ErrModelInvoke, err)
	}
	return &reflectorImpl{runner: runner}, nil
}

// Reflect returns an outcome for every model reply it manages to obtain.
// Content the parser cannot make sense of degrades to an explain outcome
// instead of an error; only transport failures surface as errors.
func (r *reflectorImpl) Reflect(ctx context.Context, req contractx.ReflectionRequest) (contractx.ReflectionOutcome, error) {
	payload := map[string]any{
		"user_message": req.UserMessage,
		"tool_results": req.ToolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.ReflectionOutcome{}, fmt.Errorf("%w: marshal reflection payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.ReflectionOutcome{}, fmt.Errorf("%w: reflector invoke: %v", contractx.ErrModelInvoke, err)
	}

	content := ""
	if msg != nil {
		content = msg.Content
	}
	return reflectx.ParseOutcome(content), nil
}
