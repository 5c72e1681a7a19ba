package responder

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	llmx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/llm"
	promptx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/prompt"
)

type registryImpl struct {
	responder contractx.Responder
	reflector contractx.Reflector
}

func (r *registryImpl) Responder() contractx.Responder {
	return r.responder
}

func (r *registryImpl) Reflector() contractx.Reflector {
	return r.reflector
}

// NewRegistry builds both model stages against the local Ollama endpoint.
// The responder gets the tool catalog bound; the reflector never calls tools
// itself, it only asks for them.
func NewRegistry(ctx context.Context, cfg llmx.Config, catalog []*schema.ToolInfo) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	responderModelCfg := cfg.OllamaFor(contractx.StageResponder)
	responderModel, err := responderModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create responder model: %v", contractx.ErrModelInvoke, err)
	}
	reflectionModelCfg := cfg.OllamaFor(contractx.StageReflection)
	reflectionModel, err := reflectionModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create reflection model: %v", contractx.ErrModelInvoke, err)
	}

	responderStage, err := newResponder(ctx, responderModel, prompts.Responder, catalog)
	if err != nil {
		return nil, err
	}
	reflectorStage, err := newReflector(ctx, reflectionModel, prompts.Reflection)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		responder: responderStage,
		reflector: reflectorStage,
	}, nil
}
