package assistantnode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	policyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/policy"
)

// RecallMemory loads long-term memory relevant to the request. Retrieval is
// best effort: a slow or broken store degrades the reply, it never sinks the
// turn.
func RecallMemory(ctx context.Context, in *GraphState, memory contractx.MemoryStore, settings policyx.Settings) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("recall memory: state is nil")
	}
	if memory == nil {
		return in, nil
	}

	verdict := policyx.EvaluateRetrievalPolicy(in.Text, 1.0, settings, in.Now)
	if !verdict.Allowed {
		log.Debug().Str("reason", verdict.Reason).Msg("memory retrieval skipped by policy")
		return in, nil
	}

	// Over-fetch so stale or policy-filtered items still leave enough
	// candidates for a full context window.
	items, err := memory.Retrieve(ctx, in.Text, settings.MaxContextItems*2)
	if err != nil {
		log.Warn().Err(err).Msg("memory retrieval failed, continuing without context")
		return in, nil
	}

	items = policyx.FilterRetrievable(items, settings, in.Now)
	in.MemoryContext = policyx.PrepareForContext(items, settings)
	return in, nil
}
