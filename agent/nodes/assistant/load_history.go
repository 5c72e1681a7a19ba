package assistantnode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	historyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/history"
)

// LoadHistory fills the state with the recent window for the conversation.
// When an archive is configured the window is hydrated from it first, so a
// restarted process picks up where the previous one stopped.
func LoadHistory(ctx context.Context, in *GraphState, conversations *historyx.Service) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("load history: state is nil")
	}
	if conversations == nil {
		return in, nil
	}

	if err := conversations.Hydrate(ctx, in.ConversationID); err != nil {
		log.Warn().Err(err).Str("conversation_id", in.ConversationID).Msg("history hydrate failed, continuing with in-memory window")
	}

	in.History = conversations.Recent(in.ConversationID)
	return in, nil
}
