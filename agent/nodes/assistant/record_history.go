package assistantnode

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	historyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/history"
	policyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/policy"
)

// RecordHistory appends the finished exchange to the conversation window and,
// when policy allows, remembers the user's message long term. Turns waiting on
// a permission decision are not recorded: the user will resend, and a half
// turn in history would double up.
func RecordHistory(ctx context.Context, in *GraphState, conversations *historyx.Service, memory contractx.MemoryStore, settings policyx.Settings) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("record history: state is nil")
	}
	if in.Status == contractx.StatusNeedsConfirmation {
		return in, nil
	}

	if conversations != nil {
		conversations.Record(ctx, in.ConversationID, contractx.ConversationMessage{
			Role:      contractx.RoleUser,
			Content:   in.Text,
			Timestamp: in.Now,
		})
		conversations.Record(ctx, in.ConversationID, contractx.ConversationMessage{
			Role:      contractx.RoleAssistant,
			Content:   in.Message,
			Timestamp: in.Now,
		})
	}

	if memory == nil {
		return in, nil
	}

	// The user said it themselves, so the write confidence is full. The
	// policy still gets the last word on sensitive content.
	verdict := policyx.EvaluateWritePolicy(in.Text, 1.0, settings)
	if verdict.Decision != policyx.DecisionAllow {
		log.Debug().Str("reason", verdict.Reason).Msg("memory write skipped by policy")
		return in, nil
	}

	item := contractx.MemoryItem{
		Text:       in.Text,
		Confidence: 1.0,
		Created:    in.Now,
	}
	if err := memory.Remember(ctx, item); err != nil {
		log.Warn().Err(err).Msg("memory write failed, reply is unaffected")
	}
	return in, nil
}
