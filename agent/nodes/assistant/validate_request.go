package assistantnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

var ErrInvalidMessage = errors.New("message is empty")

// DefaultConversationID is used when the caller does not name a
// conversation. A single-user local assistant mostly lives in one thread.
const DefaultConversationID = "local"

type GraphInput struct {
	ConversationID string
	Text           string
	AllowOnce      map[string]bool
}

type GraphOutput struct {
	Envelope contractx.Envelope

	// Streamable marks replies the caller may speak or type out
	// incrementally: validated or deterministic content only.
	Streamable bool
}

type GraphState struct {
	ConversationID string
	Text           string
	Now            time.Time
	AllowOnce      map[string]bool

	History       []contractx.ConversationMessage
	MemoryContext []string

	Route     contractx.RoutingDecision
	PreRouted bool
	Planned   contractx.ResponderResponse

	Calls       []contractx.ToolCall
	ToolResults []contractx.ToolResult

	Message            string
	Report             *contractx.ReflectionReport
	Status             string
	MissingPermissions []string
	Failed             bool
	Streamable         bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		conversationID = DefaultConversationID
	}

	return &GraphState{
		ConversationID: conversationID,
		Text:           text,
		Now:            nowFn().UTC(),
		AllowOnce:      in.AllowOnce,
	}, nil
}
