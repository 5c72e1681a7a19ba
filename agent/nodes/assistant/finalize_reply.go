package assistantnode

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// FinalizeReply seals the state into the reply envelope. Streaming stays off
// for anything that is not a settled answer: permission requests, failures
// and answers the gate refused to validate.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, errors.New("finalize reply: state is nil")
	}

	content := strings.TrimSpace(in.Message)
	if content == "" {
		return GraphOutput{}, errors.New("finalize reply: reply content is empty")
	}

	reply := contractx.AssistantReply{
		Content:            content,
		Reflection:         in.Report,
		Status:             in.Status,
		MissingPermissions: in.MissingPermissions,
	}

	envelope := contractx.SuccessEnvelope(reply)
	if in.Failed {
		envelope = contractx.FailureEnvelope(reply)
	}

	streamable := in.Streamable && !in.Failed && in.Status == ""
	return GraphOutput{Envelope: envelope, Streamable: streamable}, nil
}
