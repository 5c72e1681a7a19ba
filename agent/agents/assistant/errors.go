package assistant

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

const (
	emptyMessageReply  = "I need a message to work with. Type something and I'll help."
	modelUnreachable   = "I'm having trouble reaching the local model. Make sure Ollama is running and try again."
	modelTooSlow       = "The local model took too long to answer. It may still be loading; give it a moment and retry."
	modelReplyUnusable = "The model gave me a reply I couldn't work with. Try rephrasing your request."
	genericFailure     = "Something went wrong while I was working on that. Please try again."
)

// failureEnvelopeFor translates an internal error into the friendly reply the
// user sees. Raw errors stay in the logs; they never reach the envelope.
func failureEnvelopeFor(err error) contractx.Envelope {
	return contractx.FailureEnvelope(contractx.AssistantReply{Content: friendlyMessage(err)})
}

func friendlyMessage(err error) string {
	if err == nil {
		return genericFailure
	}
	if errors.Is(err, ErrInvalidMessage) {
		return emptyMessageReply
	}

	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, "connection refused", "no such host", "dial tcp", "connection reset"):
		return modelUnreachable
	case containsAny(text, "deadline exceeded", "timeout", "timed out"):
		return modelTooSlow
	case errors.Is(err, contractx.ErrSchemaViolation):
		return modelReplyUnusable
	default:
		return genericFailure
	}
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
