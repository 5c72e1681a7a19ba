package contract

import "context"

type Responder interface {
	Respond(ctx context.Context, req ResponderRequest) (ResponderResponse, error)
}

type Reflector interface {
	Reflect(ctx context.Context, req ReflectionRequest) (ReflectionOutcome, error)
}

type Registry interface {
	Responder() Responder
	Reflector() Reflector
}

type ToolGateway interface {
	ExecuteBatch(ctx context.Context, calls []ToolCall, overrides map[string]bool) ([]ToolResult, error)
}

type MemoryStore interface {
	Retrieve(ctx context.Context, query string, limit int) ([]MemoryItem, error)
	Remember(ctx context.Context, item MemoryItem) error
}

// ConfirmationPrompter asks the user to approve one tool invocation. An
// error counts as a denial; the executor fails closed.
type ConfirmationPrompter interface {
	Prompt(ctx context.Context, req ConfirmationRequest) (bool, error)
}
