package contract

import "time"

type Stage string

const (
	StageResponder  Stage = "responder"
	StageReflection Stage = "reflection"
)

type RouteKind string

const (
	RouteTools RouteKind = "tools"
	RouteLlm   RouteKind = "llm"
	RouteError RouteKind = "error"
)

// RoutingDecision is produced exactly once per inbound message and is
// immutable afterwards. Tools carries the pre-routed calls, Llm defers to the
// model, Error carries the reason the message was rejected.
type RoutingDecision struct {
	Kind   RouteKind  `json:"kind"`
	Calls  []ToolCall `json:"calls,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

func ToolsRoute(calls ...ToolCall) RoutingDecision {
	return RoutingDecision{Kind: RouteTools, Calls: calls}
}

func LlmRoute() RoutingDecision {
	return RoutingDecision{Kind: RouteLlm}
}

func ErrorRoute(reason string) RoutingDecision {
	return RoutingDecision{Kind: RouteError, Reason: reason}
}

// ToolCall is a single requested tool invocation. Arguments come either from
// the model or from the pre-router and are untrusted until the executor has
// validated them against the tool's declared parameters.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

const StatusNeedsConfirmation = "needs_confirmation"

type ToolResult struct {
	Tool               string   `json:"tool,omitempty"`
	Success            bool     `json:"success"`
	Result             any      `json:"result,omitempty"`
	Error              string   `json:"error,omitempty"`
	Status             string   `json:"status,omitempty"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ConversationMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const RedactionLevelRedact = "redact"

// MemoryItem is never mutated after creation; redaction produces a new
// display string, not a rewritten record.
type MemoryItem struct {
	Text           string    `json:"text"`
	Confidence     float64   `json:"confidence"`
	Created        time.Time `json:"created"`
	RedactionLevel string    `json:"redaction_level,omitempty"`
}

type ReflectionKind string

const (
	ReflectionAccept      ReflectionKind = "accept"
	ReflectionRequestTool ReflectionKind = "request_tool"
	ReflectionExplain     ReflectionKind = "explain"
)

// ReflectionOutcome is the structured form the reflection model is asked to
// return. Confidence is nil when the model omitted it; the confidence gate
// treats that as a rejection, not an error.
type ReflectionOutcome struct {
	Kind         ReflectionKind `json:"outcome"`
	FinalMessage string         `json:"final_message,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Tool         *ToolCall      `json:"tool,omitempty"`
	Explanation  string         `json:"explanation,omitempty"`
}

// ReflectionReport is the audit trail attached to a reply that went through
// the reflection pass. Threshold is always included so callers can see what
// the confidence was measured against.
type ReflectionReport struct {
	Confidence float64 `json:"confidence"`
	Accepted   bool    `json:"accepted"`
	Threshold  float64 `json:"threshold"`
}

type ResponderRequest struct {
	UserMessage   string                `json:"user_message"`
	History       []ConversationMessage `json:"history,omitempty"`
	MemoryContext []string              `json:"memory_context,omitempty"`
	Now           time.Time             `json:"now"`
}

type ResponderResponse struct {
	Message   string     `json:"message"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type ReflectionRequest struct {
	UserMessage string       `json:"user_message"`
	ToolResults []ToolResult `json:"tool_results"`
}

type ConfirmationRequest struct {
	ID        string         `json:"id"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}
