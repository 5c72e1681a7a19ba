package contract

// Envelope is the uniform reply shape handed back to callers. Success is
// false only for rejected input, an exhausted reflection loop, or a backend
// failure; a low-confidence answer still ships with Success true and the
// report marked not accepted.
type Envelope struct {
	Success bool            `json:"success"`
	Data    ResponsePayload `json:"data"`
}

type ResponsePayload struct {
	Assistant AssistantReply `json:"assistant"`
}

type AssistantReply struct {
	Content            string            `json:"content"`
	Reflection         *ReflectionReport `json:"reflection,omitempty"`
	Status             string            `json:"status,omitempty"`
	MissingPermissions []string          `json:"missing_permissions,omitempty"`
}

func SuccessEnvelope(reply AssistantReply) Envelope {
	return Envelope{Success: true, Data: ResponsePayload{Assistant: reply}}
}

func FailureEnvelope(reply AssistantReply) Envelope {
	return Envelope{Success: false, Data: ResponsePayload{Assistant: reply}}
}
