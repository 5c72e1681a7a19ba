// Package history keeps the rolling conversation window the model sees,
// with optional durable archives behind it.
package history

import (
	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// DefaultCapacity bounds the in-memory window per conversation. Twenty
// messages is ten full turns, which keeps the prompt grounded without
// growing without limit.
const DefaultCapacity = 20

// Log is a bounded FIFO of conversation messages. Appending past capacity
// evicts the oldest message first.
type Log struct {
	capacity int
	messages []contractx.ConversationMessage
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

func (l *Log) Append(message contractx.ConversationMessage) {
	if len(l.messages) == l.capacity {
		copy(l.messages, l.messages[1:])
		l.messages[len(l.messages)-1] = message
		return
	}
	l.messages = append(l.messages, message)
}

// Messages returns the window oldest first. The slice is a copy; callers
// can hold it across later appends.
func (l *Log) Messages() []contractx.ConversationMessage {
	out := make([]contractx.ConversationMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	return len(l.messages)
}

func (l *Log) Capacity() int {
	return l.capacity
}
