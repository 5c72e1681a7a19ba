package history

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// Archive is the durable backend behind the in-memory window. Implementations
// must tolerate concurrent appends for different conversations.
type Archive interface {
	Append(ctx context.Context, conversationID string, message contractx.ConversationMessage) error
	Tail(ctx context.Context, conversationID string, limit int) ([]contractx.ConversationMessage, error)
}

// Service holds one bounded Log per conversation id and keeps the optional
// archive in sync. All map and log access happens under one lock; archive
// I/O runs outside it so a slow backend never blocks other conversations.
type Service struct {
	mu       sync.Mutex
	capacity int
	logs     map[string]*Log
	archive  Archive
}

type ServiceOption func(*Service)

func WithCapacity(capacity int) ServiceOption {
	return func(s *Service) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

func WithArchive(archive Archive) ServiceOption {
	return func(s *Service) {
		s.archive = archive
	}
}

func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		capacity: DefaultCapacity,
		logs:     make(map[string]*Log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends to the conversation window and writes through to the
// archive when one is configured. Archive failures are logged and
// swallowed: losing durability must not fail the turn.
func (s *Service) Record(ctx context.Context, conversationID string, message contractx.ConversationMessage) {
	key := strings.TrimSpace(conversationID)

	s.mu.Lock()
	s.logFor(key).Append(message)
	archive := s.archive
	s.mu.Unlock()

	if archive == nil {
		return
	}
	if err := archive.Append(ctx, key, message); err != nil {
		log.Warn().Str("conversation_id", key).Err(err).Msg("history archive append failed")
	}
}

// Recent returns the current window oldest first.
func (s *Service) Recent(conversationID string) []contractx.ConversationMessage {
	key := strings.TrimSpace(conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.logs[key]
	if !ok {
		return nil
	}
	return existing.Messages()
}

// Hydrate fills an empty window from the archive tail, for picking a
// conversation back up after a restart. A window that already has messages
// is left alone.
func (s *Service) Hydrate(ctx context.Context, conversationID string) error {
	if s.archive == nil {
		return nil
	}
	key := strings.TrimSpace(conversationID)

	s.mu.Lock()
	populated := s.logs[key] != nil && s.logs[key].Len() > 0
	capacity := s.capacity
	s.mu.Unlock()
	if populated {
		return nil
	}

	tail, err := s.archive.Tail(ctx, key, capacity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.logFor(key)
	if target.Len() > 0 {
		return nil
	}
	for _, message := range tail {
		target.Append(message)
	}
	return nil
}

// logFor must be called with the lock held.
func (s *Service) logFor(key string) *Log {
	existing, ok := s.logs[key]
	if !ok {
		existing = NewLog(s.capacity)
		s.logs[key] = existing
	}
	return existing
}
