package history

import (
	"fmt"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func userMessage(content string) contractx.ConversationMessage {
	return contractx.ConversationMessage{
		Role:      contractx.RoleUser,
		Content:   content,
		Timestamp: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLogDefaultCapacity(t *testing.T) {
	t.Parallel()

	if got := NewLog(0).Capacity(); got != DefaultCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultCapacity, got)
	}
}

func TestLogEvictsOldestPastCapacity(t *testing.T) {
	t.Parallel()

	log := NewLog(DefaultCapacity)
	for i := 0; i <= DefaultCapacity; i++ {
		log.Append(userMessage(fmt.Sprintf("m%d", i)))
	}

	messages := log.Messages()
	if len(messages) != DefaultCapacity {
		t.Fatalf("expected %d messages, got %d", DefaultCapacity, len(messages))
	}
	if messages[0].Content != "m1" {
		t.Fatalf("expected oldest message evicted, first is %q", messages[0].Content)
	}
	if messages[len(messages)-1].Content != fmt.Sprintf("m%d", DefaultCapacity) {
		t.Fatalf("expected newest message kept, last is %q", messages[len(messages)-1].Content)
	}
}

func TestLogKeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	log := NewLog(3)
	for _, content := range []string{"a", "b", "c", "d"} {
		log.Append(userMessage(content))
	}

	messages := log.Messages()
	want := []string{"b", "c", "d"}
	for i, content := range want {
		if messages[i].Content != content {
			t.Fatalf("position %d: expected %q, got %q", i, content, messages[i].Content)
		}
	}
}

func TestLogMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	log := NewLog(5)
	log.Append(userMessage("original"))

	snapshot := log.Messages()
	snapshot[0].Content = "mutated"

	if log.Messages()[0].Content != "original" {
		t.Fatal("expected log unaffected by snapshot mutation")
	}
}
