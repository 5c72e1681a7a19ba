package history

import (
	"testing"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func TestConversationRecordRoundTrip(t *testing.T) {
	t.Parallel()

	original := contractx.ConversationMessage{
		Role:      contractx.RoleAssistant,
		Content:   "The answer is 42.",
		Timestamp: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}

	record := recordFromMessage("alpha", original)
	if record.ConversationID != "alpha" || record.Role != "assistant" {
		t.Fatalf("unexpected record %+v", record)
	}

	restored := record.message()
	if restored != original {
		t.Fatalf("round trip mismatch: %+v vs %+v", restored, original)
	}
}

func TestRecordFromMessageFillsMissingTimestamp(t *testing.T) {
	t.Parallel()

	record := recordFromMessage("alpha", contractx.ConversationMessage{
		Role:    contractx.RoleUser,
		Content: "no clock",
	})
	if record.CreatedAt.IsZero() {
		t.Fatal("expected created_at filled for zero timestamp")
	}
}

func TestNewPostgresArchiveRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewPostgresArchive(PostgresConfig{DSN: "   "}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
