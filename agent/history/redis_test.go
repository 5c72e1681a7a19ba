package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func newRedisFixture(t *testing.T, handler http.HandlerFunc, opts ...RedisArchiveOption) *RedisArchive {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append(opts, WithRedisHTTPClient(server.Client()))
	archive, err := NewRedisArchive(RedisConfig{URL: server.URL, Token: "token"}, opts...)
	if err != nil {
		t.Fatalf("NewRedisArchive() error = %v", err)
	}
	return archive
}

func TestRedisArchiveAppendPushesTrimsAndExpires(t *testing.T) {
	t.Parallel()

	var commands [][]any
	archive := newRedisFixture(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		commands = append(commands, cmd)
		fmt.Fprint(w, `{"result":1}`)
	})

	if err := archive.Append(context.Background(), "alpha", userMessage("hello")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if len(commands) != 3 {
		t.Fatalf("expected RPUSH, LTRIM, EXPIRE, got %d commands", len(commands))
	}

	push := commands[0]
	if push[0] != "RPUSH" || push[1] != "aster:conversation:alpha" {
		t.Fatalf("unexpected push command %v", push)
	}
	payload, ok := push[2].(string)
	if !ok || !strings.Contains(payload, `"content":"hello"`) {
		t.Fatalf("unexpected push payload %v", push[2])
	}

	trim := commands[1]
	if trim[0] != "LTRIM" || trim[2] != float64(-defaultRedisRetention) || trim[3] != float64(-1) {
		t.Fatalf("unexpected trim command %v", trim)
	}

	expire := commands[2]
	if expire[0] != "EXPIRE" || expire[2] != float64(7*24*60*60) {
		t.Fatalf("unexpected expire command %v", expire)
	}
}

func TestRedisArchiveTailParsesMessages(t *testing.T) {
	t.Parallel()

	stored := []contractx.ConversationMessage{
		userMessage("first"),
		{Role: contractx.RoleAssistant, Content: "second"},
	}
	encoded := make([]string, len(stored))
	for i, message := range stored {
		raw, err := json.Marshal(message)
		if err != nil {
			t.Fatalf("marshal seed: %v", err)
		}
		encoded[i] = string(raw)
	}
	result, err := json.Marshal(encoded)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}

	var gotCommand []any
	archive := newRedisFixture(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, result)
	})

	messages, err := archive.Tail(context.Background(), "alpha", 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}

	if gotCommand[0] != "LRANGE" || gotCommand[1] != "aster:conversation:alpha" {
		t.Fatalf("unexpected command %v", gotCommand)
	}
	if gotCommand[2] != float64(-2) || gotCommand[3] != float64(-1) {
		t.Fatalf("unexpected range %v", gotCommand)
	}

	if len(messages) != 2 || messages[0].Content != "first" || messages[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected messages %v", messages)
	}
}

func TestRedisArchiveEmptyTail(t *testing.T) {
	t.Parallel()

	archive := newRedisFixture(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"result":null}`)
	})

	messages, err := archive.Tail(context.Background(), "alpha", 5)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if messages != nil {
		t.Fatalf("expected nil tail, got %v", messages)
	}
}

func TestRedisArchiveRejectsEmptyConversation(t *testing.T) {
	t.Parallel()

	archive := newRedisFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	if err := archive.Append(context.Background(), "  ", userMessage("x")); !errors.Is(err, ErrInvalidConversation) {
		t.Fatalf("expected ErrInvalidConversation, got %v", err)
	}
}

func TestRedisArchiveSurfacesRedisErrors(t *testing.T) {
	t.Parallel()

	archive := newRedisFixture(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"error":"WRONGTYPE Operation against a key"}`)
	})

	err := archive.Append(context.Background(), "alpha", userMessage("x"))
	if err == nil || !strings.Contains(err.Error(), "WRONGTYPE") {
		t.Fatalf("expected redis error surfaced, got %v", err)
	}
}

func TestNewRedisArchiveValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisArchive(RedisConfig{URL: "", Token: "t"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewRedisArchive(RedisConfig{URL: "http://localhost", Token: ""}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewRedisArchive(RedisConfig{URL: "not a url", Token: "t"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
