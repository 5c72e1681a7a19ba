package tool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func TestBrokerResolveThenAwait(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	ticket := broker.Create(contractx.ToolCall{Name: "clipboard_read"})

	if ticket.ID == "" || ticket.Tool != "clipboard_read" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if !broker.Resolve(ticket.ID, true) {
		t.Fatal("expected first resolve to win")
	}

	approved, err := broker.Await(context.Background(), ticket.ID, time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !approved {
		t.Fatal("expected approval")
	}
}

func TestBrokerResolvesExactlyOnce(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	ticket := broker.Create(contractx.ToolCall{Name: "file_read"})

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			if broker.Resolve(ticket.ID, approve) {
				atomic.AddInt32(&wins, 1)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning resolve, got %d", wins)
	}
	if _, err := broker.Await(context.Background(), ticket.ID, time.Second); err != nil {
		t.Fatalf("Await after resolve: %v", err)
	}
}

func TestBrokerAwaitTimesOutAsDenial(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	ticket := broker.Create(contractx.ToolCall{Name: "file_read"})

	approved, err := broker.Await(context.Background(), ticket.ID, 20*time.Millisecond)
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if approved {
		t.Fatal("expected denial on timeout")
	}

	// The request expired; a late answer finds nothing to resolve.
	if broker.Resolve(ticket.ID, true) {
		t.Fatal("expected resolve to miss an expired request")
	}
}

func TestBrokerAwaitUnknownID(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	if _, err := broker.Await(context.Background(), "no-such-id", time.Second); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestBrokerAwaitHonorsContext(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	ticket := broker.Create(contractx.ToolCall{Name: "file_read"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	approved, err := broker.Await(ctx, ticket.ID, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if approved {
		t.Fatal("expected denial on cancellation")
	}
}

func TestBrokerPendingReflectsOpenRequests(t *testing.T) {
	t.Parallel()

	broker := NewConfirmationBroker()
	first := broker.Create(contractx.ToolCall{Name: "file_read"})
	second := broker.Create(contractx.ToolCall{Name: "clipboard_read"})

	open := broker.Pending()
	if len(open) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(open))
	}

	broker.Resolve(first.ID, false)
	if _, err := broker.Await(context.Background(), first.ID, time.Second); err != nil {
		t.Fatalf("Await: %v", err)
	}

	open = broker.Pending()
	if len(open) != 1 || open[0].ID != second.ID {
		t.Fatalf("expected only the second request pending, got %+v", open)
	}
}
