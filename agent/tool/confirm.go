package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// DefaultConfirmationWait bounds how long a tool blocks on the user before
// auto-denying.
const DefaultConfirmationWait = 60 * time.Second

var (
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrConfirmationDenied  = errors.New("confirmation denied")
)

// ConfirmationTicket identifies one pending approval.
type ConfirmationTicket struct {
	ID   string
	Tool string
}

type pendingConfirmation struct {
	ticket ConfirmationTicket
	answer chan bool
	once   sync.Once
}

// ConfirmationBroker tracks pending approvals by generated id. Each request
// resolves exactly once, whether by answer, timeout, or cancellation; the
// losing side of any race becomes a no-op.
type ConfirmationBroker struct {
	mu      sync.Mutex
	pending map[string]*pendingConfirmation
}

func NewConfirmationBroker() *ConfirmationBroker {
	return &ConfirmationBroker{pending: make(map[string]*pendingConfirmation)}
}

func (b *ConfirmationBroker) Create(call contractx.ToolCall) ConfirmationTicket {
	p := &pendingConfirmation{
		ticket: ConfirmationTicket{ID: uuid.NewString(), Tool: call.Name},
		answer: make(chan bool, 1),
	}

	b.mu.Lock()
	b.pending[p.ticket.ID] = p
	b.mu.Unlock()

	return p.ticket
}

// Resolve answers a pending request. Returns false when the id is unknown or
// the request was already resolved.
func (b *ConfirmationBroker) Resolve(id string, approved bool) bool {
	b.mu.Lock()
	p, ok := b.pending[id]
	b.mu.Unlock()
	if !ok {
		return false
	}

	won := false
	p.once.Do(func() {
		p.answer <- approved
		won = true
	})
	return won
}

// Await blocks until the request resolves, the wait elapses (auto-deny), or
// the context ends. The request expires from the table on return.
func (b *ConfirmationBroker) Await(ctx context.Context, id string, wait time.Duration) (bool, error) {
	b.mu.Lock()
	p, ok := b.pending[id]
	b.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("unknown confirmation %s", id)
	}
	defer b.remove(id)

	if wait <= 0 {
		wait = DefaultConfirmationWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case approved := <-p.answer:
		return approved, nil
	case <-timer.C:
		return b.claimOrDrain(p, ErrConfirmationTimeout)
	case <-ctx.Done():
		return b.claimOrDrain(p, ctx.Err())
	}
}

// claimOrDrain closes the race between a timeout/cancel and a concurrent
// Resolve: whoever runs the once first decides the outcome.
func (b *ConfirmationBroker) claimOrDrain(p *pendingConfirmation, cause error) (bool, error) {
	claimed := false
	p.once.Do(func() { claimed = true })
	if claimed {
		return false, cause
	}
	select {
	case approved := <-p.answer:
		return approved, nil
	default:
		return false, cause
	}
}

func (b *ConfirmationBroker) remove(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Pending lists open requests, for interactive surfaces that want to show
// what is waiting on the user.
func (b *ConfirmationBroker) Pending() []ConfirmationTicket {
	b.mu.Lock()
	defer b.mu.Unlock()

	tickets := make([]ConfirmationTicket, 0, len(b.pending))
	for _, p := range b.pending {
		tickets = append(tickets, p.ticket)
	}
	return tickets
}
