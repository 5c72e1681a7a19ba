// Package stream gates token output between the reply producer and the
// client transport. Every stream starts suppressed and delivers nothing
// until the validation pass opens it, so a reply that fails validation
// never leaks partial text.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrStreamClosed = errors.New("stream closed")

// State tracks where a stream is in its lifecycle. Suppressed is the
// starting state; Closed is terminal.
type State string

const (
	StateSuppressed State = "suppressed"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

type EventType string

const (
	EventChunk EventType = "chunk"
	EventEnd   EventType = "end"
	EventError EventType = "error"
)

// Event is one unit of transport output, keyed by stream id so a client can
// correlate chunks with the request that produced them.
type Event struct {
	Type     EventType `json:"type"`
	StreamID string    `json:"stream_id"`
	Content  string    `json:"content,omitempty"`
}

// Sink receives delivered events. Send runs under the controller lock so
// event order matches emission order; sinks must not call back into the
// controller.
type Sink interface {
	Send(event Event)
}

type SinkFunc func(event Event)

func (f SinkFunc) Send(event Event) { f(event) }

// Controller is the per-response output gate. Emissions while suppressed
// are dropped silently, and Close is permanent: once closed a stream can
// never deliver again, which is what makes local cancellation authoritative
// over late upstream chunks.
type Controller struct {
	id   string
	pace time.Duration

	mu      sync.Mutex
	state   State
	sink    Sink
	onChunk func(chunk string)
}

type ControllerOption func(*Controller)

func WithSink(sink Sink) ControllerOption {
	return func(c *Controller) {
		c.sink = sink
	}
}

// WithPacing inserts a delay between tokens in EmitTokens, for transports
// that want a typing cadence instead of a burst.
func WithPacing(pace time.Duration) ControllerOption {
	return func(c *Controller) {
		if pace > 0 {
			c.pace = pace
		}
	}
}

func New(opts ...ControllerOption) *Controller {
	c := &Controller{
		id:    uuid.NewString(),
		state: StateSuppressed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChunk registers an observer invoked for every delivered chunk, after the
// sink sees it. Dropped chunks never reach the observer.
func (c *Controller) OnChunk(fn func(chunk string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChunk = fn
}

// Open starts delivery. A closed stream stays closed.
func (c *Controller) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return ErrStreamClosed
	}
	c.state = StateOpen
	return nil
}

// Close ends the stream permanently. A stream that was delivering sends a
// final end event; one that never opened goes quiet without any transport
// traffic, and the caller falls back to the envelope reply.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	wasOpen := c.state == StateOpen
	c.state = StateClosed

	if wasOpen && c.sink != nil {
		c.sink.Send(Event{Type: EventEnd, StreamID: c.id})
	}
}

// Fail closes the stream with an error event when it was already delivering.
func (c *Controller) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return
	}
	wasOpen := c.state == StateOpen
	c.state = StateClosed

	if wasOpen && c.sink != nil {
		c.sink.Send(Event{Type: EventError, StreamID: c.id, Content: message})
	}
}

// Emit delivers one chunk, or drops it silently unless the stream is open.
func (c *Controller) Emit(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return
	}
	if c.sink != nil {
		c.sink.Send(Event{Type: EventChunk, StreamID: c.id, Content: chunk})
	}
	if c.onChunk != nil {
		c.onChunk(chunk)
	}
}

// EmitTokens delivers tokens in input order, sleeping the configured pace
// between them. Cancellation stops mid-sequence; tokens after the stop are
// never delivered.
func (c *Controller) EmitTokens(ctx context.Context, tokens []string) error {
	for i, token := range tokens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 && c.pace > 0 {
			timer := time.NewTimer(c.pace)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		c.Emit(token)
	}
	return nil
}
