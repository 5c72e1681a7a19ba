package stream

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

type trackedStream struct {
	controller *Controller
	abort      context.CancelFunc
}

// Registry correlates in-flight streams with client cancellation requests.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*trackedStream
}

func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*trackedStream)}
}

// Track registers a controller together with the cancel function of its
// upstream model call.
func (r *Registry) Track(controller *Controller, abort context.CancelFunc) {
	if controller == nil {
		return
	}
	r.mu.Lock()
	r.streams[controller.ID()] = &trackedStream{controller: controller, abort: abort}
	r.mu.Unlock()
}

// Cancel stops the identified stream. The local close happens before the
// upstream abort: the upstream may keep producing for a while, and any
// chunks that arrive after this point are dropped by the closed controller.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	tracked, ok := r.streams[id]
	if ok {
		delete(r.streams, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	tracked.controller.Close()
	if tracked.abort != nil {
		tracked.abort()
	}
	log.Debug().Str("stream_id", id).Msg("stream cancelled by client")
	return true
}

// Release removes a finished stream without touching its state.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	delete(r.streams, id)
	r.mu.Unlock()
}

// Active lists tracked stream ids in stable order.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
