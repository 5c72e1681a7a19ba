// Package assistant is the decision core of the local assistant: one entry
// point per user message, one envelope out, with routing, tool execution,
// reflection and streaming handled behind it.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	historyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/history"
	nodex "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/nodes/assistant"
	policyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/policy"
	reflectx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/reflection"
	routerx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/router"
	streamx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/stream"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	ConfidenceThreshold float64
	MaxReflectionDepth  int
	StreamPace          time.Duration
	Policy              policyx.Settings
}

type Assistant struct {
	models        contractx.Registry
	tools         contractx.ToolGateway
	memory        contractx.MemoryStore
	conversations *historyx.Service
	router        *routerx.Router
	streams       *streamx.Registry

	gate       reflectx.Gate
	policy     policyx.Settings
	maxDepth   int
	streamPace time.Duration

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	models contractx.Registry,
	tools contractx.ToolGateway,
	memory contractx.MemoryStore,
	conversations *historyx.Service,
	cfg Config,
) (*Assistant, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if memory == nil {
		memory = noopMemoryStore{}
	}
	if conversations == nil {
		conversations = historyx.NewService()
	}
	if cfg.Policy == (policyx.Settings{}) {
		cfg.Policy = policyx.DefaultSettings()
	}
	maxDepth := cfg.MaxReflectionDepth
	if maxDepth <= 0 {
		maxDepth = nodex.DefaultMaxReflectionDepth
	}

	a := &Assistant{
		models:        models,
		tools:         tools,
		memory:        memory,
		conversations: conversations,
		router:        routerx.New(),
		streams:       streamx.NewRegistry(),
		gate:          reflectx.NewGate(cfg.ConfidenceThreshold),
		policy:        cfg.Policy,
		maxDepth:      maxDepth,
		streamPace:    cfg.StreamPace,
		now:           time.Now,
	}

	graphRunner, err := a.compileAssistantGraph(context.Background())
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

type messageOptions struct {
	allowOnce map[string]bool
	sink      streamx.Sink
}

type MessageOption func(*messageOptions)

// WithAllowOnce grants the named permissions for this message only. The
// grant never persists past the turn.
func WithAllowOnce(permissions ...string) MessageOption {
	return func(o *messageOptions) {
		if len(permissions) == 0 {
			return
		}
		if o.allowOnce == nil {
			o.allowOnce = make(map[string]bool, len(permissions))
		}
		for _, permission := range permissions {
			permission = strings.TrimSpace(permission)
			if permission != "" {
				o.allowOnce[permission] = true
			}
		}
	}
}

// WithStream attaches a token sink for this message. The stream opens only
// if the turn produces a settled answer; everything else leaves it silent.
func WithStream(sink streamx.Sink) MessageOption {
	return func(o *messageOptions) {
		o.sink = sink
	}
}

// HandleMessage runs one full turn and always returns an envelope; failures
// are folded into it rather than returned.
func (a *Assistant) HandleMessage(ctx context.Context, conversationID string, text string, opts ...MessageOption) contractx.Envelope {
	var options messageOptions
	for _, opt := range opts {
		opt(&options)
	}

	var controller *streamx.Controller
	if options.sink != nil {
		streamCtx, cancel := context.WithCancel(ctx)
		ctx = streamCtx
		controller = streamx.New(streamx.WithSink(options.sink), streamx.WithPacing(a.streamPace))
		a.streams.Track(controller, cancel)
		defer a.streams.Release(controller.ID())
		defer cancel()
	}

	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{
		ConversationID: conversationID,
		Text:           text,
		AllowOnce:      options.allowOnce,
	})
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("turn failed")
		if controller != nil {
			controller.Close()
		}
		return failureEnvelopeFor(err)
	}

	if controller != nil {
		if out.Streamable {
			a.streamReply(ctx, controller, out.Envelope.Data.Assistant.Content)
		} else {
			controller.Close()
		}
	}

	return out.Envelope
}

// CancelStream stops an in-flight stream. The client-side flip is
// authoritative: the stream closes first, then the turn's context aborts.
func (a *Assistant) CancelStream(id string) bool {
	return a.streams.Cancel(id)
}

func (a *Assistant) streamReply(ctx context.Context, controller *streamx.Controller, content string) {
	redacted := streamx.RedactBeforeStream(content)
	if redacted == "" {
		controller.Close()
		return
	}
	if err := controller.Open(); err != nil {
		return
	}
	_ = controller.EmitTokens(ctx, splitTokens(redacted))
	controller.Close()
}

// splitTokens cuts on spaces but keeps them attached, so concatenating the
// chunks reproduces the reply byte for byte.
func splitTokens(content string) []string {
	return strings.SplitAfter(content, " ")
}

type noopMemoryStore struct{}

func (noopMemoryStore) Retrieve(context.Context, string, int) ([]contractx.MemoryItem, error) {
	return nil, nil
}

func (noopMemoryStore) Remember(context.Context, contractx.MemoryItem) error {
	return nil
}
