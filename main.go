package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	assistantx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/agents/assistant"
	responderx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/agents/responder"
	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	historyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/history"
	llmx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/llm"
	policyx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/policy"
	streamx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/stream"
	toolx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/tool"
	configx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/config"
	_ "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/logger/autoload"
	ollamax "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/ollama"
	workflowx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/workflow"
)

type AppConfig struct {
	HistoryBackend      string        `split_words:"true" default:"none"`
	GrantedPermissions  []string      `split_words:"true"`
	ConfidenceThreshold float64       `split_words:"true" default:"0.7"`
	MaxReflectionDepth  int           `split_words:"true" default:"3"`
	StreamPace          time.Duration `split_words:"true"`
	ConfirmationWait    time.Duration `split_words:"true"`
}

// Registered before the config loader runs flag.Parse, so they share one
// flag set with its -env flag.
var (
	messageFlag      = flag.String("message", "", "answer one message, print the reply envelope as JSON, and exit")
	conversationFlag = flag.String("conversation", "local", "conversation id for history and archives")
	statusFlag       = flag.Bool("status", false, "report backend connectivity and exit")
	streamFlag       = flag.Bool("stream", false, "stream reply tokens to stdout in interactive mode")
)

func main() {
	appCfg := configx.MustNew[AppConfig]("ASSISTANT")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	workflowCfg := configx.MustNew[workflowx.Config]("WORKFLOW")
	policyCfg := configx.MustNew[policyx.Settings]("MEMORY")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *statusFlag {
		os.Exit(runStatus(ctx, *llmCfg, *workflowCfg, appCfg.HistoryBackend))
	}

	archive, err := buildArchive(ctx, appCfg.HistoryBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("history archive unavailable")
	}

	registry := toolx.NewRegistry()
	if err := toolx.RegisterBuiltins(registry, time.Now); err != nil {
		log.Fatal().Err(err).Msg("register builtin tools")
	}
	if err := toolx.RegisterLocal(registry); err != nil {
		log.Fatal().Err(err).Msg("register local tools")
	}
	if strings.TrimSpace(workflowCfg.URL) != "" {
		if err := toolx.RegisterForwarded(registry, workflowx.MustNew(*workflowCfg)); err != nil {
			log.Fatal().Err(err).Msg("register forwarded tools")
		}
	} else {
		log.Warn().Msg("workflow url not set, network tools disabled")
	}

	input := bufio.NewReader(os.Stdin)
	executorOpts := []toolx.ExecutorOption{
		toolx.WithPermissionChecker(toolx.NewStaticPermissions(appCfg.GrantedPermissions...)),
	}
	if appCfg.ConfirmationWait > 0 {
		executorOpts = append(executorOpts, toolx.WithConfirmationWait(appCfg.ConfirmationWait))
	}
	if *messageFlag == "" {
		executorOpts = append(executorOpts, toolx.WithConfirmationPrompter(&stdinPrompter{in: input}))
	}
	executor, err := toolx.NewExecutor(registry, executorOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("build tool executor")
	}

	models, err := responderx.NewRegistry(ctx, *llmCfg, registry.Infos())
	if err != nil {
		log.Fatal().Err(err).Msg("build model registry")
	}

	var serviceOpts []historyx.ServiceOption
	if archive != nil {
		serviceOpts = append(serviceOpts, historyx.WithArchive(archive))
	}
	conversations := historyx.NewService(serviceOpts...)

	agent, err := assistantx.New(models, executor, nil, conversations, assistantx.Config{
		ConfidenceThreshold: appCfg.ConfidenceThreshold,
		MaxReflectionDepth:  appCfg.MaxReflectionDepth,
		StreamPace:          appCfg.StreamPace,
		Policy:              *policyCfg,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}

	if *messageFlag != "" {
		os.Exit(runOnce(ctx, agent, *conversationFlag, *messageFlag))
	}

	fmt.Printf("Aster assistant (model %s). Type a message; \"exit\" quits.\n", llmCfg.Model)
	runREPL(ctx, agent, *conversationFlag, *streamFlag, input)
}

// runOnce answers a single message and prints the full reply envelope, for
// scripting and for other processes shelling out to the assistant.
func runOnce(ctx context.Context, agent *assistantx.Assistant, conversationID, text string) int {
	envelope := agent.HandleMessage(ctx, conversationID, text)

	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("encode reply envelope")
		return 1
	}
	fmt.Println(string(out))

	if !envelope.Success {
		return 1
	}
	return 0
}

func runREPL(ctx context.Context, agent *assistantx.Assistant, conversationID string, stream bool, input *bufio.Reader) {
	for ctx.Err() == nil {
		fmt.Print("> ")
		line, err := input.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if lowered := strings.ToLower(text); lowered == "exit" || lowered == "quit" {
			return
		}

		deliver(ctx, agent, conversationID, text, stream, input, nil)
	}
}

// deliver runs one turn and prints the reply. A permission refusal is turned
// into a grant prompt; on approval the same message is resent once with the
// missing permissions allowed for that turn only.
func deliver(ctx context.Context, agent *assistantx.Assistant, conversationID, text string, stream bool, input *bufio.Reader, allowOnce []string) {
	sink := &consoleSink{}
	var opts []assistantx.MessageOption
	if len(allowOnce) > 0 {
		opts = append(opts, assistantx.WithAllowOnce(allowOnce...))
	}
	if stream {
		opts = append(opts, assistantx.WithStream(sink))
	}

	envelope := agent.HandleMessage(ctx, conversationID, text, opts...)
	reply := envelope.Data.Assistant

	if reply.Status == contractx.StatusNeedsConfirmation && allowOnce == nil {
		if askGrant(input, reply.MissingPermissions) {
			deliver(ctx, agent, conversationID, text, stream, input, reply.MissingPermissions)
			return
		}
	}

	if !sink.streamed() && reply.Content != "" {
		fmt.Println(reply.Content)
	}
}

func askGrant(input *bufio.Reader, permissions []string) bool {
	if len(permissions) == 0 {
		return false
	}
	fmt.Printf("Allow %s for this message? [y/N] ", strings.Join(permissions, ", "))
	line, err := input.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// stdinPrompter approves confirmation-gated tools from the terminal. It
// shares the REPL reader; the turn blocks while the question is open, so the
// two never read concurrently.
type stdinPrompter struct {
	in *bufio.Reader
}

func (p *stdinPrompter) Prompt(_ context.Context, req contractx.ConfirmationRequest) (bool, error) {
	fmt.Printf("Run tool %s once? [y/N] ", req.Tool)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// consoleSink prints stream chunks as they arrive. It tracks whether anything
// was printed so the caller can avoid repeating a streamed reply.
type consoleSink struct {
	chunks int
}

func (s *consoleSink) Send(event streamx.Event) {
	switch event.Type {
	case streamx.EventChunk:
		s.chunks++
		fmt.Print(event.Content)
	case streamx.EventEnd:
		if s.chunks > 0 {
			fmt.Println()
		}
	}
}

func (s *consoleSink) streamed() bool { return s.chunks > 0 }

func buildArchive(ctx context.Context, backend string) (historyx.Archive, error) {
	switch normalizeBackend(backend) {
	case "none":
		return nil, nil
	case "postgres":
		archive, err := historyx.NewPostgresArchive(*configx.MustNew[historyx.PostgresConfig]("POSTGRES"))
		if err != nil {
			return nil, err
		}
		if err := archive.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	case "redis":
		return historyx.NewRedisArchive(*configx.MustNew[historyx.RedisConfig]("UPSTASH_REDIS"))
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

func normalizeBackend(backend string) string {
	normalized := strings.ToLower(strings.TrimSpace(backend))
	if normalized == "" {
		return "none"
	}
	return normalized
}

// runStatus probes every configured backend and reports one line per
// dependency, so "is anything down" never requires sending a message first.
func runStatus(ctx context.Context, llmCfg llmx.Config, workflowCfg workflowx.Config, backend string) int {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	failures := 0

	client := ollamax.NewClient(llmCfg.OllamaFor(contractx.StageResponder))
	if err := ollamax.CheckConnection(ctx, client); err != nil {
		failures++
		fmt.Printf("model backend: %v\n", err)
	} else {
		fmt.Printf("model backend: ok (%s)\n", llmCfg.BaseURL)
	}

	if strings.TrimSpace(workflowCfg.URL) == "" {
		fmt.Println("workflow engine: not configured, network tools disabled")
	} else if engine, err := workflowx.NewClient(workflowCfg); err != nil {
		failures++
		fmt.Printf("workflow engine: %v\n", err)
	} else if err := engine.CheckConnection(ctx); err != nil {
		failures++
		fmt.Printf("workflow engine: %v\n", err)
	} else {
		fmt.Printf("workflow engine: ok (%s)\n", workflowCfg.URL)
	}

	switch normalizeBackend(backend) {
	case "none":
		fmt.Println("history archive: none (in-memory window only)")
	case "postgres":
		archive, err := historyx.NewPostgresArchive(*configx.MustNew[historyx.PostgresConfig]("POSTGRES"))
		if err == nil {
			err = archive.EnsureSchema(ctx)
			_ = archive.Close()
		}
		if err != nil {
			failures++
			fmt.Printf("history archive: %v\n", err)
		} else {
			fmt.Println("history archive: ok (postgres)")
		}
	case "redis":
		archive, err := historyx.NewRedisArchive(*configx.MustNew[historyx.RedisConfig]("UPSTASH_REDIS"))
		if err == nil {
			_, err = archive.Tail(ctx, "connectivity-check", 1)
		}
		if err != nil {
			failures++
			fmt.Printf("history archive: %v\n", err)
		} else {
			fmt.Println("history archive: ok (redis)")
		}
	default:
		failures++
		fmt.Printf("history archive: unknown backend %q\n", backend)
	}

	if failures > 0 {
		return 1
	}
	return 0
}
