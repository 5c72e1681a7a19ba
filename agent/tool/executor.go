package tool

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

const unknownToolError = "Unknown tool"

// PermissionChecker answers whether one named permission is currently
// granted. Any error is treated as a denial.
type PermissionChecker interface {
	Check(ctx context.Context, permission string) (bool, error)
}

type PermissionCheckerFunc func(ctx context.Context, permission string) (bool, error)

func (f PermissionCheckerFunc) Check(ctx context.Context, permission string) (bool, error) {
	return f(ctx, permission)
}

// StaticPermissions grants a fixed set configured at startup. Anything not
// in the set is denied, which is the safe default for a fresh install.
type StaticPermissions struct {
	granted map[string]bool
}

func NewStaticPermissions(granted ...string) *StaticPermissions {
	set := make(map[string]bool, len(granted))
	for _, permission := range granted {
		if trimmed := strings.TrimSpace(permission); trimmed != "" {
			set[trimmed] = true
		}
	}
	return &StaticPermissions{granted: set}
}

func (s *StaticPermissions) Check(_ context.Context, permission string) (bool, error) {
	return s.granted[permission], nil
}

var _ contractx.ToolGateway = (*Executor)(nil)

// Executor runs tool batches under the permission and confirmation rules.
type Executor struct {
	registry    *Registry
	permissions PermissionChecker
	broker      *ConfirmationBroker
	prompter    contractx.ConfirmationPrompter
	confirmWait time.Duration
}

type ExecutorOption func(*Executor)

func WithPermissionChecker(checker PermissionChecker) ExecutorOption {
	return func(e *Executor) {
		if checker != nil {
			e.permissions = checker
		}
	}
}

// WithConfirmationPrompter enables the interactive approval flow for tools
// that require it. Without a prompter those tools are denied outright.
func WithConfirmationPrompter(prompter contractx.ConfirmationPrompter) ExecutorOption {
	return func(e *Executor) {
		e.prompter = prompter
	}
}

func WithConfirmationWait(wait time.Duration) ExecutorOption {
	return func(e *Executor) {
		if wait > 0 {
			e.confirmWait = wait
		}
	}
}

func NewExecutor(registry *Registry, opts ...ExecutorOption) (*Executor, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: executor requires a registry", contractx.ErrValidation)
	}

	e := &Executor{
		registry:    registry,
		permissions: NewStaticPermissions(),
		broker:      NewConfirmationBroker(),
		confirmWait: DefaultConfirmationWait,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Broker exposes the confirmation table so interactive surfaces can resolve
// requests out of band.
func (e *Executor) Broker() *ConfirmationBroker {
	return e.broker
}

// ExecuteBatch runs the atomic permission precheck over the whole batch
// first: one denied permission refuses everything with a single
// needs_confirmation result and zero side effects. Overrides are transient
// allow-once grants scoped to this call only.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []contractx.ToolCall, overrides map[string]bool) ([]contractx.ToolResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	if missing := e.precheck(ctx, calls, overrides); len(missing) > 0 {
		log.Debug().Strs("missing_permissions", missing).Msg("tool batch refused by permission precheck")
		return []contractx.ToolResult{{
			Success:            false,
			Status:             contractx.StatusNeedsConfirmation,
			Error:              "missing permissions",
			MissingPermissions: missing,
		}}, nil
	}

	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.Execute(ctx, call, overrides))
	}
	return results, nil
}

// precheck collects every missing permission across the batch, in first
// encounter order, deduplicated. Unknown tools are skipped here; they fail
// individually during execution.
func (e *Executor) precheck(ctx context.Context, calls []contractx.ToolCall, overrides map[string]bool) []string {
	var missing []string
	seenPermissions := make(map[string]bool)
	seenTools := make(map[string]bool)

	for _, call := range calls {
		if seenTools[call.Name] {
			continue
		}
		seenTools[call.Name] = true

		def, ok := e.registry.Get(call.Name)
		if !ok {
			continue
		}

		for _, permission := range def.RequiredPermissions {
			if seenPermissions[permission] {
				continue
			}
			seenPermissions[permission] = true

			if overrides[permission] {
				continue
			}
			allowed, err := e.permissions.Check(ctx, permission)
			if err != nil || !allowed {
				missing = append(missing, permission)
			}
		}
	}
	return missing
}

// Execute runs a single call end to end: lookup, permission check (failure
// closed), argument validation, optional confirmation, then the handler.
// Handler errors and panics come back as failed results, never as errors.
func (e *Executor) Execute(ctx context.Context, call contractx.ToolCall, overrides map[string]bool) contractx.ToolResult {
	name := strings.TrimSpace(call.Name)
	def, ok := e.registry.Get(name)
	if !ok {
		return contractx.ToolResult{Tool: name, Success: false, Error: unknownToolError}
	}

	var missing []string
	for _, permission := range def.RequiredPermissions {
		if overrides[permission] {
			continue
		}
		allowed, err := e.permissions.Check(ctx, permission)
		if err != nil || !allowed {
			missing = append(missing, permission)
		}
	}
	if len(missing) > 0 {
		return contractx.ToolResult{
			Tool:               name,
			Success:            false,
			Status:             contractx.StatusNeedsConfirmation,
			Error:              "missing permissions",
			MissingPermissions: missing,
		}
	}

	if err := validateArgs(def, call.Arguments); err != nil {
		return contractx.ToolResult{Tool: name, Success: false, Error: err.Error()}
	}

	if def.RequiresConfirmation {
		if err := e.awaitConfirmation(ctx, call); err != nil {
			return contractx.ToolResult{Tool: name, Success: false, Error: err.Error()}
		}
	}

	result, err := e.invoke(ctx, def, call.Arguments)
	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("tool execution failed")
		return contractx.ToolResult{Tool: name, Success: false, Error: err.Error()}
	}
	return contractx.ToolResult{Tool: name, Success: true, Result: result}
}

func (e *Executor) awaitConfirmation(ctx context.Context, call contractx.ToolCall) error {
	if e.prompter == nil {
		return fmt.Errorf("%w: %s requires confirmation and no prompter is configured", ErrConfirmationDenied, call.Name)
	}

	ticket := e.broker.Create(call)

	go func() {
		approved, err := e.prompter.Prompt(ctx, contractx.ConfirmationRequest{
			ID:        ticket.ID,
			Tool:      call.Name,
			Arguments: call.Arguments,
		})
		if err != nil {
			approved = false
		}
		e.broker.Resolve(ticket.ID, approved)
	}()

	approved, err := e.broker.Await(ctx, ticket.ID, e.confirmWait)
	if err != nil {
		return err
	}
	if !approved {
		return ErrConfirmationDenied
	}
	return nil
}

func (e *Executor) invoke(ctx context.Context, def Definition, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", def.Name, r)
		}
	}()
	return def.Handler(ctx, args)
}

// validateArgs checks declared parameters before the handler runs: required
// presence and a loose JSON-style type match. Undeclared extras pass
// through untouched; handlers see exactly what the caller sent.
func validateArgs(def Definition, args map[string]any) error {
	for name, info := range def.Parameters {
		if info == nil {
			continue
		}
		value, present := args[name]
		if !present || value == nil {
			if info.Required {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if !typeMatches(info.Type, value) {
			return fmt.Errorf("argument %q must be of type %s", name, info.Type)
		}
	}
	return nil
}

func typeMatches(dataType schema.DataType, value any) bool {
	switch dataType {
	case schema.String:
		_, ok := value.(string)
		return ok
	case schema.Number:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case schema.Integer:
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		case float32:
			return float64(v) == math.Trunc(float64(v))
		}
		return false
	case schema.Boolean:
		_, ok := value.(bool)
		return ok
	case schema.Object:
		_, ok := value.(map[string]any)
		return ok
	case schema.Array:
		_, ok := value.([]any)
		return ok
	}
	return true
}
