// Package tool owns the tool table, the permission-checked executor, and the
// confirmation broker. Handlers are black boxes: their errors and panics are
// contained here and never escape as failures of the calling graph.
package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// Handler executes one tool call with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Definition describes a registered tool. Treated as immutable once
// registered; re-registering the same name replaces it wholesale.
type Definition struct {
	Name                 string
	Description          string
	Parameters           map[string]*schema.ParameterInfo
	RequiresConfirmation bool
	RequiredPermissions  []string
	Handler              Handler
}

// Registry is written during startup and read-only in steady state, so a
// read-write mutex is all the discipline concurrent turns need.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register inserts or replaces a definition under its name. Last writer
// wins; there is no versioning.
func (r *Registry) Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is required", contractx.ErrValidation)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool %s has no handler", contractx.ErrValidation, name)
	}
	def.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = def
	return nil
}

func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[strings.TrimSpace(name)]
	return def, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Infos renders the catalog in the shape the chat model binds tools with.
func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		params := def.Parameters
		if params == nil {
			params = map[string]*schema.ParameterInfo{}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        def.Name,
			Desc:        def.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}
