package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// PermissionNetworkFetch gates every tool that leaves the machine.
const PermissionNetworkFetch = "net:fetch"

// Forwarder relays a tool invocation to an external workflow engine and
// returns its decoded payload.
type Forwarder interface {
	ForwardTool(ctx context.Context, tool string, args map[string]any) (map[string]any, error)
}

// RegisterForwarded installs the network-backed tools. Execution happens in
// the workflow engine; locally these are thin relays behind the net:fetch
// permission.
func RegisterForwarded(registry *Registry, forwarder Forwarder) error {
	for _, def := range []Definition{
		NewGamesTool(forwarder),
		NewWeatherTool(forwarder),
		NewWebSearchTool(forwarder),
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func NewGamesTool(forwarder Forwarder) Definition {
	return Definition{
		Name:        contractx.ToolNBAQuery,
		Description: "Look up recent NBA games and scores for a team.",
		Parameters: map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Team name, for example warriors",
				Required: true,
			},
			"perPage": {
				Type: schema.Integer,
				Desc: "How many recent games to return",
			},
		},
		RequiredPermissions: []string{PermissionNetworkFetch},
		Handler:             forwardHandler(forwarder, contractx.ToolNBAQuery),
	}
}

func NewWeatherTool(forwarder Forwarder) Definition {
	return Definition{
		Name:        contractx.ToolWeatherQuery,
		Description: "Current weather conditions for a location.",
		Parameters: map[string]*schema.ParameterInfo{
			"location": {
				Type:     schema.String,
				Desc:     "City or place name",
				Required: true,
			},
		},
		RequiredPermissions: []string{PermissionNetworkFetch},
		Handler:             forwardHandler(forwarder, contractx.ToolWeatherQuery),
	}
}

func NewWebSearchTool(forwarder Forwarder) Definition {
	return Definition{
		Name:        contractx.ToolWebSearch,
		Description: "Search the web and return result snippets.",
		Parameters: map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Search query",
				Required: true,
			},
		},
		RequiredPermissions: []string{PermissionNetworkFetch},
		Handler:             forwardHandler(forwarder, contractx.ToolWebSearch),
	}
}

func forwardHandler(forwarder Forwarder, name string) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		return forwarder.ForwardTool(ctx, name, args)
	}
}
