package tool

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

// RegisterBuiltins installs the pure tools every deployment gets: they do no
// I/O beyond the local process and need no permissions.
func RegisterBuiltins(registry *Registry, now func() time.Time) error {
	for _, def := range []Definition{
		NewCalculatorTool(),
		NewClockTool(now),
		NewSystemInfoTool(),
	} {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func NewCalculatorTool() Definition {
	return Definition{
		Name:        contractx.ToolCalculator,
		Description: "Evaluate an arithmetic expression with + - * / % ^ and parentheses.",
		Parameters: map[string]*schema.ParameterInfo{
			"expression": {
				Type:     schema.String,
				Desc:     "The expression to evaluate, for example (2+3)*4",
				Required: true,
			},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			expression, _ := args["expression"].(string)
			result, err := EvaluateExpression(expression)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"expression": expression,
				"result":     result,
			}, nil
		},
	}
}

func NewClockTool(now func() time.Time) Definition {
	if now == nil {
		now = time.Now
	}
	return Definition{
		Name:        contractx.ToolClock,
		Description: "Current local date and time.",
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			current := now()
			return map[string]any{
				"iso":      current.Format(time.RFC3339),
				"time":     current.Format("15:04"),
				"date":     current.Format("Monday, 2 January 2006"),
				"timezone": current.Format("MST"),
			}, nil
		},
	}
}

func NewSystemInfoTool() Definition {
	started := time.Now()
	return Definition{
		Name:        contractx.ToolSystemInfo,
		Description: "Host platform, CPU count, and process memory figures.",
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			return map[string]any{
				"hostname":   hostname,
				"os":         runtime.GOOS,
				"arch":       runtime.GOARCH,
				"cpus":       runtime.NumCPU(),
				"go_version": runtime.Version(),
				"heap_alloc": fmt.Sprintf("%.1f MB", float64(memStats.HeapAlloc)/(1<<20)),
				"uptime":     time.Since(started).Round(time.Second).String(),
			}, nil
		},
	}
}
