package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	nodex "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/nodes/assistant"
)

// The turn graph. Branches carry each turn down exactly one path:
//
//	classify_intent -> plan_response        model decides the step
//	               -> execute_tools         pre-routed, model skipped
//	               -> finalize_reply        rejected input
//	plan_response  -> execute_tools         model asked for tools
//	               -> record_history        direct reply, no reflection
//	execute_tools  -> format_results        results to render or judge
//	               -> finalize_reply        waiting on a permission grant
//	format_results -> record_history        deterministic answer
//	               -> reflect_results       model must judge the output
func (a *Assistant) compileAssistantGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, a.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadHistory(ctx, in, a.conversations)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("recall_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecallMemory(ctx, in, a.memory, a.policy)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node recall_memory: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyIntent(in, a.router)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("plan_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlanResponse(ctx, in, a.models.Responder())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_response: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, a.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode("format_results",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FormatResults(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node format_results: %w", err)
	}

	if err := graph.AddLambdaNode("reflect_results",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ReflectResults(ctx, in, a.models.Reflector(), a.tools, a.gate, a.maxDepth)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reflect_results: %w", err)
	}

	if err := graph.AddLambdaNode("record_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordHistory(ctx, in, a.conversations, a.memory, a.policy)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_history: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	routeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch {
			case in.Route.Kind == contractx.RouteError:
				return "finalize_reply", nil
			case in.PreRouted:
				return "execute_tools", nil
			default:
				return "plan_response", nil
			}
		},
		map[string]bool{
			"plan_response":  true,
			"execute_tools":  true,
			"finalize_reply": true,
		},
	)
	if err := graph.AddBranch("classify_intent", routeBranch); err != nil {
		return nil, fmt.Errorf("add route branch: %w", err)
	}

	planBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if len(in.Calls) > 0 {
				return "execute_tools", nil
			}
			return "record_history", nil
		},
		map[string]bool{
			"execute_tools":  true,
			"record_history": true,
		},
	)
	if err := graph.AddBranch("plan_response", planBranch); err != nil {
		return nil, fmt.Errorf("add plan branch: %w", err)
	}

	executeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Status == contractx.StatusNeedsConfirmation {
				return "finalize_reply", nil
			}
			return "format_results", nil
		},
		map[string]bool{
			"format_results": true,
			"finalize_reply": true,
		},
	)
	if err := graph.AddBranch("execute_tools", executeBranch); err != nil {
		return nil, fmt.Errorf("add execute branch: %w", err)
	}

	formatBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Message != "" {
				return "record_history", nil
			}
			return "reflect_results", nil
		},
		map[string]bool{
			"record_history":  true,
			"reflect_results": true,
		},
	)
	if err := graph.AddBranch("format_results", formatBranch); err != nil {
		return nil, fmt.Errorf("add format branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_history"},
		{"load_history", "recall_memory"},
		{"recall_memory", "classify_intent"},
		{"reflect_results", "record_history"},
		{"record_history", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("assistant.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile assistant graph: %w", err)
	}
	return runner, nil
}
