package responder

import (
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func TestToToolCallsParsesArguments(t *testing.T) {
	t.Parallel()

	calls, err := toToolCalls([]schema.ToolCall{
		{Function: schema.FunctionCall{Name: "weather_query", Arguments: `{"location":"paris"}`}},
		{Function: schema.FunctionCall{Name: "clock", Arguments: ""}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "weather_query" || calls[0].Arguments["location"] != "paris" {
		t.Fatalf("unexpected first call: %+v", calls[0])
	}
	if calls[1].Name != "clock" || len(calls[1].Arguments) != 0 {
		t.Fatalf("expected empty arguments for clock, got %+v", calls[1])
	}
}

func TestToToolCallsRejectsEmptyName(t *testing.T) {
	t.Parallel()

	_, err := toToolCalls([]schema.ToolCall{
		{Function: schema.FunctionCall{Name: "  ", Arguments: `{}`}},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestToToolCallsRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	_, err := toToolCalls([]schema.ToolCall{
		{Function: schema.FunctionCall{Name: "calculator", Arguments: `{"expression":`}},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestToToolCallsEmptyInputIsNil(t *testing.T) {
	t.Parallel()

	calls, err := toToolCalls(nil)
	if err != nil || calls != nil {
		t.Fatalf("expected nil, nil; got %v, %v", calls, err)
	}
}
