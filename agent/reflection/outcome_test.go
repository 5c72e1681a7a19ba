package reflection

import (
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

func TestParseOutcomeStrictAccept(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"accept","confidence":0.92,"final_message":"The answer is 42."}`)

	if outcome.Kind != contractx.ReflectionAccept {
		t.Fatalf("expected accept, got %s", outcome.Kind)
	}
	if outcome.FinalMessage != "The answer is 42." {
		t.Fatalf("unexpected final message %q", outcome.FinalMessage)
	}
	if outcome.Confidence == nil || *outcome.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", outcome.Confidence)
	}
}

func TestParseOutcomeWrappedInProse(t *testing.T) {
	t.Parallel()

	content := "Sure! Here is my verdict:\n```json\n{\"outcome\": \"accept\", \"confidence\": 0.8, \"final_message\": \"Done.\"}\n```\nHope that helps."
	outcome := ParseOutcome(content)

	if outcome.Kind != contractx.ReflectionAccept {
		t.Fatalf("expected accept, got %s", outcome.Kind)
	}
	if outcome.FinalMessage != "Done." {
		t.Fatalf("unexpected final message %q", outcome.FinalMessage)
	}
}

func TestParseOutcomeRequestTool(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"request_tool","tool":{"name":"weather_query","arguments":{"location":"paris"}}}`)

	if outcome.Kind != contractx.ReflectionRequestTool {
		t.Fatalf("expected request_tool, got %s", outcome.Kind)
	}
	if outcome.Tool == nil || outcome.Tool.Name != "weather_query" {
		t.Fatalf("expected weather_query tool, got %+v", outcome.Tool)
	}
	if outcome.Tool.Arguments["location"] != "paris" {
		t.Fatalf("expected location argument, got %v", outcome.Tool.Arguments)
	}
}

func TestParseOutcomeToleratesArgsAlias(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"request_tool","tool":{"name":"clock","args":{"zone":"utc"}}}`)

	if outcome.Kind != contractx.ReflectionRequestTool {
		t.Fatalf("expected request_tool, got %s", outcome.Kind)
	}
	if outcome.Tool.Arguments["zone"] != "utc" {
		t.Fatalf("expected args alias folded into arguments, got %v", outcome.Tool.Arguments)
	}
}

func TestParseOutcomeNormalizesCasing(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":" Accept ","confidence":0.9,"final_message":"ok"}`)
	if outcome.Kind != contractx.ReflectionAccept {
		t.Fatalf("expected accept after normalization, got %s", outcome.Kind)
	}
}

func TestParseOutcomeUnparsableProse(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome("I think the answer looks right, probably, more or less.")

	if outcome.Kind != contractx.ReflectionExplain {
		t.Fatalf("expected explain fallback, got %s", outcome.Kind)
	}
	if outcome.Confidence != nil {
		t.Fatalf("expected absent confidence, got %v", *outcome.Confidence)
	}
	if !strings.Contains(strings.ToLower(outcome.Explanation), "could not validate") {
		t.Fatalf("expected could-not-validate wording, got %q", outcome.Explanation)
	}
}

func TestParseOutcomeEmptyReply(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome("   ")
	if outcome.Kind != contractx.ReflectionExplain {
		t.Fatalf("expected explain fallback, got %s", outcome.Kind)
	}
}

func TestParseOutcomeAcceptWithoutMessageDegrades(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"accept","confidence":0.95}`)
	if outcome.Kind != contractx.ReflectionExplain {
		t.Fatalf("expected explain fallback for accept without message, got %s", outcome.Kind)
	}
}

func TestParseOutcomeRequestToolWithoutNameDegrades(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"request_tool","tool":{"arguments":{"q":"x"}}}`)
	if outcome.Kind != contractx.ReflectionExplain {
		t.Fatalf("expected explain fallback for unnamed tool, got %s", outcome.Kind)
	}
}

func TestParseOutcomeSkipsDecoyObjects(t *testing.T) {
	t.Parallel()

	content := `The payload {"not":"an outcome"} was fine. {"outcome":"explain","explanation":"tool returned an error"}`
	outcome := ParseOutcome(content)

	if outcome.Kind != contractx.ReflectionExplain {
		t.Fatalf("expected explain, got %s", outcome.Kind)
	}
	if outcome.Explanation != "tool returned an error" {
		t.Fatalf("expected explanation from second object, got %q", outcome.Explanation)
	}
}

func TestParseOutcomeIgnoresBracesInsideStrings(t *testing.T) {
	t.Parallel()

	outcome := ParseOutcome(`{"outcome":"accept","confidence":0.75,"final_message":"use {braces} carefully"}`)
	if outcome.Kind != contractx.ReflectionAccept {
		t.Fatalf("expected accept, got %s", outcome.Kind)
	}
	if outcome.FinalMessage != "use {braces} carefully" {
		t.Fatalf("unexpected final message %q", outcome.FinalMessage)
	}
}
