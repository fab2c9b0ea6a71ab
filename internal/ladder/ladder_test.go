package ladder

import (
	"context"
	"reflect"
	"testing"

	"grounds/internal/llm"
)

func TestBuildPlanModelMajor(t *testing.T) {
	plan := BuildPlan("primary", []string{"backup", "primary"}, []int{1400, 900, 600})
	want := Plan{
		{Model: "primary", MaxTokens: 1400},
		{Model: "primary", MaxTokens: 900},
		{Model: "primary", MaxTokens: 600},
		{Model: "backup", MaxTokens: 1400},
		{Model: "backup", MaxTokens: 900},
		{Model: "backup", MaxTokens: 600},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestBuildPlanNoBudgets(t *testing.T) {
	plan := BuildPlan("only", nil, nil)
	if !reflect.DeepEqual(plan, Plan{{Model: "only"}}) {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestRunFirstAttemptSucceeds(t *testing.T) {
	adapter := llm.NewCanned("dev", "canned")
	runner := Runner{Adapter: adapter, RequireStructure: true}
	plan := BuildPlan("canned", nil, []int{1400, 900})

	out := runner.Run(context.Background(), llm.Request{Prompt: "pick a vendor"}, plan)
	if !out.OK || out.Degraded {
		t.Fatalf("outcome = %+v", out)
	}
	if out.FallbackUsed || out.UsedModel != "canned" || out.UsedBudget != 1400 {
		t.Fatalf("outcome = %+v", out)
	}
	if reqs := adapter.Requests(); len(reqs) != 1 || reqs[0].MaxTokens != 1400 {
		t.Fatalf("requests = %+v", reqs)
	}
}

func TestRunFallbackAfterModelRejected(t *testing.T) {
	adapter := llm.NewCanned("openai", "gpt-9",
		llm.CannedStep{FailMessage: "status 404: The model `gpt-9` does not exist"},
		llm.CannedStep{Text: "## RATIONALE\n- backup carried the request"},
	)
	runner := Runner{Adapter: adapter, RequireStructure: true}
	plan := BuildPlan("gpt-9", []string{"gpt-4o-mini"}, []int{1000})

	out := runner.Run(context.Background(), llm.Request{Prompt: "decide"}, plan)
	if !out.OK {
		t.Fatalf("outcome = %+v", out)
	}
	if !out.FallbackUsed || out.UsedModel != "gpt-4o-mini" {
		t.Fatalf("outcome = %+v", out)
	}
	if !reflect.DeepEqual(out.AttemptedModels, []string{"gpt-9", "gpt-4o-mini"}) {
		t.Fatalf("attempted = %v", out.AttemptedModels)
	}
}

func TestRunFatalFailureStopsPlan(t *testing.T) {
	const msg = "request blocked by upstream safety filter"
	adapter := llm.NewCanned("openai", "gpt-9",
		llm.CannedStep{FailMessage: msg},
		llm.CannedStep{Text: "should never be reached"},
	)
	runner := Runner{Adapter: adapter}
	plan := BuildPlan("gpt-9", []string{"gpt-4o-mini"}, []int{1000})

	out := runner.Run(context.Background(), llm.Request{Prompt: "decide"}, plan)
	if out.OK {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Result.Err == nil || out.Result.Err.Message != msg {
		t.Fatalf("result = %+v", out.Result)
	}
	if !reflect.DeepEqual(out.AttemptedModels, []string{"gpt-9"}) {
		t.Fatalf("attempted = %v", out.AttemptedModels)
	}
}

func TestRunExhaustedKeepsLastFailure(t *testing.T) {
	adapter := llm.NewCanned("local", "llama3",
		llm.CannedStep{FailMessage: "connection refused"},
		llm.CannedStep{FailMessage: "status 503: upstream draining"},
	)
	runner := Runner{Adapter: adapter}
	plan := BuildPlan("llama3", []string{"phi3"}, []int{800})

	out := runner.Run(context.Background(), llm.Request{Prompt: "decide"}, plan)
	if out.OK {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Result.Err == nil || out.Result.Err.Message != "status 503: upstream draining" {
		t.Fatalf("result = %+v", out.Result)
	}
	if out.UsedModel != "phi3" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunDegradedAcceptAtSmallestBudget(t *testing.T) {
	adapter := llm.NewCanned("dev", "canned", llm.CannedStep{Text: "thin output"})
	runner := Runner{
		Adapter:          adapter,
		RequireStructure: true,
		Substantive:      func(string) bool { return false },
	}
	plan := BuildPlan("canned", nil, []int{1400, 900, 600})

	out := runner.Run(context.Background(), llm.Request{Prompt: "decide"}, plan)
	if !out.OK || !out.Degraded {
		t.Fatalf("outcome = %+v", out)
	}
	if out.UsedBudget != 600 {
		t.Fatalf("outcome = %+v", out)
	}
	if reqs := adapter.Requests(); len(reqs) != 3 {
		t.Fatalf("expected every budget tried, got %d requests", len(reqs))
	}
}

func TestRunEmptyPlanUsesAdapterDefault(t *testing.T) {
	adapter := llm.NewCanned("dev", "canned")
	out := Runner{Adapter: adapter}.Run(context.Background(), llm.Request{Prompt: "decide"}, nil)
	if !out.OK || out.UsedModel != "canned" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestSubstantiveText(t *testing.T) {
	if !SubstantiveText("## RATIONALE\n- costs less\n- ships sooner") {
		t.Fatal("populated section should be substantive")
	}
	if SubstantiveText("") {
		t.Fatal("empty text is not substantive")
	}
	if SubstantiveText("## BEST OPTION\n- option A") {
		t.Fatal("a lone best section is not substantive")
	}
}
