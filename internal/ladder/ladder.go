// Package ladder runs one logical inference request through an ordered
// escalation plan of (model, token budget) attempts. Retry decisions are
// data: each step's failure is classified and the plan either continues or
// stops, with no nested retry loops.
package ladder

import (
	"context"
	"log"

	"grounds/internal/llm"
	"grounds/internal/sections"
)

type Step struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

// Plan is an ordered ladder of attempts for a single logical call. The first
// acceptable result terminates it; a fatal failure aborts it.
type Plan []Step

// BuildPlan lays out a model-major ladder: the requested model at every
// budget from largest to smallest, then each fallback model the same way.
func BuildPlan(requested string, fallbacks []string, budgets []int) Plan {
	if len(budgets) == 0 {
		budgets = []int{0}
	}
	var plan Plan
	seen := map[string]bool{}
	for _, model := range append([]string{requested}, fallbacks...) {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		for _, budget := range budgets {
			plan = append(plan, Step{Model: model, MaxTokens: budget})
		}
	}
	return plan
}

func (p Plan) smallestBudget() int {
	smallest := 0
	for _, step := range p {
		if step.MaxTokens > 0 && (smallest == 0 || step.MaxTokens < smallest) {
			smallest = step.MaxTokens
		}
	}
	return smallest
}

// Outcome reports how a plan ended. On failure, Result carries the LAST real
// provider error verbatim; a generic placeholder never replaces it.
type Outcome struct {
	OK              bool       `json:"ok"`
	Degraded        bool       `json:"degraded,omitempty"`
	UsedModel       string     `json:"used_model,omitempty"`
	UsedBudget      int        `json:"used_budget,omitempty"`
	FallbackUsed    bool       `json:"fallback_used,omitempty"`
	AttemptedModels []string   `json:"attempted_models"`
	Result          llm.Result `json:"result"`
}

type Runner struct {
	Adapter llm.Adapter

	// RequireStructure gates acceptance on the substantive-content check;
	// when false any OK result terminates the plan.
	RequireStructure bool
	// Substantive overrides the default check, mainly for tests.
	Substantive func(string) bool

	Logger *log.Logger
}

// SubstantiveText is the default acceptance check: the recovered document
// must hold at least one populated section other than `best`.
func SubstantiveText(text string) bool {
	doc, _ := sections.Parse(text, sections.RepairPolicy{})
	for _, key := range doc.Keys() {
		if key != sections.KeyBest && len(doc.Get(key)) > 0 {
			return true
		}
	}
	return len(doc.Actions) > 0
}

func (r Runner) substantive(text string) bool {
	if r.Substantive != nil {
		return r.Substantive(text)
	}
	return SubstantiveText(text)
}

func (r Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run executes the plan in order, one attempt at a time. Requests are copied
// per step; the base request is never mutated.
func (r Runner) Run(ctx context.Context, base llm.Request, plan Plan) Outcome {
	if len(plan) == 0 {
		model := base.Model
		if model == "" {
			model = r.Adapter.DefaultModel()
		}
		plan = Plan{{Model: model, MaxTokens: base.MaxTokens}}
	}
	requested := plan[0].Model
	smallest := plan.smallestBudget()

	var attempted []string
	var last llm.Result
	lastStep := plan[0]

	for i, step := range plan {
		req := base
		req.Model = step.Model
		if step.MaxTokens > 0 {
			req.MaxTokens = step.MaxTokens
		}

		result := r.Adapter.Run(ctx, req)
		last = result
		lastStep = step
		if len(attempted) == 0 || attempted[len(attempted)-1] != step.Model {
			attempted = append(attempted, step.Model)
		}

		if result.OK {
			if !r.RequireStructure || r.substantive(result.Text) {
				return Outcome{
					OK:              true,
					UsedModel:       step.Model,
					UsedBudget:      step.MaxTokens,
					FallbackUsed:    step.Model != requested,
					AttemptedModels: attempted,
					Result:          result,
				}
			}
			// Insubstantial output at the smallest tier (or end of plan) is
			// a degraded success; retrying forever helps nobody.
			if step.MaxTokens == smallest || i == len(plan)-1 {
				r.logf("ladder provider=%s model=%s budget=%d accepting degraded output", r.Adapter.Name(), step.Model, step.MaxTokens)
				return Outcome{
					OK:              true,
					Degraded:        true,
					UsedModel:       step.Model,
					UsedBudget:      step.MaxTokens,
					FallbackUsed:    step.Model != requested,
					AttemptedModels: attempted,
					Result:          result,
				}
			}
			continue
		}

		class := llm.Classify(result.Err)
		r.logf("ladder provider=%s model=%s budget=%d class=%s err=%q", r.Adapter.Name(), step.Model, step.MaxTokens, class, result.Err.Message)
		if class == llm.ClassFatal {
			break
		}
	}

	return Outcome{
		OK:              false,
		UsedModel:       lastStep.Model,
		UsedBudget:      lastStep.MaxTokens,
		AttemptedModels: attempted,
		Result:          last,
	}
}
