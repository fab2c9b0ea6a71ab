package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// CannedStep is one scripted attempt outcome. A step with FailMessage set
// produces OK=false; otherwise Text is returned as a success.
type CannedStep struct {
	Text        string
	FailMessage string
	FailCode    string
}

// Canned is the dev-mode and test adapter: it replays a script of outcomes,
// sticking on the last step once the script runs out. With no script it
// synthesizes a minimal well-formed decision report from the prompt.
type Canned struct {
	name  string
	model string

	mu       sync.Mutex
	steps    []CannedStep
	calls    int
	requests []Request
}

func NewCanned(name, model string, steps ...CannedStep) *Canned {
	if model == "" {
		model = "canned"
	}
	return &Canned{name: name, model: model, steps: steps}
}

func (c *Canned) Name() string         { return c.name }
func (c *Canned) DefaultModel() string { return c.model }

// Requests returns a copy of every request seen, in order.
func (c *Canned) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}

func (c *Canned) Run(ctx context.Context, req Request) Result {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	idx := c.calls
	c.calls++
	var step *CannedStep
	if len(c.steps) > 0 {
		if idx >= len(c.steps) {
			idx = len(c.steps) - 1
		}
		step = &c.steps[idx]
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return failure(c.name, req.Model, err.Error(), CodeTimeout, 0)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if step == nil {
		return Result{
			Provider:     c.name,
			Model:        model,
			OK:           true,
			Text:         cannedReport(req.Prompt),
			FinishReason: "stop",
		}
	}
	if step.FailMessage != "" {
		return failure(c.name, model, step.FailMessage, step.FailCode, 0)
	}
	return Result{
		Provider:     c.name,
		Model:        model,
		OK:           true,
		Text:         step.Text,
		FinishReason: "stop",
	}
}

func cannedReport(prompt string) string {
	topic := strings.TrimSpace(prompt)
	if len(topic) > 80 {
		topic = topic[:80] + "..."
	}
	if topic == "" {
		topic = "the decision at hand"
	}
	return fmt.Sprintf(`## BEST OPTION
- Proceed with the leading option for %s

## RATIONALE
- Lowest switching cost among the candidates
- Keeps the reversible paths open

## TOP RISKS
- Key assumption unvalidated
- Timeline slips under load

## NEXT ACTIONS
Action: Validate the primary assumption
Owner: unassigned
Timebox: 3 days
Action: Draft the rollout checklist
Owner: unassigned
Timebox: 1 week
Action: Schedule the decision review
Owner: unassigned
Timebox: 2 weeks
`, topic)
}
