// Package compare fans one prompt out to every enabled provider, runs each
// branch through its escalation plan, and assembles a single comparison run
// with a deterministic winner.
package compare

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"grounds/internal/ladder"
	"grounds/internal/llm"
	"grounds/internal/observability"
	"grounds/internal/readiness"
	"grounds/internal/sections"
)

var ErrNoProviders = errors.New("compare: no enabled providers")

// ProviderSpec binds an adapter to its comparison settings. The enabled set
// is snapshotted when a run starts; flipping Enabled afterwards does not
// touch runs already in flight.
type ProviderSpec struct {
	ID        string
	Adapter   llm.Adapter
	Model     string
	Fallbacks []string
	Priority  int
	Enabled   bool
}

type Options struct {
	Timeout          time.Duration
	Budgets          []int
	Pinned           string
	RequireStructure bool
	// Repair nil means the default policy. An explicit zero block floor
	// disables the floor rather than restoring the default.
	Repair *sections.RepairPolicy
}

// NormalizedResult is one branch's outcome in the uniform shape the compare
// surface returns for success and failure alike.
type NormalizedResult struct {
	Provider       string             `json:"provider"`
	ModelRequested string             `json:"model_requested"`
	ModelUsed      string             `json:"model_used,omitempty"`
	FallbackUsed   bool               `json:"fallback_used,omitempty"`
	Degraded       bool               `json:"degraded,omitempty"`
	OK             bool               `json:"ok"`
	Text           string             `json:"text,omitempty"`
	LatencyMS      int64              `json:"latency_ms,omitempty"`
	Usage          *llm.Usage         `json:"usage,omitempty"`
	FinishReason   string             `json:"finish_reason,omitempty"`
	Err            *llm.Failure       `json:"error,omitempty"`
	Document       *sections.Document `json:"document,omitempty"`
	NeedsRepair    bool               `json:"needs_repair,omitempty"`
	RepairReason   string             `json:"repair_reason,omitempty"`
	Quality        *int               `json:"quality,omitempty"`
}

// Run is one complete comparison: every enabled branch accounted for, in
// provider registration order.
type Run struct {
	RequestID string             `json:"request_id"`
	StartedAt time.Time          `json:"started_at"`
	ElapsedMS int64              `json:"elapsed_ms"`
	Results   []NormalizedResult `json:"results"`
	Winner    string             `json:"winner,omitempty"`
}

type Coordinator struct {
	providers []ProviderSpec
	opts      Options
	logger    *log.Logger
	observer  *observability.CompareObserver
}

func New(providers []ProviderSpec, opts Options, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Repair == nil {
		policy := sections.DefaultRepairPolicy()
		opts.Repair = &policy
	}
	return &Coordinator{providers: providers, opts: opts, logger: logger}
}

// WithObserver attaches a cross-run branch observer. A nil observer is a
// no-op.
func (c *Coordinator) WithObserver(obs *observability.CompareObserver) *Coordinator {
	c.observer = obs
	return c
}

// Providers returns the current specs, enabled or not.
func (c *Coordinator) Providers() []ProviderSpec {
	out := make([]ProviderSpec, len(c.providers))
	copy(out, c.providers)
	return out
}

// Execute runs the prompt against every enabled provider and blocks until
// every branch has finished or timed out. Branches never abort each other; a
// slow provider costs latency, not results.
func (c *Coordinator) Execute(ctx context.Context, req llm.Request) (*Run, error) {
	enabled := make([]ProviderSpec, 0, len(c.providers))
	for _, spec := range c.providers {
		if spec.Enabled {
			enabled = append(enabled, spec)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoProviders
	}

	run := &Run{
		RequestID: uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]NormalizedResult, len(enabled)),
	}
	c.logger.Printf("compare start request_id=%s providers=%d", run.RequestID, len(enabled))

	var wg sync.WaitGroup
	for i, spec := range enabled {
		wg.Add(1)
		go func(i int, spec ProviderSpec) {
			defer wg.Done()
			result := c.runBranch(ctx, spec, req)
			c.observer.RecordBranch(result.Provider, result.OK, result.LatencyMS)
			run.Results[i] = result
		}(i, spec)
	}
	wg.Wait()

	run.ElapsedMS = time.Since(run.StartedAt).Milliseconds()
	run.Winner = pickWinner(run.Results, enabled, c.opts.Pinned)
	c.observer.RecordRun(run.RequestID, run.Winner, run.ElapsedMS)
	c.logger.Printf("compare done request_id=%s elapsed_ms=%d winner=%q", run.RequestID, run.ElapsedMS, run.Winner)
	return run, nil
}

func (c *Coordinator) runBranch(ctx context.Context, spec ProviderSpec, req llm.Request) NormalizedResult {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = spec.Model
	}
	if model == "" {
		model = spec.Adapter.DefaultModel()
	}

	plan := ladder.BuildPlan(model, spec.Fallbacks, c.opts.Budgets)
	runner := ladder.Runner{
		Adapter:          spec.Adapter,
		RequireStructure: c.opts.RequireStructure,
		Logger:           c.logger,
	}

	started := time.Now()
	outcome := runner.Run(ctx, req, plan)
	elapsed := time.Since(started).Milliseconds()

	out := NormalizedResult{
		Provider:       spec.ID,
		ModelRequested: model,
		OK:             outcome.OK,
		LatencyMS:      elapsed,
	}
	if !outcome.OK {
		out.Err = outcome.Result.Err
		if out.Err == nil {
			out.Err = &llm.Failure{Message: "provider returned no result"}
		}
		return out
	}

	out.ModelUsed = outcome.UsedModel
	out.FallbackUsed = outcome.FallbackUsed
	out.Degraded = outcome.Degraded
	out.Text = outcome.Result.Text
	out.Usage = outcome.Result.Usage
	out.FinishReason = outcome.Result.FinishReason

	doc, report := sections.Parse(outcome.Result.Text, *c.opts.Repair)
	out.Document = doc
	out.NeedsRepair = report.NeedsRepair
	out.RepairReason = report.Reason

	score := readiness.ScoreReportText(outcome.Result.Text, readiness.DefaultConfig())
	quality := score.Score
	out.Quality = &quality
	return out
}
