package llm

import (
	"context"
	"encoding/json"
)

// Request is one inference call. It is treated as immutable once dispatched;
// the orchestrator copies it per ladder step instead of editing in place.
type Request struct {
	System         string  `json:"system,omitempty"`
	Prompt         string  `json:"prompt"`
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	ResponseFormat string  `json:"response_format,omitempty"` // "", "text" or "json"
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Failure struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const CodeTimeout = "timeout"

// Result is the uniform outcome of a single provider attempt. OK=true means
// Text is meaningful (possibly empty); OK=false means Err is set. Adapters
// never report failures as Go errors, so the ladder can classify and react
// without exception-style control flow.
type Result struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	OK           bool            `json:"ok"`
	Text         string          `json:"text,omitempty"`
	LatencyMS    int64           `json:"latency_ms,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Err          *Failure        `json:"error,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

type Adapter interface {
	Name() string
	DefaultModel() string
	Run(ctx context.Context, req Request) Result
}

func failure(provider, model, message, code string, latencyMS int64) Result {
	return Result{
		Provider:  provider,
		Model:     model,
		OK:        false,
		LatencyMS: latencyMS,
		Err:       &Failure{Message: message, Code: code},
	}
}

// timeoutCode maps a context error to the wire-level failure code.
func timeoutCode(ctx context.Context) string {
	if ctx.Err() != nil {
		return CodeTimeout
	}
	return ""
}
