package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama speaks the native /api/generate shape of a local Ollama daemon.
type Ollama struct {
	name    string
	baseURL string
	model   string
	http    *http.Client
}

func NewOllama(name, baseURL, model string, timeout time.Duration) *Ollama {
	if model == "" {
		model = "llama3"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Ollama{
		name:    name,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) Name() string         { return o.name }
func (o *Ollama) DefaultModel() string { return o.model }

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Format  string         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

func (o *Ollama) Run(ctx context.Context, req Request) Result {
	model := req.Model
	if model == "" {
		model = o.model
	}
	body := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		body.Options["num_predict"] = req.MaxTokens
	}
	if req.ResponseFormat == "json" {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return failure(o.name, model, fmt.Sprintf("marshal request: %v", err), "", 0)
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return failure(o.name, model, fmt.Sprintf("create request: %v", err), "", 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(httpReq)
	latency := time.Since(started).Milliseconds()
	if err != nil {
		return failure(o.name, model, err.Error(), timeoutCode(ctx), latency)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	latency = time.Since(started).Milliseconds()
	if err != nil {
		return failure(o.name, model, fmt.Sprintf("read response: %v", err), timeoutCode(ctx), latency)
	}

	var decoded ollamaResponse
	if jsonErr := json.Unmarshal(raw, &decoded); jsonErr == nil && decoded.Error != "" {
		result := failure(o.name, model, decoded.Error, "", latency)
		result.Raw = raw
		return result
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result := failure(o.name, model, fmt.Sprintf("status %s", resp.Status), "", latency)
		result.Raw = raw
		return result
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		result := failure(o.name, model, fmt.Sprintf("decode response: %v", err), "", latency)
		result.Raw = raw
		return result
	}

	out := Result{
		Provider:     o.name,
		Model:        model,
		OK:           true,
		Text:         decoded.Response,
		LatencyMS:    latency,
		FinishReason: decoded.DoneReason,
		Raw:          raw,
	}
	if decoded.PromptEvalCount > 0 || decoded.EvalCount > 0 {
		out.Usage = &Usage{
			InputTokens:  decoded.PromptEvalCount,
			OutputTokens: decoded.EvalCount,
			TotalTokens:  decoded.PromptEvalCount + decoded.EvalCount,
		}
	}
	return out
}
