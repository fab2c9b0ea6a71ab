package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// OpenAICompat speaks the OpenAI chat-completions wire shape, which also
// covers LM Studio, Groq and most hosted gateways. The raw payload stays
// opaque on the Result; nothing above the adapter reads provider field names.
type OpenAICompat struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewOpenAICompat(name, baseURL, apiKey, model string, timeout time.Duration) *OpenAICompat {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAICompat{
		name:    name,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
		model:   model,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

func (c *OpenAICompat) Name() string         { return c.name }
func (c *OpenAICompat) DefaultModel() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float32       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat any           `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (c *OpenAICompat) Run(ctx context.Context, req Request) Result {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := chatRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.ResponseFormat == "json" {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return failure(c.name, model, fmt.Sprintf("marshal request: %v", err), "", 0)
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return failure(c.name, model, fmt.Sprintf("create request: %v", err), "", 0)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	latency := time.Since(started).Milliseconds()
	if err != nil {
		return failure(c.name, model, err.Error(), timeoutCode(ctx), latency)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	latency = time.Since(started).Milliseconds()
	if err != nil {
		return failure(c.name, model, fmt.Sprintf("read response: %v", err), timeoutCode(ctx), latency)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep the provider's own message; a bare status line is a last resort.
		message := fmt.Sprintf("status %s", resp.Status)
		var decoded apiError
		if json.Unmarshal(raw, &decoded) == nil && decoded.Error.Message != "" {
			message = fmt.Sprintf("status %s: %s", resp.Status, decoded.Error.Message)
		}
		result := failure(c.name, model, message, "", latency)
		result.Raw = raw
		return result
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		result := failure(c.name, model, fmt.Sprintf("decode response: %v", err), "", latency)
		result.Raw = raw
		return result
	}
	if len(decoded.Choices) == 0 {
		result := failure(c.name, model, "response missing choices", "", latency)
		result.Raw = raw
		return result
	}

	out := Result{
		Provider:     c.name,
		Model:        model,
		OK:           true,
		Text:         decoded.Choices[0].Message.Content,
		LatencyMS:    latency,
		FinishReason: strings.TrimSpace(decoded.Choices[0].FinishReason),
		Raw:          raw,
	}
	if decoded.Usage != nil {
		out.Usage = &Usage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		}
	}
	return out
}

func normalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return trimmed
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed
	}
	return trimmed + "/v1"
}
