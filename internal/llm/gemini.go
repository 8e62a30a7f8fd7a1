package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient is a direct HTTP client for the Google Gemini API, using
// native function calling and SSE streaming.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL overrides the API base URL (used in tests).
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *GeminiClient) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithGeminiHTTPClient overrides the underlying HTTP client.
func WithGeminiHTTPClient(hc *http.Client) GeminiOption {
	return func(g *GeminiClient) { g.client = hc }
}

// NewGemini creates a Gemini client bound to one model id.
func NewGemini(apiKey, model string, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider name.
func (g *GeminiClient) Name() string {
	return "gemini"
}

// Complete sends a non-streaming completion request.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	payload, err := json.Marshal(g.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))

	respBody, err := g.post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return g.responseToCompletion(&result, time.Since(start)), nil
}

// Stream sends a streaming completion request. Text arrives as delta events;
// function calls arrive as tool_call events.
func (g *GeminiClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	payload, err := json.Marshal(g.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	events := make(chan StreamEvent)
	go g.streamRequest(ctx, events, payload)
	return events, nil
}

func (g *GeminiClient) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "gemini", Code: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

func (g *GeminiClient) streamRequest(ctx context.Context, events chan<- StreamEvent, payload []byte) {
	defer close(events)

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		events <- StreamEvent{Type: EventError, Error: fmt.Sprintf("create request: %v", err)}
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		events <- StreamEvent{Type: EventError, Error: fmt.Sprintf("request failed: %v", err)}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		perr := &ProviderError{Provider: "gemini", Code: resp.StatusCode, Message: string(body)}
		events <- StreamEvent{Type: EventError, Error: perr.Error()}
		return
	}

	var (
		fullContent strings.Builder
		toolCalls   []ToolCall
		stopReason  string
		usage       Usage
	)

	scanner := newSSEScanner(resp.Body)
	for scanner.Scan() {
		var chunk geminiResponse
		if err := json.Unmarshal([]byte(scanner.Data()), &chunk); err != nil {
			continue
		}
		if chunk.UsageMetadata.CandidatesTokenCount > 0 {
			usage = Usage{
				InputTokens:  chunk.UsageMetadata.PromptTokenCount,
				OutputTokens: chunk.UsageMetadata.CandidatesTokenCount,
			}
		}
		for _, candidate := range chunk.Candidates {
			if candidate.FinishReason != "" {
				stopReason = candidate.FinishReason
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					fullContent.WriteString(part.Text)
					events <- StreamEvent{Type: EventDelta, Content: part.Text}
				}
				if part.FunctionCall != nil {
					call := functionCallToToolCall(part.FunctionCall)
					toolCalls = append(toolCalls, call)
					events <- StreamEvent{Type: EventToolCall, ToolCall: &call}
				}
			}
		}
	}

	events <- StreamEvent{
		Type: EventDone,
		Response: &CompletionResponse{
			Content:    fullContent.String(),
			StopReason: stopReason,
			ToolCalls:  toolCalls,
			Usage:      usage,
			Model:      g.model,
		},
	}
}

// buildRequestBody converts the neutral request into Gemini wire format.
func (g *GeminiClient) buildRequestBody(req CompletionRequest) map[string]any {
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}

		parts := make([]map[string]any, 0, 1+len(msg.ToolCalls)+len(msg.ToolResults))
		if msg.Content != "" {
			parts = append(parts, map[string]any{"text": msg.Content})
		}
		for _, call := range msg.ToolCalls {
			var args map[string]any
			if len(call.Args) > 0 {
				_ = json.Unmarshal(call.Args, &args)
			}
			parts = append(parts, map[string]any{
				"functionCall": map[string]any{"name": call.Name, "args": args},
			})
		}
		for _, result := range msg.ToolResults {
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name":     result.Name,
					"response": map[string]any{"output": result.Output},
				},
			})
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, map[string]any{"role": role, "parts": parts})
	}

	genConfig := map[string]any{}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		genConfig["temperature"] = *req.Temperature
	}

	body := map[string]any{
		"contents":         contents,
		"generationConfig": genConfig,
	}
	if req.System != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": req.System}},
		}
	}
	if len(req.Tools) > 0 {
		decls := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			decl := map[string]any{
				"name":        t.Name,
				"description": t.Description,
			}
			if schema := parseJSONSchema(t.InputSchema); schema != nil {
				decl["parameters"] = schema
			}
			decls = append(decls, decl)
		}
		body["tools"] = []map[string]any{{"functionDeclarations": decls}}
	}
	return body
}

func (g *GeminiClient) responseToCompletion(resp *geminiResponse, duration time.Duration) *CompletionResponse {
	var content strings.Builder
	var toolCalls []ToolCall
	stopReason := ""

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		stopReason = candidate.FinishReason
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				content.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				toolCalls = append(toolCalls, functionCallToToolCall(part.FunctionCall))
			}
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		StopReason: stopReason,
		ToolCalls:  toolCalls,
		Usage: Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
		Model:    g.model,
		Duration: duration,
	}
}

// functionCallToToolCall assigns a correlation id, since Gemini function
// calls do not carry one.
func functionCallToToolCall(fc *geminiFunctionCall) ToolCall {
	args, _ := json.Marshal(fc.Args)
	return ToolCall{
		ID:   "call_" + uuid.NewString(),
		Name: fc.Name,
		Args: args,
	}
}

// parseJSONSchema converts a JSON Schema string to a map for the wire body.
func parseJSONSchema(schemaStr string) map[string]any {
	if schemaStr == "" {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(schemaStr), &schema); err != nil {
		return nil
	}
	return schema
}

// Wire structures.

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content struct {
		Parts []geminiPart `json:"parts"`
		Role  string       `json:"role"`
	} `json:"content"`
	FinishReason string `json:"finishReason"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}
