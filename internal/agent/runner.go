// Package agent runs the tool-augmented conversation loop: it streams model
// output, executes requested tools, feeds results back, and assembles the
// final assistant message part by part.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/llm"
	"github.com/finsight/finsight/internal/logging"
	"github.com/finsight/finsight/internal/tools"
)

// maxToolRounds limits how many tool call rounds one turn can perform.
const maxToolRounds = 5

// TurnStatus is the runner's position in the turn lifecycle.
type TurnStatus string

const (
	StatusReady     TurnStatus = "ready"
	StatusSubmitted TurnStatus = "submitted"
	StatusStreaming TurnStatus = "streaming"
	StatusCancelled TurnStatus = "cancelled"
)

// Event types forwarded to the transport during a streaming turn.
const (
	EventTextDelta  = "text-delta"
	EventToolCall   = "tool-call"
	EventToolResult = "tool-result"
	EventError      = "error"
	EventFinish     = "finish"
)

// Event is one unit of turn progress.
type Event struct {
	Type       string             `json:"type"`
	MessageID  string             `json:"messageId,omitempty"`
	Delta      string             `json:"delta,omitempty"`
	ToolCallID string             `json:"toolCallId,omitempty"`
	ToolName   string             `json:"toolName,omitempty"`
	Args       json.RawMessage    `json:"args,omitempty"`
	Result     *domain.ToolResult `json:"result,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// EventCallback receives turn events as they happen.
type EventCallback func(Event)

// RunnerConfig configures the conversation runner.
type RunnerConfig struct {
	Model       string
	Fallbacks   []string
	MaxTokens   int
	Temperature *float64
}

// Runner drives one conversation turn at a time.
type Runner struct {
	cfg    RunnerConfig
	client *FailoverClient
	tools  *tools.Registry
	log    *logging.Logger
	status atomic.Value // TurnStatus
}

// NewRunner creates a runner backed by the given model registry and tools.
func NewRunner(cfg RunnerConfig, registry *llm.Registry, reg *tools.Registry, log *logging.Logger) *Runner {
	r := &Runner{
		cfg:    cfg,
		client: NewFailoverClient(registry, cfg.Model, cfg.Fallbacks, log),
		tools:  reg,
		log:    log.Sub("agent"),
	}
	r.status.Store(StatusReady)
	return r
}

// Status reports the lifecycle position of the most recent turn.
func (r *Runner) Status() TurnStatus {
	return r.status.Load().(TurnStatus)
}

// RunStream processes one turn: the history ends with the user's newest
// message. Events are forwarded through cb as they happen, and the assembled
// assistant message is returned. On cancellation the partial message built so
// far is returned together with the context error.
func (r *Runner) RunStream(ctx context.Context, history []domain.UIMessage, cb EventCallback) (*domain.UIMessage, error) {
	start := time.Now()
	r.status.Store(StatusSubmitted)

	assistant := &domain.UIMessage{
		ID:   "msg_" + uuid.NewString(),
		Role: domain.RoleAssistant,
	}
	emit := func(ev Event) {
		if cb != nil {
			ev.MessageID = assistant.ID
			cb(ev)
		}
	}

	conv := toModelMessages(history)
	toolDefs := toToolDefinitions(r.tools.Definitions())

	r.log.Info().
		Str("messageId", assistant.ID).
		Int("historyLen", len(history)).
		Msg("processing turn")

	var finalResp *llm.CompletionResponse
	for round := 0; round < maxToolRounds; round++ {
		req := llm.CompletionRequest{
			Model:       r.cfg.Model,
			System:      SystemPrompt(),
			Messages:    conv,
			Tools:       toolDefs,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		}

		ch, err := r.client.Stream(ctx, req)
		if err != nil {
			r.status.Store(StatusReady)
			emit(Event{Type: EventError, Error: err.Error()})
			return assistant, fmt.Errorf("model stream: %w", err)
		}

		var streamErr error
		finalResp = nil
		for ev := range ch {
			switch ev.Type {
			case llm.EventDelta:
				r.status.Store(StatusStreaming)
				appendText(assistant, ev.Content)
				emit(Event{Type: EventTextDelta, Delta: ev.Content})
			case llm.EventToolCall:
				r.status.Store(StatusStreaming)
				assistant.Parts = append(assistant.Parts, domain.Part{
					Type:       domain.PartToolInvocation,
					ToolCallID: ev.ToolCall.ID,
					ToolName:   ev.ToolCall.Name,
					State:      domain.InvocationPending,
				})
				emit(Event{
					Type:       EventToolCall,
					ToolCallID: ev.ToolCall.ID,
					ToolName:   ev.ToolCall.Name,
					Args:       ev.ToolCall.Args,
				})
			case llm.EventDone:
				finalResp = ev.Response
			case llm.EventError:
				streamErr = fmt.Errorf("model stream: %s", ev.Error)
			}
		}

		if err := ctx.Err(); err != nil {
			r.status.Store(StatusCancelled)
			// The request ceiling expiring is an abort the client must see;
			// a client-side cancel gets no further events.
			if errors.Is(err, context.DeadlineExceeded) {
				r.log.Warn().Str("messageId", assistant.ID).Msg("turn timed out")
				emit(Event{Type: EventError, Error: "turn timed out"})
			} else {
				r.log.Info().Str("messageId", assistant.ID).Msg("turn cancelled")
			}
			return assistant, err
		}
		if streamErr != nil {
			r.status.Store(StatusReady)
			emit(Event{Type: EventError, Error: streamErr.Error()})
			return assistant, streamErr
		}
		if finalResp == nil || len(finalResp.ToolCalls) == 0 {
			break
		}

		r.log.Info().Int("toolCalls", len(finalResp.ToolCalls)).Int("round", round+1).Msg("executing tool calls")

		conv = append(conv, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   finalResp.Content,
			ToolCalls: finalResp.ToolCalls,
		})

		results := make([]llm.ToolResult, 0, len(finalResp.ToolCalls))
		for _, call := range finalResp.ToolCalls {
			result := r.executeTool(ctx, call)
			completeInvocation(assistant, call.ID, result)
			emit(Event{
				Type:       EventToolResult,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Result:     &result,
			})
			results = append(results, llm.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Output:     result,
			})
		}
		conv = append(conv, llm.Message{Role: llm.RoleUser, ToolResults: results})
	}

	emit(Event{Type: EventFinish})
	r.status.Store(StatusReady)

	logEvent := r.log.Info().
		Str("messageId", assistant.ID).
		Dur("duration", time.Since(start))
	if finalResp != nil {
		logEvent = logEvent.
			Str("model", finalResp.Model).
			Int("inputTokens", finalResp.Usage.InputTokens).
			Int("outputTokens", finalResp.Usage.OutputTokens)
	}
	logEvent.Msg("turn complete")

	return assistant, nil
}

// executeTool runs one tool call. Failures never abort the turn: unknown
// tools and rejected arguments come back as unsuccessful results the model
// can react to.
func (r *Runner) executeTool(ctx context.Context, call llm.ToolCall) domain.ToolResult {
	tool, ok := r.tools.Get(call.Name)
	if !ok {
		r.log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		return domain.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Unknown tool: %s", call.Name),
		}
	}

	r.log.Debug().Str("tool", call.Name).Str("callId", call.ID).Msg("executing tool")
	result, err := tool.Execute(ctx, call.Args)
	if err != nil {
		return domain.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Invalid arguments: %s", err),
		}
	}
	return result
}

// appendText merges a delta into the trailing text part, or starts a new one
// after a tool invocation.
func appendText(msg *domain.UIMessage, delta string) {
	if n := len(msg.Parts); n > 0 && msg.Parts[n-1].Type == domain.PartText {
		msg.Parts[n-1].Text += delta
		return
	}
	msg.Parts = append(msg.Parts, domain.Part{Type: domain.PartText, Text: delta})
}

// completeInvocation marks the pending invocation part as completed.
func completeInvocation(msg *domain.UIMessage, toolCallID string, result domain.ToolResult) {
	for i := range msg.Parts {
		p := &msg.Parts[i]
		if p.Type == domain.PartToolInvocation && p.ToolCallID == toolCallID {
			p.State = domain.InvocationCompleted
			p.Output = &result
			return
		}
	}
}

// toModelMessages flattens UI messages into the provider conversation shape.
// Completed tool invocations expand into an assistant tool-call message
// followed by a user tool-result message.
func toModelMessages(history []domain.UIMessage) []llm.Message {
	var conv []llm.Message
	for _, m := range history {
		if m.Role != domain.RoleAssistant {
			if text := m.Text(); text != "" {
				conv = append(conv, llm.Message{Role: llm.RoleUser, Content: text})
			}
			continue
		}

		msg := llm.Message{Role: llm.RoleAssistant, Content: m.Text()}
		var results []llm.ToolResult
		for _, p := range m.Parts {
			if p.Type != domain.PartToolInvocation {
				continue
			}
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   p.ToolCallID,
				Name: p.ToolName,
			})
			if p.State == domain.InvocationCompleted && p.Output != nil {
				results = append(results, llm.ToolResult{
					ToolCallID: p.ToolCallID,
					Name:       p.ToolName,
					Output:     *p.Output,
				})
			}
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			continue
		}
		conv = append(conv, msg)
		if len(results) > 0 {
			conv = append(conv, llm.Message{Role: llm.RoleUser, ToolResults: results})
		}
	}
	return conv
}

func toToolDefinitions(defs []tools.Definition) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, llm.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return out
}
