package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/llm"
	"github.com/finsight/finsight/internal/logging"
	"github.com/finsight/finsight/internal/tools"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, logging.Options{Level: "silent", Style: "json"})
}

// stubTool is a scriptable tools.Tool for driving the runner.
type stubTool struct {
	name    string
	execute func(ctx context.Context, args json.RawMessage) (domain.ToolResult, error)
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) InputSchema() string { return `{"type":"object","properties":{}}` }
func (s *stubTool) Execute(ctx context.Context, args json.RawMessage) (domain.ToolResult, error) {
	return s.execute(ctx, args)
}

func newRunner(t *testing.T, client llm.Client, toolList ...tools.Tool) *Runner {
	t.Helper()
	reg := llm.NewRegistry(testLogger())
	reg.Register("test-model", client)

	toolReg := tools.NewRegistry()
	for _, tl := range toolList {
		toolReg.Register(tl)
	}
	return NewRunner(RunnerConfig{Model: "test-model", MaxTokens: 1024}, reg, toolReg, testLogger())
}

func collectEvents(events *[]Event) EventCallback {
	return func(ev Event) { *events = append(*events, ev) }
}

func TestRunStreamTextOnly(t *testing.T) {
	client := &llm.MockClient{
		StreamFunc: llm.ScriptedStream([]llm.StreamEvent{
			{Type: llm.EventDelta, Content: "Hello "},
			{Type: llm.EventDelta, Content: "there"},
		}, &llm.CompletionResponse{Content: "Hello there"}),
	}
	r := newRunner(t, client)

	var events []Event
	msg, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")},
		collectEvents(&events))
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, msg.Role)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "Hello there", msg.Parts[0].Text)
	assert.Equal(t, StatusReady, r.Status())

	types := eventTypes(events)
	assert.Equal(t, []string{EventTextDelta, EventTextDelta, EventFinish}, types)
	for _, ev := range events {
		assert.Equal(t, msg.ID, ev.MessageID)
	}
}

func TestRunStreamToolLoop(t *testing.T) {
	call := llm.ToolCall{ID: "call_1", Name: "lookup", Args: json.RawMessage(`{"q":"x"}`)}
	rounds := 0
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			rounds++
			if rounds == 1 {
				return llm.ScriptedStream([]llm.StreamEvent{
					{Type: llm.EventToolCall, ToolCall: &call},
				}, &llm.CompletionResponse{ToolCalls: []llm.ToolCall{call}})(ctx, req)
			}
			// Second round sees the tool result in the conversation.
			last := req.Messages[len(req.Messages)-1]
			require.Len(t, last.ToolResults, 1)
			assert.Equal(t, "call_1", last.ToolResults[0].ToolCallID)
			return llm.ScriptedStream([]llm.StreamEvent{
				{Type: llm.EventDelta, Content: "Answer based on data."},
			}, &llm.CompletionResponse{Content: "Answer based on data."})(ctx, req)
		},
	}

	executed := 0
	tool := &stubTool{name: "lookup", execute: func(ctx context.Context, args json.RawMessage) (domain.ToolResult, error) {
		executed++
		assert.JSONEq(t, `{"q":"x"}`, string(args))
		return domain.ToolResult{Success: true, Message: "found it"}, nil
	}}

	r := newRunner(t, client, tool)
	var events []Event
	msg, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "look it up")},
		collectEvents(&events))
	require.NoError(t, err)

	assert.Equal(t, 2, rounds)
	assert.Equal(t, 1, executed)

	require.Len(t, msg.Parts, 2)
	inv := msg.Parts[0]
	assert.Equal(t, domain.PartToolInvocation, inv.Type)
	assert.Equal(t, domain.InvocationCompleted, inv.State)
	require.NotNil(t, inv.Output)
	assert.True(t, inv.Output.Success)
	assert.Equal(t, "Answer based on data.", msg.Parts[1].Text)

	assert.Equal(t, []string{EventToolCall, EventToolResult, EventTextDelta, EventFinish}, eventTypes(events))
}

func TestRunStreamUnknownTool(t *testing.T) {
	call := llm.ToolCall{ID: "call_1", Name: "nope", Args: json.RawMessage(`{}`)}
	rounds := 0
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			rounds++
			if rounds == 1 {
				return llm.ScriptedStream([]llm.StreamEvent{
					{Type: llm.EventToolCall, ToolCall: &call},
				}, &llm.CompletionResponse{ToolCalls: []llm.ToolCall{call}})(ctx, req)
			}
			return llm.ScriptedStream(nil, &llm.CompletionResponse{Content: "done"})(ctx, req)
		},
	}

	r := newRunner(t, client)
	var events []Event
	msg, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")},
		collectEvents(&events))
	require.NoError(t, err)

	inv := msg.Parts[0]
	require.NotNil(t, inv.Output)
	assert.False(t, inv.Output.Success)
	assert.Contains(t, inv.Output.Message, "Unknown tool: nope")
}

func TestRunStreamValidationFailureContinues(t *testing.T) {
	call := llm.ToolCall{ID: "call_1", Name: "lookup", Args: json.RawMessage(`{"limit":99}`)}
	rounds := 0
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			rounds++
			if rounds == 1 {
				return llm.ScriptedStream([]llm.StreamEvent{
					{Type: llm.EventToolCall, ToolCall: &call},
				}, &llm.CompletionResponse{ToolCalls: []llm.ToolCall{call}})(ctx, req)
			}
			return llm.ScriptedStream(nil, &llm.CompletionResponse{Content: "sorry"})(ctx, req)
		},
	}
	tool := &stubTool{name: "lookup", execute: func(ctx context.Context, args json.RawMessage) (domain.ToolResult, error) {
		return domain.ToolResult{}, fmt.Errorf("invalid limit: must be between 1 and 20")
	}}

	r := newRunner(t, client, tool)
	msg, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")}, nil)
	require.NoError(t, err)

	inv := msg.Parts[0]
	require.NotNil(t, inv.Output)
	assert.False(t, inv.Output.Success)
	assert.Contains(t, inv.Output.Message, "Invalid arguments")
	assert.Equal(t, 2, rounds, "turn should continue after a rejected call")
}

func TestRunStreamMaxToolRounds(t *testing.T) {
	rounds := 0
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			rounds++
			call := llm.ToolCall{ID: fmt.Sprintf("call_%d", rounds), Name: "lookup", Args: json.RawMessage(`{}`)}
			return llm.ScriptedStream([]llm.StreamEvent{
				{Type: llm.EventToolCall, ToolCall: &call},
			}, &llm.CompletionResponse{ToolCalls: []llm.ToolCall{call}})(ctx, req)
		},
	}
	tool := &stubTool{name: "lookup", execute: func(ctx context.Context, args json.RawMessage) (domain.ToolResult, error) {
		return domain.ToolResult{Success: true, Message: "ok"}, nil
	}}

	r := newRunner(t, client, tool)
	_, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, maxToolRounds, rounds)
}

func TestRunStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, &llm.MockClient{})
	msg, err := r.RunStream(ctx,
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, msg)
	assert.Equal(t, StatusCancelled, r.Status())
}

func TestRunStreamTimeout(t *testing.T) {
	// Emit one delta, then stall until the deadline fires.
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			ch := make(chan llm.StreamEvent, 1)
			ch <- llm.StreamEvent{Type: llm.EventDelta, Content: "partial"}
			go func() {
				<-ctx.Done()
				close(ch)
			}()
			return ch, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := newRunner(t, client)
	var events []Event
	msg, err := r.RunStream(ctx,
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")},
		collectEvents(&events))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusCancelled, r.Status())
	assert.Equal(t, "partial", msg.Text())

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "turn timed out", last.Error)
}

func TestRunStreamModelError(t *testing.T) {
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			ch := make(chan llm.StreamEvent, 1)
			ch <- llm.StreamEvent{Type: llm.EventError, Error: "invalid request"}
			close(ch)
			return ch, nil
		},
	}

	r := newRunner(t, client)
	var events []Event
	_, err := r.RunStream(context.Background(),
		[]domain.UIMessage{domain.NewTextMessage("u1", domain.RoleUser, "hi")},
		collectEvents(&events))
	require.Error(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, EventError, events[len(events)-1].Type)
}

func TestToModelMessages(t *testing.T) {
	result := domain.ToolResult{Success: true, Message: "data"}
	history := []domain.UIMessage{
		domain.NewTextMessage("u1", domain.RoleUser, "price of AAPL?"),
		{
			ID:   "a1",
			Role: domain.RoleAssistant,
			Parts: []domain.Part{
				{
					Type:       domain.PartToolInvocation,
					ToolCallID: "call_1",
					ToolName:   "getStockQuote",
					State:      domain.InvocationCompleted,
					Output:     &result,
				},
				{Type: domain.PartText, Text: "AAPL trades at $150.25."},
			},
		},
		domain.NewTextMessage("u2", domain.RoleUser, "and bitcoin?"),
	}

	conv := toModelMessages(history)
	require.Len(t, conv, 4)
	assert.Equal(t, llm.RoleUser, conv[0].Role)
	assert.Equal(t, llm.RoleAssistant, conv[1].Role)
	require.Len(t, conv[1].ToolCalls, 1)
	require.Len(t, conv[2].ToolResults, 1)
	assert.Equal(t, "call_1", conv[2].ToolResults[0].ToolCallID)
	assert.Equal(t, "and bitcoin?", conv[3].Content)
}

func TestMemorySessionStore(t *testing.T) {
	s := NewMemorySessionStore()

	sess, err := s.GetOrCreate("")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	require.NoError(t, s.Append(sess.ID, domain.NewTextMessage("u1", domain.RoleUser, "hi")))
	history, err := s.History(sess.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	same, err := s.GetOrCreate(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, same.ID)

	_, err = s.History("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, s.Delete(sess.ID))
	_, err = s.History(sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func eventTypes(events []Event) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}
