package llm

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	StreamFunc   func(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &CompletionResponse{Content: "mock response"}, nil
}

func (m *MockClient) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	ch := make(chan StreamEvent, 2)
	ch <- StreamEvent{Type: EventDelta, Content: "mock "}
	ch <- StreamEvent{Type: EventDone, Response: &CompletionResponse{Content: "mock stream response"}}
	close(ch)
	return ch, nil
}

// ScriptedStream builds a StreamFunc that replays the given events then a
// terminal done event carrying resp.
func ScriptedStream(events []StreamEvent, resp *CompletionResponse) func(context.Context, CompletionRequest) (<-chan StreamEvent, error) {
	return func(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error) {
		ch := make(chan StreamEvent, len(events)+1)
		for _, ev := range events {
			ch <- ev
		}
		ch <- StreamEvent{Type: EventDone, Response: resp}
		close(ch)
		return ch, nil
	}
}
