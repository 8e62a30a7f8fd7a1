package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/finsight/finsight/internal/llm"
	"github.com/finsight/finsight/internal/logging"
)

// FailoverClient wraps a model registry to try fallback models on failure.
type FailoverClient struct {
	registry  *llm.Registry
	primary   string
	fallbacks []string
	log       *logging.Logger
}

// NewFailoverClient creates a client that tries the primary model first,
// then falls back through the list on retryable errors (429, 5xx, 529).
func NewFailoverClient(registry *llm.Registry, primary string, fallbacks []string, log *logging.Logger) *FailoverClient {
	return &FailoverClient{
		registry:  registry,
		primary:   primary,
		fallbacks: fallbacks,
		log:       log.Sub("failover"),
	}
}

// Complete tries the primary model, falling back on retryable errors.
func (f *FailoverClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	models := append([]string{f.primary}, f.fallbacks...)

	var lastErr error
	for _, model := range models {
		client, err := f.registry.Resolve(model)
		if err != nil {
			f.log.Debug().Str("model", model).Err(err).Msg("no client for model, skipping")
			lastErr = err
			continue
		}

		req.Model = model
		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if isRetryable(err) {
			f.log.Warn().Str("model", model).Err(err).Msg("retryable error, trying next model")
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// Stream tries the primary model for streaming, with failover. Providers
// report upstream failures as an in-channel error event, so the first event
// of each attempt is inspected before the stream is handed to the caller.
func (f *FailoverClient) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
	models := append([]string{f.primary}, f.fallbacks...)

	var lastErr error
	for _, model := range models {
		client, err := f.registry.Resolve(model)
		if err != nil {
			lastErr = err
			continue
		}

		req.Model = model
		ch, err := client.Stream(ctx, req)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				f.log.Warn().Str("model", model).Err(err).Msg("retryable stream error, trying next model")
				continue
			}
			return nil, err
		}

		first, ok := <-ch
		if ok && first.Type == llm.EventError {
			streamErr := errors.New(first.Error)
			lastErr = streamErr
			if isRetryable(streamErr) {
				f.log.Warn().Str("model", model).Err(streamErr).Msg("retryable stream error, trying next model")
				drain(ch)
				continue
			}
			return nil, streamErr
		}

		out := make(chan llm.StreamEvent)
		go func() {
			defer close(out)
			if ok {
				out <- first
			}
			for ev := range ch {
				out <- ev
			}
		}()
		return out, nil
	}

	return nil, lastErr
}

func drain(ch <-chan llm.StreamEvent) {
	for range ch {
	}
}

// isRetryable checks if the error suggests trying another model.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 429, 500, 502, 503, 529:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "timeout")
}
