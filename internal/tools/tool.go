// Package tools exposes the financial data lookups as model-invocable tools.
// The registry is built once at startup and never mutated afterwards.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

// Tool is a named capability the model can invoke during a conversation.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input.
	InputSchema() string

	// Execute runs the tool with the given JSON arguments. A non-nil error
	// means the arguments failed validation; adapter failures are reported
	// in-band as a Result with Success=false and an explanatory Message.
	Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error)
}

// ValidationError reports malformed tool arguments. It is the only error
// Execute returns.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Definition is a serializable tool definition for passing to the model.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema string `json:"inputSchema"`
}

// Registry holds the available tools, looked up by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns model-ready definitions in registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// DefaultRegistry builds the registry with all financial tools wired to the
// given market client.
func DefaultRegistry(data *market.Client) *Registry {
	r := NewRegistry()
	r.Register(NewStockQuote(data))
	r.Register(NewCryptoPrice(data))
	r.Register(NewTopCryptos(data))
	r.Register(NewForexRate(data))
	r.Register(NewMarketNews(data))
	r.Register(NewFearGreed(data))
	r.Register(NewMarketOverview(data))
	return r
}

// decodeArgs unmarshals raw tool arguments into target. An empty input is
// treated as an empty object.
func decodeArgs(input json.RawMessage, target any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, target); err != nil {
		return &ValidationError{Field: "arguments", Reason: err.Error()}
	}
	return nil
}
