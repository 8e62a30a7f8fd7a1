package domain

// Role constants for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part type discriminators.
const (
	PartText           = "text"
	PartToolInvocation = "tool-invocation"
)

// Tool invocation states.
const (
	InvocationPending   = "pending"
	InvocationCompleted = "completed"
)

// ToolResult is the outcome of one tool invocation. Message is always
// non-empty — consumers must be able to render something even on failure.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// Part is one element of a message body. Type discriminates between plain
// text and a tool invocation; order within a message reflects emission order
// from the model.
type Part struct {
	Type string `json:"type"`

	// Text fields (type="text")
	Text string `json:"text,omitempty"`

	// Tool invocation fields (type="tool-invocation")
	ToolCallID string      `json:"toolCallId,omitempty"`
	ToolName   string      `json:"toolName,omitempty"`
	State      string      `json:"state,omitempty"` // "pending" | "completed"
	Output     *ToolResult `json:"output,omitempty"`
}

// UIMessage is a single turn in a conversation as exchanged with the client.
type UIMessage struct {
	ID    string `json:"id"`
	Role  string `json:"role"` // "user" | "assistant"
	Parts []Part `json:"parts"`
}

// Text returns the concatenated text parts of the message, in order.
func (m UIMessage) Text() string {
	var s string
	for _, p := range m.Parts {
		if p.Type == PartText {
			s += p.Text
		}
	}
	return s
}

// NewTextMessage builds a message with a single text part.
func NewTextMessage(id, role, text string) UIMessage {
	return UIMessage{
		ID:    id,
		Role:  role,
		Parts: []Part{{Type: PartText, Text: text}},
	}
}
