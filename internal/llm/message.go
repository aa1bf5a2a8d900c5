package llm

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry in an agent conversation transcript.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolResult *ToolResult
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult carries an executed tool's output back into the conversation.
type ToolResult struct {
	Name   string
	Result map[string]any
}

// UserMessage builds a plain user text message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ModelMessage builds a model message from a prior response, preserving any
// tool calls so the provider sees a consistent transcript.
func ModelMessage(resp *Response) Message {
	return Message{Role: RoleModel, Content: resp.Text, ToolCalls: resp.ToolCalls}
}

// ToolResultMessage builds the message that feeds a tool result back to the model.
func ToolResultMessage(name string, result map[string]any) Message {
	return Message{Role: RoleUser, ToolResult: &ToolResult{Name: name, Result: result}}
}
