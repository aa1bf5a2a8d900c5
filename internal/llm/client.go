package llm

import (
	"context"
	"errors"
)

// ErrInvalidStructuredOutput is returned by CompleteStructured when the model
// output does not conform to the requested schema even after the fixing-model
// repair pass. Callers recover from it locally (fallback value); transport
// errors are returned as-is and are fatal to the invocation.
var ErrInvalidStructuredOutput = errors.New("llm: structured output does not match requested schema")

// ToolDefinition describes a callable function exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Request is a single completion request: a system prompt, a conversation
// transcript, and optionally tool declarations or an output schema.
type Request struct {
	Model    string
	System   string
	Messages []Message
	Tools    []ToolDefinition

	// ResponseSchema, when set, asks the provider for schema-constrained
	// JSON output instead of free text.
	ResponseSchema *Schema

	// FixModel names a secondary model used for a single repair pass when
	// structured output fails to parse. Empty disables repair.
	FixModel string
}

// Response is the model's reply: free text and/or requested tool calls.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocation.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Client is the completion contract the agent runtime depends on.
type Client interface {
	// Complete sends the request and returns the model's reply. Transport
	// failures (unreachable provider, non-2xx, timeout) are returned as
	// errors and are not retried here.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// CompleteStructured sends a schema-constrained request and decodes the
	// reply into out. On parse failure it performs at most one repair pass
	// through req.FixModel before returning ErrInvalidStructuredOutput.
	CompleteStructured(ctx context.Context, req *Request, out any) error
}
