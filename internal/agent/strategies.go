package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/tool"
)

// TransactionAnalysisStrategy builds the SMS analysis graph:
//
//	start → call-llm ─(tool call)→ validate → send-tool-result → process-result → finish
//	              └──(otherwise)──────────────────────────────────┘
//
// process-invalid is registered but has no inbound edge yet; wiring an
// explicit negative-validation edge later only requires AddEdge.
func TransactionAnalysisStrategy() *Graph {
	g := NewGraph("sms-analyser")

	g.AddNode("call-llm", nodeLLMRequest)
	g.AddNode("validate", nodeExecuteTool(tool.TransactionValidatorName))
	g.AddNode("send-tool-result", nodeSendToolResult)
	g.AddNode("process-result", nodeExtractTransaction)
	g.AddNode("process-invalid", nodeInvalidResult)

	g.AddEdge(NodeStart, "call-llm", nil)
	g.AddEdge("call-llm", "validate", onToolCall)
	g.AddEdge("call-llm", "process-result", nil)
	g.AddEdge("validate", "send-tool-result", nil)
	g.AddEdge("send-tool-result", "process-result", nil)
	g.AddEdge("process-result", NodeFinish, nil)
	g.AddEdge("process-invalid", NodeFinish, nil)

	return g
}

// MonthlyAnalysisStrategy builds the linear monthly summary graph:
//
//	start → call-llm → extract-text → finish
//
// The output is the model's free-text analysis, not schema-constrained.
func MonthlyAnalysisStrategy() *Graph {
	g := NewGraph("monthly-txn-analysis")

	g.AddNode("call-llm", nodeLLMRequest)
	g.AddNode("extract-text", nodeExtractText)

	g.AddEdge(NodeStart, "call-llm", nil)
	g.AddEdge("call-llm", "extract-text", nil)
	g.AddEdge("extract-text", NodeFinish, nil)

	return g
}

func onToolCall(r *Run) bool {
	return r.LastResponse != nil && r.LastResponse.HasToolCalls()
}

// nodeLLMRequest sends the system prompt plus the transcript to the model,
// declaring the registered tools, and records the reply.
func nodeLLMRequest(ctx context.Context, r *Run) error {
	req := &llm.Request{
		Model:    r.Config.Model,
		System:   r.Config.SystemPrompt,
		Messages: r.Messages,
	}
	if r.Tools != nil {
		req.Tools = r.Tools.Definitions()
	}

	resp, err := r.Client.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("llm request: %w", err)
	}

	r.LastResponse = resp
	r.Messages = append(r.Messages, llm.ModelMessage(resp))
	return nil
}

// nodeExecuteTool runs the model-requested tool call through the registry.
// Argument validation failures do not abort the invocation: they are folded
// into the conversation as a negative verdict the model can react to.
func nodeExecuteTool(toolName string) NodeFunc {
	return func(ctx context.Context, r *Run) error {
		if r.LastResponse == nil || !r.LastResponse.HasToolCalls() {
			return fmt.Errorf("execute tool %s: no tool call in last response", toolName)
		}
		call := r.LastResponse.ToolCalls[0]

		if r.Hooks.OnToolCall != nil {
			r.Hooks.OnToolCall(call.Name, call.Args)
		}

		result, err := r.Tools.Execute(ctx, call.Name, call.Args)
		if err != nil {
			r.Log.Warn().Err(err).Str("tool", call.Name).Msg("Tool execution failed")
			result = map[string]any{"valid": false, "error": err.Error()}
		}

		r.Messages = append(r.Messages, llm.ToolResultMessage(call.Name, result))
		return nil
	}
}

// nodeSendToolResult re-requests the model with the tool result folded into
// the transcript.
func nodeSendToolResult(ctx context.Context, r *Run) error {
	return nodeLLMRequest(ctx, r)
}

// nodeExtractTransaction issues the schema-constrained extraction call and
// produces the terminal Transaction. Schema non-conformance (after the
// fixing-model repair pass) is absorbed into the fallback sentinel; transport
// errors propagate as invocation failures.
func nodeExtractTransaction(ctx context.Context, r *Run) error {
	content := ""
	if r.LastResponse != nil {
		content = r.LastResponse.Text
	}
	if content == "" && r.LastResponse != nil && r.LastResponse.HasToolCalls() {
		// The model committed to a tool call with no prose; extract from
		// the call's arguments instead.
		encoded, _ := json.Marshal(r.LastResponse.ToolCalls[0].Args)
		content = string(encoded)
	}

	req := &llm.Request{
		Model:          r.Config.Model,
		FixModel:       r.Config.FixModel,
		System:         StructuredExtractionPrompt,
		Messages:       []llm.Message{llm.UserMessage("Response: " + content)},
		ResponseSchema: TransactionSchema(),
	}

	var tx domain.Transaction
	if err := r.Client.CompleteStructured(ctx, req, &tx); err != nil {
		if errors.Is(err, llm.ErrInvalidStructuredOutput) {
			r.Log.Warn().Err(err).Msg("Structured extraction failed, returning fallback transaction")
			r.Output = domain.FallbackTransaction()
			return nil
		}
		return fmt.Errorf("structured extraction: %w", err)
	}

	r.Output = tx.Normalize(r.Now)
	return nil
}

// nodeInvalidResult emits the explicit negative-validation sentinel. Reserved
// for a future edge from the validation path.
func nodeInvalidResult(_ context.Context, r *Run) error {
	r.Output = domain.InvalidTransaction()
	return nil
}

// nodeExtractText makes the model's free-text reply the terminal output.
func nodeExtractText(_ context.Context, r *Run) error {
	if r.LastResponse == nil {
		return fmt.Errorf("extract text: no response recorded")
	}
	r.Output = r.LastResponse.Text
	return nil
}

// TransactionSchema is the structured output schema for extraction requests.
func TransactionSchema() *llm.Schema {
	return llm.Object(
		"A bank or credit card transaction extracted from an SMS",
		map[string]*llm.Schema{
			"date":       llm.String("Transaction date in DD/MM/YYYY format"),
			"detail":     llm.String("Merchant, person, or transaction description"),
			"amount_inr": llm.Number("Amount in Indian Rupees"),
			"amount_usd": llm.Number("Amount in USD"),
			"type":       llm.StringEnum("Transaction type", "INFLOW", "OUTFLOW", "CC_USAGE", "NONE"),
			"category": llm.StringEnum(
				"Transaction category; expense categories for OUTFLOW, income categories for INFLOW",
				"Food", "Clothing", "Flights", "Transportation", "Miscellaneous",
				"Salary", "Dividend", "Transfer",
			),
			"account_name": llm.String("Name of the account debited or credited"),
		},
		"date", "detail", "amount_inr", "amount_usd", "type", "category", "account_name",
	)
}
