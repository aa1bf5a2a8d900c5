package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/tool"
)

// scriptedClient replays canned completions in order and records every call
// so tests can assert on sequencing.
type scriptedClient struct {
	mu          sync.Mutex
	completions []*llm.Response
	structured  []string // JSON payloads consumed by CompleteStructured
	err         error    // returned by every call when set
	calls       []string // "complete" / "structured" in invocation order
}

func (c *scriptedClient) record(kind string) {
	c.calls = append(c.calls, kind)
}

func (c *scriptedClient) Complete(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("complete")
	if c.err != nil {
		return nil, c.err
	}
	if len(c.completions) == 0 {
		return &llm.Response{Text: "done"}, nil
	}
	resp := c.completions[0]
	c.completions = c.completions[1:]
	return resp, nil
}

func (c *scriptedClient) CompleteStructured(_ context.Context, _ *llm.Request, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("structured")
	if c.err != nil {
		return c.err
	}
	if len(c.structured) == 0 {
		return llm.ErrInvalidStructuredOutput
	}
	payload := c.structured[0]
	c.structured = c.structured[1:]
	return json.Unmarshal([]byte(payload), out)
}

const hdfcTxnJSON = `{
	"date": "05/03/2024",
	"detail": "ABC Store",
	"amount_inr": 450.0,
	"amount_usd": 5.4,
	"type": "OUTFLOW",
	"category": "Food",
	"account_name": "HDFC card"
}`

func newTxnRuntime(t *testing.T, client llm.Client) *Runtime {
	t.Helper()
	registry, err := tool.NewRegistry(tool.ExpenseExtractor{}, tool.NewTransactionValidator())
	require.NoError(t, err)

	cfg := Config{Model: "gemini-2.0-flash", FixModel: "gemini-2.0-flash-lite", SystemPrompt: TxnSystemPrompt}
	return NewRuntime(TransactionAnalysisStrategy(), client, registry, cfg, testLogger())
}

func TestRuntime_ToolCallPath(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{
			// First request: the model commits to a validator call.
			{ToolCalls: []llm.ToolCall{{
				Name: tool.TransactionValidatorName,
				Args: map[string]any{
					"date": "05/03/2024", "detail": "ABC Store",
					"amount_inr": 450.0, "amount_usd": 5.4,
					"type": "OUTFLOW", "category": "Food",
				},
			}}},
			// After the tool result is fed back: prose summary.
			{Text: "Rs. 450 spent at ABC Store on 05/03/2024 using HDFC card"},
		},
		structured: []string{hdfcTxnJSON},
	}

	rt := newTxnRuntime(t, client)
	out, err := rt.Run(context.Background(), "Rs. 450 spent at ABC Store on 05/03/2024 using HDFC card")
	require.NoError(t, err)

	tx, ok := out.(domain.Transaction)
	require.True(t, ok, "output should be a Transaction, got %T", out)

	assert.Equal(t, domain.TypeOutflow, tx.Type)
	assert.Equal(t, 450.0, tx.AmountINR)
	assert.Contains(t, tx.AccountName, "HDFC")
	assert.Contains(t, domain.CategoriesFor(domain.TypeOutflow), tx.Category)
	assert.Equal(t, "05/03/2024", tx.Date)
	assert.False(t, tx.IsFallback())

	// call-llm, send-tool-result, structured extraction: exactly three round trips.
	assert.Equal(t, []string{"complete", "complete", "structured"}, client.calls)
}

func TestRuntime_DirectPathWithoutToolCall(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{{Text: "INR 900 credited as salary to SBI account"}},
		structured: []string{`{
			"date": "01/03/2024", "detail": "Salary credit",
			"amount_inr": 900, "amount_usd": 10.8,
			"type": "INFLOW", "category": "Salary", "account_name": "SBI"
		}`},
	}

	rt := newTxnRuntime(t, client)
	out, err := rt.Run(context.Background(), "INR 900 credited as salary to SBI account")
	require.NoError(t, err)

	tx := out.(domain.Transaction)
	assert.Equal(t, domain.TypeInflow, tx.Type)
	assert.Equal(t, domain.CategorySalary, tx.Category)

	// The validate node must be skipped entirely.
	assert.Equal(t, []string{"complete", "structured"}, client.calls)
}

func TestRuntime_ExtractionFailureReturnsFallbackSentinel(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{{Text: "gibberish"}},
		structured:  nil, // CompleteStructured fails with ErrInvalidStructuredOutput
	}

	rt := newTxnRuntime(t, client)
	out, err := rt.Run(context.Background(), "not a transaction at all")
	require.NoError(t, err, "schema non-conformance is absorbed, not surfaced")

	tx := out.(domain.Transaction)
	assert.True(t, tx.IsFallback())
	assert.Equal(t, "", tx.Date)
	assert.Equal(t, "", tx.Detail)
	assert.Equal(t, domain.TypeInflow, tx.Type)
	assert.Equal(t, domain.CategoryMiscellaneous, tx.Category)
}

func TestRuntime_TransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("llm: connection refused")
	client := &scriptedClient{err: transportErr}

	rt := newTxnRuntime(t, client)
	out, err := rt.Run(context.Background(), "Rs. 100 spent somewhere")

	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
	assert.Nil(t, out, "a transport failure must not produce a sentinel value")
}

func TestRuntime_InvalidToolArgsFoldedIntoConversation(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{
			// Validator call missing required fields.
			{ToolCalls: []llm.ToolCall{{
				Name: tool.TransactionValidatorName,
				Args: map[string]any{"date": "05/03/2024"},
			}}},
			{Text: "details were incomplete"},
		},
		structured: nil,
	}

	rt := newTxnRuntime(t, client)
	out, err := rt.Run(context.Background(), "Rs 100 spent")
	require.NoError(t, err, "argument validation failure must not abort the invocation")

	tx := out.(domain.Transaction)
	assert.True(t, tx.IsFallback())
}

func TestRuntime_BudgetExhaustionIsStructuralFailure(t *testing.T) {
	client := &scriptedClient{}

	// A deliberately cyclic graph to force budget exhaustion.
	g := NewGraph("cycle").
		AddNode("a", nodeLLMRequest).
		AddEdge(NodeStart, "a", nil).
		AddEdge("a", "a", nil)

	rt := NewRuntime(g, client, nil, Config{Model: "m", MaxIterations: 4}, testLogger())
	_, err := rt.Run(context.Background(), "in")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIterationBudget)
	assert.NotErrorIs(t, err, llm.ErrInvalidStructuredOutput)
}

func TestRuntime_SerializesConcurrentInvocations(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)

	client := &scriptedClient{}

	// Each invocation records a begin/end pair around its LLM round trip;
	// overlap between invocations would be a serialization violation.
	g := NewGraph("probe").
		AddNode("llm", func(ctx context.Context, r *Run) error {
			mu.Lock()
			events = append(events, "begin:"+r.Input)
			mu.Unlock()

			if _, err := r.Client.Complete(ctx, &llm.Request{Model: "m"}); err != nil {
				return err
			}

			mu.Lock()
			events = append(events, "end:"+r.Input)
			mu.Unlock()
			return nil
		}).
		AddNode("out", func(ctx context.Context, r *Run) error { r.Output = r.Input; return nil }).
		AddEdge(NodeStart, "llm", nil).
		AddEdge("llm", "out", nil).
		AddEdge("out", NodeFinish, nil)

	rt := NewRuntime(g, client, nil, Config{Model: "m"}, testLogger())

	var wg sync.WaitGroup
	for _, input := range []string{"A", "B"} {
		wg.Add(1)
		go func(in string) {
			defer wg.Done()
			_, err := rt.Run(context.Background(), in)
			assert.NoError(t, err)
		}(input)
	}
	wg.Wait()

	require.Len(t, events, 4)
	// Whichever invocation began first must end before the other begins.
	first := events[0][len("begin:"):]
	assert.Equal(t, "begin:"+first, events[0])
	assert.Equal(t, "end:"+first, events[1])
}

func TestRuntime_EmitsToolCallHook(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{
			{ToolCalls: []llm.ToolCall{{
				Name: tool.TransactionValidatorName,
				Args: map[string]any{
					"date": "05/03/2024", "detail": "x",
					"amount_inr": 1.0, "amount_usd": 0.0,
					"type": "OUTFLOW", "category": "Food",
				},
			}}},
			{Text: "ok"},
		},
		structured: []string{hdfcTxnJSON},
	}

	rt := newTxnRuntime(t, client)

	var toolNames []string
	rt.hooks.OnToolCall = func(name string, args map[string]any) {
		toolNames = append(toolNames, name)
	}

	_, err := rt.Run(context.Background(), "sms")
	require.NoError(t, err)
	assert.Equal(t, []string{tool.TransactionValidatorName}, toolNames)
}

func TestMonthlyStrategy_ReturnsFreeText(t *testing.T) {
	client := &scriptedClient{
		completions: []*llm.Response{{Text: "## Monthly summary\nTotal spend: 1200 INR"}},
	}

	cfg := Config{Model: "gemini-2.0-flash", SystemPrompt: MonthlyAnalysisPrompt}
	rt := NewRuntime(MonthlyAnalysisStrategy(), client, nil, cfg, testLogger())

	out, err := rt.Run(context.Background(), "date | detail | amount ...")
	require.NoError(t, err)
	assert.Equal(t, "## Monthly summary\nTotal spend: 1200 INR", out)
	assert.Equal(t, []string{"complete"}, client.calls)
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
