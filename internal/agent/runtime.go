package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/tool"
)

// Config binds an agent's model selection, prompt and iteration budget.
type Config struct {
	// Model is the primary model identifier.
	Model string
	// FixModel repairs near-valid structured output; empty disables repair.
	FixModel string
	// SystemPrompt is sent with every LLM request of the strategy.
	SystemPrompt string
	// MaxIterations bounds strategy node executions per invocation.
	MaxIterations int
}

// DefaultMaxIterations is the iteration budget used when none is configured.
const DefaultMaxIterations = 10

// Hooks are observability callbacks; they must not affect behavior.
type Hooks struct {
	OnToolCall func(name string, args map[string]any)
	OnFinish   func(output any)
}

// Run is the per-invocation context: the input, the conversation transcript,
// and the dependencies strategy nodes execute against. It is created by the
// runtime for each invocation and discarded when the terminal node returns;
// it is never shared across invocations.
type Run struct {
	Client llm.Client
	Tools  *tool.Registry
	Config Config
	Log    zerolog.Logger
	Hooks  Hooks
	Now    time.Time

	Input        string
	Messages     []llm.Message
	LastResponse *llm.Response
	Output       any
}

// Runtime executes one strategy graph against inputs. The instance is
// long-lived and shared across requests; invocations are serialized by the
// runtime's mutex so one invocation's conversation state can never interleave
// with another's.
type Runtime struct {
	mu sync.Mutex

	graph  *Graph
	client llm.Client
	tools  *tool.Registry
	cfg    Config
	log    zerolog.Logger
	hooks  Hooks
}

// NewRuntime wires a strategy graph with its LLM client, tool registry and
// configuration.
func NewRuntime(graph *Graph, client llm.Client, tools *tool.Registry, cfg Config, log zerolog.Logger) *Runtime {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	rt := &Runtime{
		graph:  graph,
		client: client,
		tools:  tools,
		cfg:    cfg,
		log:    log.With().Str("strategy", graph.Name()).Logger(),
	}
	rt.hooks = Hooks{
		OnToolCall: func(name string, args map[string]any) {
			rt.log.Info().Str("tool", name).Interface("args", args).Msg("Tool called")
		},
		OnFinish: func(output any) {
			rt.log.Info().Interface("result", output).Msg("Agent finished")
		},
	}
	return rt
}

// Run executes the strategy against input and returns the terminal node's
// output. Only one invocation proceeds at a time per runtime instance;
// concurrent callers queue.
func (rt *Runtime) Run(ctx context.Context, input string) (any, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	run := &Run{
		Client:   rt.client,
		Tools:    rt.tools,
		Config:   rt.cfg,
		Log:      rt.log,
		Hooks:    rt.hooks,
		Now:      time.Now(),
		Input:    input,
		Messages: []llm.Message{llm.UserMessage(input)},
	}

	if err := rt.graph.Walk(ctx, run, rt.cfg.MaxIterations); err != nil {
		return nil, err
	}

	if rt.hooks.OnFinish != nil {
		rt.hooks.OnFinish(run.Output)
	}

	return run.Output, nil
}
