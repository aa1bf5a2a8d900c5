package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vijay-kartik/iphonetoagent/internal/domain"
	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/tool"
)

// AgentType enumerates the agents this service knows how to build. The set is
// closed: resolving an unlisted type is a configuration error.
type AgentType string

const (
	AgentTransactionAnalysis AgentType = "transaction_analysis"
	AgentMonthlyAnalysis     AgentType = "monthly_analysis"
)

// ErrUnknownAgentType is returned for agent types outside the closed set.
var ErrUnknownAgentType = errors.New("agent: unknown agent type")

// FactoryConfig carries the model selection shared by all agent types.
type FactoryConfig struct {
	Model         string
	FixModel      string
	MaxIterations int
}

// Factory maps agent types to runtime instances. Construction is expensive
// (strategy graph, tool registry, prompt wiring), so instances are cached
// process-wide; concurrent first access yields exactly one instance per type.
type Factory struct {
	mu     sync.Mutex
	client llm.Client
	cfg    FactoryConfig
	log    zerolog.Logger
	cache  map[AgentType]*Runtime
}

// NewFactory creates an agent factory over the given LLM client.
func NewFactory(client llm.Client, cfg FactoryConfig, log zerolog.Logger) *Factory {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Factory{
		client: client,
		cfg:    cfg,
		log:    log,
		cache:  make(map[AgentType]*Runtime),
	}
}

// Get returns the cached runtime for agentType, constructing it on first use.
func (f *Factory) Get(agentType AgentType) (*Runtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rt, ok := f.cache[agentType]; ok {
		return rt, nil
	}

	rt, err := f.build(agentType)
	if err != nil {
		return nil, err
	}

	f.cache[agentType] = rt
	return rt, nil
}

func (f *Factory) build(agentType AgentType) (*Runtime, error) {
	switch agentType {
	case AgentTransactionAnalysis:
		registry, err := tool.NewRegistry(tool.ExpenseExtractor{}, tool.NewTransactionValidator())
		if err != nil {
			return nil, fmt.Errorf("agent factory: %w", err)
		}
		cfg := Config{
			Model:         f.cfg.Model,
			FixModel:      f.cfg.FixModel,
			SystemPrompt:  TxnSystemPrompt,
			MaxIterations: f.cfg.MaxIterations,
		}
		return NewRuntime(TransactionAnalysisStrategy(), f.client, registry, cfg, f.log), nil

	case AgentMonthlyAnalysis:
		cfg := Config{
			Model:         f.cfg.Model,
			SystemPrompt:  MonthlyAnalysisPrompt,
			MaxIterations: f.cfg.MaxIterations,
		}
		return NewRuntime(MonthlyAnalysisStrategy(), f.client, nil, cfg, f.log), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}
}

// AnalyseSMS runs the transaction analysis agent over one SMS text.
func (f *Factory) AnalyseSMS(ctx context.Context, sms string) (domain.Transaction, error) {
	rt, err := f.Get(AgentTransactionAnalysis)
	if err != nil {
		return domain.Transaction{}, err
	}

	out, err := rt.Run(ctx, sms)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx, ok := out.(domain.Transaction)
	if !ok {
		return domain.Transaction{}, fmt.Errorf("agent: unexpected output type %T", out)
	}
	return tx, nil
}

// MonthlySummary runs the monthly analysis agent over a rendered transaction
// table and returns the model's markdown summary.
func (f *Factory) MonthlySummary(ctx context.Context, table string) (string, error) {
	rt, err := f.Get(AgentMonthlyAnalysis)
	if err != nil {
		return "", err
	}

	out, err := rt.Run(ctx, table)
	if err != nil {
		return "", err
	}

	text, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("agent: unexpected output type %T", out)
	}
	return text, nil
}
