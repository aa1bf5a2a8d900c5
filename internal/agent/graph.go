package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrIterationBudget is returned when a strategy walk exceeds its configured
// iteration budget. It is a structural failure, distinct from the content
// fallback a strategy may produce on bad model output.
var ErrIterationBudget = errors.New("agent: iteration budget exceeded")

// Reserved node names marking the entry and exit of every strategy graph.
const (
	NodeStart  = "start"
	NodeFinish = "finish"
)

// NodeFunc executes one strategy step against the invocation state.
type NodeFunc func(ctx context.Context, r *Run) error

// Edge connects two nodes. When is an optional guard evaluated against the
// state just produced; a nil guard always passes.
type Edge struct {
	To   string
	When func(r *Run) bool
}

// Graph is an explicit directed graph of named strategy nodes. Execution
// starts at NodeStart and ends when an edge leads to NodeFinish; at each node
// the first outgoing edge whose guard passes is followed.
type Graph struct {
	name  string
	nodes map[string]NodeFunc
	edges map[string][]Edge
}

// NewGraph creates an empty strategy graph.
func NewGraph(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: make(map[string]NodeFunc),
		edges: make(map[string][]Edge),
	}
}

// Name returns the strategy name.
func (g *Graph) Name() string { return g.name }

// AddNode registers a named node. Nodes without inbound edges are allowed;
// they stay dormant until an edge is added.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge registers an edge from one node to another. Edge order matters:
// guards are evaluated in registration order and the first match wins.
func (g *Graph) AddEdge(from, to string, when func(r *Run) bool) *Graph {
	g.edges[from] = append(g.edges[from], Edge{To: to, When: when})
	return g
}

// Walk executes the graph against r. budget bounds the number of node
// executions; exceeding it returns ErrIterationBudget.
func (g *Graph) Walk(ctx context.Context, r *Run, budget int) error {
	current := NodeStart
	steps := 0

	for {
		next := ""
		for _, e := range g.edges[current] {
			if e.When == nil || e.When(r) {
				next = e.To
				break
			}
		}
		if next == "" {
			return fmt.Errorf("strategy %s: no matching edge out of node %s", g.name, current)
		}
		if next == NodeFinish {
			return nil
		}

		steps++
		if steps > budget {
			return fmt.Errorf("%w: strategy %s stopped after %d steps", ErrIterationBudget, g.name, budget)
		}

		fn, ok := g.nodes[next]
		if !ok {
			return fmt.Errorf("strategy %s: edge leads to unknown node %s", g.name, next)
		}
		if err := fn(ctx, r); err != nil {
			return err
		}

		current = next
	}
}
