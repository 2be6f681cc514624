package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/interpolate"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// Result is the outcome of one graph execution.
type Result struct {
	// Success is false when a halting node failure stopped the run.
	Success bool

	// Error holds the halting failure message, if any.
	Error string

	// Response is the output of the last response node that ran, or nil.
	Response map[string]interface{}

	// PartialErrors lists tolerated node failures.
	PartialErrors []models.PartialError

	// Logs is the ordered execution log.
	Logs []models.ExecutionLogEntry
}

// Engine runs flow graphs. Nodes execute one at a time from a FIFO work
// queue; a node becomes ready once every inbound edge has fired.
type Engine struct {
	registry    *HandlerRegistry
	resolver    *interpolate.Resolver
	nodeTimeout time.Duration
}

// NewEngine creates an engine. A nodeTimeout of zero disables per-node
// deadlines.
func NewEngine(registry *HandlerRegistry, nodeTimeout time.Duration) *Engine {
	return &Engine{
		registry:    registry,
		resolver:    interpolate.New(),
		nodeTimeout: nodeTimeout,
	}
}

// Execute runs a graph to completion. Graph-shape issues (dangling
// edges, unreachable nodes) never return an error; only the context
// being cancelled does.
func (e *Engine) Execute(ctx context.Context, graph models.FlowGraph, ec *ExecutionContext) (*Result, error) {
	result := &Result{Success: true}

	nodesByID := make(map[string]models.Node, len(graph.Nodes))
	for _, node := range graph.Nodes {
		nodesByID[node.ID] = node
	}

	// Dangling edges are dropped rather than crashing the run.
	outgoing := make(map[string][]models.Edge)
	indegree := make(map[string]int, len(graph.Nodes))
	for _, node := range graph.Nodes {
		indegree[node.ID] = 0
	}
	for _, edge := range graph.Edges {
		if _, ok := nodesByID[edge.Source]; !ok {
			continue
		}
		if _, ok := nodesByID[edge.Target]; !ok {
			continue
		}
		outgoing[edge.Source] = append(outgoing[edge.Source], edge)
		indegree[edge.Target]++
	}

	// Seed the queue with every true source so disconnected sub-graphs
	// all start.
	var queue []string
	for _, node := range graph.Nodes {
		if indegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	executed := make(map[string]bool, len(graph.Nodes))
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("execution cancelled: %w", err)
		}

		nodeID := queue[0]
		queue = queue[1:]
		if executed[nodeID] {
			continue
		}
		executed[nodeID] = true
		node := nodesByID[nodeID]

		if node.Data.Disabled {
			queue = e.enqueueSuccessors(queue, node, nil, outgoing, indegree)
			continue
		}

		ec.Log(models.ExecutionLogEntry{
			NodeID:   node.ID,
			NodeName: node.Name(),
			Type:     models.LogTypeInfo,
			Message:  fmt.Sprintf("Executing node %s (%s)", node.Name(), node.Type),
		})

		output, err := e.executeNode(ctx, node, ec)
		if err != nil {
			ec.Log(models.ExecutionLogEntry{
				NodeID:   node.ID,
				NodeName: node.Name(),
				Type:     models.LogTypeError,
				Message:  err.Error(),
			})

			if node.Data.ErrorBehavior != models.ErrorBehaviorContinue {
				result.Success = false
				result.Error = err.Error()
				break
			}

			result.PartialErrors = append(result.PartialErrors, models.PartialError{
				NodeID:   node.ID,
				NodeName: node.Name(),
				Error:    err.Error(),
			})
			failed := map[string]interface{}{
				"error":       err.Error(),
				"success":     false,
				"_failedNode": true,
			}
			if setErr := ec.Set(node.ID, failed); setErr != nil {
				result.Success = false
				result.Error = setErr.Error()
				break
			}
			queue = e.enqueueSuccessors(queue, node, failed, outgoing, indegree)
			continue
		}

		if output == nil {
			output = map[string]interface{}{}
		}
		output["success"] = true
		if err := ec.Set(node.ID, output); err != nil {
			result.Success = false
			result.Error = err.Error()
			break
		}

		ec.Log(models.ExecutionLogEntry{
			NodeID:   node.ID,
			NodeName: node.Name(),
			Type:     models.LogTypeSuccess,
			Message:  fmt.Sprintf("Node %s completed", node.Name()),
			Data:     output,
		})

		if node.Type == NodeTypeResponse {
			result.Response = output
		}

		queue = e.enqueueSuccessors(queue, node, output, outgoing, indegree)
	}

	result.Logs = ec.Logs()
	return result, nil
}

// executeNode resolves the node's inputs against the current context and
// dispatches to its handler under the per-node deadline.
func (e *Engine) executeNode(ctx context.Context, node models.Node, ec *ExecutionContext) (map[string]interface{}, error) {
	inputs := e.resolver.ResolveInputs(node.Data.Inputs, ec.Snapshot())

	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	return e.registry.Lookup(node.Type).Execute(ctx, node, inputs, ec)
}

// enqueueSuccessors fires the node's outgoing edges and enqueues any
// target whose inbound edges have all fired. For condition nodes only
// the edges matching the boolean result fire; the untaken branch is
// pruned and never executes.
func (e *Engine) enqueueSuccessors(queue []string, node models.Node, output map[string]interface{}, outgoing map[string][]models.Edge, indegree map[string]int) []string {
	for _, edge := range outgoing[node.ID] {
		if node.Type == NodeTypeCondition && !node.Data.Disabled {
			result, _ := output["result"].(bool)
			if edge.SourceHandle != fmt.Sprintf("%t", result) {
				continue
			}
		}
		indegree[edge.Target]--
		if indegree[edge.Target] <= 0 {
			queue = append(queue, edge.Target)
		}
	}
	return queue
}
