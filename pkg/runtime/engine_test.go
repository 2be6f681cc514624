package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// recordingHandler notes execution order and returns a canned output or
// error per node id.
type recordingHandler struct {
	order   *[]string
	outputs map[string]map[string]interface{}
	errors  map[string]error
}

func (h *recordingHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	*h.order = append(*h.order, node.ID)
	if err, ok := h.errors[node.ID]; ok {
		return nil, err
	}
	if output, ok := h.outputs[node.ID]; ok {
		return output, nil
	}
	return map[string]interface{}{}, nil
}

func newTestEngine(handler NodeHandler) *Engine {
	registry := NewHandlerRegistry(handler)
	registry.Register(NodeTypeCondition, handler)
	registry.Register(NodeTypeResponse, handler)
	return NewEngine(registry, 30*time.Second)
}

func newTestContext() *ExecutionContext {
	return NewExecutionContext("flow-1", "exec-1", map[string]interface{}{}, map[string]interface{}{})
}

func node(id, nodeType string) models.Node {
	return models.Node{ID: id, Type: nodeType, Data: models.NodeData{Label: id}}
}

func edge(source, target string) models.Edge {
	return models.Edge{Source: source, Target: target}
}

func TestDisconnectedSubgraphsAllStart(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), node("b", "task"), node("c", "task")},
		Edges: []models.Edge{edge("a", "b")},
	}

	result, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, order)
}

func TestPredecessorsCompleteBeforeJoin(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	// Short edge a->d plus long chain a->b->c->d: d must still wait for c.
	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), node("b", "task"), node("c", "task"), node("d", "task")},
		Edges: []models.Edge{edge("a", "d"), edge("a", "b"), edge("b", "c"), edge("c", "d")},
	}

	_, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)
	require.Equal(t, 4, len(order))
	assert.Equal(t, "d", order[3])
}

func TestConditionBranchPruning(t *testing.T) {
	var order []string
	handler := &recordingHandler{
		order: &order,
		outputs: map[string]map[string]interface{}{
			"cond": {"result": false},
		},
	}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("cond", NodeTypeCondition), node("yes", "task"), node("no", "task")},
		Edges: []models.Edge{
			{Source: "cond", Target: "yes", SourceHandle: "true"},
			{Source: "cond", Target: "no", SourceHandle: "false"},
		},
	}

	result, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"cond", "no"}, order)
}

func TestHaltOnErrorAbandonsQueue(t *testing.T) {
	var order []string
	handler := &recordingHandler{
		order:  &order,
		errors: map[string]error{"b": fmt.Errorf("boom")},
	}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), node("b", "task"), node("c", "task")},
		Edges: []models.Edge{edge("a", "b"), edge("b", "c")},
	}

	ec := newTestContext()
	result, err := engine.Execute(context.Background(), graph, ec)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Empty(t, result.PartialErrors)

	// Context written before the failure is retained.
	_, ok := ec.Get("a")
	assert.True(t, ok)
	_, ok = ec.Get("b")
	assert.False(t, ok)
}

func TestContinueOnErrorRecordsPartialError(t *testing.T) {
	var order []string
	handler := &recordingHandler{
		order:  &order,
		errors: map[string]error{"b": fmt.Errorf("boom")},
	}
	engine := newTestEngine(handler)

	failing := node("b", "task")
	failing.Data.ErrorBehavior = models.ErrorBehaviorContinue

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), failing, node("c", "task")},
		Edges: []models.Edge{edge("a", "b"), edge("b", "c")},
	}

	ec := newTestContext()
	result, err := engine.Execute(context.Background(), graph, ec)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"a", "b", "c"}, order)

	require.Len(t, result.PartialErrors, 1)
	assert.Equal(t, "b", result.PartialErrors[0].NodeID)
	assert.Equal(t, "boom", result.PartialErrors[0].Error)

	value, ok := ec.Get("b")
	require.True(t, ok)
	stored := value.(map[string]interface{})
	assert.Equal(t, false, stored["success"])
	assert.Equal(t, "boom", stored["error"])
	assert.Equal(t, true, stored["_failedNode"])
}

func TestDisabledNodePassthrough(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	disabled := node("b", "task")
	disabled.Data.Disabled = true

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), disabled, node("c", "task")},
		Edges: []models.Edge{edge("a", "b"), edge("b", "c")},
	}

	ec := newTestContext()
	result, err := engine.Execute(context.Background(), graph, ec)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"a", "c"}, order)

	_, ok := ec.Get("b")
	assert.False(t, ok)
}

func TestLastResponseWins(t *testing.T) {
	var order []string
	handler := &recordingHandler{
		order: &order,
		outputs: map[string]map[string]interface{}{
			"r1": {"statusCode": 200, "body": "first"},
			"r2": {"statusCode": 201, "body": "second"},
		},
	}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), node("r1", NodeTypeResponse), node("r2", NodeTypeResponse)},
		Edges: []models.Edge{edge("a", "r1"), edge("r1", "r2")},
	}

	result, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)
	require.NotNil(t, result.Response)
	assert.Equal(t, "second", result.Response["body"])
}

func TestDanglingEdgesIgnored(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task")},
		Edges: []models.Edge{edge("a", "ghost"), edge("ghost", "a")},
	}

	result, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"a"}, order)
}

func TestSuccessInjectedIntoOutput(t *testing.T) {
	var order []string
	handler := &recordingHandler{
		order:   &order,
		outputs: map[string]map[string]interface{}{"a": {"value": 42}},
	}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{Nodes: []models.Node{node("a", "task")}}

	ec := newTestContext()
	_, err := engine.Execute(context.Background(), graph, ec)
	require.NoError(t, err)

	value, ok := ec.Get("a")
	require.True(t, ok)
	assert.Equal(t, true, value.(map[string]interface{})["success"])
}

func TestCancelledContextStopsRun(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	graph := models.FlowGraph{Nodes: []models.Node{node("a", "task")}}
	_, err := engine.Execute(ctx, graph, newTestContext())
	assert.Error(t, err)
	assert.Empty(t, order)
}

func TestLogOrderingIsCausal(t *testing.T) {
	var order []string
	handler := &recordingHandler{order: &order}
	engine := newTestEngine(handler)

	graph := models.FlowGraph{
		Nodes: []models.Node{node("a", "task"), node("b", "task")},
		Edges: []models.Edge{edge("a", "b")},
	}

	result, err := engine.Execute(context.Background(), graph, newTestContext())
	require.NoError(t, err)

	var logNodes []string
	for _, entry := range result.Logs {
		logNodes = append(logNodes, entry.NodeID)
	}
	assert.Equal(t, []string{"a", "a", "b", "b"}, logNodes)
}
