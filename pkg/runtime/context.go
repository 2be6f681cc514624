package runtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// Reserved context keys. Node IDs colliding with these are rejected at
// publish time by the flow registry.
const (
	ContextKeyRequest     = "request"
	ContextKeyEnv         = "env"
	ContextKeyVariables   = "variables"
	ContextKeyFlowID      = "_flowProjectId"
	ContextKeyExecutionID = "_executionId"
)

// ExecutionContext is the per-execution store of node outputs plus the
// inbound request and environment data. Node outputs are write-once:
// each node id is written exactly once, right after the node finishes.
type ExecutionContext struct {
	mu      sync.RWMutex
	values  map[string]interface{}
	logs    []models.ExecutionLogEntry
	logSink func(models.ExecutionLogEntry)
}

// NewExecutionContext builds the initial context for a run.
func NewExecutionContext(flowID, executionID string, request, env map[string]interface{}) *ExecutionContext {
	values := map[string]interface{}{
		ContextKeyRequest:     deepClone(request),
		ContextKeyEnv:         deepClone(env),
		ContextKeyVariables:   deepClone(env),
		ContextKeyFlowID:      flowID,
		ContextKeyExecutionID: executionID,
	}
	return &ExecutionContext{values: values}
}

// Set stores a node's output. Writing the same node id twice, or a
// reserved key, is an error.
func (c *ExecutionContext) Set(nodeID string, output map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.values[nodeID]; exists {
		return fmt.Errorf("context key %q already written", nodeID)
	}
	c.values[nodeID] = deepClone(output)
	return nil
}

// Get returns the value stored under a key.
func (c *ExecutionContext) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.values[key]
	return value, ok
}

// Request returns the inbound request data.
func (c *ExecutionContext) Request() map[string]interface{} {
	value, _ := c.Get(ContextKeyRequest)
	request, _ := value.(map[string]interface{})
	return request
}

// ExecutionID returns the identifier of this run.
func (c *ExecutionContext) ExecutionID() string {
	value, _ := c.Get(ContextKeyExecutionID)
	id, _ := value.(string)
	return id
}

// Snapshot returns a copy of the context map for variable resolution.
// Stored values are never mutated after Set, so sharing them is safe.
func (c *ExecutionContext) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]interface{}, len(c.values))
	for key, value := range c.values {
		snapshot[key] = value
	}
	return snapshot
}

// SetLogSink registers a callback invoked for every appended log entry,
// used to stream logs to live watchers.
func (c *ExecutionContext) SetLogSink(sink func(models.ExecutionLogEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logSink = sink
}

// Log appends an entry to the ordered execution log.
func (c *ExecutionContext) Log(entry models.ExecutionLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.logs = append(c.logs, entry)
	sink := c.logSink
	c.mu.Unlock()

	if sink != nil {
		sink(entry)
	}
}

// Logs returns the entries logged so far.
func (c *ExecutionContext) Logs() []models.ExecutionLogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs := make([]models.ExecutionLogEntry, len(c.logs))
	copy(logs, c.logs)
	return logs
}

// deepClone copies a value through a JSON round trip so stored outputs
// cannot alias the handler's working data. Values that do not survive
// the round trip are kept as-is.
func deepClone(value map[string]interface{}) map[string]interface{} {
	if value == nil {
		return map[string]interface{}{}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var clone map[string]interface{}
	if err := json.Unmarshal(data, &clone); err != nil {
		return value
	}
	return clone
}
