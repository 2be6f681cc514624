package models

import "time"

// Log entry types for execution logs.
const (
	LogTypeInfo    = "info"
	LogTypeSuccess = "success"
	LogTypeError   = "error"
	LogTypeWarning = "warning"
)

// Execution statuses.
const (
	ExecutionStatusRunning   = "running"
	ExecutionStatusCompleted = "completed"
	ExecutionStatusFailed    = "failed"
)

// NodeResult is the outcome of executing one node.
type NodeResult struct {
	// Success indicates whether the node completed normally
	Success bool `json:"success"`

	// Output is the JSON-like value produced by the node
	Output interface{} `json:"output,omitempty"`

	// Error message when Success is false
	Error string `json:"error,omitempty"`
}

// PartialError records a tolerated node failure (errorBehavior "continue").
type PartialError struct {
	NodeID   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	Error    string `json:"error"`
}

// ExecutionLogEntry is one append-only, ordered log line of an execution.
type ExecutionLogEntry struct {
	// NodeID is the node that produced the entry
	NodeID string `json:"nodeId"`

	// NodeName is the node's display name
	NodeName string `json:"nodeName"`

	// Type is "info", "success", "error" or "warning"
	Type string `json:"type"`

	// Message is the log message
	Message string `json:"message"`

	// Data is optional structured context
	Data map[string]interface{} `json:"data,omitempty"`

	// Timestamp of the entry
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionRecord is the persisted outcome of one flow execution.
type ExecutionRecord struct {
	// ID of the execution
	ID string `json:"id"`

	// FlowID is the flow that was executed
	FlowID string `json:"flow_id"`

	// Status is "running", "completed" or "failed"
	Status string `json:"status"`

	// StartTime is when the execution started
	StartTime time.Time `json:"start_time"`

	// EndTime is when the execution finished
	EndTime time.Time `json:"end_time,omitempty"`

	// Error message when the execution halted
	Error string `json:"error,omitempty"`

	// PartialErrors lists tolerated node failures
	PartialErrors []PartialError `json:"partial_errors,omitempty"`

	// Response is the terminal response node output, if one ran
	Response interface{} `json:"response,omitempty"`
}

// AnalyticsRecord captures request-level metrics for one trigger call.
type AnalyticsRecord struct {
	ExecutionID   string    `json:"execution_id"`
	FlowID        string    `json:"flow_id"`
	Method        string    `json:"method"`
	StatusCode    int       `json:"status_code"`
	DurationMS    int64     `json:"duration_ms"`
	RequestBytes  int       `json:"request_bytes"`
	ResponseBytes int       `json:"response_bytes"`
	RequestEcho   string    `json:"request_echo,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
