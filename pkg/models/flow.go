// Package models defines the shared data types for flows and executions.
package models

import "time"

// Error behavior values for a node.
const (
	// ErrorBehaviorHalt stops the whole flow when the node fails (default).
	ErrorBehaviorHalt = "halt"

	// ErrorBehaviorContinue records the failure and keeps executing successors.
	ErrorBehaviorContinue = "continue"
)

// Flow status values.
const (
	FlowStatusDraft     = "draft"
	FlowStatusPublished = "published"
)

// Node is a typed unit of work within a flow graph. Nodes are immutable
// during an execution; the engine never writes back into them.
type Node struct {
	// ID is unique within a graph
	ID string `json:"id"`

	// Type selects the execution behavior ("http-request", "condition", ...)
	Type string `json:"type"`

	// Data carries the node configuration
	Data NodeData `json:"data"`
}

// NodeData is the authored configuration of a node.
type NodeData struct {
	// Label is the display name used in logs
	Label string `json:"label,omitempty"`

	// Inputs maps parameter names to raw values, which may contain
	// {{...}} interpolation strings or nested objects/arrays of them
	Inputs map[string]interface{} `json:"inputs,omitempty"`

	// Disabled nodes are passthroughs: not executed, successors still run
	Disabled bool `json:"disabled,omitempty"`

	// ErrorBehavior is "halt" (default) or "continue"
	ErrorBehavior string `json:"errorBehavior,omitempty"`
}

// Name returns the label if set, otherwise the node ID.
func (n Node) Name() string {
	if n.Data.Label != "" {
		return n.Data.Label
	}
	return n.ID
}

// Edge is a directed dependency between two nodes.
type Edge struct {
	// Source node ID
	Source string `json:"source"`

	// Target node ID
	Target string `json:"target"`

	// SourceHandle tags conditional branches: "true"/"false" edges out of a
	// condition node fire according to the condition result
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// FlowGraph is one published version of a flow's nodes and edges.
type FlowGraph struct {
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
	Version int    `json:"version"`
}

// Flow is the metadata for an externally reachable flow.
type Flow struct {
	// ID of the flow
	ID string `json:"id"`

	// Name of the flow
	Name string `json:"name"`

	// EndpointSlug is the path segment that triggers the flow
	EndpointSlug string `json:"endpoint_slug"`

	// Status is "draft" or "published"
	Status string `json:"status"`

	// APIKeyHash is the bcrypt hash of the flow's API key, empty when no
	// key is required
	APIKeyHash string `json:"api_key_hash,omitempty"`

	// InternalSecret signs internally generated trigger requests
	InternalSecret string `json:"internal_secret,omitempty"`

	// Signature configures inbound webhook verification
	Signature SignatureConfig `json:"signature"`

	// Variables are legacy plain-text variables, overridden by vault secrets
	Variables map[string]string `json:"variables,omitempty"`

	// CreatedAt is when the flow was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the flow was last updated
	UpdatedAt time.Time `json:"updated_at"`
}

// SignatureConfig drives provider-specific webhook signature verification.
type SignatureConfig struct {
	// Provider is one of "none", "generic", "custom", "github", "shopify",
	// "webflow", "stripe"
	Provider string `json:"provider"`

	// Secret is the shared HMAC secret
	Secret string `json:"secret,omitempty"`

	// HeaderName overrides the provider's default signature header
	HeaderName string `json:"header_name,omitempty"`

	// Algorithm overrides the default HMAC algorithm (only sha256 supported)
	Algorithm string `json:"algorithm,omitempty"`

	// TimestampToleranceSeconds bounds the replay window for timestamped
	// schemes (webflow, stripe); 0 means the 300s default
	TimestampToleranceSeconds int `json:"timestamp_tolerance_seconds,omitempty"`
}
