// Package runtime contains the flow execution engine: the work-queue
// scheduler, the per-execution context and the built-in node handlers.
package runtime

import (
	"context"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

// Built-in node types.
const (
	NodeTypeWebhookTrigger = "webhook-trigger"
	NodeTypeHTTPRequest    = "http-request"
	NodeTypeCondition      = "condition"
	NodeTypeSetVariable    = "set-variable"
	NodeTypeDataFilter     = "data-filter"
	NodeTypeCodeExecution  = "code-execution"
	NodeTypeAIAgent        = "ai-agent"
	NodeTypeResponse       = "response"
	NodeTypeLogger         = "logger"
	NodeTypeDataTable      = "data-table"
)

// NodeHandler executes a single node. Inputs arrive already resolved
// through variable interpolation. Expected failure modes (malformed
// input, downstream HTTP failure) are returned as errors, never panics.
type NodeHandler interface {
	Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error)
}

// NodeHandlerFunc adapts a function to the NodeHandler interface.
type NodeHandlerFunc func(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error)

// Execute implements NodeHandler.
func (f NodeHandlerFunc) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	return f(ctx, node, inputs, ec)
}
