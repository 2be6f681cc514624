package runtime

import (
	"context"
	"fmt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/scripting"
)

// WebhookTriggerHandler echoes the inbound request into its output and
// optionally runs a user-supplied transform script over it.
type WebhookTriggerHandler struct {
	scripts scripting.ScriptEngine
}

// NewWebhookTriggerHandler creates a webhook trigger handler.
func NewWebhookTriggerHandler(scripts scripting.ScriptEngine) *WebhookTriggerHandler {
	return &WebhookTriggerHandler{scripts: scripts}
}

// Execute implements NodeHandler.
func (h *WebhookTriggerHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	request := ec.Request()

	output := map[string]interface{}{
		"body":    request["body"],
		"headers": request["headers"],
		"query":   request["query"],
		"method":  request["method"],
	}

	transform, _ := inputs["transform"].(string)
	if transform == "" {
		return output, nil
	}

	globals := map[string]interface{}{
		"body":    request["body"],
		"headers": request["headers"],
		"query":   request["query"],
		"method":  request["method"],
	}
	transformed, err := h.scripts.RunScript(ctx, transform, globals)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}
	output["transformed"] = transformed
	return output, nil
}
