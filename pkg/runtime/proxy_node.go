package runtime

import (
	"context"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/proxy"
)

// ProxyNodeHandler is the fallback for node types without a native
// handler. It dispatches to the external proxy service by naming
// convention.
type ProxyNodeHandler struct {
	client *proxy.Client
}

// NewProxyNodeHandler creates a proxy fallback handler.
func NewProxyNodeHandler(client *proxy.Client) *ProxyNodeHandler {
	return &ProxyNodeHandler{client: client}
}

// Execute implements NodeHandler.
func (h *ProxyNodeHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	action, _ := inputs["action"].(string)

	data, err := h.client.Invoke(ctx, node.Type, action, inputs)
	if err != nil {
		return nil, err
	}

	if output, ok := data.(map[string]interface{}); ok {
		return output, nil
	}
	return map[string]interface{}{"data": data}, nil
}
