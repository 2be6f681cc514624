package runtime

import (
	"context"
	"fmt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/scripting"
)

// CodeExecutionHandler runs an inline script in a sandboxed interpreter
// with the node's resolved inputs and the execution context in scope.
type CodeExecutionHandler struct {
	scripts scripting.ScriptEngine
}

// NewCodeExecutionHandler creates a code-execution handler.
func NewCodeExecutionHandler(scripts scripting.ScriptEngine) *CodeExecutionHandler {
	return &CodeExecutionHandler{scripts: scripts}
}

// Execute implements NodeHandler.
func (h *CodeExecutionHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	code, _ := inputs["code"].(string)
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}

	globals := map[string]interface{}{
		"inputs":  inputs,
		"context": ec.Snapshot(),
	}
	value, err := h.scripts.RunScript(ctx, code, globals)
	if err != nil {
		return nil, fmt.Errorf("code execution failed: %w", err)
	}

	if output, ok := value.(map[string]interface{}); ok {
		return output, nil
	}
	return map[string]interface{}{"result": value}, nil
}
