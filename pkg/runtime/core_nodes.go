package runtime

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/interpolate"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/scripting"
)

// SetVariableHandler publishes a named value into the context under its
// own node id, for downstream interpolation. String values in the
// ${...} form are evaluated as JavaScript expressions.
type SetVariableHandler struct {
	expressions scripting.ExpressionEvaluator
}

// NewSetVariableHandler creates a set-variable handler.
func NewSetVariableHandler() *SetVariableHandler {
	return &SetVariableHandler{expressions: scripting.NewJSExpressionEvaluator()}
}

// Execute implements NodeHandler.
func (h *SetVariableHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	name, _ := inputs["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("variable name is required")
	}

	value := inputs["value"]
	if expr, ok := value.(string); ok {
		evaluated, err := h.expressions.Evaluate(expr, ec.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed: %w", err)
		}
		value = evaluated
	}

	return map[string]interface{}{
		"name":  name,
		"value": value,
	}, nil
}

// DataFilterHandler filters an array of objects with the shared
// comparator set.
type DataFilterHandler struct{}

// NewDataFilterHandler creates a data-filter handler.
func NewDataFilterHandler() *DataFilterHandler {
	return &DataFilterHandler{}
}

// Execute implements NodeHandler.
func (h *DataFilterHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	items, ok := inputs["items"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("items must be an array")
	}
	field, _ := inputs["field"].(string)
	operator, _ := inputs["operator"].(string)
	if operator == "" {
		operator = OperatorEq
	}
	comparison := inputs["value"]

	filtered := make([]interface{}, 0, len(items))
	for _, item := range items {
		actual := item
		found := true
		if field != "" {
			obj, isMap := item.(map[string]interface{})
			if !isMap {
				continue
			}
			actual, found = interpolate.Lookup(obj, field)
		}
		match, err := Compare(operator, actual, found, comparison)
		if err != nil {
			return nil, err
		}
		if match {
			filtered = append(filtered, item)
		}
	}

	return map[string]interface{}{
		"items": filtered,
		"count": len(filtered),
	}, nil
}

// ResponseHandler assembles the flow's terminal HTTP response.
type ResponseHandler struct{}

// NewResponseHandler creates a response handler.
func NewResponseHandler() *ResponseHandler {
	return &ResponseHandler{}
}

// Execute implements NodeHandler.
func (h *ResponseHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	statusCode := 200
	if code, ok := asFloat(inputs["statusCode"]); ok {
		statusCode = int(code)
	}
	if statusCode < 100 || statusCode > 599 {
		return nil, fmt.Errorf("invalid status code %d", statusCode)
	}

	contentType, _ := inputs["contentType"].(string)
	if contentType == "" {
		contentType = "application/json"
	}

	headers := map[string]interface{}{}
	if custom, ok := inputs["headers"].(map[string]interface{}); ok {
		headers = custom
	}

	return map[string]interface{}{
		"statusCode":  statusCode,
		"body":        inputs["body"],
		"contentType": contentType,
		"headers":     headers,
	}, nil
}

var dataSourcePattern = regexp.MustCompile(`^\{\{\s*(.+?)\s*\}\}$`)

// LoggerHandler appends a structured log entry. Its data source template
// is resolved shape-preserving, so objects stay objects instead of being
// stringified by the generic resolver.
type LoggerHandler struct{}

// NewLoggerHandler creates a logger handler.
func NewLoggerHandler() *LoggerHandler {
	return &LoggerHandler{}
}

// Execute implements NodeHandler.
func (h *LoggerHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	message, _ := inputs["message"].(string)
	level, _ := inputs["level"].(string)

	logType := models.LogTypeInfo
	switch strings.ToLower(level) {
	case "warning", "warn":
		logType = models.LogTypeWarning
	case "error":
		logType = models.LogTypeError
	}

	var data map[string]interface{}
	if node.Data.Inputs != nil {
		// Resolve the raw (uninterpolated) template against the context
		// to preserve object shape.
		if source, ok := node.Data.Inputs["dataSource"].(string); ok {
			if match := dataSourcePattern.FindStringSubmatch(source); match != nil {
				if value, found := interpolate.Lookup(ec.Snapshot(), match[1]); found {
					if obj, isMap := value.(map[string]interface{}); isMap {
						data = obj
					} else {
						data = map[string]interface{}{"value": value}
					}
				}
			}
		}
	}

	ec.Log(models.ExecutionLogEntry{
		NodeID:   node.ID,
		NodeName: node.Name(),
		Type:     logType,
		Message:  message,
		Data:     data,
	})

	output := map[string]interface{}{
		"logged":  true,
		"message": message,
	}
	if data != nil {
		output["data"] = data
	}
	return output, nil
}
