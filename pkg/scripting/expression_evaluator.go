package scripting

import (
	"fmt"
	"strings"

	"github.com/robertkrimen/otto"
)

// JSExpressionEvaluator evaluates ${...} expressions with a JavaScript
// engine. A fresh VM is created per evaluation so expressions cannot leak
// state into each other.
type JSExpressionEvaluator struct{}

// NewJSExpressionEvaluator creates a new JSExpressionEvaluator.
func NewJSExpressionEvaluator() *JSExpressionEvaluator {
	return &JSExpressionEvaluator{}
}

// Evaluate processes an expression string with the given context. Strings
// that are not ${...} expressions are returned unchanged.
func (e *JSExpressionEvaluator) Evaluate(expression string, context map[string]any) (any, error) {
	if !strings.HasPrefix(expression, "${") || !strings.HasSuffix(expression, "}") {
		return expression, nil
	}

	expr := expression[2 : len(expression)-1]

	vm := otto.New()
	for key, value := range context {
		if err := vm.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to bind expression variable %q: %w", key, err)
		}
	}

	result, err := vm.Run(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression '%s': %w", expr, err)
	}

	goValue, err := result.Export()
	if err != nil {
		return nil, fmt.Errorf("failed to convert result to Go value: %w", err)
	}

	return goValue, nil
}

// EvaluateInObject processes all expressions in an object, recursing into
// nested maps and arrays.
func (e *JSExpressionEvaluator) EvaluateInObject(obj map[string]any, context map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(obj))

	for key, value := range obj {
		evaluated, err := e.evaluateValue(value, context)
		if err != nil {
			return nil, err
		}
		result[key] = evaluated
	}

	return result, nil
}

func (e *JSExpressionEvaluator) evaluateValue(value any, context map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.Evaluate(v, context)
	case map[string]any:
		return e.EvaluateInObject(v, context)
	case []any:
		evaluated := make([]any, len(v))
		for i, item := range v {
			itemValue, err := e.evaluateValue(item, context)
			if err != nil {
				return nil, err
			}
			evaluated[i] = itemValue
		}
		return evaluated, nil
	default:
		return value, nil
	}
}
