package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/interpolate"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/scripting"
)

// Comparators supported by condition and data-filter nodes.
const (
	OperatorEq          = "eq"
	OperatorNeq         = "neq"
	OperatorGt          = "gt"
	OperatorLt          = "lt"
	OperatorGte         = "gte"
	OperatorLte         = "lte"
	OperatorContains    = "contains"
	OperatorNotContains = "not_contains"
	OperatorExists      = "exists"
	OperatorNotExists   = "not_exists"
)

// ConditionHandler evaluates a comparison against another node's output
// and reports the boolean result. Routing happens through the edges'
// source handles. An "expression" input evaluates a ${...} JavaScript
// expression instead of the fixed comparators.
type ConditionHandler struct {
	expressions scripting.ExpressionEvaluator
}

// NewConditionHandler creates a condition handler.
func NewConditionHandler() *ConditionHandler {
	return &ConditionHandler{expressions: scripting.NewJSExpressionEvaluator()}
}

// Execute implements NodeHandler.
func (h *ConditionHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	if expression, _ := inputs["expression"].(string); expression != "" {
		value, err := h.expressions.Evaluate(expression, ec.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("expression evaluation failed: %w", err)
		}
		result, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expression must evaluate to a boolean, got %T", value)
		}
		return map[string]interface{}{
			"result":     result,
			"expression": expression,
		}, nil
	}

	sourceNodeID, _ := inputs["sourceNodeId"].(string)
	field, _ := inputs["field"].(string)
	operator, _ := inputs["operator"].(string)
	comparison := inputs["value"]

	path := field
	if sourceNodeID != "" {
		path = sourceNodeID
		if field != "" {
			path = sourceNodeID + "." + field
		}
	}

	actual, found := interpolate.Lookup(ec.Snapshot(), path)
	result, err := Compare(operator, actual, found, comparison)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"result":   result,
		"field":    path,
		"operator": operator,
	}, nil
}

// Compare applies one of the fixed comparators. The found flag feeds the
// existence operators; for the others a missing value compares as nil.
func Compare(operator string, actual interface{}, found bool, comparison interface{}) (bool, error) {
	switch operator {
	case OperatorExists:
		return found && actual != nil, nil
	case OperatorNotExists:
		return !found || actual == nil, nil
	case OperatorEq:
		return equalValues(actual, comparison), nil
	case OperatorNeq:
		return !equalValues(actual, comparison), nil
	case OperatorGt, OperatorLt, OperatorGte, OperatorLte:
		left, leftOK := asFloat(actual)
		right, rightOK := asFloat(comparison)
		if !leftOK || !rightOK {
			return false, fmt.Errorf("operator %s requires numeric operands, got %v and %v", operator, actual, comparison)
		}
		switch operator {
		case OperatorGt:
			return left > right, nil
		case OperatorLt:
			return left < right, nil
		case OperatorGte:
			return left >= right, nil
		default:
			return left <= right, nil
		}
	case OperatorContains:
		return containsValue(actual, comparison), nil
	case OperatorNotContains:
		return !containsValue(actual, comparison), nil
	default:
		return false, fmt.Errorf("unknown operator %q", operator)
	}
}

// equalValues compares numerically when both sides are numeric,
// otherwise by string form.
func equalValues(a, b interface{}) bool {
	if left, ok := asFloat(a); ok {
		if right, ok := asFloat(b); ok {
			return left == right
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// containsValue checks substring membership for strings and element
// membership for slices.
func containsValue(haystack, needle interface{}) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case []interface{}:
		for _, item := range h {
			if equalValues(item, needle) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
