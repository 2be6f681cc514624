package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func TestSetVariableNode(t *testing.T) {
	handler := NewSetVariableHandler()

	output, err := handler.Execute(context.Background(), node("v", NodeTypeSetVariable), map[string]interface{}{
		"name":  "greeting",
		"value": "hello",
	}, newTestContext())
	require.NoError(t, err)
	assert.Equal(t, "greeting", output["name"])
	assert.Equal(t, "hello", output["value"])

	_, err = handler.Execute(context.Background(), node("v", NodeTypeSetVariable), map[string]interface{}{}, newTestContext())
	assert.Error(t, err)
}

func TestSetVariableExpressionValue(t *testing.T) {
	handler := NewSetVariableHandler()
	ec := newTestContext()
	require.NoError(t, ec.Set("order", map[string]interface{}{"amount": float64(40)}))

	output, err := handler.Execute(context.Background(), node("v", NodeTypeSetVariable), map[string]interface{}{
		"name":  "total",
		"value": "${order.amount * 2}",
	}, ec)
	require.NoError(t, err)
	assert.EqualValues(t, 80, output["value"])

	_, err = handler.Execute(context.Background(), node("v", NodeTypeSetVariable), map[string]interface{}{
		"name":  "bad",
		"value": "${syntax error here}",
	}, ec)
	assert.Error(t, err)
}

func TestDataFilterNode(t *testing.T) {
	handler := NewDataFilterHandler()
	items := []interface{}{
		map[string]interface{}{"name": "a", "amount": float64(50)},
		map[string]interface{}{"name": "b", "amount": float64(150)},
		map[string]interface{}{"name": "c", "amount": float64(200)},
	}

	output, err := handler.Execute(context.Background(), node("f", NodeTypeDataFilter), map[string]interface{}{
		"items":    items,
		"field":    "amount",
		"operator": OperatorGte,
		"value":    float64(150),
	}, newTestContext())
	require.NoError(t, err)
	assert.Equal(t, 2, output["count"])

	filtered := output["items"].([]interface{})
	require.Len(t, filtered, 2)
	assert.Equal(t, "b", filtered[0].(map[string]interface{})["name"])
}

func TestDataFilterNodeRejectsNonArray(t *testing.T) {
	handler := NewDataFilterHandler()
	_, err := handler.Execute(context.Background(), node("f", NodeTypeDataFilter), map[string]interface{}{
		"items": "not an array",
	}, newTestContext())
	assert.Error(t, err)
}

func TestResponseNodeDefaults(t *testing.T) {
	handler := NewResponseHandler()

	output, err := handler.Execute(context.Background(), node("r", NodeTypeResponse), map[string]interface{}{
		"body": map[string]interface{}{"ok": true},
	}, newTestContext())
	require.NoError(t, err)
	assert.Equal(t, 200, output["statusCode"])
	assert.Equal(t, "application/json", output["contentType"])
}

func TestResponseNodeCustomStatusAndHeaders(t *testing.T) {
	handler := NewResponseHandler()

	output, err := handler.Execute(context.Background(), node("r", NodeTypeResponse), map[string]interface{}{
		"statusCode":  float64(201),
		"contentType": "text/plain",
		"body":        "created",
		"headers":     map[string]interface{}{"X-Custom": "yes"},
	}, newTestContext())
	require.NoError(t, err)
	assert.Equal(t, 201, output["statusCode"])
	assert.Equal(t, "text/plain", output["contentType"])
	assert.Equal(t, "yes", output["headers"].(map[string]interface{})["X-Custom"])
}

func TestResponseNodeRejectsBadStatus(t *testing.T) {
	handler := NewResponseHandler()
	_, err := handler.Execute(context.Background(), node("r", NodeTypeResponse), map[string]interface{}{
		"statusCode": float64(42),
	}, newTestContext())
	assert.Error(t, err)
}

func TestLoggerNodePreservesObjectShape(t *testing.T) {
	handler := NewLoggerHandler()
	ec := newTestContext()
	require.NoError(t, ec.Set("order", map[string]interface{}{
		"customer": map[string]interface{}{"name": "alice", "tier": "gold"},
	}))

	loggerNode := models.Node{
		ID:   "log",
		Type: NodeTypeLogger,
		Data: models.NodeData{
			Label: "audit",
			Inputs: map[string]interface{}{
				"message":    "order received",
				"level":      "warning",
				"dataSource": "{{order.customer}}",
			},
		},
	}

	output, err := handler.Execute(context.Background(), loggerNode, map[string]interface{}{
		"message": "order received",
		"level":   "warning",
	}, ec)
	require.NoError(t, err)
	assert.Equal(t, true, output["logged"])

	// The data source keeps its object shape instead of a stringified form.
	data := output["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["name"])

	logs := ec.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogTypeWarning, logs[0].Type)
	assert.Equal(t, "alice", logs[0].Data["name"])
}

func TestLoggerNodeScalarDataSource(t *testing.T) {
	handler := NewLoggerHandler()
	ec := newTestContext()
	require.NoError(t, ec.Set("order", map[string]interface{}{"amount": float64(99)}))

	loggerNode := models.Node{
		ID:   "log",
		Type: NodeTypeLogger,
		Data: models.NodeData{
			Inputs: map[string]interface{}{"dataSource": "{{order.amount}}"},
		},
	}

	output, err := handler.Execute(context.Background(), loggerNode, map[string]interface{}{}, ec)
	require.NoError(t, err)
	data := output["data"].(map[string]interface{})
	assert.EqualValues(t, 99, data["value"])
}
