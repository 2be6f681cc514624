package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

func TestDataTableNodeCRUD(t *testing.T) {
	store := storage.NewMemoryDataTableStore()
	handler := NewDataTableHandler(store)
	ec := newTestContext()
	tableNode := node("table", NodeTypeDataTable)

	created, err := handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "create",
		"table":  "orders",
		"row":    map[string]interface{}{"status": "open", "amount": float64(120)},
	}, ec)
	require.NoError(t, err)
	rowID := created["rowId"].(string)
	require.NotEmpty(t, rowID)

	got, err := handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "get",
		"table":  "orders",
		"filter": map[string]interface{}{"status": "open"},
	}, ec)
	require.NoError(t, err)
	assert.Equal(t, 1, got["count"])

	_, err = handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "update",
		"table":  "orders",
		"rowId":  rowID,
		"row":    map[string]interface{}{"status": "closed"},
	}, ec)
	require.NoError(t, err)

	deleted, err := handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "delete",
		"table":  "orders",
		"rowId":  rowID,
	}, ec)
	require.NoError(t, err)
	assert.Equal(t, true, deleted["deleted"])
}

func TestDataTableNodeValidation(t *testing.T) {
	handler := NewDataTableHandler(storage.NewMemoryDataTableStore())
	ec := newTestContext()
	tableNode := node("table", NodeTypeDataTable)

	_, err := handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "create",
	}, ec)
	assert.Error(t, err)

	_, err = handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "truncate",
		"table":  "orders",
	}, ec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")

	_, err = handler.Execute(context.Background(), tableNode, map[string]interface{}{
		"action": "update",
		"table":  "orders",
	}, ec)
	assert.Error(t, err)
}
