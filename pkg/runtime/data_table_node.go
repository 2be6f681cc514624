package runtime

import (
	"context"
	"fmt"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/storage"
)

// DataTableHandler performs CRUD against the tabular store.
type DataTableHandler struct {
	store storage.DataTableStore
}

// NewDataTableHandler creates a data-table handler.
func NewDataTableHandler(store storage.DataTableStore) *DataTableHandler {
	return &DataTableHandler{store: store}
}

// Execute implements NodeHandler.
func (h *DataTableHandler) Execute(ctx context.Context, node models.Node, inputs map[string]interface{}, ec *ExecutionContext) (map[string]interface{}, error) {
	table, _ := inputs["table"].(string)
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	action, _ := inputs["action"].(string)

	switch action {
	case "create":
		row, ok := inputs["row"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("row must be an object")
		}
		rowID, err := h.store.CreateRow(table, row)
		if err != nil {
			return nil, fmt.Errorf("failed to create row: %w", err)
		}
		return map[string]interface{}{"rowId": rowID}, nil

	case "get":
		query := storage.RowQuery{}
		if filter, ok := inputs["filter"].(map[string]interface{}); ok {
			query.Filter = filter
		}
		if sortBy, ok := inputs["sortBy"].(string); ok {
			query.SortBy = sortBy
		}
		if desc, ok := inputs["sortDesc"].(bool); ok {
			query.SortDesc = desc
		}
		if limit, ok := asFloat(inputs["limit"]); ok {
			query.Limit = int(limit)
		}
		rows, err := h.store.GetRows(table, query)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows: %w", err)
		}
		items := make([]interface{}, len(rows))
		for i, row := range rows {
			items[i] = row
		}
		return map[string]interface{}{"rows": items, "count": len(items)}, nil

	case "update":
		rowID, _ := inputs["rowId"].(string)
		if rowID == "" {
			return nil, fmt.Errorf("rowId is required")
		}
		updates, ok := inputs["row"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("row must be an object")
		}
		if err := h.store.UpdateRow(table, rowID, updates); err != nil {
			return nil, fmt.Errorf("failed to update row: %w", err)
		}
		return map[string]interface{}{"rowId": rowID, "updated": true}, nil

	case "delete":
		rowID, _ := inputs["rowId"].(string)
		if rowID == "" {
			return nil, fmt.Errorf("rowId is required")
		}
		if err := h.store.DeleteRow(table, rowID); err != nil {
			return nil, fmt.Errorf("failed to delete row: %w", err)
		}
		return map[string]interface{}{"rowId": rowID, "deleted": true}, nil

	default:
		return nil, fmt.Errorf("unknown action %q: must be create, get, update or delete", action)
	}
}
