package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func TestMemoryFlowStoreRoundTrip(t *testing.T) {
	store := NewMemoryFlowStore()
	flow := models.Flow{
		ID:           "flow-1",
		Name:         "Order intake",
		EndpointSlug: "order-intake",
		Status:       models.FlowStatusDraft,
		CreatedAt:    time.Now(),
	}

	require.NoError(t, store.SaveFlow(flow))

	got, err := store.GetFlow("flow-1")
	require.NoError(t, err)
	assert.Equal(t, "Order intake", got.Name)

	bySlug, err := store.GetFlowBySlug("order-intake")
	require.NoError(t, err)
	assert.Equal(t, "flow-1", bySlug.ID)

	_, err = store.GetFlowBySlug("nope")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestMemoryFlowStoreGraphVersions(t *testing.T) {
	store := NewMemoryFlowStore()
	require.NoError(t, store.SaveFlow(models.Flow{ID: "flow-1"}))

	_, err := store.GetLatestGraph("flow-1")
	assert.ErrorIs(t, err, ErrGraphNotFound)

	graph := models.FlowGraph{Nodes: []models.Node{{ID: "a", Type: "response"}}}
	require.NoError(t, store.SaveGraphVersion("flow-1", graph))
	require.NoError(t, store.SaveGraphVersion("flow-1", graph))

	latest, err := store.GetLatestGraph("flow-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	versions, err := store.ListGraphVersions("flow-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestMemorySecretStore(t *testing.T) {
	store := NewMemorySecretStore()

	require.NoError(t, store.SaveSecret("flow-1", "API_KEY", []byte("ciphertext")))

	value, err := store.GetSecret("flow-1", "API_KEY")
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), value)

	all, err := store.ListSecrets("flow-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteSecret("flow-1", "API_KEY"))
	_, err = store.GetSecret("flow-1", "API_KEY")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMemoryExecutionStore(t *testing.T) {
	store := NewMemoryExecutionStore()
	record := models.ExecutionRecord{
		ID:        "exec-1",
		FlowID:    "flow-1",
		Status:    "running",
		StartTime: time.Now(),
	}

	require.NoError(t, store.SaveExecution(record))

	record.Status = "completed"
	require.NoError(t, store.UpdateExecution(record))

	got, err := store.GetExecution("exec-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)

	entries := []models.ExecutionLogEntry{
		{NodeID: "a", Type: models.LogTypeInfo, Message: "Executing node", Timestamp: time.Now()},
		{NodeID: "a", Type: models.LogTypeSuccess, Message: "done", Timestamp: time.Now()},
	}
	require.NoError(t, store.SaveExecutionLogs("exec-1", entries))

	logs, err := store.GetExecutionLogs("exec-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.LogTypeInfo, logs[0].Type)
}

func TestMemoryDataTableStoreQuery(t *testing.T) {
	store := NewMemoryDataTableStore()

	_, err := store.CreateRow("orders", map[string]interface{}{"amount": 50, "status": "open"})
	require.NoError(t, err)
	id2, err := store.CreateRow("orders", map[string]interface{}{"amount": 150, "status": "open"})
	require.NoError(t, err)
	_, err = store.CreateRow("orders", map[string]interface{}{"amount": 99, "status": "closed"})
	require.NoError(t, err)

	rows, err := store.GetRows("orders", RowQuery{
		Filter:   map[string]interface{}{"status": "open"},
		SortBy:   "amount",
		SortDesc: true,
		Limit:    1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 150, rows[0]["amount"])

	require.NoError(t, store.UpdateRow("orders", id2, map[string]interface{}{"status": "closed"}))
	rows, err = store.GetRows("orders", RowQuery{Filter: map[string]interface{}{"status": "closed"}})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NoError(t, store.DeleteRow("orders", id2))
	assert.ErrorIs(t, store.DeleteRow("orders", id2), ErrRowNotFound)
}
