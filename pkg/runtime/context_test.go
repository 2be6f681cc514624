package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func TestContextWriteOnce(t *testing.T) {
	ec := newTestContext()

	require.NoError(t, ec.Set("a", map[string]interface{}{"value": 1}))
	err := ec.Set("a", map[string]interface{}{"value": 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already written")
}

func TestContextRejectsReservedKeys(t *testing.T) {
	ec := newTestContext()

	for _, key := range []string{ContextKeyRequest, ContextKeyEnv, ContextKeyVariables, ContextKeyFlowID, ContextKeyExecutionID} {
		assert.Error(t, ec.Set(key, map[string]interface{}{}), key)
	}
}

func TestContextStoresClone(t *testing.T) {
	ec := newTestContext()
	output := map[string]interface{}{"nested": map[string]interface{}{"value": 1}}

	require.NoError(t, ec.Set("a", output))
	output["nested"].(map[string]interface{})["value"] = 99

	stored, ok := ec.Get("a")
	require.True(t, ok)
	nested := stored.(map[string]interface{})["nested"].(map[string]interface{})
	assert.EqualValues(t, 1, nested["value"])
}

func TestContextReservedValues(t *testing.T) {
	ec := NewExecutionContext("flow-9", "exec-9",
		map[string]interface{}{"method": "POST"},
		map[string]interface{}{"API_KEY": "k"})

	assert.Equal(t, "exec-9", ec.ExecutionID())
	assert.Equal(t, "POST", ec.Request()["method"])

	flowID, _ := ec.Get(ContextKeyFlowID)
	assert.Equal(t, "flow-9", flowID)

	env, _ := ec.Get(ContextKeyEnv)
	assert.Equal(t, "k", env.(map[string]interface{})["API_KEY"])
}

func TestContextLogSink(t *testing.T) {
	ec := newTestContext()
	var streamed []models.ExecutionLogEntry
	ec.SetLogSink(func(entry models.ExecutionLogEntry) {
		streamed = append(streamed, entry)
	})

	ec.Log(models.ExecutionLogEntry{NodeID: "a", Type: models.LogTypeInfo, Message: "hi"})

	require.Len(t, streamed, 1)
	assert.False(t, streamed[0].Timestamp.IsZero())
	assert.Len(t, ec.Logs(), 1)
}
