package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/models"
)

func TestLogHubBroadcastAndClose(t *testing.T) {
	hub := NewLogHub()
	ch := hub.Subscribe("exec-1")

	sink := hub.SinkFor("exec-1")
	sink(models.ExecutionLogEntry{NodeID: "a", Message: "one"})
	sink(models.ExecutionLogEntry{NodeID: "a", Message: "two"})

	assert.Equal(t, "one", (<-ch).Message)
	assert.Equal(t, "two", (<-ch).Message)

	hub.Close("exec-1")
	_, open := <-ch
	assert.False(t, open)

	// Broadcasting after close is a no-op.
	sink(models.ExecutionLogEntry{NodeID: "a", Message: "three"})
}

func TestLogHubDropsWhenWatcherIsSlow(t *testing.T) {
	hub := NewLogHub()
	ch := hub.Subscribe("exec-1")
	sink := hub.SinkFor("exec-1")

	for i := 0; i < 100; i++ {
		sink(models.ExecutionLogEntry{NodeID: "a", Message: "spam"})
	}
	// The buffered channel capped the backlog instead of blocking.
	assert.LessOrEqual(t, len(ch), 64)
}

func TestStreamExecutionReplaysPersistedLogs(t *testing.T) {
	ts := newTestStack(t)
	require.NoError(t, ts.executions.SaveExecutionLogs("exec-9", []models.ExecutionLogEntry{
		{NodeID: "a", Type: models.LogTypeInfo, Message: "started", Timestamp: time.Now()},
	}))

	server := httptest.NewServer(ts.server.Router())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/executions/exec-9/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{})
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var entry models.ExecutionLogEntry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "started", entry.Message)
}
