package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/proxy/slack", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "send_message", payload["action"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"ok": true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	data, err := client.Invoke(context.Background(), "Slack", "send_message", map[string]interface{}{"channel": "#ops"})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, data)
}

func TestInvokeNotFoundTranslated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Invoke(context.Background(), "unknown-thing", "", nil)

	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestInvokeStructuredErrorStripped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "Error: [slack-executor] channel not found",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Invoke(context.Background(), "slack", "send_message", nil)

	require.Error(t, err)
	assert.Equal(t, "channel not found", err.Error())
}

func TestInvokeWithoutBaseURL(t *testing.T) {
	client := NewClient("")

	_, err := client.Invoke(context.Background(), "slack", "send_message", nil)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestCleanErrorMessageKeepsPlainMessages(t *testing.T) {
	assert.Equal(t, "timeout talking to upstream", cleanErrorMessage("timeout talking to upstream"))
	assert.Equal(t, "Error:", cleanErrorMessage("Error:"))
}
