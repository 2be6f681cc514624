package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RantirAI/RantirCloud3.2-sub009/pkg/proxy"
)

func TestParseModelJSON(t *testing.T) {
	cases := map[string]string{
		"plain":          `{"name":"alice"}`,
		"json fence":     "```json\n{\"name\":\"alice\"}\n```",
		"bare fence":     "```\n{\"name\":\"alice\"}\n```",
		"unclosed fence": "```json\n{\"name\":\"alice\"}",
	}
	for name, response := range cases {
		parsed, err := ParseModelJSON(response)
		require.NoError(t, err, name)
		obj, ok := parsed.(map[string]interface{})
		require.True(t, ok, name)
		assert.Equal(t, "alice", obj["name"], name)
	}

	_, err := ParseModelJSON("not json at all")
	assert.Error(t, err)
}

func TestAIAgentDelegatesToProxyWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/proxy/ai-agent", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "complete", req["action"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"response": "hello"},
		})
	}))
	defer server.Close()

	handler := NewAIAgentHandler(proxy.NewClient(server.URL))
	output, err := handler.Execute(context.Background(), node("agent", NodeTypeAIAgent), map[string]interface{}{
		"prompt": "say hello",
	}, newTestContext())
	require.NoError(t, err)
	assert.Equal(t, "hello", output["response"])
}

func TestAIAgentWithoutProxyOrKeyFails(t *testing.T) {
	handler := NewAIAgentHandler(proxy.NewClient(""))
	_, err := handler.Execute(context.Background(), node("agent", NodeTypeAIAgent), map[string]interface{}{
		"prompt": "say hello",
	}, newTestContext())
	assert.ErrorIs(t, err, proxy.ErrNotImplemented)
}
