package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPHandler() *HTTPRequestHandler {
	return NewHTTPRequestHandler(&http.Client{Timeout: 5 * time.Second})
}

func TestHTTPRequestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["name"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	output, err := newHTTPHandler().Execute(context.Background(), node("http", NodeTypeHTTPRequest), map[string]interface{}{
		"url":         server.URL,
		"method":      "post",
		"queryParams": map[string]interface{}{"page": 1},
		"headers":     map[string]interface{}{"Authorization": "token"},
		"body":        map[string]interface{}{"name": "alice"},
	}, newTestContext())

	require.NoError(t, err)
	assert.Equal(t, 200, output["status"])
	body := output["body"].(map[string]interface{})
	assert.EqualValues(t, 7, body["id"])
	headers := output["headers"].(map[string]interface{})
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestHTTPRequestNonJSONBodyKeptRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer server.Close()

	output, err := newHTTPHandler().Execute(context.Background(), node("http", NodeTypeHTTPRequest), map[string]interface{}{
		"url": server.URL,
	}, newTestContext())

	require.NoError(t, err)
	assert.Equal(t, "plain text", output["body"])
}

func TestHTTPRequestNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := newHTTPHandler().Execute(context.Background(), node("http", NodeTypeHTTPRequest), map[string]interface{}{
		"url": server.URL,
	}, newTestContext())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestHTTPRequestInvalidURLFailsFast(t *testing.T) {
	cases := []string{"", "not a url", "ftp://example.com/file", "http://"}
	for _, rawURL := range cases {
		_, err := newHTTPHandler().Execute(context.Background(), node("http", NodeTypeHTTPRequest), map[string]interface{}{
			"url": rawURL,
		}, newTestContext())
		assert.Error(t, err, rawURL)
	}
}

func TestHTTPRequestHonorsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newHTTPHandler().Execute(ctx, node("http", NodeTypeHTTPRequest), map[string]interface{}{
		"url": server.URL,
	}, newTestContext())
	assert.Error(t, err)
}
