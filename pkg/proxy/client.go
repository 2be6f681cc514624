// Package proxy dispatches node types without a native handler to an
// external execution service over HTTP.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotImplemented is returned when the proxy service has no executor
// for the requested node type.
var ErrNotImplemented = fmt.Errorf("node type not implemented")

// Client invokes remote node executors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a proxy client rooted at baseURL. An empty baseURL
// yields a client that rejects every invocation.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// invokeResponse is the wire shape of a proxy invocation result. Exactly
// one of Data or Error is populated.
type invokeResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Invoke executes a node remotely. The node type is normalized to a proxy
// name by stripping technical prefixes, the action and resolved inputs
// travel in the request body.
func (c *Client) Invoke(ctx context.Context, nodeType, action string, inputs map[string]interface{}) (interface{}, error) {
	if c.baseURL == "" {
		return nil, ErrNotImplemented
	}

	payload := map[string]interface{}{
		"action": action,
		"inputs": inputs,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proxy request: %w", err)
	}

	url := fmt.Sprintf("%s/api/proxy/%s", c.baseURL, ProxyName(nodeType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotImplemented
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read proxy response: %w", err)
	}

	var result invokeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("invalid proxy response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s", cleanErrorMessage(result.Error))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("proxy returned status %d", resp.StatusCode)
	}
	return result.Data, nil
}

// ProxyName maps a node type to the name the proxy service knows it by.
func ProxyName(nodeType string) string {
	return strings.ToLower(strings.TrimSpace(nodeType))
}

// cleanErrorMessage strips technical prefixes from proxy error messages so
// flow authors see the cause, not the plumbing.
func cleanErrorMessage(message string) string {
	cleaned := strings.TrimSpace(message)
	for _, prefix := range []string{"Error:", "error:", "RuntimeError:", "InternalError:"} {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
	}
	// Bracketed executor tags, e.g. "[slack-executor] channel not found".
	if strings.HasPrefix(cleaned, "[") {
		if end := strings.Index(cleaned, "]"); end > 0 {
			cleaned = strings.TrimSpace(cleaned[end+1:])
		}
	}
	if cleaned == "" {
		return message
	}
	return cleaned
}
